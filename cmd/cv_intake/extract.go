package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/cv-intake/internal/extraction"
	"github.com/jonathan/cv-intake/internal/observability"
	"github.com/jonathan/cv-intake/internal/textextract"
	"github.com/jonathan/cv-intake/internal/types"
	"github.com/jonathan/cv-intake/internal/validation"
)

var (
	extractNoLLM    bool
	extractShowText bool
	messageText     string
	messageNoLLM    bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract a candidate record from a PDF or DOCX resume",
	Long:  "Read a resume file, extract the candidate record and validate it without storing anything. Prints JSON, or summary boxes with --verbose.",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

var parseMessageCmd = &cobra.Command{
	Use:   "parse-message",
	Short: "Extract a candidate record from a chat message",
	Long:  "Parse candidate details typed as a chat message, from --text or standard input, the way the webhook does.",
	Args:  cobra.NoArgs,
	RunE:  runParseMessage,
}

func init() {
	extractCmd.Flags().BoolVar(&extractNoLLM, "no-llm", false, "Skip the remote extraction call")
	extractCmd.Flags().BoolVar(&extractShowText, "show-text", false, "Include the extracted document text in the output")
	parseMessageCmd.Flags().StringVarP(&messageText, "text", "t", "", "Message text (reads standard input when empty)")
	parseMessageCmd.Flags().BoolVar(&messageNoLLM, "no-llm", false, "Skip the remote extraction call")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(parseMessageCmd)
}

// extractReport is the JSON output of extract and parse-message.
type extractReport struct {
	Strategy   string                `json:"strategy"`
	Record     types.CandidateRecord `json:"record"`
	Validation validation.Result     `json:"validation"`
	Text       string                `json:"text,omitempty"`
}

func runExtract(cmd *cobra.Command, args []string) error {
	text, err := textextract.New(cfg.Server.MaxAttachmentBytes).ExtractFile(args[0])
	if err != nil {
		return err
	}

	ctx := context.Background()
	documents, closeLLM, err := newDocumentExtractor(ctx, cfg, !extractNoLLM)
	if err != nil {
		return err
	}
	defer closeLLM()

	report, err := buildReport(ctx, documents, text)
	if err != nil {
		return err
	}
	if extractShowText {
		report.Text = text
	}
	return writeReport(cmd.OutOrStdout(), report)
}

func runParseMessage(cmd *cobra.Command, _ []string) error {
	text := messageText
	if text == "" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read standard input: %w", err)
		}
		text = string(raw)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("message text is empty")
	}

	ctx := context.Background()
	documents, closeLLM, err := newDocumentExtractor(ctx, cfg, !messageNoLLM)
	if err != nil {
		return err
	}
	defer closeLLM()

	report, err := buildReport(ctx, extraction.NewChatExtractor(documents), text)
	if err != nil {
		return err
	}
	return writeReport(cmd.OutOrStdout(), report)
}

func buildReport(ctx context.Context, ex *extraction.Extractor, text string) (*extractReport, error) {
	result, err := ex.Extract(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to extract candidate: %w", err)
	}
	return &extractReport{
		Strategy:   result.Strategy,
		Record:     result.Record,
		Validation: validation.Validate(result.Record),
	}, nil
}

func writeReport(out io.Writer, report *extractReport) error {
	if cfg.Verbose {
		p := observability.NewPrinter(out)
		p.PrintCandidate(&report.Record, report.Strategy)
		p.PrintValidation(&report.Validation)
		return nil
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
