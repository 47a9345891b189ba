package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/cv-intake/internal/observability"
	"github.com/jonathan/cv-intake/internal/store"
)

var (
	statsList  int
	statsEmail string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the candidate store",
	Long:  "Print candidate totals by status and contact channel. --list shows the most recent rows and --email looks up one candidate.",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsList, "list", 0, "Also list the N most recent candidates")
	statsCmd.Flags().StringVar(&statsEmail, "email", "", "Look up the candidate with this email")
	rootCmd.AddCommand(statsCmd)
}

// statsReport is the JSON output of stats.
type statsReport struct {
	Stats      *store.Stats            `json:"stats,omitempty"`
	Candidates []store.StoredCandidate `json:"candidates,omitempty"`
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	backend, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	report, err := collectStats(ctx, store.NewRegistry(backend), statsList, statsEmail)
	if err != nil {
		return err
	}
	return writeStats(cmd.OutOrStdout(), report)
}

func collectStats(ctx context.Context, reg *store.Registry, list int, email string) (*statsReport, error) {
	if email != "" {
		c, err := reg.SearchByEmail(ctx, email)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("no candidate with email %s", email)
		}
		if err != nil {
			return nil, err
		}
		return &statsReport{Candidates: []store.StoredCandidate{*c}}, nil
	}

	st, err := reg.Stats(ctx)
	if err != nil {
		return nil, err
	}
	report := &statsReport{Stats: st}
	if list > 0 {
		if report.Candidates, err = reg.List(ctx, list); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func writeStats(out io.Writer, report *statsReport) error {
	if cfg.Verbose {
		p := observability.NewPrinter(out)
		if report.Stats != nil {
			p.PrintStats(report.Stats)
		}
		if report.Candidates != nil || report.Stats == nil {
			p.PrintCandidateList(report.Candidates)
		}
		return nil
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
