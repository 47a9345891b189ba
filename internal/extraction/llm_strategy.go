package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/jonathan/cv-intake/internal/llm"
	"github.com/jonathan/cv-intake/internal/normalize"
	"github.com/jonathan/cv-intake/internal/prompts"
	"github.com/jonathan/cv-intake/internal/schemas"
	"github.com/jonathan/cv-intake/internal/types"
)

// LLMOptions tunes the remote extraction call.
type LLMOptions struct {
	MaxInputChars      int
	Temperature        float32
	MaxOutputTokens    int32
	Timeout            time.Duration
	ExperienceMaxChars int
	Tier               llm.ModelTier
}

// DefaultLLMOptions returns the working defaults for resume extraction.
func DefaultLLMOptions() LLMOptions {
	return LLMOptions{
		MaxInputChars:      8000,
		Temperature:        llm.DefaultTemperature,
		MaxOutputTokens:    2000,
		Timeout:            30 * time.Second,
		ExperienceMaxChars: normalize.DefaultExperienceMaxChars,
		Tier:               llm.TierStandard,
	}
}

// LLMStrategy asks the remote model for the seven fields as one JSON object.
// It makes a single attempt; any failure goes to the next strategy.
type LLMStrategy struct {
	client llm.Client
	opts   LLMOptions
}

// NewLLMStrategy wraps client. Zero-valued options fall back to the defaults.
func NewLLMStrategy(client llm.Client, opts LLMOptions) *LLMStrategy {
	def := DefaultLLMOptions()
	if opts.MaxInputChars <= 0 {
		opts.MaxInputChars = def.MaxInputChars
	}
	if opts.Temperature <= 0 {
		opts.Temperature = def.Temperature
	}
	if opts.MaxOutputTokens <= 0 {
		opts.MaxOutputTokens = def.MaxOutputTokens
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.ExperienceMaxChars <= 0 {
		opts.ExperienceMaxChars = def.ExperienceMaxChars
	}
	if opts.Tier == "" {
		opts.Tier = def.Tier
	}
	return &LLMStrategy{client: client, opts: opts}
}

func (s *LLMStrategy) Name() string { return "llm" }

// Extract implements Strategy.
func (s *LLMStrategy) Extract(ctx context.Context, text string) (types.CandidateRecord, error) {
	if s.client == nil {
		return types.CandidateRecord{}, &RemoteCallError{Message: "no LLM client configured"}
	}

	system, err := prompts.Render("extraction.json", "candidate-system", map[string]string{
		"Missing": types.NotAvailable,
	})
	if err != nil {
		return types.CandidateRecord{}, &RemoteCallError{Message: "failed to load extraction prompt", Cause: err}
	}
	contract := llm.BuildExtractionPrompt(llm.CandidateRecordSchema(types.NotAvailable), truncateRunes(text, s.opts.MaxInputChars))
	user, err := prompts.Render("extraction.json", "candidate-user", map[string]string{
		"Body": contract,
	})
	if err != nil {
		return types.CandidateRecord{}, &RemoteCallError{Message: "failed to load extraction prompt", Cause: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	start := time.Now()
	response, err := s.client.GenerateJSON(callCtx, user, s.opts.Tier,
		llm.WithTemperature(s.opts.Temperature),
		llm.WithMaxOutputTokens(s.opts.MaxOutputTokens),
		llm.WithSystemInstruction(system),
	)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return types.CandidateRecord{}, &RemoteCallError{Message: "extraction request timed out after " + s.opts.Timeout.String(), Cause: err}
		}
		return types.CandidateRecord{}, &RemoteCallError{Message: "extraction request failed", Cause: err}
	}
	log.Printf("[extraction] %s responded in %s (%d chars)", s.client.GetModel(s.opts.Tier), time.Since(start).Round(time.Millisecond), len(response))

	rec, err := parseRecordJSON(llm.CleanJSONBlock(response))
	if err != nil {
		return types.CandidateRecord{}, err
	}

	rec = normalize.Record(rec)
	rec.Experience = normalize.TruncateExperience(rec.Experience, s.opts.ExperienceMaxChars)
	return rec, nil
}

// rawRecord accepts null for any field.
type rawRecord struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	Location   *string `json:"location"`
	Skills     *string `json:"skills"`
	Experience *string `json:"experience"`
	Education  *string `json:"education"`
}

// parseRecordJSON strictly parses a single JSON object with exactly the seven
// candidate fields.
func parseRecordJSON(doc string) (types.CandidateRecord, error) {
	if err := schemas.ValidateCandidateJSON([]byte(doc)); err != nil {
		return types.CandidateRecord{}, &ParseError{Message: "response does not match the candidate record contract", Cause: err}
	}

	var raw rawRecord
	if err := json.Unmarshal([]byte(doc), &raw); err != nil {
		return types.CandidateRecord{}, &ParseError{Message: "failed to decode candidate record", Cause: err}
	}

	return types.CandidateRecord{
		Name:       deref(raw.Name),
		Email:      deref(raw.Email),
		Phone:      deref(raw.Phone),
		Location:   deref(raw.Location),
		Skills:     deref(raw.Skills),
		Experience: deref(raw.Experience),
		Education:  deref(raw.Education),
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return types.NotAvailable
	}
	return *s
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
