package extraction

import (
	"context"
	"time"

	"github.com/jonathan/cv-intake/internal/llm"
	"github.com/jonathan/cv-intake/internal/types"
)

// fakeClient is an llm.Client returning a canned response.
type fakeClient struct {
	response string
	err      error
	delay    time.Duration

	calls   int
	prompt  string
	options llm.GenerateOptions
}

func (f *fakeClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier, opts ...llm.Option) (string, error) {
	return f.GenerateJSON(ctx, prompt, tier, opts...)
}

func (f *fakeClient) GenerateJSON(ctx context.Context, prompt string, _ llm.ModelTier, opts ...llm.Option) (string, error) {
	f.calls++
	f.prompt = prompt
	f.options = llm.GenerateOptions{}
	for _, opt := range opts {
		opt(&f.options)
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.response, f.err
}

func (f *fakeClient) GetModel(llm.ModelTier) string { return "fake-model" }

func (f *fakeClient) Close() error { return nil }

// stubStrategy returns a fixed record or error.
type stubStrategy struct {
	name  string
	rec   types.CandidateRecord
	err   error
	calls int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Extract(context.Context, string) (types.CandidateRecord, error) {
	s.calls++
	return s.rec, s.err
}
