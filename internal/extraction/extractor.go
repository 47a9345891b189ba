// Package extraction turns raw resume or chat text into a CandidateRecord by
// trying an ordered list of strategies.
package extraction

import (
	"context"
	"errors"
	"log"

	"github.com/jonathan/cv-intake/internal/types"
)

// Strategy is one way of producing a record from text. A strategy that
// cannot produce a record returns an error and the next one is tried.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, text string) (types.CandidateRecord, error)
}

// Result is a record together with the strategy that produced it.
type Result struct {
	Record   types.CandidateRecord
	Strategy string
}

// Extractor tries its strategies in order until one succeeds.
type Extractor struct {
	strategies []Strategy
}

// NewExtractor builds an extractor. Nil strategies are skipped.
func NewExtractor(strategies ...Strategy) *Extractor {
	e := &Extractor{}
	for _, s := range strategies {
		if s != nil {
			e.strategies = append(e.strategies, s)
		}
	}
	return e
}

// NewDocumentExtractor is the resume pipeline: the remote call first, then
// the local heuristics.
func NewDocumentExtractor(llmStrategy *LLMStrategy) *Extractor {
	if llmStrategy == nil {
		return NewExtractor(NewHeuristicStrategy())
	}
	return NewExtractor(llmStrategy, NewHeuristicStrategy())
}

// NewChatExtractor puts the labelled line parser in front of full. It is used
// for plain-text messages.
func NewChatExtractor(full *Extractor) *Extractor {
	strategies := []Strategy{LabelledStrategy{}}
	if full != nil {
		strategies = append(strategies, full.strategies...)
	}
	return NewExtractor(strategies...)
}

// Strategies lists the strategy names in the order they are tried.
func (e *Extractor) Strategies() []string {
	names := make([]string, 0, len(e.strategies))
	for _, s := range e.strategies {
		names = append(names, s.Name())
	}
	return names
}

// Extract runs the strategies in order. Failures are logged and the next
// strategy is tried. When every strategy fails the error matches ErrNoRecord.
func (e *Extractor) Extract(ctx context.Context, text string) (*Result, error) {
	if len(e.strategies) == 0 {
		return nil, &FatalError{Strategy: "none", Message: "no extraction strategies configured"}
	}

	var lastErr error
	for _, s := range e.strategies {
		rec, err := s.Extract(ctx, text)
		if err == nil {
			return &Result{Record: rec, Strategy: s.Name()}, nil
		}
		log.Printf("[extraction] strategy %s failed: %v", s.Name(), err)
		lastErr = err
	}

	var fatal *FatalError
	if errors.As(lastErr, &fatal) {
		return nil, lastErr
	}
	return nil, &FatalError{Strategy: e.strategies[len(e.strategies)-1].Name(), Message: "all strategies failed", Cause: lastErr}
}
