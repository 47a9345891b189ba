package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"

	"google.golang.org/api/option"

	"github.com/jonathan/cv-intake/internal/archive"
	"github.com/jonathan/cv-intake/internal/config"
	"github.com/jonathan/cv-intake/internal/db"
	"github.com/jonathan/cv-intake/internal/events"
	"github.com/jonathan/cv-intake/internal/extraction"
	"github.com/jonathan/cv-intake/internal/llm"
	"github.com/jonathan/cv-intake/internal/store"
)

// cleanup releases one resource. Cleanups run in reverse order of creation.
type cleanup func()

type cleanups []cleanup

func (c *cleanups) add(f cleanup) { *c = append(*c, f) }

func (c cleanups) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

// openStore opens the configured backend.
func openStore(ctx context.Context, sc config.StoreConfig) (store.Store, cleanup, error) {
	noop := func() {}
	switch sc.Backend {
	case config.BackendMemory:
		log.Printf("[store] using in-memory store; rows are lost on exit")
		return store.NewMemory(), noop, nil

	case config.BackendSQLite:
		s, err := store.OpenSQLite(ctx, sc.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("[store] using sqlite at %s", sc.SQLitePath)
		return s, func() { _ = s.Close() }, nil

	case config.BackendSheets:
		opts, err := sheetsCredentials(sc)
		if err != nil {
			return nil, nil, err
		}
		s, err := store.NewSheets(ctx, sc.SheetID, sc.SheetTitle, opts...)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("[store] using Google Sheet %s", sc.SheetID)
		return s, noop, nil

	case config.BackendPostgres:
		database, err := db.Connect(ctx, sc.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Printf("[store] using postgres")
		return database, database.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", sc.Backend)
	}
}

// sheetsCredentials reads service account credentials from a file or from a
// base64 value, the latter for hosts where mounting files is awkward.
func sheetsCredentials(sc config.StoreConfig) ([]option.ClientOption, error) {
	switch {
	case sc.CredentialsBase64 != "":
		raw, err := base64.StdEncoding.DecodeString(sc.CredentialsBase64)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 credentials: %w", err)
		}
		return []option.ClientOption{option.WithCredentialsJSON(raw)}, nil
	case sc.CredentialsPath != "":
		raw, err := os.ReadFile(sc.CredentialsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		return []option.ClientOption{option.WithCredentialsJSON(raw)}, nil
	default:
		// Application default credentials.
		return nil, nil
	}
}

// newDocumentExtractor builds the resume strategy chain. Without an API key
// the remote call is skipped and only the local heuristics run.
func newDocumentExtractor(ctx context.Context, c config.Config, useLLM bool) (*extraction.Extractor, cleanup, error) {
	if !useLLM || c.LLM.APIKey == "" {
		if useLLM {
			log.Printf("[extraction] no LLM API key configured; using local heuristics only")
		}
		return extraction.NewDocumentExtractor(nil), func() {}, nil
	}

	llmConfig, err := llm.ConfigForProvider(llm.Provider(c.LLM.Provider))
	if err != nil {
		return nil, nil, err
	}
	if c.LLM.BaseURL != "" {
		llmConfig.BaseURL = c.LLM.BaseURL
	}
	if c.LLM.Model != "" {
		llmConfig = llmConfig.WithModel(llm.TierStandard, c.LLM.Model)
	}

	client, err := llm.NewClient(ctx, llmConfig, c.LLM.APIKey)
	if err != nil {
		return nil, nil, err
	}

	strategy := extraction.NewLLMStrategy(client, extraction.LLMOptions{
		MaxInputChars:      c.Extraction.MaxInputChars,
		Temperature:        c.Extraction.Temperature,
		MaxOutputTokens:    c.Extraction.MaxOutputTokens,
		Timeout:            c.Extraction.Timeout(),
		ExperienceMaxChars: c.Extraction.ExperienceMaxChars,
	})
	log.Printf("[extraction] using %s model %s", llmConfig.Provider, client.GetModel(llm.TierStandard))
	return extraction.NewDocumentExtractor(strategy), func() { _ = client.Close() }, nil
}

// newArchiver returns nil when no bucket is configured.
func newArchiver(ctx context.Context, ac config.ArchiveConfig) (archive.Archiver, error) {
	if ac.Bucket == "" {
		return nil, nil
	}
	a, err := archive.NewS3Archiver(ctx, archive.Options{
		Bucket:    ac.Bucket,
		Prefix:    ac.Prefix,
		Region:    ac.Region,
		Endpoint:  ac.Endpoint,
		AccessKey: ac.AccessKey,
		SecretKey: ac.SecretKey,
		PathStyle: ac.PathStyle,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[archive] archiving attachments to bucket %s", ac.Bucket)
	return a, nil
}

// newPublisher returns nil when no broker is configured.
func newPublisher(ec config.EventsConfig) (events.Publisher, cleanup, error) {
	if ec.URL == "" {
		return nil, func() {}, nil
	}
	p, err := events.DialAMQP(ec.URL, ec.Exchange)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("[events] publishing to exchange %s", ec.Exchange)
	return p, func() { _ = p.Close() }, nil
}
