package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/cv-intake/internal/fetch"
	"github.com/jonathan/cv-intake/internal/intake"
	"github.com/jonathan/cv-intake/internal/messaging"
	"github.com/jonathan/cv-intake/internal/server"
	"github.com/jonathan/cv-intake/internal/store"
	"github.com/jonathan/cv-intake/internal/textextract"
)

var (
	servePort       int
	serveRateExempt string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	Long:  `Start an HTTP server that receives Twilio WhatsApp webhooks and serves the admin API.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config and PORT)")
	serveCmd.Flags().StringVar(&serveRateExempt, "rate-limit-exempt", "", "Comma-separated senders or IPs that are never rate limited")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if cfg.Twilio.AccountSID == "" || cfg.Twilio.AuthToken == "" || cfg.Twilio.WhatsAppNumber == "" {
		return fmt.Errorf("TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_WHATSAPP_NUMBER are required to serve")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers cleanups
	defer closers.run()

	backend, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	closers.add(closeStore)
	registry := store.NewRegistry(backend)

	documents, closeLLM, err := newDocumentExtractor(ctx, cfg, true)
	if err != nil {
		return err
	}
	closers.add(closeLLM)

	twilio := messaging.NewTwilioClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.WhatsAppNumber)
	user, pass := twilio.MediaCredentials()
	downloadOpts := fetch.DefaultOptions()
	downloadOpts.Username = user
	downloadOpts.Password = pass
	downloadOpts.MaxBytes = cfg.Server.MaxAttachmentBytes

	deps := intake.Deps{
		Documents:  documents,
		Text:       textextract.New(cfg.Server.MaxAttachmentBytes),
		Registry:   registry,
		Sender:     twilio,
		Downloader: intake.HTTPDownloader{Options: downloadOpts},
	}

	archiver, err := newArchiver(ctx, cfg.Archive)
	if err != nil {
		return err
	}
	if archiver != nil {
		deps.Archiver = archiver
	}

	publisher, closePublisher, err := newPublisher(cfg.Events)
	if err != nil {
		return err
	}
	closers.add(closePublisher)
	if publisher != nil {
		deps.Events = publisher
	}

	processor, err := intake.NewProcessor(deps)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		Server:          cfg.Server,
		Auth:            cfg.Auth,
		Twilio:          cfg.Twilio,
		Version:         version,
		Handler:         processor,
		Sender:          twilio,
		Candidates:      registry,
		ProcessTimeout:  2*cfg.Extraction.Timeout() + fetch.DefaultTimeout,
		RateLimitExempt: serveRateExempt,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Run(ctx)
}
