// Package intake runs one inbound message through extraction, validation and
// storage, and answers the sender.
package intake

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/cv-intake/internal/archive"
	"github.com/jonathan/cv-intake/internal/events"
	"github.com/jonathan/cv-intake/internal/extraction"
	"github.com/jonathan/cv-intake/internal/fetch"
	"github.com/jonathan/cv-intake/internal/messaging"
	"github.com/jonathan/cv-intake/internal/store"
	"github.com/jonathan/cv-intake/internal/textextract"
	"github.com/jonathan/cv-intake/internal/types"
	"github.com/jonathan/cv-intake/internal/validation"
)

// Stage names the point at which handling of a message finished.
type Stage string

const (
	StageSaved            Stage = "saved"
	StageWelcome          Stage = "welcome"
	StageUnsupportedFile  Stage = "unsupported_file"
	StageDownloadFailed   Stage = "download_failed"
	StageExtractionFailed Stage = "extraction_failed"
	StageParsingFailed    Stage = "parsing_failed"
	StageValidationFailed Stage = "validation_failed"
	StageSaveFailed       Stage = "save_failed"
)

// Downloader fetches an attachment.
type Downloader interface {
	Download(ctx context.Context, url string) (*fetch.Result, error)
}

// HTTPDownloader downloads with fixed fetch options.
type HTTPDownloader struct {
	Options *fetch.Options
}

func (d HTTPDownloader) Download(ctx context.Context, url string) (*fetch.Result, error) {
	return fetch.Download(ctx, url, d.Options)
}

// Deps are the collaborators of a Processor. Archiver and Events are optional.
type Deps struct {
	Documents  *extraction.Extractor
	Chat       *extraction.Extractor
	Text       *textextract.Extractor
	Registry   *store.Registry
	Sender     messaging.Sender
	Downloader Downloader
	Archiver   archive.Archiver
	Events     events.Publisher
}

// Processor handles inbound messages. It holds no per-message state and is
// safe for concurrent use.
type Processor struct {
	deps Deps
	now  func() time.Time
}

// Outcome reports how a message was handled.
type Outcome struct {
	// SubmissionID and Received are assigned on arrival.
	SubmissionID uuid.UUID
	Received     time.Time
	// Envelope is built once extraction has produced a record; it stays nil
	// when handling ends earlier.
	Envelope   *types.SubmissionEnvelope
	Stage      Stage
	Strategy   string
	Validation *validation.Result
	Save       *store.SaveResult
	ArchiveKey string
	Reply      string
	// Err is the failure that ended handling early, if any.
	Err error
}

// NewProcessor checks that the required collaborators are present.
func NewProcessor(deps Deps) (*Processor, error) {
	switch {
	case deps.Documents == nil:
		return nil, errors.New("intake: document extractor is required")
	case deps.Registry == nil:
		return nil, errors.New("intake: registry is required")
	case deps.Sender == nil:
		return nil, errors.New("intake: sender is required")
	}
	if deps.Chat == nil {
		deps.Chat = extraction.NewChatExtractor(deps.Documents)
	}
	if deps.Text == nil {
		deps.Text = textextract.New(fetch.DefaultMaxBytes)
	}
	if deps.Downloader == nil {
		deps.Downloader = HTTPDownloader{Options: fetch.DefaultOptions()}
	}
	return &Processor{deps: deps, now: time.Now}, nil
}

// Handle processes msg and sends exactly one reply. The returned error is
// non-nil only when the reply could not be delivered; the outcome is always
// returned.
func (p *Processor) Handle(ctx context.Context, msg *messaging.InboundMessage) (*Outcome, error) {
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = p.now()
	}
	out := &Outcome{SubmissionID: uuid.New(), Received: ts.UTC()}
	id := out.SubmissionID
	log.Printf("[intake] %s: message from %s (media=%d)", id, messaging.DisplayNumber(msg.From), msg.NumMedia)

	if msg.HasAttachment() {
		p.handleAttachment(ctx, msg, out)
	} else {
		p.handleText(ctx, msg, out)
	}

	if out.Err != nil {
		log.Printf("[intake] %s: finished at %s: %v", id, out.Stage, out.Err)
	} else {
		log.Printf("[intake] %s: finished at %s", id, out.Stage)
	}

	if err := p.deps.Sender.Send(ctx, msg.From, out.Reply); err != nil {
		log.Printf("[intake] %s: reply failed: %v", id, err)
		return out, fmt.Errorf("failed to send reply: %w", err)
	}
	return out, nil
}

func (p *Processor) handleAttachment(ctx context.Context, msg *messaging.InboundMessage, out *Outcome) {
	att := msg.Attachment
	ext, ok := textextract.ExtensionForContentType(att.ContentType)
	if !ok {
		out.finish(StageUnsupportedFile, messaging.ReplyUnsupportedFile,
			fmt.Errorf("unsupported content type %q", att.ContentType))
		return
	}

	res, err := p.deps.Downloader.Download(ctx, att.URL)
	if err != nil {
		out.finish(StageDownloadFailed, messaging.ReplyDownloadFailed, err)
		return
	}

	text, err := p.deps.Text.Extract("attachment"+ext, res.Data)
	if err != nil {
		out.finish(StageExtractionFailed, messaging.ReplyCouldNotRead, err)
		return
	}
	log.Printf("[intake] %s: extracted %d characters", out.SubmissionID, len(text))

	if p.deps.Archiver != nil {
		key, err := p.deps.Archiver.Archive(ctx, archive.File{
			SubmissionID: out.SubmissionID,
			Received:     out.Received,
			Extension:    ext,
			ContentType:  att.ContentType,
			Data:         res.Data,
		})
		if err != nil {
			log.Printf("[intake] %s: archive failed: %v", out.SubmissionID, err)
		} else {
			out.ArchiveKey = key
		}
	}

	result, err := p.deps.Documents.Extract(ctx, text)
	if err != nil {
		out.finish(StageParsingFailed, messaging.ReplyParseFailed, err)
		return
	}
	p.validateAndSave(ctx, msg, result, out, false)
}

func (p *Processor) handleText(ctx context.Context, msg *messaging.InboundMessage, out *Outcome) {
	body := strings.TrimSpace(msg.Body)
	if body == "" {
		out.finish(StageWelcome, messaging.ReplyWelcome, nil)
		return
	}

	result, err := p.deps.Chat.Extract(ctx, body)
	if err != nil {
		out.finish(StageParsingFailed, messaging.ReplyParseFailed, err)
		return
	}
	p.validateAndSave(ctx, msg, result, out, true)
}

// validateAndSave stores a valid record. A chat message with no identifying
// detail at all gets the welcome text rather than a correction.
func (p *Processor) validateAndSave(ctx context.Context, msg *messaging.InboundMessage, result *extraction.Result, out *Outcome, chat bool) {
	env := types.EnvelopeFor(out.SubmissionID, msg.From, out.Received, result.Record)
	out.Envelope = &env
	out.Strategy = result.Strategy

	v := validation.Validate(result.Record)
	out.Validation = &v
	if !v.Valid {
		if chat && len(v.MissingMandatory) == 2 {
			out.finish(StageWelcome, messaging.ReplyWelcome, nil)
			return
		}
		out.finish(StageValidationFailed, messaging.CorrectiveFormat(v.MissingMandatory), nil)
		return
	}

	saved, err := p.deps.Registry.Save(ctx, env)
	if err != nil {
		out.finish(StageSaveFailed, messaging.ReplySaveFailed, err)
		return
	}
	out.Save = saved
	out.finish(StageSaved, messaging.Confirmation(result.Record, saved.Status == types.StatusUpdated), nil)

	if p.deps.Events != nil {
		ev := events.NewCandidateSaved(env, saved.Status, out.Strategy, out.ArchiveKey)
		if err := p.deps.Events.PublishCandidateSaved(ctx, ev); err != nil {
			log.Printf("[intake] %s: event publish failed: %v", env.ID, err)
		}
	}
}

func (o *Outcome) finish(stage Stage, reply string, err error) {
	o.Stage = stage
	o.Reply = reply
	o.Err = err
}
