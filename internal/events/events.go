// Package events announces stored submissions on a message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/jonathan/cv-intake/internal/types"
)

// RoutingKeyCandidateSaved is used for every stored submission.
const RoutingKeyCandidateSaved = "candidate.saved"

// DefaultExchange is the topic exchange events are published to.
const DefaultExchange = "cv_intake"

// CandidateSaved is published after a record reaches the store.
type CandidateSaved struct {
	SubmissionID string                `json:"submission_id"`
	SenderID     string                `json:"sender_id"`
	Status       types.Status          `json:"status"`
	SubmittedAt  time.Time             `json:"submitted_at"`
	Strategy     string                `json:"strategy"`
	ArchiveKey   string                `json:"archive_key,omitempty"`
	Record       types.CandidateRecord `json:"record"`
}

// Publisher delivers events.
type Publisher interface {
	PublishCandidateSaved(ctx context.Context, ev CandidateSaved) error
}

// AMQPPublisher publishes to a durable topic exchange.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	exchange string
}

// DialAMQP connects to the broker and declares the exchange.
func DialAMQP(url, exchange string) (*AMQPPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("error dialling rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("error connecting to rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("error declaring exchange %s: %w", exchange, err)
	}

	return &AMQPPublisher{conn: conn, exchange: exchange}, nil
}

// PublishCandidateSaved opens a short-lived channel per event.
func (p *AMQPPublisher) PublishCandidateSaved(ctx context.Context, ev CandidateSaved) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := newPublishing(ev)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("error opening channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Publish(p.exchange, RoutingKeyCandidateSaved, false, false, msg); err != nil {
		return fmt.Errorf("error publishing %s: %w", RoutingKeyCandidateSaved, err)
	}
	log.Printf("[events] published %s for submission %s", RoutingKeyCandidateSaved, ev.SubmissionID)
	return nil
}

// Close closes the broker connection.
func (p *AMQPPublisher) Close() error {
	return p.conn.Close()
}

func newPublishing(ev CandidateSaved) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("error encoding event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.SubmissionID,
		Timestamp:    ev.SubmittedAt,
		Type:         RoutingKeyCandidateSaved,
		Body:         body,
	}, nil
}

// NewCandidateSaved builds the event for a stored envelope.
func NewCandidateSaved(env types.SubmissionEnvelope, status types.Status, strategy, archiveKey string) CandidateSaved {
	return CandidateSaved{
		SubmissionID: env.ID.String(),
		SenderID:     env.SenderID,
		Status:       status,
		SubmittedAt:  env.Timestamp,
		Strategy:     strategy,
		ArchiveKey:   archiveKey,
		Record:       env.Record,
	}
}
