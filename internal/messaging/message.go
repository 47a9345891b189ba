// Package messaging carries WhatsApp messages in and out through Twilio.
package messaging

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// WhatsAppPrefix marks Twilio WhatsApp addresses.
const WhatsAppPrefix = "whatsapp:"

// Attachment describes the single media item of a message.
type Attachment struct {
	URL         string `json:"url" validate:"required,url"`
	ContentType string `json:"content_type" validate:"required"`
}

// InboundMessage is one message delivered by the transport.
type InboundMessage struct {
	From       string      `json:"from" validate:"required"`
	To         string      `json:"to,omitempty"`
	Body       string      `json:"body,omitempty"`
	NumMedia   int         `json:"num_media" validate:"gte=0"`
	Attachment *Attachment `json:"attachment,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// HasAttachment reports whether the message carries media.
func (m *InboundMessage) HasAttachment() bool {
	return m.Attachment != nil
}

// Sender delivers a text reply to a sender ID.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

var validate = validator.New()

// ParseTwilioForm reads a Twilio webhook form. Only the first media item is
// used; NumMedia is kept as sent.
func ParseTwilioForm(form url.Values, now time.Time) (*InboundMessage, error) {
	msg := &InboundMessage{
		From:      strings.TrimSpace(form.Get("From")),
		To:        strings.TrimSpace(form.Get("To")),
		Body:      form.Get("Body"),
		Timestamp: now.UTC(),
	}

	if n := strings.TrimSpace(form.Get("NumMedia")); n != "" {
		num, err := strconv.Atoi(n)
		if err != nil {
			return nil, fmt.Errorf("%w: NumMedia %q: %v", ErrInvalidMessage, n, err)
		}
		msg.NumMedia = num
	}

	if msg.NumMedia > 0 {
		msg.Attachment = &Attachment{
			URL:         strings.TrimSpace(form.Get("MediaUrl0")),
			ContentType: strings.TrimSpace(form.Get("MediaContentType0")),
		}
	}

	if err := validate.Struct(msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return msg, nil
}

// DisplayNumber strips the whatsapp: prefix for human-facing output.
func DisplayNumber(senderID string) string {
	return strings.TrimPrefix(senderID, WhatsAppPrefix)
}
