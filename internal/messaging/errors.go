package messaging

import (
	"errors"
	"fmt"
)

// ErrInvalidMessage is returned when a webhook payload lacks a sender.
var ErrInvalidMessage = errors.New("invalid inbound message")

// SendError represents a failed outbound message.
type SendError struct {
	To         string
	StatusCode int
	Code       int
	Message    string
	Cause      error
}

func (e *SendError) Error() string {
	msg := fmt.Sprintf("send to %s failed: %s", e.To, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d, code %d)", msg, e.StatusCode, e.Code)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *SendError) Unwrap() error {
	return e.Cause
}
