package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/cv-intake/internal/messaging"
	"github.com/jonathan/cv-intake/internal/store"
)

// ErrInvalidCredentials indicates invalid admin login credentials.
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid username or password"
}

// ErrValidation indicates request validation failure.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrSignature indicates a webhook request whose Twilio signature did not verify.
type ErrSignature struct{}

func (e *ErrSignature) Error() string {
	return "invalid Twilio signature"
}

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	var (
		credErr *ErrInvalidCredentials
		valErr  *ErrValidation
		sigErr  *ErrSignature
	)
	switch {
	case errors.As(err, &credErr):
		return http.StatusUnauthorized
	case errors.As(err, &sigErr):
		return http.StatusForbidden
	case errors.As(err, &valErr), errors.Is(err, messaging.ErrInvalidMessage):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// errorCode is the machine-readable code sent with an error status.
func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusTooManyRequests:
		return "rate_limit_exceeded"
	default:
		return "internal_error"
	}
}
