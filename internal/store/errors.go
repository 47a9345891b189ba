package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a lookup matches no stored row.
var ErrNotFound = errors.New("candidate not found")

// ErrRowOutOfRange is returned when a row index does not address a data row.
var ErrRowOutOfRange = errors.New("row index out of range")

// Error wraps a backend failure with the operation that caused it.
type Error struct {
	Backend string
	Op      string
	Cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s store: %s: %v", e.Backend, e.Op, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func wrap(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Backend: backend, Op: op, Cause: err}
}
