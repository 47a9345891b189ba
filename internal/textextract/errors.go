package textextract

import (
	"errors"
	"fmt"
)

// ErrNotExtractable is reported for unsupported formats and unreadable documents.
// Callers treat it the same as a document with no text.
var ErrNotExtractable = errors.New("document is not extractable")

// Error describes why a document could not be read.
type Error struct {
	File    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("text extraction failed for %s: %s: %v", e.File, e.Message, e.Cause)
	}
	return fmt.Sprintf("text extraction failed for %s: %s", e.File, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is makes every Error match ErrNotExtractable.
func (e *Error) Is(target error) bool {
	return target == ErrNotExtractable
}

func notExtractable(file, message string, cause error) error {
	return &Error{File: file, Message: message, Cause: cause}
}
