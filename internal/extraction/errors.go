package extraction

import (
	"errors"
	"fmt"
)

// ErrNoRecord means no strategy could produce a candidate record.
var ErrNoRecord = errors.New("no candidate record could be produced")

// RemoteCallError represents a failed, timed out or unusable remote extraction call.
type RemoteCallError struct {
	Message string
	Cause   error
}

func (e *RemoteCallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("remote extraction failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("remote extraction failed: %s", e.Message)
}

func (e *RemoteCallError) Unwrap() error {
	return e.Cause
}

// ParseError represents a response that did not satisfy the record contract.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// FatalError is a defect inside the last-resort extraction. It always
// matches ErrNoRecord.
type FatalError struct {
	Strategy string
	Message  string
	Cause    error
}

func (e *FatalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction failed in %s: %s: %v", e.Strategy, e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction failed in %s: %s", e.Strategy, e.Message)
}

func (e *FatalError) Unwrap() error {
	return e.Cause
}

func (e *FatalError) Is(target error) bool {
	return target == ErrNoRecord
}

// errNoName is returned by the labelled parser when it finds no name.
var errNoName = errors.New("no name found in message")
