// Package store persists candidate rows in a fixed-column table and keeps at
// most one row per email/phone identity.
package store

import (
	"context"
)

// Store is a tabular backend. Rows are addressed by position in the slice
// ReadAll returns; index 0 is always the header row.
type Store interface {
	// ReadAll returns the header followed by every data row in insertion order.
	ReadAll(ctx context.Context) ([][]string, error)
	// Append adds row after the last data row.
	Append(ctx context.Context, row []string) error
	// DeleteRow removes the data row at index (index >= 1).
	DeleteRow(ctx context.Context, index int) error
	// EnsureHeader writes the header row when the table has none.
	EnsureHeader(ctx context.Context) error
}

// Replacer is implemented by backends that can delete a row and append its
// replacement as one atomic operation.
type Replacer interface {
	Replace(ctx context.Context, index int, row []string) error
}

// normalizeRow pads or truncates row to the fixed column count.
func normalizeRow(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}
