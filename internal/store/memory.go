package store

import (
	"context"
	"sync"

	"github.com/jonathan/cv-intake/internal/types"
)

// Memory is an in-process Store used by tests and the offline CLI.
type Memory struct {
	mu   sync.Mutex
	rows [][]string
}

// NewMemory returns an empty table without a header.
func NewMemory() *Memory {
	return &Memory{}
}

// NewMemoryWithRows seeds the table with rows; rows[0] must be the header.
func NewMemoryWithRows(rows [][]string) *Memory {
	m := &Memory{}
	for _, r := range rows {
		m.rows = append(m.rows, append([]string(nil), r...))
	}
	return m
}

func (m *Memory) ReadAll(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([][]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (m *Memory) Append(ctx context.Context, row []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, normalizeRow(row, len(types.Columns)))
	return nil
}

func (m *Memory) DeleteRow(ctx context.Context, index int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 1 || index >= len(m.rows) {
		return wrap("memory", "delete row", ErrRowOutOfRange)
	}
	m.rows = append(m.rows[:index], m.rows[index+1:]...)
	return nil
}

func (m *Memory) EnsureHeader(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.rows) > 0 && len(m.rows[0]) > 0 && m.rows[0][0] != "" {
		return nil
	}
	header := append([]string(nil), types.Columns...)
	m.rows = append([][]string{header}, m.rows...)
	return nil
}

// Len reports the number of data rows.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.rows) == 0 {
		return 0
	}
	return len(m.rows) - 1
}
