package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jonathan/cv-intake/internal/types"
)

// ErrRowOutOfRange is returned when a positional delete addresses no row.
var ErrRowOutOfRange = errors.New("row index out of range")

const candidatesSchema = `
CREATE TABLE IF NOT EXISTS candidates (
	id           BIGSERIAL PRIMARY KEY,
	submitted_at TEXT NOT NULL DEFAULT '',
	name         TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL DEFAULT '',
	phone        TEXT NOT NULL DEFAULT '',
	skills       TEXT NOT NULL DEFAULT '',
	experience   TEXT NOT NULL DEFAULT '',
	education    TEXT NOT NULL DEFAULT '',
	location     TEXT NOT NULL DEFAULT '',
	sender_id    TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_candidates_email ON candidates (lower(email));
`

const candidateColumns = `submitted_at, name, email, phone, skills, experience, education, location, sender_id, status`

// queryer is satisfied by both the pool and a transaction.
type queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// EnsureHeader creates the candidates table. The header row is the table's
// column list, so there is nothing else to write.
func (db *DB) EnsureHeader(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, candidatesSchema); err != nil {
		return fmt.Errorf("failed to create candidates table: %w", err)
	}
	return nil
}

// ReadAll returns the header followed by every candidate row in insertion order.
func (db *DB) ReadAll(ctx context.Context) ([][]string, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+candidateColumns+` FROM candidates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to read candidates: %w", err)
	}
	defer rows.Close()

	out := [][]string{append([]string(nil), types.Columns...)}
	for rows.Next() {
		row := make([]string, len(types.Columns))
		dest := make([]any, len(row))
		for i := range row {
			dest[i] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidates: %w", err)
	}
	return out, nil
}

// Append inserts row after the last candidate.
func (db *DB) Append(ctx context.Context, row []string) error {
	if err := insertCandidate(ctx, db.pool, row); err != nil {
		return fmt.Errorf("failed to append candidate: %w", err)
	}
	return nil
}

// DeleteRow removes the candidate at position index of ReadAll's result.
func (db *DB) DeleteRow(ctx context.Context, index int) error {
	if err := deleteCandidateAt(ctx, db.pool, index); err != nil {
		return fmt.Errorf("failed to delete candidate: %w", err)
	}
	return nil
}

// Replace deletes the candidate at index and inserts row in one transaction.
func (db *DB) Replace(ctx context.Context, index int, row []string) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Serialize replaces across processes sharing the table.
	if _, err := tx.Exec(ctx, `LOCK TABLE candidates IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("failed to lock candidates: %w", err)
	}
	if err := deleteCandidateAt(ctx, tx, index); err != nil {
		return fmt.Errorf("failed to replace candidate: %w", err)
	}
	if err := insertCandidate(ctx, tx, row); err != nil {
		return fmt.Errorf("failed to replace candidate: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit replace: %w", err)
	}
	return nil
}

func insertCandidate(ctx context.Context, q queryer, row []string) error {
	_, err := q.Exec(ctx,
		`INSERT INTO candidates (`+candidateColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rowArgs(row)...,
	)
	return err
}

func deleteCandidateAt(ctx context.Context, q queryer, index int) error {
	if index < 1 {
		return ErrRowOutOfRange
	}
	tag, err := q.Exec(ctx,
		`DELETE FROM candidates
		 WHERE id = (SELECT id FROM candidates ORDER BY id OFFSET $1 LIMIT 1)`,
		index-1,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRowOutOfRange
	}
	return nil
}

// rowArgs pads row to the column count and converts it to query arguments.
func rowArgs(row []string) []any {
	args := make([]any, len(types.Columns))
	for i := range args {
		if i < len(row) {
			args[i] = row[i]
		} else {
			args[i] = ""
		}
	}
	return args
}
