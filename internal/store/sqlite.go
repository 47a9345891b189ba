package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/jonathan/cv-intake/internal/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS candidates (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	submitted_at TEXT NOT NULL DEFAULT '',
	name         TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL DEFAULT '',
	phone        TEXT NOT NULL DEFAULT '',
	skills       TEXT NOT NULL DEFAULT '',
	experience   TEXT NOT NULL DEFAULT '',
	education    TEXT NOT NULL DEFAULT '',
	location     TEXT NOT NULL DEFAULT '',
	sender_id    TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_candidates_email ON candidates(lower(email));
`

const sqliteColumns = `submitted_at, name, email, phone, skills, experience, education, location, sender_id, status`

// SQLite stores candidate rows in a local database file. The header row is
// implied by the table schema.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if needed) the database at path. ":memory:"
// gives a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps ":memory:" a single database and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	for _, p := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}
	return &SQLite{db: db}, nil
}

// Close releases the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) EnsureHeader(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteSchema)
	return wrap("sqlite", "create schema", err)
}

func (s *SQLite) ReadAll(ctx context.Context) ([][]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteColumns+` FROM candidates ORDER BY id`)
	if err != nil {
		return nil, wrap("sqlite", "read rows", err)
	}
	defer func() { _ = rows.Close() }()

	out := [][]string{append([]string(nil), types.Columns...)}
	for rows.Next() {
		row := make([]string, len(types.Columns))
		dest := make([]any, len(row))
		for i := range row {
			dest[i] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, wrap("sqlite", "scan row", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("sqlite", "read rows", err)
	}
	return out, nil
}

func (s *SQLite) Append(ctx context.Context, row []string) error {
	_, err := insertRow(ctx, s.db, row)
	return wrap("sqlite", "append row", err)
}

func (s *SQLite) DeleteRow(ctx context.Context, index int) error {
	return wrap("sqlite", "delete row", deleteRow(ctx, s.db, index))
}

// Replace deletes the row at index and appends row in one transaction.
func (s *SQLite) Replace(ctx context.Context, index int, row []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("sqlite", "begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteRow(ctx, tx, index); err != nil {
		return wrap("sqlite", "replace", err)
	}
	if _, err := insertRow(ctx, tx, row); err != nil {
		return wrap("sqlite", "replace", err)
	}
	return wrap("sqlite", "commit", tx.Commit())
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRow(ctx context.Context, db execer, row []string) (sql.Result, error) {
	row = normalizeRow(row, len(types.Columns))
	args := make([]any, len(row))
	for i, v := range row {
		args[i] = v
	}
	return db.ExecContext(ctx,
		`INSERT INTO candidates (`+sqliteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
}

func deleteRow(ctx context.Context, db execer, index int) error {
	if index < 1 {
		return ErrRowOutOfRange
	}
	res, err := db.ExecContext(ctx,
		`DELETE FROM candidates WHERE id = (SELECT id FROM candidates ORDER BY id LIMIT 1 OFFSET ?)`, index-1)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRowOutOfRange
	}
	return nil
}
