package store

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/jonathan/cv-intake/internal/dedup"
	"github.com/jonathan/cv-intake/internal/types"
	"github.com/jonathan/cv-intake/internal/validation"
)

// SaveResult describes what Registry.Save did with a submission.
type SaveResult struct {
	Status types.Status
	// Replaced is set when an earlier row for the same identity was removed.
	Replaced *types.DuplicateMatch
}

// StoredCandidate is one data row with its position in the table.
type StoredCandidate struct {
	Row       int                   `json:"row"`
	Timestamp string                `json:"timestamp"`
	SenderID  string                `json:"sender_id"`
	Status    string                `json:"status"`
	Record    types.CandidateRecord `json:"record"`
}

// Stats summarizes the table.
type Stats struct {
	Total     int            `json:"total"`
	ByStatus  map[string]int `json:"by_status"`
	WithEmail int            `json:"with_email"`
	WithPhone int            `json:"with_phone"`
}

// Registry is the persistence boundary. It owns the read, resolve, delete and
// append sequence so that two submissions for one identity never both land.
type Registry struct {
	mu          sync.Mutex
	store       Store
	headerReady bool
}

// NewRegistry wraps s.
func NewRegistry(s Store) *Registry {
	return &Registry{store: s}
}

// Store returns the wrapped backend.
func (r *Registry) Store() Store {
	return r.store
}

// Save writes env, replacing the first row that shares its email or phone.
// Row positions shift on every delete, so the whole sequence runs under one
// store-wide lock.
func (r *Registry) Save(ctx context.Context, env types.SubmissionEnvelope) (*SaveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureHeaderLocked(ctx); err != nil {
		return nil, err
	}

	rows, err := r.store.ReadAll(ctx)
	if err != nil {
		return nil, err
	}

	match := dedup.Resolve(env.Record.Email, env.Record.Phone, rows)
	if !match.Found {
		if err := r.store.Append(ctx, env.Row(types.StatusNew)); err != nil {
			return nil, err
		}
		log.Printf("[store] submission %s appended as new", env.ID)
		return &SaveResult{Status: types.StatusNew}, nil
	}

	row := env.Row(types.StatusUpdated)
	if rep, ok := r.store.(Replacer); ok {
		err = rep.Replace(ctx, match.RowIndex, row)
	} else {
		err = r.store.DeleteRow(ctx, match.RowIndex)
		if err == nil {
			err = r.store.Append(ctx, row)
		}
	}
	if err != nil {
		return nil, err
	}

	log.Printf("[store] submission %s replaced row %d (%s)", env.ID, match.RowIndex, match.Existing.Name)
	return &SaveResult{Status: types.StatusUpdated, Replaced: &match}, nil
}

func (r *Registry) ensureHeaderLocked(ctx context.Context) error {
	if r.headerReady {
		return nil
	}
	if err := r.store.EnsureHeader(ctx); err != nil {
		return err
	}
	r.headerReady = true
	return nil
}

// List returns up to limit of the most recent rows, newest first. A limit of
// zero or less returns every row.
func (r *Registry) List(ctx context.Context, limit int) ([]StoredCandidate, error) {
	rows, err := r.store.ReadAll(ctx)
	if err != nil {
		return nil, err
	}

	var out []StoredCandidate
	for i := len(rows) - 1; i >= 1; i-- {
		out = append(out, toStored(i, rows[i]))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// SearchByEmail returns the row whose email matches case-insensitively.
func (r *Registry) SearchByEmail(ctx context.Context, email string) (*StoredCandidate, error) {
	key := dedup.EmailKey(email)
	if key == "" {
		return nil, ErrNotFound
	}

	rows, err := r.store.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(rows); i++ {
		if dedup.EmailKey(cell(rows[i], types.ColEmail)) == key {
			c := toStored(i, rows[i])
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

// Stats counts rows by status and by contact channel.
func (r *Registry) Stats(ctx context.Context) (*Stats, error) {
	rows, err := r.store.ReadAll(ctx)
	if err != nil {
		return nil, err
	}

	st := &Stats{ByStatus: map[string]int{}}
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		st.Total++

		status := strings.TrimSpace(cell(row, types.ColStatus))
		if status == "" {
			status = "Unknown"
		}
		st.ByStatus[status]++

		if validation.HasEmail(cell(row, types.ColEmail)) {
			st.WithEmail++
		}
		if validation.HasPhone(cell(row, types.ColPhone)) {
			st.WithPhone++
		}
	}
	return st, nil
}

func toStored(i int, row []string) StoredCandidate {
	return StoredCandidate{
		Row:       i,
		Timestamp: cell(row, types.ColTimestamp),
		SenderID:  cell(row, types.ColSenderID),
		Status:    cell(row, types.ColStatus),
		Record:    types.RecordFromRow(row),
	}
}

func cell(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}
