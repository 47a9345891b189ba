package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-intake/internal/types"
)

func envelope(name, email, phone string) types.SubmissionEnvelope {
	rec := types.NewCandidateRecord()
	rec.Name = name
	rec.Email = email
	rec.Phone = phone
	return types.NewSubmissionEnvelope("whatsapp:+919876543210", time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC), rec)
}

func TestRegistry_SaveNew(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	reg := NewRegistry(mem)

	res, err := reg.Save(ctx, envelope("Asha Rao", "a@x.com", types.NotAvailable))
	require.NoError(t, err)
	assert.Equal(t, types.StatusNew, res.Status)
	assert.Nil(t, res.Replaced)

	rows, err := mem.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, types.Columns, rows[0])
	assert.Equal(t, "Asha Rao", rows[1][types.ColName])
	assert.Equal(t, "New", rows[1][types.ColStatus])
}

func TestRegistry_SaveReplacesDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	reg := NewRegistry(mem)

	_, err := reg.Save(ctx, envelope("Asha Rao", "a@x.com", "1111111111"))
	require.NoError(t, err)
	_, err = reg.Save(ctx, envelope("Ravi Kumar", "ravi@x.com", types.NotAvailable))
	require.NoError(t, err)

	res, err := reg.Save(ctx, envelope("Asha R", "A@X.COM", "2222222222"))
	require.NoError(t, err)
	assert.Equal(t, types.StatusUpdated, res.Status)
	require.NotNil(t, res.Replaced)
	assert.Equal(t, "Asha Rao", res.Replaced.Existing.Name)

	rows, err := mem.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Ravi Kumar", rows[1][types.ColName])
	assert.Equal(t, "Asha R", rows[2][types.ColName])
	assert.Equal(t, "Updated", rows[2][types.ColStatus])
}

func TestRegistry_SaveMatchesPhoneDigits(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	reg := NewRegistry(mem)

	_, err := reg.Save(ctx, envelope("Ravi Kumar", types.NotAvailable, "+91 98765-43210"))
	require.NoError(t, err)
	res, err := reg.Save(ctx, envelope("Ravi Kumar", "ravi@x.com", "+919876543210"))
	require.NoError(t, err)

	assert.Equal(t, types.StatusUpdated, res.Status)
	assert.Equal(t, 1, mem.Len())
}

func TestRegistry_ConcurrentSameIdentity(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	reg := NewRegistry(mem)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.Save(ctx, envelope("Asha Rao", "a@x.com", types.NotAvailable))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, mem.Len())
}

func TestRegistry_UsesReplacer(t *testing.T) {
	ctx := context.Background()
	rs := &replacingStore{Memory: NewMemory()}
	reg := NewRegistry(rs)

	_, err := reg.Save(ctx, envelope("Asha Rao", "a@x.com", types.NotAvailable))
	require.NoError(t, err)
	_, err = reg.Save(ctx, envelope("Asha Rao", "a@x.com", types.NotAvailable))
	require.NoError(t, err)

	assert.Equal(t, 1, rs.replaced)
	assert.Equal(t, 0, rs.deletes)
	assert.Equal(t, 1, rs.Len())
}

func TestRegistry_Queries(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryWithRows([][]string{
		types.Columns,
		{"t1", "Asha Rao", "a@x.com", "N/A", "Go", "N/A", "N/A", "Pune, MH", "whatsapp:+1", "New"},
		{"t2", "Ravi Kumar", "N/A", "9876543210", "N/A", "N/A", "N/A", "N/A", "whatsapp:+2", "Updated"},
		{"t3", "Meera Nair", "meera@x.com", "12345", "N/A", "N/A", "N/A", "N/A", "whatsapp:+3", ""},
	})
	reg := NewRegistry(mem)

	t.Run("stats", func(t *testing.T) {
		st, err := reg.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, st.Total)
		assert.Equal(t, map[string]int{"New": 1, "Updated": 1, "Unknown": 1}, st.ByStatus)
		assert.Equal(t, 2, st.WithEmail)
		assert.Equal(t, 1, st.WithPhone)
	})

	t.Run("search by email ignores case", func(t *testing.T) {
		c, err := reg.SearchByEmail(ctx, "MEERA@x.com")
		require.NoError(t, err)
		assert.Equal(t, 3, c.Row)
		assert.Equal(t, "Meera Nair", c.Record.Name)
		assert.Equal(t, "whatsapp:+3", c.SenderID)
	})

	t.Run("search miss", func(t *testing.T) {
		_, err := reg.SearchByEmail(ctx, "nobody@x.com")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = reg.SearchByEmail(ctx, types.NotAvailable)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list newest first", func(t *testing.T) {
		list, err := reg.List(ctx, 2)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Meera Nair", list[0].Record.Name)
		assert.Equal(t, "Ravi Kumar", list[1].Record.Name)

		all, err := reg.List(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})
}

func TestMemory_DeleteRowBounds(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	require.NoError(t, mem.EnsureHeader(ctx))

	assert.ErrorIs(t, mem.DeleteRow(ctx, 0), ErrRowOutOfRange)
	assert.ErrorIs(t, mem.DeleteRow(ctx, 1), ErrRowOutOfRange)
}

func TestMemory_EnsureHeaderIdempotent(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	require.NoError(t, mem.EnsureHeader(ctx))
	require.NoError(t, mem.EnsureHeader(ctx))

	rows, err := mem.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

type replacingStore struct {
	*Memory
	replaced int
	deletes  int
}

func (r *replacingStore) DeleteRow(ctx context.Context, index int) error {
	r.deletes++
	return r.Memory.DeleteRow(ctx, index)
}

func (r *replacingStore) Replace(ctx context.Context, index int, row []string) error {
	r.replaced++
	if err := r.Memory.DeleteRow(ctx, index); err != nil {
		return err
	}
	return r.Memory.Append(ctx, row)
}
