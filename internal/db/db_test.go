package db

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/cv-intake/internal/types"
)

func TestRowArgs(t *testing.T) {
	tests := []struct {
		name string
		row  []string
		want []any
	}{
		{
			name: "short row is padded",
			row:  []string{"t1", "Asha Rao"},
			want: []any{"t1", "Asha Rao", "", "", "", "", "", "", "", ""},
		},
		{
			name: "long row is truncated",
			row:  []string{"t1", "n", "e", "p", "s", "x", "ed", "l", "sid", "New", "extra"},
			want: []any{"t1", "n", "e", "p", "s", "x", "ed", "l", "sid", "New"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rowArgs(tt.row)
			assert.Len(t, got, len(types.Columns))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCloseNilPool(t *testing.T) {
	db := &DB{}
	assert.NotPanics(t, db.Close)
}
