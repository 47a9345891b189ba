package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCandidateRecord_AllSentinel(t *testing.T) {
	rec := NewCandidateRecord()
	for _, f := range rec.fieldPointers() {
		assert.Equal(t, NotAvailable, *f)
	}
}

func TestCandidateRecord_JSONKeys(t *testing.T) {
	rec := NewCandidateRecord()
	rec.Name = "Asha Rao"

	jsonBytes, err := json.Marshal(rec)
	require.NoError(t, err)

	var raw map[string]string
	require.NoError(t, json.Unmarshal(jsonBytes, &raw))
	assert.Len(t, raw, 7)
	for _, key := range []string{"name", "email", "phone", "location", "skills", "experience", "education"} {
		assert.Contains(t, raw, key)
	}
	assert.Equal(t, "Asha Rao", raw["name"])
}

func TestIsAvailable(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"   ", false},
		{NotAvailable, false},
		{" N/A ", false},
		{"Python", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAvailable(tt.in))
		})
	}
}

func TestFillMissing(t *testing.T) {
	rec := CandidateRecord{Name: "  Asha Rao ", Email: ""}
	rec.FillMissing()
	assert.Equal(t, "Asha Rao", rec.Name)
	assert.Equal(t, NotAvailable, rec.Email)
	assert.Equal(t, NotAvailable, rec.Education)
}

func TestSubmissionEnvelope_Row(t *testing.T) {
	ts := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC)
	rec := NewCandidateRecord()
	rec.Name = "Asha Rao"
	rec.Email = "asha.rao@example.com"

	env := NewSubmissionEnvelope("whatsapp:+919876543210", ts, rec)
	assert.NotEqual(t, uuid.Nil, env.ID)

	row := env.Row(StatusNew)
	require.Len(t, row, len(Columns))
	assert.Equal(t, "2025-03-04T10:30:00Z", row[ColTimestamp])
	assert.Equal(t, "Asha Rao", row[ColName])
	assert.Equal(t, "asha.rao@example.com", row[ColEmail])
	assert.Equal(t, "whatsapp:+919876543210", row[ColSenderID])
	assert.Equal(t, "New", row[ColStatus])
}

func TestEnvelopeFor(t *testing.T) {
	id := uuid.New()
	ist := time.FixedZone("IST", 5*3600+1800)
	rec := NewCandidateRecord()
	rec.Name = "Asha Rao"

	env := EnvelopeFor(id, "whatsapp:+919876543210", time.Date(2025, 3, 4, 15, 30, 0, 0, ist), rec)
	assert.Equal(t, id, env.ID)
	assert.Equal(t, "2025-03-04T10:00:00Z", env.TimestampString())
	assert.Equal(t, "Asha Rao", env.Record.Name)

	assert.False(t, EnvelopeFor(id, "s", time.Time{}, rec).Timestamp.IsZero())
}

func TestRecordFromRow(t *testing.T) {
	row := []string{"2025-03-04T10:30:00Z", "Asha Rao", "a@x.com", "", "Go"}
	rec := RecordFromRow(row)
	assert.Equal(t, "Asha Rao", rec.Name)
	assert.Equal(t, "a@x.com", rec.Email)
	assert.Equal(t, NotAvailable, rec.Phone)
	assert.Equal(t, "Go", rec.Skills)
	assert.Equal(t, NotAvailable, rec.Location)
}
