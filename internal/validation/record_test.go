package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/cv-intake/internal/types"
)

func record(name, email, phone string) types.CandidateRecord {
	rec := types.NewCandidateRecord()
	rec.Name = name
	rec.Email = email
	rec.Phone = phone
	return rec
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		rec         types.CandidateRecord
		wantValid   bool
		wantMissing []string
	}{
		{
			name:      "name and email",
			rec:       record("Asha Rao", "asha.rao@example.com", types.NotAvailable),
			wantValid: true,
		},
		{
			name:      "name and ten digit phone",
			rec:       record("Asha Rao", types.NotAvailable, "9876543210"),
			wantValid: true,
		},
		{
			name:        "sentinel name is invalid regardless of contact",
			rec:         record(types.NotAvailable, "asha.rao@example.com", "9876543210"),
			wantMissing: []string{FieldName},
		},
		{
			name:        "short phone and no email",
			rec:         record("Asha Rao", types.NotAvailable, "12345"),
			wantMissing: []string{FieldEmailOrPhone},
		},
		{
			name:        "email without at sign",
			rec:         record("Asha Rao", "asha.rao.example.com", types.NotAvailable),
			wantMissing: []string{FieldEmailOrPhone},
		},
		{
			name:        "nothing at all",
			rec:         types.NewCandidateRecord(),
			wantMissing: []string{FieldName, FieldEmailOrPhone},
		},
		{
			name:        "blank name",
			rec:         record("  ", "a@x.com", ""),
			wantMissing: []string{FieldName},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.rec)
			assert.Equal(t, tt.wantValid, res.Valid)
			assert.Equal(t, tt.wantMissing, res.MissingMandatory)
		})
	}
}

func TestValidate_OptionalFields(t *testing.T) {
	rec := record("Asha Rao", "asha.rao@example.com", types.NotAvailable)
	rec.Skills = "Python, SQL, Communication"

	res := Validate(rec)
	assert.True(t, res.Valid)
	assert.True(t, res.HasMissingOptional)
	assert.Equal(t, []string{"experience", "education", "location"}, res.MissingOptional)

	rec.Experience = "Acme - Analyst (2019 - 2021)"
	rec.Education = "MBA, IIM, 2019"
	rec.Location = "Pune, Maharashtra"
	res = Validate(rec)
	assert.False(t, res.HasMissingOptional)
	assert.Empty(t, res.MissingOptional)
}

func TestHasPhone(t *testing.T) {
	assert.True(t, HasPhone("+919876543210"))
	assert.False(t, HasPhone("987654321"))
	assert.False(t, HasPhone(types.NotAvailable))
}
