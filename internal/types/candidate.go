// Package types provides type definitions for structured data used throughout the cv-intake system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NotAvailable is the sentinel stored in place of any field that could not be found.
const NotAvailable = "N/A"

// FresherSentinel is the experience value used when the text says the candidate has no work history.
const FresherSentinel = "Fresher"

// CandidateRecord is the structured result of extracting one resume or chat message.
// Every field is always set; unknown values hold NotAvailable.
type CandidateRecord struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Location   string `json:"location"`
	Skills     string `json:"skills"`
	Experience string `json:"experience"`
	Education  string `json:"education"`
}

// NewCandidateRecord returns a record with every field set to NotAvailable.
func NewCandidateRecord() CandidateRecord {
	return CandidateRecord{
		Name:       NotAvailable,
		Email:      NotAvailable,
		Phone:      NotAvailable,
		Location:   NotAvailable,
		Skills:     NotAvailable,
		Experience: NotAvailable,
		Education:  NotAvailable,
	}
}

// IsAvailable reports whether v holds real data rather than the sentinel or blank text.
func IsAvailable(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != NotAvailable
}

// FillMissing trims every field and replaces blank ones with NotAvailable.
func (r *CandidateRecord) FillMissing() {
	for _, f := range r.fieldPointers() {
		*f = strings.TrimSpace(*f)
		if *f == "" {
			*f = NotAvailable
		}
	}
}

func (r *CandidateRecord) fieldPointers() []*string {
	return []*string{&r.Name, &r.Email, &r.Phone, &r.Location, &r.Skills, &r.Experience, &r.Education}
}

// Status is the value written to the Status column of the tabular store.
type Status string

const (
	// StatusNew marks a first-time submission for an identity.
	StatusNew Status = "New"
	// StatusUpdated marks a submission that replaced an earlier row for the same identity.
	StatusUpdated Status = "Updated"
)

// Column positions of the tabular store.
const (
	ColTimestamp = iota
	ColName
	ColEmail
	ColPhone
	ColSkills
	ColExperience
	ColEducation
	ColLocation
	ColSenderID
	ColStatus
)

// Columns is the fixed header row of the tabular store.
var Columns = []string{
	"Timestamp", "Name", "Email", "Phone", "Skills",
	"Experience", "Education", "Location", "SenderID", "Status",
}

// SubmissionEnvelope wraps a record with the metadata of the message that produced it.
// It is built once per inbound message and passed by value.
type SubmissionEnvelope struct {
	ID        uuid.UUID
	SenderID  string
	Timestamp time.Time
	Record    CandidateRecord
}

// NewSubmissionEnvelope stamps a record with a fresh submission ID.
func NewSubmissionEnvelope(senderID string, ts time.Time, record CandidateRecord) SubmissionEnvelope {
	return EnvelopeFor(uuid.New(), senderID, ts, record)
}

// EnvelopeFor builds the envelope for a submission whose ID was assigned when
// the message arrived, before its record was extracted.
func EnvelopeFor(id uuid.UUID, senderID string, ts time.Time, record CandidateRecord) SubmissionEnvelope {
	if ts.IsZero() {
		ts = time.Now()
	}
	return SubmissionEnvelope{
		ID:        id,
		SenderID:  senderID,
		Timestamp: ts.UTC(),
		Record:    record,
	}
}

// TimestampString returns the submission time in ISO-8601 form.
func (e SubmissionEnvelope) TimestampString() string {
	return e.Timestamp.Format(time.RFC3339)
}

// Row renders the envelope as a store row in Columns order.
func (e SubmissionEnvelope) Row(status Status) []string {
	r := e.Record
	return []string{
		e.TimestampString(),
		r.Name,
		r.Email,
		r.Phone,
		r.Skills,
		r.Experience,
		r.Education,
		r.Location,
		e.SenderID,
		string(status),
	}
}

// RecordFromRow maps a store row back to a record. Short rows yield NotAvailable for the missing cells.
func RecordFromRow(row []string) CandidateRecord {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	rec := CandidateRecord{
		Name:       cell(ColName),
		Email:      cell(ColEmail),
		Phone:      cell(ColPhone),
		Skills:     cell(ColSkills),
		Experience: cell(ColExperience),
		Education:  cell(ColEducation),
		Location:   cell(ColLocation),
	}
	rec.FillMissing()
	return rec
}

// DuplicateMatch is the outcome of checking a submission against stored rows.
// RowIndex is the position of the matching row in the slice that was scanned
// (the header occupies index 0).
type DuplicateMatch struct {
	Found       bool            `json:"found"`
	RowIndex    int             `json:"row_index"`
	Existing    CandidateRecord `json:"existing"`
	ExistingRow []string        `json:"existing_row,omitempty"`
}
