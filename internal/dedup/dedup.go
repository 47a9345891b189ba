// Package dedup finds an existing store row that belongs to the same candidate.
package dedup

import (
	"strings"
	"unicode"

	"github.com/jonathan/cv-intake/internal/types"
)

// DigitsOnly drops every non-digit character.
func DigitsOnly(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// EmailKey is the comparison form of an email, or "" when there is none.
func EmailKey(email string) string {
	if !types.IsAvailable(email) {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(email))
}

// PhoneKey is the comparison form of a phone, or "" when there is none.
func PhoneKey(phone string) string {
	if !types.IsAvailable(phone) {
		return ""
	}
	return DigitsOnly(phone)
}

// Resolve scans rows for the first one whose email matches case-insensitively
// or whose phone has the same digits. rows[0] is the header and is skipped.
// Resolve only reports; it never changes the rows.
func Resolve(email, phone string, rows [][]string) types.DuplicateMatch {
	emailKey := EmailKey(email)
	phoneKey := PhoneKey(phone)
	if emailKey == "" && phoneKey == "" {
		return types.DuplicateMatch{}
	}

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if emailKey != "" && emailKey == EmailKey(cell(row, types.ColEmail)) {
			return match(i, row)
		}
		if phoneKey != "" && phoneKey == PhoneKey(cell(row, types.ColPhone)) {
			return match(i, row)
		}
	}
	return types.DuplicateMatch{}
}

func match(i int, row []string) types.DuplicateMatch {
	return types.DuplicateMatch{
		Found:       true,
		RowIndex:    i,
		Existing:    types.RecordFromRow(row),
		ExistingRow: append([]string(nil), row...),
	}
}

func cell(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}
