// Package normalize cleans and canonicalizes candidate record fields.
// Every function returns types.NotAvailable when its input holds no usable data.
package normalize

import (
	"strings"
	"unicode"

	"github.com/jonathan/cv-intake/internal/types"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultExperienceMaxChars is the display limit applied by TruncateExperience callers.
const DefaultExperienceMaxChars = 500

// TitleCase upper-cases the first letter of each word and lower-cases the rest.
// Applying it twice gives the same result.
func TitleCase(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if !types.IsAvailable(s) {
		return types.NotAvailable
	}
	// Casers keep state between calls, so each call gets its own.
	return cases.Title(language.Und).String(s)
}

// Phone strips every character except digits and a single leading '+'.
func Phone(s string) string {
	if !types.IsAvailable(s) {
		return types.NotAvailable
	}
	s = strings.TrimSpace(s)
	plus := false
	var digits strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '+' && digits.Len() == 0:
			plus = true
		}
	}
	if digits.Len() == 0 {
		return types.NotAvailable
	}
	if plus {
		return "+" + digits.String()
	}
	return digits.String()
}

// Location drops a location that overlaps the candidate's name or is too short to be a place.
func Location(location, name string) string {
	location = strings.TrimSpace(location)
	if !types.IsAvailable(location) {
		return types.NotAvailable
	}

	if types.IsAvailable(name) {
		loc := strings.ToLower(location)
		n := strings.ToLower(strings.TrimSpace(name))
		if strings.Contains(n, loc) || strings.Contains(loc, n) {
			return types.NotAvailable
		}
	}

	tokens := strings.FieldsFunc(location, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(tokens) < 2 && !strings.ContainsFunc(location, unicode.IsDigit) {
		return types.NotAvailable
	}
	return location
}

// SkillList splits a comma-separated skill string, drops one-character tokens,
// and removes case-insensitive duplicates keeping the first spelling seen.
func SkillList(s string) []string {
	if !types.IsAvailable(s) {
		return nil
	}
	return DedupSkills(strings.Split(s, ","))
}

// DedupSkills trims the given terms and removes empty, one-character and
// case-insensitively repeated entries, preserving first-seen order.
func DedupSkills(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if len([]rune(term)) <= 1 {
			continue
		}
		key := strings.ToLower(term)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, term)
	}
	return out
}

// Skills returns the deduplicated, comma-joined form of a skill string.
func Skills(s string) string {
	list := SkillList(s)
	if len(list) == 0 {
		return types.NotAvailable
	}
	return strings.Join(list, ", ")
}

// TruncateExperience cuts s to maxChars runes and appends "...". The cut is lossy.
func TruncateExperience(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars]) + "..."
}

// Record runs every field normalizer over rec. Experience truncation is not
// part of it; the caller decides whether the record needs that guard.
func Record(rec types.CandidateRecord) types.CandidateRecord {
	rec.FillMissing()

	out := types.CandidateRecord{
		Name:       TitleCase(rec.Name),
		Email:      Email(rec.Email),
		Phone:      Phone(rec.Phone),
		Skills:     Skills(rec.Skills),
		Experience: ExperienceDates(rec.Experience),
		Education:  collapseSpace(rec.Education),
	}
	out.Location = Location(collapseSpace(rec.Location), out.Name)
	return out
}

// Email trims an address. Case is preserved; comparisons lower-case it.
func Email(s string) string {
	s = strings.TrimSpace(s)
	if !types.IsAvailable(s) || !strings.Contains(s, "@") {
		return types.NotAvailable
	}
	return s
}

func collapseSpace(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return types.NotAvailable
	}
	return s
}
