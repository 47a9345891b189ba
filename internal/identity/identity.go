// Package identity cross-checks an extracted candidate name against the
// candidate's email address and proposes a better name when they disagree.
package identity

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jonathan/cv-intake/internal/normalize"
	"github.com/jonathan/cv-intake/internal/types"
)

// minTokenLen is the shortest email fragment treated as part of a name.
// Shorter fragments are initials or noise ("ab", "jd").
const minTokenLen = 3

// Confidence thresholds used by Reconcile.
const (
	PlausibleConfidence   = 50
	ReplaceBelow          = 40
	ReplaceIfLongerAtMost = 60
)

// Score is the result of comparing a name with an email address.
type Score struct {
	Plausible  bool   `json:"plausible"`
	Confidence int    `json:"confidence"`
	Suggested  string `json:"suggested_name,omitempty"`
	Reason     string `json:"reason"`
}

// DeriveNameFromEmail guesses a display name from the local part of an email.
// "john.doe123@gmail.com" gives "John Doe". It returns "" when no usable token survives.
func DeriveNameFromEmail(email string) string {
	tokens := emailNameTokens(email)
	if len(tokens) == 0 {
		return ""
	}
	return normalize.TitleCase(strings.Join(tokens, " "))
}

// emailNameTokens splits the local part on dots, or on lower-to-upper case
// transitions when there are no dots, and keeps tokens of at least minTokenLen letters.
func emailNameTokens(email string) []string {
	local := localPart(email)
	if local == "" {
		return nil
	}

	local = strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == '_' || r == '-' {
			return -1
		}
		return r
	}, local)

	var raw []string
	if strings.Contains(local, ".") {
		raw = strings.Split(local, ".")
	} else {
		raw = splitCaseTransitions(local)
	}

	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		tok = strings.TrimSpace(tok)
		if len([]rune(tok)) < minTokenLen {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func localPart(email string) string {
	email = strings.TrimSpace(email)
	if !types.IsAvailable(email) {
		return ""
	}
	at := strings.Index(email, "@")
	if at < 0 {
		return ""
	}
	return email[:at]
}

// splitCaseTransitions splits "johnDoe" into ["john", "Doe"].
func splitCaseTransitions(s string) []string {
	var parts []string
	var cur []rune
	var prev rune
	for i, r := range s {
		if i > 0 && unicode.IsLower(prev) && unicode.IsUpper(r) {
			parts = append(parts, string(cur))
			cur = cur[:0]
		}
		cur = append(cur, r)
		prev = r
	}
	if len(cur) > 0 {
		parts = append(parts, string(cur))
	}
	return parts
}

// ScoreNameAgainstEmail measures how well name agrees with the email's local part.
func ScoreNameAgainstEmail(name, email string) Score {
	if localPart(email) == "" {
		return Score{Plausible: true, Confidence: 50, Suggested: name, Reason: "no email to compare against"}
	}

	if !types.IsAvailable(name) {
		derived := DeriveNameFromEmail(email)
		if derived == "" {
			return Score{Plausible: false, Confidence: 0, Reason: "no name and none derivable from email"}
		}
		return Score{Plausible: false, Confidence: 70, Suggested: derived, Reason: "name missing, derived from email"}
	}

	nameTokens := strings.Fields(strings.ToLower(name))
	emailTokens := emailCompareTokens(email)

	matched := 0
	for _, nt := range nameTokens {
		if len([]rune(nt)) < minTokenLen {
			continue
		}
		for _, et := range emailTokens {
			if strings.Contains(et, nt) || strings.Contains(nt, et) {
				matched++
				break
			}
		}
	}
	confidence := 0
	if len(nameTokens) > 0 {
		confidence = 100 * matched / len(nameTokens)
	}

	if confidence >= PlausibleConfidence {
		return Score{
			Plausible:  true,
			Confidence: confidence,
			Suggested:  name,
			Reason:     fmt.Sprintf("%d of %d name tokens found in email", matched, len(nameTokens)),
		}
	}

	alt := DeriveNameFromEmail(email)
	if alt != "" && !strings.EqualFold(alt, strings.TrimSpace(name)) {
		return Score{
			Plausible:  false,
			Confidence: confidence,
			Suggested:  alt,
			Reason:     "name does not match email, derived alternative",
		}
	}
	return Score{
		Plausible:  true,
		Confidence: confidence,
		Suggested:  name,
		Reason:     "low agreement but no better alternative",
	}
}

// emailCompareTokens lower-cases the local part, removes digits, and splits on
// separators and case transitions. Only tokens of minTokenLen or more are kept.
func emailCompareTokens(email string) []string {
	local := localPart(email)
	var raw []string
	for _, part := range strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+' || unicode.IsDigit(r)
	}) {
		pieces := splitCaseTransitions(part)
		raw = append(raw, pieces...)
		if len(pieces) > 1 {
			raw = append(raw, part)
		}
	}

	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if len([]rune(tok)) >= minTokenLen {
			tokens = append(tokens, strings.ToLower(tok))
		}
	}
	return tokens
}

// Reconcile applies the replacement policy and returns the name to keep.
// A missing name always takes a derived suggestion. Otherwise a suggestion
// replaces the name below ReplaceBelow confidence, and between ReplaceBelow
// and ReplaceIfLongerAtMost only when it has more tokens than the current name.
func Reconcile(name, email string) (string, Score) {
	score := ScoreNameAgainstEmail(name, email)
	if score.Suggested == "" || strings.EqualFold(score.Suggested, name) {
		return name, score
	}

	if !types.IsAvailable(name) {
		return score.Suggested, score
	}

	switch {
	case score.Confidence < ReplaceBelow:
		return score.Suggested, score
	case score.Confidence <= ReplaceIfLongerAtMost:
		if len(strings.Fields(score.Suggested)) > len(strings.Fields(name)) {
			return score.Suggested, score
		}
	}
	return name, score
}
