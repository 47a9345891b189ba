package extraction

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/jonathan/cv-intake/internal/normalize"
	"github.com/jonathan/cv-intake/internal/types"
)

var (
	labelLine     = regexp.MustCompile(`^\s*(?:[-*•]\s*)?([A-Za-z][A-Za-z .-]{0,30}?)\s*[:=]\s*(.*?)\s*$`)
	barePhone     = regexp.MustCompile(`\+?\d[\d\s().-]{8,}\d`)
	dashSpan      = regexp.MustCompile(`\S\s+[-–—]\s+\S`)
	bareLocation  = regexp.MustCompile(`^[A-Z][a-z]+(?: [A-Z][a-z]+)?,\s*[A-Z][a-z]+(?: [A-Z][a-z]+)?(?:,\s*[A-Z][a-z]+(?: [A-Z][a-z]+)?)?$`)
	bareNameRunes = regexp.MustCompile(`^[\p{L} .'-]+$`)
)

// field identifies one CandidateRecord field.
type field int

const (
	fieldName field = iota
	fieldEmail
	fieldPhone
	fieldLocation
	fieldSkills
	fieldExperience
	fieldEducation
)

var labelAliases = map[string]field{
	"name":             fieldName,
	"full name":        fieldName,
	"candidate name":   fieldName,
	"email":            fieldEmail,
	"e-mail":           fieldEmail,
	"email id":         fieldEmail,
	"email address":    fieldEmail,
	"mail":             fieldEmail,
	"phone":            fieldPhone,
	"phone number":     fieldPhone,
	"phone no":         fieldPhone,
	"mobile":           fieldPhone,
	"mobile number":    fieldPhone,
	"mobile no":        fieldPhone,
	"contact":          fieldPhone,
	"contact number":   fieldPhone,
	"whatsapp":         fieldPhone,
	"location":         fieldLocation,
	"current location": fieldLocation,
	"city":             fieldLocation,
	"address":          fieldLocation,
	"skills":           fieldSkills,
	"skill":            fieldSkills,
	"key skills":       fieldSkills,
	"technical skills": fieldSkills,
	"experience":       fieldExperience,
	"work experience":  fieldExperience,
	"exp":              fieldExperience,
	"education":        fieldEducation,
	"qualification":    fieldEducation,
	"degree":           fieldEducation,
}

// labelledParse holds the fields found so far and which lines are used.
type labelledParse struct {
	lines   []string
	claimed []bool
	values  map[field]string
}

// ParseLabelled reads a short chat message. Explicit "Label: value" lines are
// read first. Fields still missing are filled by bare-pattern scans over the
// remaining lines, and a line used for one field is never reused for another.
func ParseLabelled(text string) types.CandidateRecord {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	p := &labelledParse{
		lines:   lines,
		claimed: make([]bool, len(lines)),
		values:  make(map[field]string),
	}

	for i, line := range lines {
		m := labelLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		f, ok := labelAliases[strings.ToLower(strings.Join(strings.Fields(m[1]), " "))]
		if !ok || m[2] == "" {
			continue
		}
		if _, seen := p.values[f]; seen {
			continue
		}
		p.values[f] = m[2]
		p.claimed[i] = true
	}

	p.scan(fieldEmail, func(line string) string { return emailPattern.FindString(line) })
	p.scan(fieldPhone, func(line string) string {
		m := barePhone.FindString(line)
		if n := countDigits(m); n < 10 || n > 15 {
			return ""
		}
		return m
	})
	p.scan(fieldEducation, func(line string) string {
		if degreePattern.MatchString(line) {
			return line
		}
		return ""
	})
	p.scan(fieldExperience, func(line string) string {
		if hasRoleIndicator(line) || dashSpan.MatchString(line) {
			return line
		}
		return ""
	})
	p.scan(fieldLocation, func(line string) string {
		if bareLocation.MatchString(line) {
			return line
		}
		return ""
	})
	p.scan(fieldSkills, func(line string) string {
		if strings.Count(line, ",") >= 2 {
			return line
		}
		return ""
	})
	p.scan(fieldName, func(line string) string {
		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 4 || !bareNameRunes.MatchString(line) {
			return ""
		}
		if n := len([]rune(line)); n < 5 || n > 50 {
			return ""
		}
		return line
	})

	rec := types.CandidateRecord{
		Name:       p.values[fieldName],
		Email:      p.values[fieldEmail],
		Phone:      p.values[fieldPhone],
		Location:   p.values[fieldLocation],
		Skills:     p.values[fieldSkills],
		Experience: p.values[fieldExperience],
		Education:  p.values[fieldEducation],
	}
	return normalize.Record(rec)
}

// scan fills f from the first unclaimed line match accepts.
func (p *labelledParse) scan(f field, match func(line string) string) {
	if _, ok := p.values[f]; ok {
		return
	}
	for i, line := range p.lines {
		if p.claimed[i] {
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if v := match(line); v != "" {
			p.values[f] = v
			p.claimed[i] = true
			return
		}
	}
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

// LabelledStrategy is the lightweight chat-message parser. It fails when it
// finds no name so the full pipeline runs instead.
type LabelledStrategy struct{}

func (LabelledStrategy) Name() string { return "labelled" }

// Extract implements Strategy.
func (LabelledStrategy) Extract(_ context.Context, text string) (types.CandidateRecord, error) {
	rec := ParseLabelled(text)
	if !types.IsAvailable(rec.Name) {
		return types.CandidateRecord{}, errNoName
	}
	return rec, nil
}
