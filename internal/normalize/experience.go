package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/cv-intake/internal/types"
)

// monthAbbrev is indexed by month number; index 0 is unused.
var monthAbbrev = [13]string{"", "Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

const monthPattern = `Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|June?|July?|Aug(?:ust)?|Sep(?:t(?:ember)?)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?`

var (
	positionSplit = regexp.MustCompile(`[|,]`)

	// "Pune" or "Tamil Nadu"
	placeOnly = regexp.MustCompile(`^[A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)?$`)
	// "Maharashtra - Software Engineer (...)"
	placeThenDash = regexp.MustCompile(`^[A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)?\s*[-–—]\s*(.+)$`)

	// Day-first numeric range: 07/01/2025-06/05/2025 or 07/01/2025 - Present.
	numericRange = regexp.MustCompile(`(?i)(?:\(\s*)?(\d{1,2})/(\d{1,2})/(\d{4})\s*[-–—]\s*(?:(\d{1,2})/(\d{1,2})/(\d{4})|(present))(?:\s*\))?`)

	// "June - August 2023"
	monthMonthYear = regexp.MustCompile(`(?i)(?:\(\s*)?\b(` + monthPattern + `)\.?\s*[-–—]\s*(` + monthPattern + `)\.?\s+(\d{4})\b(?:\s*\))?`)

	// "2019 - 2021", "Jan 2020 - Present", "(Mar 2018 - May 2019)"
	yearRange = regexp.MustCompile(`(?i)(?:\(\s*)?(?:\b(` + monthPattern + `)\.?\s+)?\b(\d{4})\s*[-–—]\s*(?:\b(` + monthPattern + `)\.?\s+)?(\d{4}|present)\b(?:\s*\))?`)

	spacedDash = regexp.MustCompile(`\s*[–—]\s*|\s+-\s*|\s*-\s+`)
	multiSpace = regexp.MustCompile(`\s+`)
	dashSep    = regexp.MustCompile(`\s[-–—]\s|[–—]`)
)

// ExperienceDates rewrites the date spans of an experience string into
// "(Mon YYYY - Mon YYYY)" form and joins positions with ", ".
// Running it over its own output returns the same string.
func ExperienceDates(s string) string {
	if !types.IsAvailable(s) {
		return types.NotAvailable
	}

	positions := stripPlaceNoise(positionSplit.Split(s, -1))

	out := make([]string, 0, len(positions))
	for _, p := range positions {
		p = numericRange.ReplaceAllStringFunc(p, rewriteNumericRange)
		p = monthMonthYear.ReplaceAllStringFunc(p, rewriteMonthMonthYear)
		p = yearRange.ReplaceAllStringFunc(p, rewriteYearRange)
		p = spacedDash.ReplaceAllString(p, " - ")
		p = multiSpace.ReplaceAllString(p, " ")
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return types.NotAvailable
	}
	return strings.Join(out, ", ")
}

// stripPlaceNoise removes ", City[, Region]" fragments that sit between a
// company name and the dash before its title. A fragment only counts as noise
// when the position before it has no dash yet, so complete entries are never merged.
func stripPlaceNoise(pieces []string) []string {
	var positions, pending []string
	for _, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}

		prevOpen := len(positions) > 0 && !dashSep.MatchString(positions[len(positions)-1])
		if prevOpen {
			if m := placeThenDash.FindStringSubmatch(piece); m != nil {
				positions[len(positions)-1] += " - " + m[1]
				pending = nil
				continue
			}
			if placeOnly.MatchString(piece) {
				pending = append(pending, piece)
				continue
			}
		}

		positions = append(positions, pending...)
		pending = nil
		positions = append(positions, piece)
	}
	return append(positions, pending...)
}

func rewriteNumericRange(match string) string {
	m := numericRange.FindStringSubmatch(match)
	start, ok := monthYear(m[2], m[3])
	if !ok {
		return match
	}
	end := "Present"
	if m[7] == "" {
		if end, ok = monthYear(m[5], m[6]); !ok {
			return match
		}
	}
	return "(" + start + " - " + end + ")"
}

func rewriteMonthMonthYear(match string) string {
	m := monthMonthYear.FindStringSubmatch(match)
	return "(" + abbrev(m[1]) + " " + m[3] + " - " + abbrev(m[2]) + " " + m[3] + ")"
}

func rewriteYearRange(match string) string {
	m := yearRange.FindStringSubmatch(match)
	start := m[2]
	if m[1] != "" {
		start = abbrev(m[1]) + " " + start
	}
	end := m[4]
	if strings.EqualFold(end, "present") {
		end = "Present"
	}
	if m[3] != "" {
		end = abbrev(m[3]) + " " + end
	}
	return "(" + start + " - " + end + ")"
}

// monthYear turns a numeric month and year into "Mon YYYY".
func monthYear(month, year string) (string, bool) {
	n, err := strconv.Atoi(month)
	if err != nil || n < 1 || n > 12 {
		return "", false
	}
	return monthAbbrev[n] + " " + year, true
}

// abbrev maps any accepted spelling of a month name to its three-letter form.
func abbrev(name string) string {
	if len(name) < 3 {
		return name
	}
	prefix := strings.ToLower(name[:3])
	for i := 1; i < len(monthAbbrev); i++ {
		if strings.ToLower(monthAbbrev[i]) == prefix {
			return monthAbbrev[i]
		}
	}
	return name
}
