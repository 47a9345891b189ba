package extraction

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/jonathan/cv-intake/internal/identity"
	"github.com/jonathan/cv-intake/internal/normalize"
	"github.com/jonathan/cv-intake/internal/types"
)

var (
	emailPattern     = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern     = regexp.MustCompile(`(?:\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3,4}[-.\s]?\d{4}`)
	placePairPattern = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s[A-Z][a-z]+)?),\s*([A-Z][a-z]+(?:\s[A-Z][a-z]+)?)\b`)
	datePattern      = regexp.MustCompile(`(?i)\b(?:19|20)\d{2}\b|\b(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\b|\bpresent\b|\b\d{1,2}/\d{1,2}/\d{2,4}\b|\b\d{1,2}/\d{4}\b`)
	degreePattern    = regexp.MustCompile(`(?i)(?:^|[^a-z])(b\.?tech|m\.?tech|bachelor|master|mca|bca|mba|ph\.?d|b\.e|b\.sc|m\.sc)(?:[^a-z]|$)`)
	bulletPattern    = regexp.MustCompile(`[•▪▫◦●○✓■►➢\*]`)
	skillSeparators  = regexp.MustCompile(`[,|;/:]`)
	urlPattern       = regexp.MustCompile(`(?i)https?://|www\.`)
	locationMarker   = regexp.MustCompile(`(?i)(?:(?:current\s+)?location\s*:|address\s*:|based in)\s*(.*)`)
)

var (
	resumeHeaderWords = []string{"resume", "cv", "curriculum", "vitae", "profile"}

	skillsHeaders    = []string{"skills", "technical skills", "core competencies", "expertise", "technologies", "tools", "proficiencies"}
	skillsEndHeaders = []string{"experience", "education", "projects", "certifications", "work history", "employment"}

	experienceHeaders    = []string{"experience", "work experience", "professional experience", "employment history", "internship"}
	experienceEndHeaders = []string{"education", "projects", "certifications", "skills"}

	roleWords = wordSet(
		"engineer", "developer", "intern", "internship", "manager", "analyst", "consultant", "lead",
		"architect", "designer", "specialist", "associate", "executive", "officer",
		"administrator", "scientist", "tester", "trainee", "director", "programmer",
	)
	companyWords = wordSet(
		"pvt", "ltd", "limited", "inc", "corp", "llc", "llp", "technologie",
		"solution", "system", "service", "lab", "software", "consulting",
	)
	fresherWords = []string{"fresher", "fresh graduate"}
)

// techVocabulary is matched on every line regardless of section.
var techVocabulary = []string{
	"Python", "Java", "JavaScript", "TypeScript", "C++", "C#", "Golang", "Rust", "Kotlin", "Swift",
	"PHP", "Ruby", "Scala", "SQL", "MySQL", "PostgreSQL", "MongoDB", "Redis", "Oracle", "SQLite",
	"React", "Angular", "Vue", "Node.js", "Django", "Flask", "FastAPI", "Spring", "Spring Boot",
	"Express", "HTML", "CSS", "Bootstrap", "Tailwind", "jQuery",
	"AWS", "Azure", "GCP", "Docker", "Kubernetes", "Jenkins", "Terraform", "Ansible", "Linux",
	"Git", "GitHub", "GitLab", "JIRA", "Postman", "REST", "GraphQL", "Kafka", "RabbitMQ",
	"Machine Learning", "Deep Learning", "NLP", "TensorFlow", "PyTorch", "Pandas", "NumPy",
	"Scikit-learn", "Power BI", "Tableau", "Excel", "Data Analysis", "Spark", "Hadoop",
	"Selenium", "Figma", "Agile", "Scrum", "Communication", "Leadership",
}

var vocabularyPatterns = compileVocabulary(techVocabulary)

func compileVocabulary(words []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(words))
	for _, w := range words {
		patterns = append(patterns, regexp.MustCompile(`(?i)(?:^|[^A-Za-z0-9+#.])(`+regexp.QuoteMeta(w)+`)(?:$|[^A-Za-z0-9+#])`))
	}
	return patterns
}

// HeuristicStrategy extracts a record with regular expressions and line
// scans only. Missing fields become the sentinel; only a defect in the
// scanning itself is reported, as a FatalError.
type HeuristicStrategy struct{}

// NewHeuristicStrategy returns the local fallback strategy.
func NewHeuristicStrategy() HeuristicStrategy {
	return HeuristicStrategy{}
}

func (HeuristicStrategy) Name() string { return "heuristic" }

// Extract implements Strategy.
func (h HeuristicStrategy) Extract(_ context.Context, text string) (rec types.CandidateRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = types.CandidateRecord{}
			err = &FatalError{Strategy: h.Name(), Message: "heuristic extraction panicked", Cause: fmt.Errorf("%v", r)}
		}
	}()

	rec = HeuristicRecord(text)
	log.Printf("[extraction] heuristic extraction completed for %q", rec.Name)
	return rec, nil
}

// HeuristicRecord runs every fallback scan over text and normalizes the result.
func HeuristicRecord(text string) types.CandidateRecord {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	rec := types.NewCandidateRecord()
	if m := emailPattern.FindString(text); m != "" {
		rec.Email = m
	}
	if m := findPhone(text); m != "" {
		rec.Phone = normalize.Phone(m)
	}

	rec.Name = findName(lines)
	if types.IsAvailable(rec.Email) {
		name, score := identity.Reconcile(rec.Name, rec.Email)
		if name != rec.Name {
			log.Printf("[extraction] name %q replaced by %q from email (confidence %d: %s)", rec.Name, name, score.Confidence, score.Reason)
		}
		if name != "" {
			rec.Name = name
		}
	}

	rec.Location = findLocation(lines, rec.Name)
	rec.Skills = findSkills(lines)
	rec.Experience = findExperience(lines, text)
	rec.Education = findEducation(lines)

	return normalize.Record(rec)
}

// findPhone prefers the grouped pattern and falls back to any run of 10-15
// digits with separators, which covers "+91 98765 43210".
func findPhone(text string) string {
	if m := phonePattern.FindString(text); m != "" {
		return m
	}
	for _, m := range barePhone.FindAllString(text, -1) {
		if n := countDigits(m); n >= 10 && n <= 15 {
			return m
		}
	}
	return ""
}

// findName takes the first short Title Case or ALL CAPS line of 2-4 words
// near the top.
func findName(lines []string) string {
	for _, line := range head(lines, 15) {
		line = strings.TrimSpace(line)
		if strings.Contains(line, "@") || hasDigit(line) {
			continue
		}
		if n := len([]rune(line)); n < 5 || n > 50 {
			continue
		}
		if containsWord(line, resumeHeaderWords) {
			continue
		}
		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 4 {
			continue
		}
		if isTitleLine(words) || isUpperLine(line) {
			return normalize.TitleCase(line)
		}
	}
	return types.NotAvailable
}

// findLocation looks for an explicit marker first, then for a "City, Region"
// pair near the top that does not overlap the name.
func findLocation(lines []string, name string) string {
	for i, line := range head(lines, 30) {
		m := locationMarker.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		rest := strings.TrimSpace(m[1])
		if strings.Contains(rest, ",") && len(rest) < 100 {
			return rest
		}
		if rest == "" && i+1 < len(lines) {
			next := strings.TrimSpace(lines[i+1])
			if strings.Contains(next, ",") && len(next) < 100 {
				return next
			}
		}
	}

	lowerName := strings.ToLower(name)
	for _, line := range head(lines, 20) {
		if strings.Contains(line, "@") || urlPattern.MatchString(line) {
			continue
		}
		m := placePairPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		loc := m[1] + ", " + m[2]
		lowerLoc := strings.ToLower(loc)
		if types.IsAvailable(name) && (strings.Contains(lowerName, lowerLoc) || strings.Contains(lowerLoc, lowerName)) {
			continue
		}
		return loc
	}
	return types.NotAvailable
}

// findSkills collects terms inside skills sections plus known technology
// names anywhere in the text. The result is sorted case-insensitively.
func findSkills(lines []string) string {
	var terms []string
	inSkills := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isSectionHeader(trimmed, skillsHeaders) {
			inSkills = true
		} else if isSectionHeader(trimmed, skillsEndHeaders) {
			inSkills = false
		} else if inSkills && trimmed != "" {
			for _, chunk := range bulletPattern.Split(trimmed, -1) {
				for _, tok := range skillSeparators.Split(chunk, -1) {
					tok = strings.TrimSpace(tok)
					if n := len([]rune(tok)); n >= 2 && n < 50 {
						terms = append(terms, tok)
					}
				}
			}
		}

		for _, p := range vocabularyPatterns {
			for _, m := range p.FindAllStringSubmatch(line, -1) {
				terms = append(terms, m[1])
			}
		}
	}

	terms = normalize.DedupSkills(terms)
	if len(terms) == 0 {
		return types.NotAvailable
	}
	sort.SliceStable(terms, func(i, j int) bool {
		return strings.ToLower(terms[i]) < strings.ToLower(terms[j])
	})
	return strings.Join(terms, ", ")
}

// findExperience keeps up to ten dated role lines from experience sections.
func findExperience(lines []string, text string) string {
	var entries []string
	inExperience := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isSectionHeader(trimmed, experienceHeaders) {
			inExperience = true
			continue
		}
		if isSectionHeader(trimmed, experienceEndHeaders) {
			inExperience = false
			continue
		}
		if !inExperience {
			continue
		}
		if n := len([]rune(trimmed)); n < 20 || n > 200 {
			continue
		}
		if !datePattern.MatchString(trimmed) || !hasRoleIndicator(trimmed) {
			continue
		}
		entries = append(entries, trimmed)
		if len(entries) >= 10 {
			break
		}
	}

	if len(entries) > 0 {
		return normalize.ExperienceDates(strings.Join(entries, ", "))
	}
	lower := strings.ToLower(text)
	for _, w := range fresherWords {
		if strings.Contains(lower, w) {
			return types.FresherSentinel
		}
	}
	return types.NotAvailable
}

// findEducation takes the first degree line, else the first substantial line
// after an education header.
func findEducation(lines []string) string {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if n := len([]rune(trimmed)); n < 15 || n > 200 {
			continue
		}
		if degreePattern.MatchString(trimmed) {
			return trimmed
		}
	}

	inEducation := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isSectionHeader(trimmed, []string{"education"}) {
			inEducation = true
			continue
		}
		if inEducation && len([]rune(trimmed)) > 15 {
			return trimmed
		}
	}
	return types.NotAvailable
}

// isSectionHeader reports whether line is a short line naming one of the
// given sections. A line that reads as a dated role entry is never a header,
// so "Internship at ABC Solutions, May - July" stays an entry.
func isSectionHeader(line string, keywords []string) bool {
	if line == "" || len([]rune(line)) >= 50 {
		return false
	}
	if datePattern.MatchString(line) && hasRoleIndicator(line) {
		return false
	}
	lower := strings.ToLower(line)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func hasRoleIndicator(line string) bool {
	lower := strings.ToLower(line)
	if strings.Contains(lower, " at ") {
		return true
	}
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) }) {
		w = strings.TrimSuffix(w, "s")
		if roleWords[w] || companyWords[w] {
			return true
		}
	}
	return false
}

func isTitleLine(words []string) bool {
	for _, w := range words {
		first := true
		for _, r := range w {
			if !unicode.IsLetter(r) {
				continue
			}
			if first {
				if !unicode.IsUpper(r) {
					return false
				}
				first = false
				continue
			}
			if unicode.IsUpper(r) {
				return false
			}
		}
		if first {
			return false
		}
	}
	return true
}

func isUpperLine(line string) bool {
	hasLetter := false
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// containsWord matches whole words case-insensitively.
func containsWord(line string, words []string) bool {
	fields := strings.FieldsFunc(strings.ToLower(line), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, f := range fields {
		for _, w := range words {
			if f == w {
				return true
			}
		}
	}
	return false
}

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func head(lines []string, n int) []string {
	if len(lines) < n {
		return lines
	}
	return lines[:n]
}
