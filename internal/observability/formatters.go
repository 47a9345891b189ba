// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/cv-intake/internal/store"
	"github.com/jonathan/cv-intake/internal/types"
	"github.com/jonathan/cv-intake/internal/validation"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most n runes, ending in "..." when cut.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

// pad right-pads s with spaces to n runes.
func pad(s string, n int) string {
	if c := utf8.RuneCountInString(s); c < n {
		return s + strings.Repeat(" ", n-c)
	}
	return s
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, inner))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, inner), inner))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintCandidate outputs the extracted record and the strategy that produced it.
func (p *Printer) PrintCandidate(rec *types.CandidateRecord, strategy string) {
	if rec == nil {
		return
	}

	var sb strings.Builder
	if strategy != "" {
		sb.WriteString(fmt.Sprintf("Strategy:   %s\n\n", strategy))
	}
	sb.WriteString(fmt.Sprintf("Name:       %s\n", rec.Name))
	sb.WriteString(fmt.Sprintf("Email:      %s\n", rec.Email))
	sb.WriteString(fmt.Sprintf("Phone:      %s\n", rec.Phone))
	sb.WriteString(fmt.Sprintf("Location:   %s\n", rec.Location))
	sb.WriteString(fmt.Sprintf("Education:  %s\n", rec.Education))

	skills := splitList(rec.Skills)
	if len(skills) > 0 {
		sb.WriteString("\nSkills:\n")
		writeItems(&sb, skills)
	}

	experience := splitList(rec.Experience)
	if len(experience) > 0 {
		sb.WriteString("\nExperience:\n")
		writeItems(&sb, experience)
	}

	p.printBox("EXTRACTED CANDIDATE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintValidation outputs the validation result.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintValidation(res *validation.Result) {
	if res == nil {
		return
	}
	if res.Valid && !res.HasMissingOptional {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %s │\n", pad("✅ RECORD COMPLETE", boxWidth-4))
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	if res.Valid {
		sb.WriteString("✅ Ready to store\n")
	} else {
		sb.WriteString("❌ Missing required details:\n")
		for _, f := range res.MissingMandatory {
			sb.WriteString(fmt.Sprintf("  ⚠ %s\n", f))
		}
	}
	if res.HasMissingOptional {
		sb.WriteString(fmt.Sprintf("\nNot found: %s", strings.Join(res.MissingOptional, ", ")))
	}

	p.printBox("VALIDATION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSaveResult outputs what the store did with a submission.
func (p *Printer) PrintSaveResult(res *store.SaveResult) {
	if res == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Status:  %s\n", res.Status))
	if res.Replaced != nil {
		sb.WriteString(fmt.Sprintf("Replaced row %d (%s)", res.Replaced.RowIndex, res.Replaced.Existing.Name))
	}
	p.printBox("STORED", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintStats outputs store totals.
func (p *Printer) PrintStats(st *store.Stats) {
	if st == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total candidates:  %d\n", st.Total))
	sb.WriteString(fmt.Sprintf("With email:        %d\n", st.WithEmail))
	sb.WriteString(fmt.Sprintf("With phone:        %d\n", st.WithPhone))

	if len(st.ByStatus) > 0 {
		sb.WriteString("\nBy status:\n")
		statuses := make([]string, 0, len(st.ByStatus))
		for s := range st.ByStatus {
			statuses = append(statuses, s)
		}
		sort.Strings(statuses)
		for _, s := range statuses {
			sb.WriteString(fmt.Sprintf("  • %-10s %d\n", s, st.ByStatus[s]))
		}
	}

	p.printBox("CANDIDATE STORE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCandidateList outputs stored candidates, one line each.
func (p *Printer) PrintCandidateList(list []store.StoredCandidate) {
	if len(list) == 0 {
		p.printBox("CANDIDATES", "No candidates stored yet")
		return
	}

	var sb strings.Builder
	for _, c := range list {
		contact := c.Record.Email
		if !types.IsAvailable(contact) {
			contact = c.Record.Phone
		}
		sb.WriteString(fmt.Sprintf("#%-4d %s <%s> %s\n", c.Row, c.Record.Name, contact, c.Status))
	}
	p.printBox(fmt.Sprintf("CANDIDATES (%d)", len(list)), strings.TrimSuffix(sb.String(), "\n"))
}

// splitList splits a comma-separated field, returning nil for the sentinel.
func splitList(field string) []string {
	if !types.IsAvailable(field) {
		return nil
	}
	var out []string
	for _, item := range strings.Split(field, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func writeItems(sb *strings.Builder, items []string) {
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-maxItemsToShow))
	}
}
