// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/profile-extractor/internal/llm"
	"github.com/jonathan/profile-extractor/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// valueWidth is how much of a profile value is shown next to its label
	valueWidth = 40
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, boxWidth-4), boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "..."
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

// pad right-pads s with spaces to n runes
func pad(s string, n int) string {
	if c := utf8.RuneCountInString(s); c < n {
		return s + strings.Repeat(" ", n-c)
	}
	return s
}

// PrintProfile outputs a human-readable summary of the extracted profile.
func (p *Printer) PrintProfile(profile *types.ProfileData) {
	if profile == nil {
		return
	}

	fields := profile.Fields()
	var sb strings.Builder
	filled := 0
	for _, key := range types.ProfileFields {
		value := fields[key]
		if value == "" {
			value = "-"
		} else {
			filled++
		}
		sb.WriteString(fmt.Sprintf("%-13s %s\n", label(key)+":", truncate(value, valueWidth)))
	}
	sb.WriteString(fmt.Sprintf("\n%d of %d fields inferred", filled, len(types.ProfileFields)))

	p.printBox("EXTRACTED PROFILE", sb.String())
}

// PrintProfileSummary outputs the summary returned with a technical test.
func (p *Printer) PrintProfileSummary(summary types.ProfileSummary) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Profession:   %s\n", summary.Profession))
	sb.WriteString(fmt.Sprintf("Technologies: %s\n", summary.Technologies))
	sb.WriteString(fmt.Sprintf("Experience:   %s", summary.Experience))

	p.printBox("PROFILE SUMMARY", sb.String())
}

// PrintAttempts outputs the provider attempts of one stage in order.
func (p *Printer) PrintAttempts(stage string, results []llm.ProviderResult) {
	if len(results) == 0 {
		return
	}

	var sb strings.Builder
	for i, r := range results {
		status := "✓ ok"
		if !r.Succeeded {
			status = "✗ " + string(r.ErrorKind)
		}
		sb.WriteString(fmt.Sprintf("%d. %-16s %-22s %6dms", i+1, r.ProviderID, status, r.LatencyMs))
		if i < len(results)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("PROVIDER ATTEMPTS: "+strings.ToUpper(stage), sb.String())
}

// PrintPromptNames outputs the prompt names known to the repository.
func (p *Printer) PrintPromptNames(names []string) {
	var sb strings.Builder
	if len(names) == 0 {
		sb.WriteString("(none)")
	}
	for i, name := range names {
		sb.WriteString("• " + name)
		if i < len(names)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox(fmt.Sprintf("PROMPTS (%d)", len(names)), sb.String())
}

// label turns a snake_case field key into a title
func label(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
