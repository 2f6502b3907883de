// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resource-curator/internal/profile"
	"github.com/jonathan/resource-curator/internal/types"
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

// clip shortens s to n runes, marking the cut with "...".
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func writeList(sb *strings.Builder, label string, items []string) {
	items = profile.NonBlank(items)
	if len(items) == 0 {
		return
	}
	sb.WriteString(label + ":\n")
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-maxItemsToShow))
	}
}

// PrintProfile outputs a human-readable summary of the extracted learner profile.
func (p *Printer) PrintProfile(prof types.Profile) {
	var sb strings.Builder

	if prof.Name != "" {
		sb.WriteString(fmt.Sprintf("Name:     %s\n", prof.Name))
	}
	sb.WriteString(fmt.Sprintf("Role:     %s\n", prof.PreferredRole))
	sb.WriteString(fmt.Sprintf("Language: %s\n", prof.PrimaryLanguage))
	if prof.TargetTimeline != "" {
		sb.WriteString(fmt.Sprintf("Timeline: %s\n", prof.TargetTimeline))
	}
	sb.WriteString("\n")

	writeList(&sb, "Weak areas", prof.WeakAreas)
	writeList(&sb, "Target companies", prof.TargetCompanies)
	writeList(&sb, "Tech stack", prof.TechStack)

	p.printBox("LEARNER PROFILE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintQueries outputs the generated search queries.
func (p *Printer) PrintQueries(queries []string) {
	if len(queries) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Generated %d queries:\n\n", len(queries)))
	for i, q := range queries {
		sb.WriteString(fmt.Sprintf("%2d. %s\n", i+1, q))
	}

	p.printBox("SEARCH QUERIES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintReport outputs per-category counts and the first few titles of each category.
func (p *Printer) PrintReport(report types.CategorizedReport) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total resources: %d\n", report.Total()))

	for _, c := range types.Categories() {
		resources := report[c]
		sb.WriteString(fmt.Sprintf("\n%s (%d)\n", c, len(resources)))
		count := min(len(resources), 3)
		for i := 0; i < count; i++ {
			res := resources[i]
			sb.WriteString(fmt.Sprintf("  • %s [%s]\n", res.Title, res.ResourceType))
		}
		if len(resources) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(resources)-3))
		}
	}

	p.printBox("CURATED RESOURCES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResult prints the profile, queries and report of one run.
func (p *Printer) PrintResult(result *types.PipelineResult) {
	if result == nil {
		return
	}
	p.PrintProfile(result.UserProfile)
	p.PrintQueries(result.SearchQueries)
	p.PrintReport(result.Resources)
}
