package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/kevinmichaelchen/repo-summary/internal/models"
	"github.com/kevinmichaelchen/repo-summary/internal/surrealdb"
)

var (
	errorColor = lipgloss.Color("#EF4444")
	mutedColor = lipgloss.Color("#6B7280")

	ErrorStyle = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	Subtle     = lipgloss.NewStyle().Foreground(mutedColor)
)

// Markdown renders md for the terminal, falling back to the raw text.
func Markdown(md string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}

// Error formats err as a single styled line.
func Error(err error) string {
	return ErrorStyle.Render("✗ " + err.Error())
}

// ReportMarkdown is the markdown document for one summary report.
func ReportMarkdown(r *models.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.FullName())
	fmt.Fprintf(&b, "%s\n\n", r.Summary.Summary)
	if len(r.Summary.Technologies) > 0 {
		b.WriteString("## Technologies\n\n")
		for _, t := range r.Summary.Technologies {
			fmt.Fprintf(&b, "- %s\n", t)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "## Structure\n\n%s\n\n", r.Summary.Structure)
	if len(r.Files) > 0 {
		fmt.Fprintf(&b, "## Files read (%d, %d chars, branch `%s`)\n\n", len(r.Files), r.ContextChars, r.Branch)
		for _, f := range r.Files {
			fmt.Fprintf(&b, "- `%s`\n", f)
		}
	}
	return strings.TrimSpace(b.String()) + "\n"
}

// HistoryMarkdown lists archived summaries, newest first.
func HistoryMarkdown(rows []models.ArchivedSummary) string {
	if len(rows) == 0 {
		return "No summaries recorded yet\n"
	}
	var b strings.Builder
	for i, r := range rows {
		fmt.Fprintf(&b, "%d. **%s** (%s)\n", i+1, r.FullName, r.SummarizedAt)
		fmt.Fprintf(&b, "   %s\n", r.Summary)
		if len(r.Technologies) > 0 {
			fmt.Fprintf(&b, "   _%s_\n", strings.Join(r.Technologies, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// SearchMarkdown lists search hits with their similarity scores.
func SearchMarkdown(query string, results []models.SearchResult) string {
	if len(results) == 0 {
		return "No results found\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Top %d results for %q:\n\n", len(results), query)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. **%s** (%.3f)\n", i+1, r.FullName, r.Score)
		fmt.Fprintf(&b, "   %s\n", r.URL)
		fmt.Fprintf(&b, "   %s\n", r.Summary)
		if len(r.Technologies) > 0 {
			fmt.Fprintf(&b, "   Tech: %s\n", strings.Join(r.Technologies, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// StatsText is the plain-text stats report.
func StatsText(stats *surrealdb.Stats, techs []surrealdb.TechnologyCount, top int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Summaries: %d\n", stats.Total)
	fmt.Fprintf(&b, "Embedded:  %d\n", stats.Embedded)
	if len(techs) > 0 {
		if top > 0 && len(techs) > top {
			techs = techs[:top]
		}
		b.WriteString("\nTechnology breakdown:\n")
		for _, t := range techs {
			fmt.Fprintf(&b, "  %-24s %d\n", t.Technology, t.Count)
		}
	}
	return b.String()
}
