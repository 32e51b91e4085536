package output

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/dshills/quorum/internal/review"
)

// TextWriter outputs a human-readable terminal report.
type TextWriter struct {
	Color bool
}

var severityColors = map[review.Severity]lipgloss.Color{
	review.SeverityCritical: lipgloss.Color("#ff5555"),
	review.SeverityHigh:     lipgloss.Color("#ffb86c"),
	review.SeverityMedium:   lipgloss.Color("#f1fa8c"),
	review.SeverityLow:      lipgloss.Color("#50fa7b"),
	review.SeverityInfo:     lipgloss.Color("#8be9fd"),
}

type textStyles struct {
	title    lipgloss.Style
	dim      lipgloss.Style
	location lipgloss.Style
	severity func(review.Severity) lipgloss.Style
}

func newTextStyles(w io.Writer, color bool) textStyles {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.TrueColor)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return textStyles{
		title:    r.NewStyle().Bold(true),
		dim:      r.NewStyle().Foreground(lipgloss.Color("#6272a4")),
		location: r.NewStyle().Bold(true).Underline(true),
		severity: func(s review.Severity) lipgloss.Style {
			return r.NewStyle().Bold(true).Foreground(severityColors[s])
		},
	}
}

func (t *TextWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}
	st := newTextStyles(w, t.Color)
	s := report.Summary

	ew.println(st.title.Render("Quorum Code Review"))
	if report.Repository != "" {
		target := report.Repository
		if report.PRNumber > 0 {
			target += "#" + itoa(report.PRNumber)
		}
		ew.printf("Target: %s\n", target)
	}
	if mode := metaString(report, "mode"); mode != "" {
		ew.printf("Mode: %s\n", mode)
	}
	ew.printf("Files reviewed: %d | Lines analyzed: %d | Score: %.0f/100\n",
		s.FilesReviewed, s.LinesAnalyzed, report.Score)
	ew.println(strings.Repeat("─", 60))
	ew.printf("Findings: %d total", s.TotalIssues)
	if s.TotalIssues > 0 {
		var parts []string
		for _, sev := range review.Severities {
			if n := s.Count(sev); n > 0 {
				parts = append(parts, itoa(n)+" "+string(sev))
			}
		}
		ew.printf(" (%s)", strings.Join(parts, ", "))
	}
	ew.println("")
	ew.println(strings.Repeat("─", 60))

	if len(report.Findings) == 0 {
		ew.println("\nNo issues found. Looks good!")
		return ew.err
	}

	// Findings arrive ranked, so grouping preserves severity then confidence order.
	var current review.Severity = "-"
	for _, f := range report.Findings {
		if f.Severity != current {
			current = f.Severity
			ew.printf("\n%s\n", st.severity(f.Severity).Render(strings.ToUpper(severityLabel(f.Severity))))
			ew.println(st.dim.Render(strings.Repeat("─", 40)))
		}

		ew.printf("\n  %s  %s\n", st.location.Render(f.Location()), f.Issue)
		ew.printf("  %s\n", st.dim.Render("Agent: "+f.Agent+" | Category: "+string(f.Category)+" | Confidence: "+percent(f.Confidence)))

		if f.Suggestion != "" {
			ew.println("  Suggestion:")
			for _, line := range wrapText(f.Suggestion, 70) {
				ew.printf("    %s\n", line)
			}
		}
		if f.CodeSnippet != "" {
			for _, line := range strings.Split(f.CodeSnippet, "\n") {
				ew.printf("    %s\n", st.dim.Render("│ "+line))
			}
		}
	}

	if truncated, _ := report.Metadata["truncated"].(bool); truncated {
		ew.printf("\n(showing %d of %d findings)\n", len(report.Findings), s.TotalIssues)
	}
	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("Completed in %dms (fetch: %dms, review: %dms)\n",
		report.Timing.TotalMs, report.Timing.FetchMs, report.Timing.ReviewMs)

	return ew.err
}

func wrapText(text string, width int) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		if len(para) <= width {
			lines = append(lines, para)
			continue
		}
		var current strings.Builder
		for _, word := range strings.Fields(para) {
			if current.Len()+len(word)+1 > width && current.Len() > 0 {
				lines = append(lines, current.String())
				current.Reset()
			}
			if current.Len() > 0 {
				current.WriteString(" ")
			}
			current.WriteString(word)
		}
		if current.Len() > 0 {
			lines = append(lines, current.String())
		}
	}
	return lines
}
