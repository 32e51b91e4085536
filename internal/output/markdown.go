package output

import (
	"io"
	"strings"

	"github.com/dshills/quorum/internal/review"
)

// MarkdownWriter outputs a markdown report grouped by file.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}
	s := report.Summary

	ew.printf("# Code Review\n\n")
	if report.Repository != "" {
		if report.PRNumber > 0 {
			ew.printf("**Pull Request:** %s#%d\n\n", report.Repository, report.PRNumber)
		} else {
			ew.printf("**Repository:** %s\n\n", report.Repository)
		}
	}
	ew.printf("**Score:** %.0f/100 | **Files:** %d | **Lines:** %d\n\n", report.Score, s.FilesReviewed, s.LinesAnalyzed)

	ew.println("| Severity | Count |")
	ew.println("|----------|-------|")
	for _, sev := range review.Severities {
		ew.printf("| %s %s | %d |\n", severityEmoji(sev), severityLabel(sev), s.Count(sev))
	}
	ew.printf("| **Total** | **%d** |\n\n", s.TotalIssues)

	if len(report.Findings) == 0 {
		ew.println("No issues found. :white_check_mark:")
		return ew.err
	}

	files, byFile := groupByFile(report.Findings)
	for _, file := range files {
		ew.printf("## 📄 %s\n\n", file)
		for _, f := range byFile[file] {
			ew.printf("### %s %s\n\n", severityEmoji(f.Severity), strings.ToUpper(string(f.Severity)))
			ew.printf("**Agent:** %s\n\n", f.Agent)
			if n := f.LineNumber(); n > 0 {
				ew.printf("**Line:** %d\n\n", n)
			}
			ew.printf("**Issue:** %s\n\n", f.Issue)
			ew.printf("**Category:** %s\n\n", f.Category)
			if f.Suggestion != "" {
				ew.printf("**Suggestion:** %s\n\n", f.Suggestion)
			}
			if f.CodeSnippet != "" {
				ew.printf("```%s\n%s\n```\n\n", fenceLanguage(f.File, ""), strings.TrimRight(f.CodeSnippet, "\n"))
			}
			ew.println("---")
			ew.println("")
		}
	}

	if truncated, _ := report.Metadata["truncated"].(bool); truncated {
		ew.printf("_Showing %d of %d findings._\n", len(report.Findings), s.TotalIssues)
	}
	return ew.err
}
