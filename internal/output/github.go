package output

import (
	"io"
	"time"

	"github.com/dshills/quorum/internal/review"
)

// GitHubCommentWriter outputs a single markdown body suitable for posting as
// a pull request comment.
type GitHubCommentWriter struct {
	// Now stamps the footer. Defaults to the report's ReviewedAt.
	Now func() time.Time
}

func (g *GitHubCommentWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}
	s := report.Summary

	ew.printf("## 🤖 AI Code Review\n\n")
	ew.printf("### Summary\n\n")
	ew.printf("- **Total Issues:** %d\n", s.TotalIssues)
	for _, sev := range review.Severities {
		if n := s.Count(sev); n > 0 {
			ew.printf("- %s **%s:** %d\n", severityEmoji(sev), severityLabel(sev), n)
		}
	}
	ew.printf("- **Files Reviewed:** %d\n", s.FilesReviewed)
	ew.printf("- **Score:** %.0f/100\n\n", report.Score)

	if len(report.Findings) == 0 {
		ew.printf("✅ No issues found.\n\n")
	} else {
		ew.printf("### Detailed Findings\n\n")
		for i, f := range report.Findings {
			ew.printf("#### %d. %s %s\n\n", i+1, severityEmoji(f.Severity), f.Issue)
			if n := f.LineNumber(); n > 0 {
				ew.printf("**File:** `%s` (Line %d)\n", f.File, n)
			} else {
				ew.printf("**File:** `%s`\n", f.File)
			}
			ew.printf("**Category:** %s\n", f.Category)
			ew.printf("**Agent:** %s\n\n", f.Agent)
			if f.Suggestion != "" {
				ew.printf("💡 **Suggestion:** %s\n\n", f.Suggestion)
			}
			if f.CodeSnippet != "" {
				ew.printf("<details>\n<summary>Code</summary>\n\n```%s\n%s\n```\n\n</details>\n\n",
					fenceLanguage(f.File, ""), f.CodeSnippet)
			}
		}
	}

	stamp := report.ReviewedAt
	if g.Now != nil {
		stamp = g.Now()
	}
	ew.println("---")
	ew.printf("_Reviewed by %s %s at %s_\n", review.ToolName, report.Version, stamp.UTC().Format(time.RFC3339))
	return ew.err
}
