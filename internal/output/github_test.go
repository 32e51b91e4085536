package output

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestGitHubCommentWriter(t *testing.T) {
	w := &GitHubCommentWriter{Now: func() time.Time {
		return time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	}}

	var buf bytes.Buffer
	if err := w.Write(&buf, sampleReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"## 🤖 AI Code Review",
		"- **Total Issues:** 3",
		"- 🔴 **Critical:** 1",
		"- 🟡 **Medium:** 1",
		"### Detailed Findings",
		"#### 1. 🔴 SQL injection risk",
		"**File:** `db/query.py` (Line 42)",
		"**Agent:** Security Analyst",
		"💡 **Suggestion:** Use parameterized queries",
		"#### 3. 🟢 Function is too long",
		"**File:** `db/query.py`\n",
		"_Reviewed by quorum 1.0.0 at 2024-06-01T09:30:00Z_",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "**High:**") {
		t.Error("empty severity buckets should be omitted")
	}
}

func TestGitHubCommentWriter_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := (&GitHubCommentWriter{}).Write(&buf, emptyReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "No issues found") {
		t.Errorf("expected no-issues message:\n%s", out)
	}
	if strings.Contains(out, "Detailed Findings") {
		t.Error("empty report should have no findings section")
	}
}
