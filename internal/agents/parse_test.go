package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/quorum/internal/review"
)

func TestSplitIssues(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "   \n", nil},
		{"single", "Looks fine overall.", []string{"Looks fine overall."}},
		{
			name: "numbered",
			text: "1. Line 3: SQL injection\nFix: use params\n2. Line 9: missing auth",
			want: []string{"Line 3: SQL injection\nFix: use params", "Line 9: missing auth"},
		},
		{
			name: "numbered with preamble",
			text: "Here is what I found:\n1. First\n2. Second",
			want: []string{"First", "Second"},
		},
		{
			name: "bullets",
			text: "- Unused variable\n* Shadowed err",
			want: []string{"Unused variable", "Shadowed err"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitIssues(tt.text))
		})
	}
}

func TestExtractSeverity(t *testing.T) {
	tests := []struct {
		text string
		want review.Severity
	}{
		{"CRITICAL: remote code execution", review.SeverityCritical},
		{"This is a dangerous pattern", review.SeverityCritical},
		{"SQL injection vulnerability", review.SeverityCritical},
		{"High risk of data loss", review.SeverityHigh},
		{"A significant slowdown", review.SeverityHigh},
		{"Moderate duplication", review.SeverityMedium},
		{"minor naming nit", review.SeverityLow},
		{"Consider renaming", review.SeverityInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractSeverity(tt.text), tt.text)
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"Plain statement", 0.7},
		{"This will panic on nil", 0.85},
		{"This might be slow", 0.55},
		{"This will always fail, for example with empty input", 0.95},
		{"It could maybe fail; it must be checked", 0.7},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Confidence(tt.text), 1e-9, tt.text)
	}
}

func TestParseResponse(t *testing.T) {
	text := `1. Line 2: SQL injection via string concatenation (CRITICAL)
Impact: attacker controls the query
Fix: use parameterized queries
2. The function name is unclear`

	findings := ParseResponse("Security Analyst", review.CategorySecurity, "app/db.py", text)
	require.Len(t, findings, 2)

	f := findings[0]
	assert.Equal(t, "Security Analyst", f.Agent)
	assert.Equal(t, "app/db.py", f.File)
	require.NotNil(t, f.Line)
	assert.Equal(t, 2, *f.Line)
	assert.Equal(t, review.SeverityCritical, f.Severity)
	assert.Equal(t, review.CategorySecurity, f.Category)
	assert.Equal(t, "Line 2: SQL injection via string concatenation (CRITICAL)", f.Issue)
	assert.Equal(t, "Impact: attacker controls the query\nFix: use parameterized queries", f.Suggestion)

	g := findings[1]
	assert.Nil(t, g.Line)
	assert.Equal(t, review.SeverityInfo, g.Severity)
	assert.Equal(t, defaultSuggestion, g.Suggestion)
}

func TestParseResponse_Empty(t *testing.T) {
	assert.Empty(t, ParseResponse("a", review.CategoryLogic, "f", ""))
}
