package agents

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dshills/quorum/internal/review"
)

const defaultSuggestion = "Review and fix the identified issue"

var (
	numberedProbe = regexp.MustCompile(`\d+\.\s+`)
	numberedSplit = regexp.MustCompile(`\n\d+\.\s+`)
	bulletSplit   = regexp.MustCompile(`\n[-*]\s+`)
	leadingMarker = regexp.MustCompile(`^(\d+\.|[-*])\s+`)
	lineRe        = regexp.MustCompile(`[Ll]ine\s+(\d+)`)
)

var severityKeywords = []struct {
	severity review.Severity
	words    []string
}{
	{review.SeverityCritical, []string{"critical", "severe", "dangerous", "vulnerability"}},
	{review.SeverityHigh, []string{"high", "important", "significant"}},
	{review.SeverityMedium, []string{"medium", "moderate"}},
	{review.SeverityLow, []string{"low", "minor"}},
}

var (
	certainWords   = []string{"always", "never", "must", "will", "definitely"}
	uncertainWords = []string{"might", "could", "possibly", "maybe", "perhaps"}
)

// ParseResponse turns a free-text model answer into findings for one file.
// Each list item becomes one finding; its first line is the issue and the
// remaining lines the suggestion.
func ParseResponse(agent string, category review.Category, file, text string) []review.Finding {
	blocks := SplitIssues(text)
	findings := make([]review.Finding, 0, len(blocks))
	for _, block := range blocks {
		findings = append(findings, parseIssue(agent, category, file, block))
	}
	return findings
}

// SplitIssues splits an answer into issue blocks: on numbered items when the
// text contains any, else on bullets, else the whole text is one issue.
// Introductory text before the first numbered item is dropped.
func SplitIssues(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	var parts []string
	switch {
	case numberedProbe.MatchString(trimmed):
		parts = numberedSplit.Split(trimmed, -1)
		if len(parts) > 1 && !leadingMarker.MatchString(parts[0]) {
			parts = parts[1:]
		}
	case strings.Contains(trimmed, "- ") || strings.Contains(trimmed, "* "):
		parts = bulletSplit.Split(trimmed, -1)
	default:
		return []string{trimmed}
	}

	blocks := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(leadingMarker.ReplaceAllString(strings.TrimSpace(p), ""))
		if p != "" {
			blocks = append(blocks, p)
		}
	}
	return blocks
}

func parseIssue(agent string, category review.Category, file, block string) review.Finding {
	f := review.Finding{
		Agent:      agent,
		File:       file,
		Severity:   ExtractSeverity(block),
		Category:   category,
		Confidence: Confidence(block),
	}
	if m := lineRe.FindStringSubmatch(block); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			f.Line = review.LineRef(n)
		}
	}

	issue, rest, _ := strings.Cut(block, "\n")
	f.Issue = strings.TrimSpace(issue)
	f.Suggestion = strings.TrimSpace(rest)
	if f.Suggestion == "" {
		f.Suggestion = defaultSuggestion
	}
	return f
}

// ExtractSeverity maps severity keywords anywhere in text to a severity,
// checking the most severe bucket first. Text with no keyword is info.
func ExtractSeverity(text string) review.Severity {
	lower := strings.ToLower(text)
	for _, sk := range severityKeywords {
		if containsAny(lower, sk.words) {
			return sk.severity
		}
	}
	return review.SeverityInfo
}

// Confidence scores how assertive the text is, starting from 0.7.
func Confidence(text string) float64 {
	lower := strings.ToLower(text)
	c := 0.7
	if containsAny(lower, certainWords) {
		c += 0.15
	}
	if containsAny(lower, uncertainWords) {
		c -= 0.15
	}
	if strings.Contains(lower, "example") || strings.Contains(lower, "pattern") {
		c += 0.1
	}
	return max(0, min(1, c))
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
