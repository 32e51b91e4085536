package review

import (
	"fmt"
	"strings"
	"time"
)

// Severity represents the severity level of a finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Severities lists every severity bucket, most severe first.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}

// unknownRank sorts unrecognised severities after every known bucket.
const unknownRank = 999

// SeverityRank returns the sort rank of a severity (0 = most severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	case SeverityInfo:
		return 4
	default:
		return unknownRank
	}
}

// ParseSeverity parses a case-insensitive severity name.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if SeverityRank(sev) == unknownRank {
		return "", fmt.Errorf("unknown severity %q", s)
	}
	return sev, nil
}

// MeetsThreshold returns true if severity is at or above the threshold.
func MeetsThreshold(s Severity, threshold string) bool {
	if threshold == "none" || threshold == "" {
		return false
	}
	t, err := ParseSeverity(threshold)
	if err != nil {
		return false
	}
	r := SeverityRank(s)
	return r != unknownRank && r <= SeverityRank(t)
}

// Category represents the type of finding.
type Category string

const (
	CategorySecurity      Category = "security"
	CategoryPerformance   Category = "performance"
	CategoryQuality       Category = "quality"
	CategoryLogic         Category = "logic"
	CategoryStyle         Category = "style"
	CategoryDocumentation Category = "documentation"
)

// Finding is one issue reported by an analyzer.
type Finding struct {
	Agent       string   `json:"agent"`
	File        string   `json:"file"`
	Line        *int     `json:"line,omitempty"`
	Severity    Severity `json:"severity"`
	Category    Category `json:"category"`
	Issue       string   `json:"issue"`
	Suggestion  string   `json:"suggestion"`
	CodeSnippet string   `json:"codeSnippet,omitempty"`
	Confidence  float64  `json:"confidence"`
}

// LineNumber returns the finding line or 0 when it has none.
func (f Finding) LineNumber() int {
	if f.Line == nil {
		return 0
	}
	return *f.Line
}

// Location formats file and line as "file:line".
func (f Finding) Location() string {
	if f.Line == nil {
		return f.File
	}
	return fmt.Sprintf("%s:%d", f.File, *f.Line)
}

// LineRef returns a pointer to n, for building findings.
func LineRef(n int) *int {
	return &n
}

// FileChange is one changed file handed to the orchestrator.
type FileChange struct {
	Filename  string `json:"filename"`
	Patch     string `json:"patch"`
	Language  string `json:"language"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes,omitempty"`
}

// PRContext is optional pull-request metadata passed to analyzers.
type PRContext struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Author      string `json:"author,omitempty"`
	BaseBranch  string `json:"baseBranch,omitempty"`
	HeadBranch  string `json:"headBranch,omitempty"`
	Extra       string `json:"extra,omitempty"`
}

// PullRequest is the pull-request data a PRSource returns.
type PullRequest struct {
	Number      int
	Title       string
	Description string
	Author      string
	BaseBranch  string
	HeadBranch  string
	State       string
	Files       []FileChange
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Context returns the PRContext view of the pull request.
func (pr *PullRequest) Context() *PRContext {
	return &PRContext{
		Title:       pr.Title,
		Description: pr.Description,
		Author:      pr.Author,
		BaseBranch:  pr.BaseBranch,
		HeadBranch:  pr.HeadBranch,
	}
}

// Summary holds aggregate counts for a review.
type Summary struct {
	TotalIssues   int `json:"totalIssues"`
	Critical      int `json:"critical"`
	High          int `json:"high"`
	Medium        int `json:"medium"`
	Low           int `json:"low"`
	Info          int `json:"info"`
	FilesReviewed int `json:"filesReviewed"`
	LinesAnalyzed int `json:"linesAnalyzed"`
}

// Count returns the number of findings in a severity bucket.
func (s Summary) Count(sev Severity) int {
	switch sev {
	case SeverityCritical:
		return s.Critical
	case SeverityHigh:
		return s.High
	case SeverityMedium:
		return s.Medium
	case SeverityLow:
		return s.Low
	case SeverityInfo:
		return s.Info
	default:
		return 0
	}
}

// HighestSeverity returns the most severe non-empty bucket, or "" if none.
func (s Summary) HighestSeverity() Severity {
	for _, sev := range Severities {
		if s.Count(sev) > 0 {
			return sev
		}
	}
	return ""
}

// Timing contains performance metrics.
type Timing struct {
	FetchMs  int64 `json:"fetchMs,omitempty"`
	ReviewMs int64 `json:"reviewMs"`
	TotalMs  int64 `json:"totalMs"`
}

// Report is the top-level output structure.
type Report struct {
	Tool       string         `json:"tool"`
	Version    string         `json:"version"`
	RunID      string         `json:"runId"`
	Repository string         `json:"repository"`
	PRNumber   int            `json:"prNumber"`
	Summary    Summary        `json:"summary"`
	Score      float64        `json:"score"`
	Findings   []Finding      `json:"findings"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	ReviewedAt time.Time      `json:"reviewedAt"`
	Timing     Timing         `json:"timing"`
}
