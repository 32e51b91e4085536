package review

import (
	"time"

	"github.com/google/uuid"
)

// ToolName is the tool identifier written into every report.
const ToolName = "quorum"

// NewReport wraps ranked findings and their summary in a Report with a fresh
// run ID and score. Findings are never nil so JSON consumers see [].
func NewReport(version string, findings []Finding, summary Summary) *Report {
	if findings == nil {
		findings = []Finding{}
	}
	return &Report{
		Tool:       ToolName,
		Version:    version,
		RunID:      uuid.NewString(),
		Summary:    summary,
		Score:      Score(findings),
		Findings:   findings,
		ReviewedAt: time.Now().UTC(),
	}
}

// Truncate keeps at most max findings, most severe first. The summary is left
// describing the full review. Zero or negative max keeps everything.
func (r *Report) Truncate(max int) {
	if max <= 0 || len(r.Findings) <= max {
		return
	}
	r.Findings = r.Findings[:max]
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	r.Metadata["truncated"] = true
}
