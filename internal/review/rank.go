package review

import "sort"

// SortFindings orders findings by severity (critical first), then by
// confidence (highest first). Equal findings keep their input order.
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		ri := SeverityRank(findings[i].Severity)
		rj := SeverityRank(findings[j].Severity)
		if ri != rj {
			return ri < rj
		}
		return findings[i].Confidence > findings[j].Confidence
	})
}

// GenerateSummary counts findings per severity bucket. The file and line
// totals are passed through unchanged.
func GenerateSummary(findings []Finding, filesReviewed, linesAnalyzed int) Summary {
	s := Summary{
		TotalIssues:   len(findings),
		FilesReviewed: filesReviewed,
		LinesAnalyzed: linesAnalyzed,
	}
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			s.Critical++
		case SeverityHigh:
			s.High++
		case SeverityMedium:
			s.Medium++
		case SeverityLow:
			s.Low++
		case SeverityInfo:
			s.Info++
		}
	}
	return s
}

var severityPenalty = map[Severity]float64{
	SeverityCritical: 20,
	SeverityHigh:     10,
	SeverityMedium:   5,
	SeverityLow:      2,
	SeverityInfo:     0,
}

// Score rates a change from 0 to 100 by subtracting a per-severity penalty
// for every finding.
func Score(findings []Finding) float64 {
	var penalty float64
	for _, f := range findings {
		penalty += severityPenalty[f.Severity]
	}
	if penalty >= 100 {
		return 0
	}
	return 100 - penalty
}
