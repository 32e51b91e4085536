package review

import "strings"

// DuplicateThreshold is the issue-text similarity above which two findings on
// the same file and line are treated as the same issue.
const DuplicateThreshold = 0.7

// lineKey groups findings by file and optional line.
type lineKey struct {
	file    string
	hasLine bool
	line    int
}

func keyOf(f Finding) lineKey {
	if f.Line == nil {
		return lineKey{file: f.File}
	}
	return lineKey{file: f.File, hasLine: true, line: *f.Line}
}

// Deduplicate drops near-identical findings reported for the same file and
// line. Within a group, each finding is compared in received order against the
// findings kept so far; the first kept finding with Similarity above
// DuplicateThreshold absorbs it, keeping whichever has the higher confidence.
// Findings are never merged, only dropped. Groups are emitted in order of
// first appearance.
func Deduplicate(findings []Finding) []Finding {
	if len(findings) == 0 {
		return []Finding{}
	}

	var order []lineKey
	groups := make(map[lineKey][]Finding)
	for _, f := range findings {
		k := keyOf(f)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], f)
	}

	result := make([]Finding, 0, len(findings))
	for _, k := range order {
		group := groups[k]
		if len(group) == 1 {
			result = append(result, group[0])
			continue
		}
		result = append(result, dedupGroup(group)...)
	}
	return result
}

func dedupGroup(group []Finding) []Finding {
	var kept []Finding
	for _, candidate := range group {
		duplicate := false
		for i, existing := range kept {
			if Similarity(candidate.Issue, existing.Issue) <= DuplicateThreshold {
				continue
			}
			if candidate.Confidence > existing.Confidence {
				kept = append(kept[:i], kept[i+1:]...)
				kept = append(kept, candidate)
			}
			duplicate = true
			break
		}
		if !duplicate {
			kept = append(kept, candidate)
		}
	}
	return kept
}

// Similarity is the Jaccard index of the lower-cased, whitespace-separated
// token sets of a and b. It is 0 when either side has no tokens.
func Similarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	words := strings.Fields(strings.ToLower(s))
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
