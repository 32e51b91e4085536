// Package review is the orchestration core of quorum.
//
// An Orchestrator fans every changed file out to a fixed set of Analyzers
// concurrently, tolerates individual analyzer failures, and merges the
// results. Findings reported for the same file and line whose issue text is
// more than 70% similar (Jaccard over word sets) are collapsed to the one with
// the highest confidence. The survivors are ranked by severity, then
// confidence, and counted into a Summary.
//
// Service wraps the orchestrator for the two review entry points: raw unified
// diffs, parsed with package diffparse, and pull requests fetched through a
// PRSource. Rules packs (rules.go) override severities per category and add
// focus areas and required checks to analyzer prompts.
package review
