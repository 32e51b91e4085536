package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/XiaoConstantine/dspy-go/pkg/logging"

	"github.com/dshills/quorum/internal/diffparse"
)

// PRSource fetches pull requests from a remote repository host.
type PRSource interface {
	FetchPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error)
}

// ErrNoPRSource is returned by ReviewPullRequest when no PRSource is configured.
var ErrNoPRSource = errors.New("no pull request source configured")

// ServiceOptions configures a Service.
type ServiceOptions struct {
	Version string
	// MaxFileSizeKB skips files whose patch exceeds the limit. Zero disables it.
	MaxFileSizeKB int
	// DefaultLanguage is used for raw-diff files whose extension is unknown.
	DefaultLanguage string
	Logger          *logging.Logger
}

// Service runs complete reviews of raw diffs and pull requests.
type Service struct {
	orch   *Orchestrator
	source PRSource
	opts   ServiceOptions
	logger *logging.Logger
}

// NewService creates a review service. source may be nil when only raw diffs
// are reviewed.
func NewService(orch *Orchestrator, source PRSource, opts ServiceOptions) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Service{orch: orch, source: source, opts: opts, logger: logger}
}

// Orchestrator returns the orchestrator the service dispatches to.
func (s *Service) Orchestrator() *Orchestrator {
	return s.orch
}

// WithSource returns a copy of the service that fetches pull requests from
// source. The orchestrator is shared.
func (s *Service) WithSource(source PRSource) *Service {
	c := *s
	c.source = source
	return &c
}

// ReviewDiff parses a unified diff and reviews each file in it. language is
// used for files whose language cannot be detected; extraContext is passed to
// analyzers as additional context.
func (s *Service) ReviewDiff(ctx context.Context, diff, language, extraContext string) *Report {
	s.logger.Info(ctx, "Starting review of raw diff")

	records := diffparse.Parse(diff)
	parsed, added, removed := diffparse.Stats(records)
	s.logger.Debug(ctx, "Parsed %d files (+%d/-%d)", parsed, added, removed)

	var pr *PRContext
	if extraContext != "" {
		pr = &PRContext{Extra: extraContext}
	}
	report := s.ReviewChanges(ctx, fileChanges(records, s.fallbackLanguage(language)), pr)
	report.Metadata = map[string]any{
		"mode":            "diff",
		"files_parsed":    parsed,
		"total_additions": added,
		"total_deletions": removed,
	}

	s.logger.Info(ctx, "Diff review completed: %d issues", report.Summary.TotalIssues)
	return report
}

// ReviewChanges reviews already-split file changes, such as those collected
// from a local git repository.
func (s *Service) ReviewChanges(ctx context.Context, files []FileChange, pr *PRContext) *Report {
	start := time.Now()

	files = s.filterOversized(ctx, files)
	findings, summary := s.orch.ReviewChanges(ctx, files, pr)

	report := NewReport(s.opts.Version, findings, summary)
	report.Timing.ReviewMs = time.Since(start).Milliseconds()
	report.Timing.TotalMs = report.Timing.ReviewMs
	return report
}

// ReviewPullRequest fetches a pull request and reviews its changed files.
func (s *Service) ReviewPullRequest(ctx context.Context, owner, repo string, number int) (*Report, error) {
	if s.source == nil {
		return nil, ErrNoPRSource
	}
	start := time.Now()
	s.logger.Info(ctx, "Starting review for PR #%d in %s/%s", number, owner, repo)

	pr, err := s.source.FetchPullRequest(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("fetching pull request: %w", err)
	}
	fetched := time.Now()

	files := s.filterOversized(ctx, pr.Files)
	findings, summary := s.orch.ReviewChanges(ctx, files, pr.Context())

	report := NewReport(s.opts.Version, findings, summary)
	report.Repository = owner + "/" + repo
	report.PRNumber = number
	report.Metadata = PRMetadata(pr)
	report.Timing = Timing{
		FetchMs:  fetched.Sub(start).Milliseconds(),
		ReviewMs: time.Since(fetched).Milliseconds(),
		TotalMs:  time.Since(start).Milliseconds(),
	}

	s.logger.Info(ctx, "Review completed for PR #%d: %d issues", number, summary.TotalIssues)
	return report, nil
}

// PRMetadata summarises a pull request for report metadata.
func PRMetadata(pr *PullRequest) map[string]any {
	var additions, deletions int
	for _, f := range pr.Files {
		additions += f.Additions
		deletions += f.Deletions
	}
	return map[string]any{
		"pr_title":        pr.Title,
		"pr_author":       pr.Author,
		"base_branch":     pr.BaseBranch,
		"head_branch":     pr.HeadBranch,
		"files_changed":   len(pr.Files),
		"total_additions": additions,
		"total_deletions": deletions,
	}
}

// fileChanges converts parsed records into reviewable file changes,
// naming unnamed files "unknown" and defaulting undetected languages.
func fileChanges(records []diffparse.ChangeRecord, fallbackLanguage string) []FileChange {
	files := make([]FileChange, 0, len(records))
	for _, rec := range records {
		name := rec.Filename
		if name == "" {
			name = "unknown"
		}
		lang := rec.Language
		if lang == "" {
			lang = fallbackLanguage
		}
		files = append(files, FileChange{
			Filename:  name,
			Patch:     diffparse.Patch(rec),
			Language:  lang,
			Status:    "modified",
			Additions: len(rec.AddedLines),
			Deletions: len(rec.RemovedLines),
			Changes:   len(rec.AddedLines) + len(rec.RemovedLines),
		})
	}
	return files
}

func (s *Service) fallbackLanguage(language string) string {
	if language != "" {
		return language
	}
	return s.opts.DefaultLanguage
}

func (s *Service) filterOversized(ctx context.Context, files []FileChange) []FileChange {
	if s.opts.MaxFileSizeKB <= 0 {
		return files
	}
	limit := s.opts.MaxFileSizeKB * 1024
	kept := make([]FileChange, 0, len(files))
	for _, f := range files {
		if len(f.Patch) > limit {
			s.logger.Warn(ctx, "Skipping %s: patch is %d bytes, limit is %d KB", f.Filename, len(f.Patch), s.opts.MaxFileSizeKB)
			continue
		}
		kept = append(kept, f)
	}
	return kept
}
