package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/XiaoConstantine/dspy-go/pkg/logging"
	"golang.org/x/sync/errgroup"
)

// AnalyzeInput is what every analyzer receives for one changed file.
type AnalyzeInput struct {
	FilePath string
	Diff     string
	Language string
	Context  string
}

// Analyzer inspects one file change and reports findings.
// Implementations must be safe for concurrent use.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, in AnalyzeInput) ([]Finding, error)
}

// Options tunes an Orchestrator.
type Options struct {
	// MaxConcurrency bounds in-flight analyzer calls. Zero means unbounded.
	MaxConcurrency int
	// AnalyzerTimeout bounds each analyzer call. Zero means no timeout.
	AnalyzerTimeout time.Duration
	// Rules filters and re-rates findings before deduplication.
	Rules  *Rules
	Logger *logging.Logger
}

// Orchestrator fans file changes out to a fixed set of analyzers and merges
// their findings into one ranked list.
type Orchestrator struct {
	analyzers []Analyzer
	opts      Options
	logger    *logging.Logger
}

// NewOrchestrator creates an orchestrator over the given analyzers.
func NewOrchestrator(analyzers []Analyzer, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetLogger()
	}
	o := &Orchestrator{
		analyzers: append([]Analyzer(nil), analyzers...),
		opts:      opts,
		logger:    logger,
	}
	logger.Info(context.Background(), "Initialized orchestrator with %d analyzers", len(o.analyzers))
	return o
}

// Analyzers returns the registered analyzers in dispatch order.
func (o *Orchestrator) Analyzers() []Analyzer {
	return append([]Analyzer(nil), o.analyzers...)
}

// taskResult is the outcome of one (file, analyzer) call.
type taskResult struct {
	analyzer string
	file     string
	findings []Finding
	err      error
}

// ReviewChanges runs every analyzer on every file with a patch, then
// deduplicates, ranks, and summarises the findings. Analyzer failures are
// logged and contribute no findings; they never fail the review.
func (o *Orchestrator) ReviewChanges(ctx context.Context, files []FileChange, pr *PRContext) ([]Finding, Summary) {
	o.logger.Info(ctx, "Starting review of %d files", len(files))

	var (
		work          []FileChange
		inputs        []AnalyzeInput
		filesReviewed int
		linesAnalyzed int
	)
	for _, fc := range files {
		name := fc.Filename
		if name == "" {
			name = "unknown"
		}
		if fc.Patch == "" {
			o.logger.Warn(ctx, "Skipping %s: no patch content", name)
			continue
		}
		o.logger.Debug(ctx, "Reviewing file: %s", name)
		filesReviewed++
		linesAnalyzed += len(strings.Split(fc.Patch, "\n"))
		work = append(work, fc)
		inputs = append(inputs, AnalyzeInput{
			FilePath: name,
			Diff:     fc.Patch,
			Language: languageOrUnknown(fc.Language),
			Context:  BuildContext(fc, pr),
		})
	}

	results := o.dispatch(ctx, inputs)

	var all []Finding
	for _, r := range results {
		if r.err != nil {
			o.logger.Error(ctx, "Analyzer %s failed on %s: %v", r.analyzer, r.file, r.err)
			continue
		}
		all = append(all, r.findings...)
	}

	all = o.opts.Rules.Apply(all)

	deduped := Deduplicate(all)
	o.logger.Info(ctx, "Deduplicated %d -> %d findings", len(all), len(deduped))

	SortFindings(deduped)
	summary := GenerateSummary(deduped, filesReviewed, linesAnalyzed)

	o.logger.Info(ctx, "Review complete: %d issues found", summary.TotalIssues)
	return deduped, summary
}

// dispatch runs one task per (input, analyzer) pair and waits for all of
// them. Slot i*len(analyzers)+j holds the result of analyzer j on input i.
func (o *Orchestrator) dispatch(ctx context.Context, inputs []AnalyzeInput) []taskResult {
	n := len(o.analyzers)
	results := make([]taskResult, len(inputs)*n)
	if len(results) == 0 {
		return results
	}

	var g errgroup.Group
	if o.opts.MaxConcurrency > 0 {
		g.SetLimit(o.opts.MaxConcurrency)
	}

	for i, in := range inputs {
		for j, a := range o.analyzers {
			slot := i*n + j
			g.Go(func() error {
				results[slot] = o.run(ctx, a, in)
				return nil
			})
		}
	}
	_ = g.Wait()

	return results
}

// run invokes one analyzer, turning panics and timeouts into errors.
func (o *Orchestrator) run(ctx context.Context, a Analyzer, in AnalyzeInput) (res taskResult) {
	res = taskResult{analyzer: a.Name(), file: in.FilePath}
	defer func() {
		if r := recover(); r != nil {
			res.findings = nil
			res.err = fmt.Errorf("analyzer panic: %v", r)
		}
	}()

	if o.opts.AnalyzerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.AnalyzerTimeout)
		defer cancel()
	}

	findings, err := a.Analyze(ctx, in)
	if err != nil {
		res.err = err
		return res
	}
	if o.opts.AnalyzerTimeout > 0 && ctx.Err() == context.DeadlineExceeded {
		res.err = fmt.Errorf("analyzer exceeded %s: %w", o.opts.AnalyzerTimeout, ctx.Err())
		return res
	}
	res.findings = findings
	return res
}

// BuildContext assembles the free-text context handed to analyzers for a file.
func BuildContext(fc FileChange, pr *PRContext) string {
	var parts []string

	if pr != nil {
		if pr.Title != "" {
			parts = append(parts, "PR Title: "+pr.Title)
		}
		if pr.Description != "" {
			parts = append(parts, "PR Description: "+pr.Description)
		}
		if pr.Extra != "" {
			parts = append(parts, "Additional Context: "+pr.Extra)
		}
	}

	status := fc.Status
	if status == "" {
		status = "modified"
	}
	parts = append(parts, "File Status: "+status)
	parts = append(parts, fmt.Sprintf("Changes: +%d/-%d", fc.Additions, fc.Deletions))

	return strings.Join(parts, "\n")
}

func languageOrUnknown(lang string) string {
	if lang == "" {
		return "unknown"
	}
	return lang
}
