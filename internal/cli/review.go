package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/XiaoConstantine/dspy-go/pkg/logging"
	"github.com/spf13/cobra"

	"github.com/dshills/quorum/internal/agents"
	"github.com/dshills/quorum/internal/cache"
	"github.com/dshills/quorum/internal/config"
	"github.com/dshills/quorum/internal/gitctx"
	"github.com/dshills/quorum/internal/logx"
	"github.com/dshills/quorum/internal/output"
	"github.com/dshills/quorum/internal/providers"
	"github.com/dshills/quorum/internal/review"
)

// Shared review flags
var (
	flagPaths        string
	flagExclude      string
	flagContextLines int
	flagMaxDiffBytes int
	flagProvider     string
	flagModel        string
	flagAgents       string
	flagConcurrency  int
	flagFormat       string
	flagOut          string
	flagFailOn       string
	flagMaxFindings  int
	flagRules        string
	flagNoRedact     bool
	flagNoCache      bool
)

// addAnalyzerFlags adds the flags that shape the analyzer panel.
func addAnalyzerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagProvider, "provider", "", "LLM provider ("+strings.Join(providers.Names(), ", ")+")")
	cmd.Flags().StringVar(&flagModel, "model", "", "Model name")
	cmd.Flags().StringVar(&flagAgents, "agents", "", "Analyzers to run (comma-separated: "+strings.Join(agents.DefaultKeys(), ", ")+")")
	cmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "Maximum concurrent analyzer calls")
	cmd.Flags().StringVar(&flagRules, "rules", "", "Rules file path (YAML or JSON)")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Bypass the completion cache")
}

func addReviewFlags(cmd *cobra.Command) {
	addAnalyzerFlags(cmd)
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format ("+strings.Join(output.Formats(), ", ")+")")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Fail on severity threshold (none, info, low, medium, high, critical)")
	cmd.Flags().IntVar(&flagMaxFindings, "max-findings", 0, "Maximum number of findings to report")
}

func addDiffFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagPaths, "paths", "", "Include file path globs (comma-separated)")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated)")
	cmd.Flags().IntVar(&flagContextLines, "context-lines", 0, "Number of context lines in diff")
	cmd.Flags().IntVar(&flagMaxDiffBytes, "max-diff-bytes", 0, "Maximum diff size in bytes")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagAgents != "" {
		m["agents"] = flagAgents
	}
	if flagConcurrency > 0 {
		m["maxConcurrency"] = strconv.Itoa(flagConcurrency)
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagFailOn != "" {
		m["failOn"] = flagFailOn
	}
	if flagMaxFindings > 0 {
		m["maxFindings"] = strconv.Itoa(flagMaxFindings)
	}
	if flagRules != "" {
		m["rulesFile"] = flagRules
	}
	if flagNoRedact {
		m["privacy.redactSecrets"] = "false"
	}
	if flagNoCache {
		m["cache.enabled"] = "false"
	}
	return m
}

func buildDiffOpts() gitctx.DiffOptions {
	return gitctx.DiffOptions{
		ContextLines: flagContextLines,
		MaxDiffBytes: flagMaxDiffBytes,
		Include:      splitComma(flagPaths),
		Exclude:      splitComma(flagExclude),
	}
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// buildService wires config into analyzers, an orchestrator, and a review
// service. source may be nil for local reviews.
func buildService(cfg config.Config, source review.PRSource) (*review.Service, error) {
	logger := logging.GetLogger()
	if !cfg.Privacy.RedactSecrets {
		fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
	}

	rules, err := review.LoadRules(cfg.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}

	var completer providers.Completer
	if agents.NeedsCompleter(cfg.Agents) {
		completer, err = providers.New(providers.Settings{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			APIKey:   cfg.APIKey(),
			BaseURL:  cfg.LLM.BaseURL,
			Timeout:  cfg.LLMTimeout(),
		})
		if err != nil {
			return nil, err
		}
	}

	var c *cache.Cache
	if cfg.Cache.Enabled {
		c, err = cache.New(true, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
		if err != nil {
			logger.Warn(context.Background(), "Completion cache unavailable: %v", err)
			c = nil
		}
	}

	analyzers, err := agents.Build(cfg.Agents, completer, agents.LLMOptions{
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Redact:      cfg.Privacy.RedactSecrets,
		RedactPaths: cfg.Privacy.RedactPaths,
		Rules:       rules,
		Cache:       c,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	orch := review.NewOrchestrator(analyzers, review.Options{
		MaxConcurrency:  cfg.MaxConcurrency,
		AnalyzerTimeout: cfg.AnalyzerTimeout(),
		Rules:           rules,
		Logger:          logger,
	})
	return review.NewService(orch, source, review.ServiceOptions{
		Version:       version,
		MaxFileSizeKB: cfg.Review.MaxFileSizeKB,
		Logger:        logger,
	}), nil
}

// signalContext returns a context cancelled on interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// failWith reports err on stderr and picks the matching exit code.
func failWith(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if providers.IsAuthError(err) || errors.Is(err, agents.ErrNoCompleter) {
		exitCode = ExitAuthError
		return
	}
	exitCode = ExitRuntimeError
}

// emitReport writes the report and sets the exit code from the fail-on
// threshold.
func emitReport(report *review.Report, cfg config.Config) {
	report.Truncate(cfg.MaxFindings)

	color := !flagNoColor && flagOut == "" && logx.IsTerminal(os.Stdout)
	if err := output.WriteReport(report, cfg.Format, flagOut, output.Options{Color: color}); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	if exceedsThreshold(report, cfg.FailOn) {
		exitCode = ExitFindings
	}
}

// exceedsThreshold checks the summary rather than the findings so truncation
// cannot hide a blocking finding.
func exceedsThreshold(report *review.Report, failOn string) bool {
	return review.MeetsThreshold(report.Summary.HighestSeverity(), failOn)
}

func runLocalReview(collect func(gitctx.DiffOptions) (gitctx.DiffResult, error)) error {
	cfg, err := config.Load(buildOverrides())
	if err != nil {
		return err
	}
	diff, err := collect(buildDiffOpts())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return nil
	}
	if diff.Truncated {
		fmt.Fprintf(os.Stderr, "Warning: diff exceeds --max-diff-bytes; some files were skipped\n")
	}

	svc, err := buildService(cfg, nil)
	if err != nil {
		failWith(err)
		return nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	report := svc.ReviewChanges(ctx, diff.Changes, nil)
	report.Repository = diff.Repo.Root
	report.Metadata = map[string]any{"mode": string(diff.Mode), "branch": diff.Repo.Branch, "head": diff.Repo.Head}
	if diff.Range != "" {
		report.Metadata["range"] = diff.Range
	}
	emitReport(report, cfg)
	return nil
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review code changes",
	Long:  "Review code changes with the configured analyzers. Use subcommands to specify what to review.",
}

var flagDiffLanguage string
var flagDiffContext string

var reviewDiffCmd = &cobra.Command{
	Use:   "diff [file|-]",
	Short: "Review a unified diff from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		var r io.Reader = cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				exitCode = ExitRuntimeError
				return nil
			}
			defer f.Close()
			r = f
		}
		data, err := io.ReadAll(r)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading diff: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		svc, err := buildService(cfg, nil)
		if err != nil {
			failWith(err)
			return nil
		}

		ctx, cancel := signalContext()
		defer cancel()

		report := svc.ReviewDiff(ctx, string(data), flagDiffLanguage, flagDiffContext)
		emitReport(report, cfg)
		return nil
	},
}

var reviewUnstagedCmd = &cobra.Command{
	Use:   "unstaged",
	Short: "Review unstaged changes (working tree vs index)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLocalReview(gitctx.Unstaged)
	},
}

var reviewStagedCmd = &cobra.Command{
	Use:   "staged",
	Short: "Review staged changes (index vs HEAD)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLocalReview(gitctx.Staged)
	},
}

var reviewCommitCmd = &cobra.Command{
	Use:   "commit <sha>",
	Short: "Review a specific commit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLocalReview(func(opts gitctx.DiffOptions) (gitctx.DiffResult, error) {
			return gitctx.Commit(args[0], opts)
		})
	},
}

var flagMergeBase bool

var reviewRangeCmd = &cobra.Command{
	Use:   "range <revRange>",
	Short: "Review a revision range (e.g., origin/main..HEAD)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLocalReview(func(opts gitctx.DiffOptions) (gitctx.DiffResult, error) {
			return gitctx.Range(args[0], flagMergeBase, opts)
		})
	},
}

func init() {
	reviewCmd.AddCommand(reviewDiffCmd)
	reviewCmd.AddCommand(reviewUnstagedCmd)
	reviewCmd.AddCommand(reviewStagedCmd)
	reviewCmd.AddCommand(reviewCommitCmd)
	reviewCmd.AddCommand(reviewRangeCmd)
	reviewCmd.AddCommand(reviewPRCmd)

	for _, cmd := range []*cobra.Command{
		reviewDiffCmd,
		reviewUnstagedCmd,
		reviewStagedCmd,
		reviewCommitCmd,
		reviewRangeCmd,
		reviewPRCmd,
	} {
		addReviewFlags(cmd)
	}
	for _, cmd := range []*cobra.Command{
		reviewUnstagedCmd,
		reviewStagedCmd,
		reviewCommitCmd,
		reviewRangeCmd,
	} {
		addDiffFlags(cmd)
	}

	reviewDiffCmd.Flags().StringVar(&flagDiffLanguage, "language", "", "Language for files whose type cannot be detected")
	reviewDiffCmd.Flags().StringVar(&flagDiffContext, "context", "", "Additional context passed to every analyzer")
	reviewRangeCmd.Flags().BoolVar(&flagMergeBase, "merge-base", true, "Use merge base for branch comparisons")
}
