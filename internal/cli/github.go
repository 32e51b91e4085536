package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dshills/quorum/internal/config"
	"github.com/dshills/quorum/internal/github"
	"github.com/dshills/quorum/internal/review"
)

var (
	flagPost   bool
	flagDryRun bool
)

var reviewPRCmd = &cobra.Command{
	Use:   "pr [owner/repo] <number>",
	Short: "Review a GitHub pull request",
	Long: "Fetch a pull request's changed files from GitHub, run every analyzer on them, and " +
		"optionally post the findings back as a pull request review. The repository is " +
		"detected from the origin remote when omitted.",
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, repo, number, err := parsePRArgs(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitUsageError
			return nil
		}

		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		ghClient, err := github.NewClient(cfg.GitHub.Token, cfg.GitHub.APIURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		if flagPost && !flagDryRun && cfg.GitHub.Token == "" {
			fmt.Fprintf(os.Stderr, "Error: %v (required for --post)\n", github.ErrNoToken)
			exitCode = ExitAuthError
			return nil
		}

		source := &fetchedPR{PRSource: ghClient}
		svc, err := buildService(cfg, source)
		if err != nil {
			failWith(err)
			return nil
		}

		ctx, cancel := signalContext()
		defer cancel()

		fmt.Fprintf(os.Stderr, "Reviewing PR #%d in %s/%s...\n", number, owner, repo)
		report, err := svc.ReviewPullRequest(ctx, owner, repo, number)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			if errors.Is(err, github.ErrUnauthorized) {
				exitCode = ExitAuthError
			} else {
				exitCode = ExitRuntimeError
			}
			return nil
		}

		emitReport(report, cfg)
		if exitCode == ExitRuntimeError || !flagPost {
			return nil
		}

		ghReview := github.BuildGitHubReview(report.Findings, filePatches(source.pr))
		if flagDryRun {
			fmt.Fprintf(os.Stderr, "Dry run: %d findings (%d inline), not posting to GitHub.\n",
				len(report.Findings), len(ghReview.Comments))
			return nil
		}

		fmt.Fprintf(os.Stderr, "Posting review (%d inline comments)...\n", len(ghReview.Comments))
		if err := ghClient.PostReview(ctx, owner, repo, number, ghReview); err != nil {
			fmt.Fprintf(os.Stderr, "Error posting review: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		fmt.Fprintf(os.Stderr, "Review posted to PR #%d.\n", number)
		return nil
	},
}

// parsePRArgs accepts "<owner/repo> <number>" or "<number>" with the
// repository detected from git.
func parsePRArgs(args []string) (owner, repo string, number int, err error) {
	numArg := args[len(args)-1]
	number, err = strconv.Atoi(numArg)
	if err != nil || number <= 0 {
		return "", "", 0, fmt.Errorf("invalid PR number %q", numArg)
	}

	if len(args) == 2 {
		owner, repo, err = github.SplitRepo(args[0])
		return owner, repo, number, err
	}
	owner, repo, err = github.DetectRepo()
	if err != nil {
		return "", "", 0, fmt.Errorf("%w; pass <owner/repo> explicitly", err)
	}
	return owner, repo, number, nil
}

// fetchedPR keeps the pull request the service fetched so its patches can
// place inline comments.
type fetchedPR struct {
	review.PRSource
	pr *review.PullRequest
}

func (f *fetchedPR) FetchPullRequest(ctx context.Context, owner, repo string, number int) (*review.PullRequest, error) {
	pr, err := f.PRSource.FetchPullRequest(ctx, owner, repo, number)
	f.pr = pr
	return pr, err
}

// filePatches maps each changed file of pr to its patch.
func filePatches(pr *review.PullRequest) map[string]string {
	patches := make(map[string]string)
	if pr == nil {
		return patches
	}
	for _, fc := range pr.Files {
		if fc.Patch != "" {
			patches[fc.Filename] = fc.Patch
		}
	}
	return patches
}

func init() {
	reviewPRCmd.Flags().BoolVar(&flagPost, "post", false, "Post findings to the pull request as a review")
	reviewPRCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "With --post, build the review but don't send it")
}
