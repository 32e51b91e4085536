package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os/exec"
	"regexp"
	"strings"

	gh "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/dshills/quorum/internal/diffparse"
	"github.com/dshills/quorum/internal/review"
)

var (
	// ErrNotFound is returned when the repository or pull request does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when GitHub rejects the credentials.
	ErrUnauthorized = errors.New("GitHub authentication failed")
	// ErrNoToken is returned by operations that need a token when none is configured.
	ErrNoToken = errors.New("GITHUB_TOKEN is not set")
)

const filesPerPage = 100

// Client fetches pull requests and posts reviews through the GitHub API.
// It implements review.PRSource.
type Client struct {
	gh    *gh.Client
	token string
}

// NewClient creates a GitHub client. An empty token gives unauthenticated
// access, which can read public pull requests. An empty apiURL uses
// api.github.com.
func NewClient(token, apiURL string) (*Client, error) {
	httpClient := http.DefaultClient
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	c, err := newClient(httpClient, apiURL)
	if err != nil {
		return nil, err
	}
	c.token = token
	return c, nil
}

func newClient(httpClient *http.Client, apiURL string) (*Client, error) {
	client := gh.NewClient(httpClient)
	if apiURL != "" {
		u, err := url.Parse(strings.TrimRight(apiURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", apiURL, err)
		}
		client.BaseURL = u
	}
	return &Client{gh: client}, nil
}

// FetchPullRequest loads pull request metadata and every changed file.
func (c *Client) FetchPullRequest(ctx context.Context, owner, repo string, number int) (*review.PullRequest, error) {
	pr, _, err := c.gh.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, classify(err, fmt.Sprintf("PR #%d in %s/%s", number, owner, repo))
	}

	files, err := c.listFiles(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}

	return &review.PullRequest{
		Number:      pr.GetNumber(),
		Title:       pr.GetTitle(),
		Description: pr.GetBody(),
		Author:      pr.GetUser().GetLogin(),
		BaseBranch:  pr.GetBase().GetRef(),
		HeadBranch:  pr.GetHead().GetRef(),
		State:       pr.GetState(),
		Files:       files,
		CreatedAt:   pr.GetCreatedAt().Time,
		UpdatedAt:   pr.GetUpdatedAt().Time,
	}, nil
}

func (c *Client) listFiles(ctx context.Context, owner, repo string, number int) ([]review.FileChange, error) {
	var files []review.FileChange
	opts := &gh.ListOptions{PerPage: filesPerPage}
	for {
		page, resp, err := c.gh.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, classify(err, fmt.Sprintf("files of PR #%d", number))
		}
		for _, f := range page {
			files = append(files, review.FileChange{
				Filename:  f.GetFilename(),
				Patch:     f.GetPatch(),
				Language:  diffparse.DetectLanguage(f.GetFilename()),
				Status:    f.GetStatus(),
				Additions: f.GetAdditions(),
				Deletions: f.GetDeletions(),
				Changes:   f.GetChanges(),
			})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return files, nil
}

func classify(err error, what string) error {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w", what, ErrNotFound)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%s: %w: %s", what, ErrUnauthorized, ghErr.Message)
		}
	}
	return fmt.Errorf("fetching %s: %w", what, err)
}

// ReviewComment represents an inline comment on a PR review.
type ReviewComment struct {
	Path string
	Line int
	Body string
}

// ReviewRequest represents a PR review to post.
type ReviewRequest struct {
	Body     string
	Event    string
	Comments []ReviewComment
}

// PostReview posts a pull request review with inline comments.
func (c *Client) PostReview(ctx context.Context, owner, repo string, prNumber int, rr ReviewRequest) error {
	if c.token == "" {
		return ErrNoToken
	}

	req := &gh.PullRequestReviewRequest{
		Body:  gh.Ptr(rr.Body),
		Event: gh.Ptr(rr.Event),
	}
	for _, rc := range rr.Comments {
		req.Comments = append(req.Comments, &gh.DraftReviewComment{
			Path: gh.Ptr(rc.Path),
			Line: gh.Ptr(rc.Line),
			Side: gh.Ptr("RIGHT"),
			Body: gh.Ptr(rc.Body),
		})
	}

	_, _, err := c.gh.PullRequests.CreateReview(ctx, owner, repo, prNumber, req)
	if err != nil {
		var ghErr *gh.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusUnprocessableEntity {
			return fmt.Errorf("GitHub rejected review (422): %s", ghErr.Message)
		}
		return classify(err, fmt.Sprintf("review on PR #%d", prNumber))
	}
	return nil
}

// BuildGitHubReview converts findings into a PR review request. patches maps
// each changed file to its unified diff patch. Findings on a new-side line of
// that patch become inline comments; GitHub rejects comments anywhere else, so
// the rest are listed in the review body.
func BuildGitHubReview(findings []review.Finding, patches map[string]string) ReviewRequest {
	counts := make(map[review.Severity]int)
	var bodyComments []string
	var comments []ReviewComment

	commentable := make(map[string]map[int]bool, len(patches))
	for file, patch := range patches {
		commentable[file] = rightSideLines(patch)
	}

	for _, f := range findings {
		counts[f.Severity]++

		if f.Line != nil && commentable[f.File][*f.Line] {
			comments = append(comments, ReviewComment{
				Path: f.File,
				Line: *f.Line,
				Body: formatInlineComment(f),
			})
			continue
		}
		bodyComments = append(bodyComments, formatFindingBody(f))
	}

	var sb strings.Builder
	sb.WriteString("## Quorum Code Review\n\n")
	sb.WriteString("| Severity | Count |\n|----------|-------|\n")
	for _, sev := range review.Severities {
		fmt.Fprintf(&sb, "| %s | %d |\n", sev, counts[sev])
	}
	sb.WriteString("\n")

	if len(bodyComments) > 0 {
		sb.WriteString("### General Findings\n\n")
		for _, c := range bodyComments {
			sb.WriteString(c)
			sb.WriteString("\n\n")
		}
	}

	return ReviewRequest{
		Body:     sb.String(),
		Event:    "COMMENT",
		Comments: comments,
	}
}

// rightSideLines returns the new-file line numbers present in a patch.
func rightSideLines(patch string) map[int]bool {
	lines := make(map[int]bool)
	for _, l := range diffparse.ExtractChangedLines(patch, 0) {
		if l.Kind != diffparse.Removed && l.Number > 0 {
			lines[l.Number] = true
		}
	}
	return lines
}

func formatInlineComment(f review.Finding) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s** (%s, %s, confidence: %.0f%%)\n\n", f.Agent, f.Severity, f.Category, f.Confidence*100)
	sb.WriteString(f.Issue)
	if f.Suggestion != "" {
		fmt.Fprintf(&sb, "\n\n**Suggestion:** %s", f.Suggestion)
	}
	return sb.String()
}

func formatFindingBody(f review.Finding) string {
	s := fmt.Sprintf("- **%s** `%s` (%s, %s): %s", f.Agent, f.Location(), f.Severity, f.Category, f.Issue)
	if f.Suggestion != "" {
		s += fmt.Sprintf(" *Suggestion: %s*", f.Suggestion)
	}
	return s
}

var (
	httpsRemoteRe = regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/.\s]+)`)
	sshRemoteRe   = regexp.MustCompile(`[^@]+@[^:]+:([^/]+)/([^/.\s]+)`)
)

// DetectRepo parses owner/repo from the git remote origin URL.
func DetectRepo() (owner, repo string, err error) {
	out, err := exec.Command("git", "remote", "get-url", "origin").Output()
	if err != nil {
		return "", "", fmt.Errorf("cannot detect repo: git remote get-url origin failed: %w", err)
	}
	return ParseRemoteURL(strings.TrimSpace(string(out)))
}

// ParseRemoteURL extracts owner/repo from a git remote URL.
func ParseRemoteURL(remote string) (owner, repo string, err error) {
	remote = strings.TrimSuffix(remote, ".git")

	if m := httpsRemoteRe.FindStringSubmatch(remote); len(m) == 3 {
		return m[1], m[2], nil
	}
	if m := sshRemoteRe.FindStringSubmatch(remote); len(m) == 3 {
		return m[1], m[2], nil
	}
	return "", "", fmt.Errorf("cannot parse owner/repo from remote URL: %s", remote)
}

// SplitRepo parses an "owner/repo" slug.
func SplitRepo(slug string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(slug), "/")
	owner, repo = strings.TrimSpace(owner), strings.TrimSpace(repo)
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid repository %q (want owner/repo)", slug)
	}
	return owner, repo, nil
}
