package gitctx

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/dshills/quorum/internal/diffparse"
	"github.com/dshills/quorum/internal/review"
)

// Mode names where a local diff came from.
type Mode string

const (
	ModeUnstaged Mode = "unstaged"
	ModeStaged   Mode = "staged"
	ModeCommit   Mode = "commit"
	ModeRange    Mode = "range"
)

// DiffOptions controls how diffs are gathered.
type DiffOptions struct {
	// Dir is the working directory git runs in. Empty means the process cwd.
	Dir          string
	ContextLines int
	// MaxDiffBytes drops whole file sections once the budget is spent.
	MaxDiffBytes int
	Include      []string
	Exclude      []string
}

// DiffResult holds the collected diff and the files it touches.
type DiffResult struct {
	Diff      string
	Changes   []review.FileChange
	Mode      Mode
	Range     string
	Repo      RepoMeta
	Truncated bool
}

// Files returns the changed file names in diff order.
func (r DiffResult) Files() []string {
	names := make([]string, len(r.Changes))
	for i, c := range r.Changes {
		names[i] = c.Filename
	}
	return names
}

// RepoMeta contains git repository metadata.
type RepoMeta struct {
	Root   string
	Head   string
	Branch string
}

// GetRepoMeta collects repository metadata from git.
func GetRepoMeta(dir string) (RepoMeta, error) {
	root, err := gitOutput(dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return RepoMeta{}, fmt.Errorf("not a git repository: %w", err)
	}
	// A repo with no commits has no HEAD; leave those fields empty.
	head, _ := gitOutput(dir, "rev-parse", "HEAD")
	branch, _ := gitOutput(dir, "rev-parse", "--abbrev-ref", "HEAD")
	return RepoMeta{
		Root:   strings.TrimSpace(root),
		Head:   strings.TrimSpace(head),
		Branch: strings.TrimSpace(branch),
	}, nil
}

// Unstaged returns the diff of working tree vs index.
func Unstaged(opts DiffOptions) (DiffResult, error) {
	diff, err := gitOutput(opts.Dir, append([]string{"diff"}, buildDiffArgs(opts)...)...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff: %w", err)
	}
	return buildResult(diff, ModeUnstaged, "", opts)
}

// Staged returns the diff of index vs HEAD.
func Staged(opts DiffOptions) (DiffResult, error) {
	diff, err := gitOutput(opts.Dir, append([]string{"diff", "--cached"}, buildDiffArgs(opts)...)...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff --cached: %w", err)
	}
	return buildResult(diff, ModeStaged, "", opts)
}

// Commit returns the diff a commit introduced. Root commits are diffed
// against the empty tree.
func Commit(sha string, opts DiffOptions) (DiffResult, error) {
	args := append([]string{"show", "--format=", "--no-color"}, contextArg(opts)...)
	args = append(args, sha, "--")
	args = append(args, includePaths(opts)...)
	diff, err := gitOutput(opts.Dir, args...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git show %s: %w", sha, err)
	}
	return buildResult(diff, ModeCommit, sha, opts)
}

// Range returns the combined diff for a revision range. With mergeBase,
// "a..b" is compared from the merge base of a and b.
func Range(revRange string, mergeBase bool, opts DiffOptions) (DiffResult, error) {
	diffRange := revRange
	if mergeBase && strings.Contains(revRange, "..") && !strings.Contains(revRange, "...") {
		diffRange = strings.Replace(revRange, "..", "...", 1)
	}
	diff, err := gitOutput(opts.Dir, append([]string{"diff", diffRange}, buildDiffArgs(opts)...)...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff %s: %w", revRange, err)
	}
	return buildResult(diff, ModeRange, revRange, opts)
}

func contextArg(opts DiffOptions) []string {
	if opts.ContextLines > 0 {
		return []string{fmt.Sprintf("-U%d", opts.ContextLines)}
	}
	return nil
}

func includePaths(opts DiffOptions) []string {
	var paths []string
	for _, p := range opts.Include {
		if p != "**/*" {
			paths = append(paths, p)
		}
	}
	return paths
}

func buildDiffArgs(opts DiffOptions) []string {
	args := append(contextArg(opts), "--no-color", "--")
	return append(args, includePaths(opts)...)
}

func buildResult(diff string, mode Mode, rangeStr string, opts DiffOptions) (DiffResult, error) {
	meta, err := GetRepoMeta(opts.Dir)
	if err != nil {
		meta = RepoMeta{}
	}

	// Excludes are applied before the byte budget so excluded files don't consume it.
	sections := splitDiffSections(diff)
	if len(opts.Exclude) > 0 {
		sections = filterExcluded(sections, opts.Exclude)
	}
	sections, truncated := applyBudget(sections, opts.MaxDiffBytes)
	diff = strings.Join(sections, "")

	changes, err := FileChanges(diff)
	if err != nil {
		return DiffResult{}, err
	}

	return DiffResult{
		Diff:      diff,
		Changes:   changes,
		Mode:      mode,
		Range:     rangeStr,
		Repo:      meta,
		Truncated: truncated,
	}, nil
}

// FileChanges splits a git diff into per-file changes ready for review.
// Binary files are skipped; deleted files keep their old name.
func FileChanges(raw string) ([]review.FileChange, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	files, _, err := gitdiff.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing git diff: %w", err)
	}

	var changes []review.FileChange
	for _, f := range files {
		if f.IsBinary {
			continue
		}
		name := f.NewName
		if f.IsDelete || name == "" {
			name = f.OldName
		}

		fc := review.FileChange{
			Filename: name,
			Language: diffparse.DetectLanguage(name),
			Status:   fileStatus(f),
			Patch:    fragmentPatch(f.TextFragments),
		}
		for _, frag := range f.TextFragments {
			fc.Additions += int(frag.LinesAdded)
			fc.Deletions += int(frag.LinesDeleted)
		}
		fc.Changes = fc.Additions + fc.Deletions
		changes = append(changes, fc)
	}
	return changes, nil
}

func fileStatus(f *gitdiff.File) string {
	switch {
	case f.IsNew:
		return "added"
	case f.IsDelete:
		return "removed"
	case f.IsRename:
		return "renamed"
	case f.IsCopy:
		return "copied"
	default:
		return "modified"
	}
}

// fragmentPatch renders hunks in the patch form the GitHub files API uses:
// hunk headers and marked lines, without file headers.
func fragmentPatch(frags []*gitdiff.TextFragment) string {
	var b strings.Builder
	for _, frag := range frags {
		b.WriteString(frag.Header())
		b.WriteString("\n")
		for _, line := range frag.Lines {
			b.WriteString(line.Op.String())
			b.WriteString(line.Line)
			if line.NoEOL() {
				b.WriteString("\n")
			}
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func filterExcluded(sections []string, excludes []string) []string {
	var kept []string
	for _, section := range sections {
		path := extractPathFromSection(section)
		if path == "" || !MatchesAny(path, excludes) {
			kept = append(kept, section)
		}
	}
	return kept
}

func applyBudget(sections []string, maxBytes int) ([]string, bool) {
	if maxBytes <= 0 {
		return sections, false
	}
	total := 0
	for i, s := range sections {
		if total+len(s) > maxBytes {
			return sections[:i], true
		}
		total += len(s)
	}
	return sections, false
}

func splitDiffSections(diff string) []string {
	if diff == "" {
		return nil
	}
	var sections []string
	var current strings.Builder
	for _, line := range strings.SplitAfter(diff, "\n") {
		if strings.HasPrefix(line, "diff --git") && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		sections = append(sections, current.String())
	}
	return sections
}

func extractPathFromSection(section string) string {
	var oldPath string
	for _, line := range strings.Split(section, "\n") {
		switch {
		case strings.HasPrefix(line, "+++ b/"):
			return strings.TrimPrefix(line, "+++ b/")
		case strings.HasPrefix(line, "--- a/"):
			oldPath = strings.TrimPrefix(line, "--- a/")
		}
	}
	return oldPath
}

// MatchesAny returns true if the path matches any of the given glob patterns.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		clean := strings.TrimPrefix(pattern, "**/")
		if clean != pattern {
			matched, err = filepath.Match(clean, filepath.Base(path))
			if err == nil && matched {
				return true
			}
			matched, err = filepath.Match(clean, path)
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}

func gitOutput(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
