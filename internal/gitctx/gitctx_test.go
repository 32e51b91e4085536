package gitctx

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

const twoFileDiff = `diff --git a/main.go b/main.go
index 1111111..2222222 100644
--- a/main.go
+++ b/main.go
@@ -1,2 +1,3 @@
 package main
+import "fmt"
 func main() {}
diff --git a/vendor/lib.go b/vendor/lib.go
new file mode 100644
index 0000000..3333333
--- /dev/null
+++ b/vendor/lib.go
@@ -0,0 +1,2 @@
+package lib
+var X = 1
`

func TestFileChanges(t *testing.T) {
	changes, err := FileChanges(twoFileDiff)
	if err != nil {
		t.Fatalf("FileChanges error: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("got %d changes, want 2", len(changes))
	}

	m := changes[0]
	if m.Filename != "main.go" || m.Status != "modified" || m.Language != "go" {
		t.Errorf("changes[0] = %+v", m)
	}
	if m.Additions != 1 || m.Deletions != 0 || m.Changes != 1 {
		t.Errorf("changes[0] counts = %d/%d/%d", m.Additions, m.Deletions, m.Changes)
	}
	wantPatch := "@@ -1,2 +1,3 @@\n package main\n+import \"fmt\"\n func main() {}"
	if m.Patch != wantPatch {
		t.Errorf("patch = %q, want %q", m.Patch, wantPatch)
	}

	n := changes[1]
	if n.Filename != "vendor/lib.go" || n.Status != "added" || n.Additions != 2 {
		t.Errorf("changes[1] = %+v", n)
	}
}

func TestFileChanges_DeleteAndRename(t *testing.T) {
	diff := `diff --git a/old.py b/old.py
deleted file mode 100644
index 1111111..0000000
--- a/old.py
+++ /dev/null
@@ -1 +0,0 @@
-print("bye")
diff --git a/a.rs b/b.rs
similarity index 100%
rename from a.rs
rename to b.rs
`
	changes, err := FileChanges(diff)
	if err != nil {
		t.Fatalf("FileChanges error: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("got %d changes, want 2", len(changes))
	}
	if changes[0].Filename != "old.py" || changes[0].Status != "removed" || changes[0].Deletions != 1 {
		t.Errorf("deleted = %+v", changes[0])
	}
	if changes[1].Filename != "b.rs" || changes[1].Status != "renamed" || changes[1].Patch != "" {
		t.Errorf("renamed = %+v", changes[1])
	}
}

func TestFileChanges_Empty(t *testing.T) {
	changes, err := FileChanges("  \n")
	if err != nil || changes != nil {
		t.Errorf("FileChanges(blank) = %v, %v", changes, err)
	}
}

func TestMatchesAny(t *testing.T) {
	tests := []struct {
		path     string
		patterns []string
		want     bool
	}{
		{"vendor/lib.go", []string{"vendor/**"}, true},
		{"main.go", []string{"vendor/**"}, false},
		{"foo.gen.go", []string{"**/*.gen.go"}, true},
		{"pkg/foo.gen.go", []string{"**/*.gen.go"}, true},
		{"main.go", []string{"*.go"}, true},
		{"main.go", nil, false},
	}
	for _, tt := range tests {
		got := MatchesAny(tt.path, tt.patterns)
		if got != tt.want {
			t.Errorf("MatchesAny(%q, %v) = %v, want %v", tt.path, tt.patterns, got, tt.want)
		}
	}
}

func TestSplitDiffSections(t *testing.T) {
	sections := splitDiffSections(twoFileDiff)
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}
	if strings.Join(sections, "") != twoFileDiff {
		t.Error("sections should rejoin to the original diff")
	}
	if extractPathFromSection(sections[1]) != "vendor/lib.go" {
		t.Errorf("section 1 path = %q", extractPathFromSection(sections[1]))
	}
	if splitDiffSections("") != nil {
		t.Error("empty diff should have no sections")
	}
}

func TestExtractPathFromSection_Deleted(t *testing.T) {
	section := "diff --git a/gone.go b/gone.go\n--- a/gone.go\n+++ /dev/null\n"
	if got := extractPathFromSection(section); got != "gone.go" {
		t.Errorf("extractPathFromSection = %q, want %q", got, "gone.go")
	}
}

func TestBuildDiffArgs(t *testing.T) {
	args := buildDiffArgs(DiffOptions{ContextLines: 5, Include: []string{"**/*", "*.go"}})
	want := []string{"-U5", "--no-color", "--", "*.go"}
	if strings.Join(args, " ") != strings.Join(want, " ") {
		t.Errorf("args = %v, want %v", args, want)
	}

	args = buildDiffArgs(DiffOptions{})
	for _, a := range args {
		if strings.HasPrefix(a, "-U") {
			t.Error("Should not have -U flag with ContextLines=0")
		}
	}
}

func TestBuildResult_ExcludeBeforeBudget(t *testing.T) {
	opts := DiffOptions{
		Dir:          t.TempDir(),
		MaxDiffBytes: 150,
		Exclude:      []string{"vendor/**"},
	}
	result, err := buildResult(twoFileDiff, ModeUnstaged, "", opts)
	if err != nil {
		t.Fatalf("buildResult error: %v", err)
	}
	if result.Truncated {
		t.Error("excluded files should not count against the budget")
	}
	if files := result.Files(); len(files) != 1 || files[0] != "main.go" {
		t.Errorf("Files = %v, want [main.go]", files)
	}
}

func TestBuildResult_Budget(t *testing.T) {
	result, err := buildResult(twoFileDiff, ModeStaged, "", DiffOptions{Dir: t.TempDir(), MaxDiffBytes: 150})
	if err != nil {
		t.Fatalf("buildResult error: %v", err)
	}
	if !result.Truncated {
		t.Error("second file should exceed the budget")
	}
	if len(result.Changes) != 1 {
		t.Errorf("got %d changes, want 1", len(result.Changes))
	}
	if strings.Contains(result.Diff, "vendor/lib.go") {
		t.Error("dropped section should not be in Diff")
	}
}

func TestBuildResult_MetadataAndMode(t *testing.T) {
	result, err := buildResult(twoFileDiff, ModeRange, "abc..def", DiffOptions{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("buildResult error: %v", err)
	}
	if result.Mode != ModeRange {
		t.Errorf("Mode = %q, want %q", result.Mode, ModeRange)
	}
	if result.Range != "abc..def" {
		t.Errorf("Range = %q, want %q", result.Range, "abc..def")
	}
	if len(result.Changes) != 2 {
		t.Errorf("Changes = %d, want 2", len(result.Changes))
	}
}

// setupTestRepo creates a temp git repo with one commit and returns its path.
func setupTestRepo(t *testing.T) (string, func(args ...string) string) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()

	run := func(args ...string) string {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test",
			"GIT_AUTHOR_EMAIL=test@test.com",
			"GIT_COMMITTER_NAME=test",
			"GIT_COMMITTER_EMAIL=test@test.com",
			"GIT_CONFIG_NOSYSTEM=1",
		)
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("git %v failed: %v\n%s", args, err, out)
		}
		return strings.TrimSpace(string(out))
	}

	run("init", "-q")
	run("checkout", "-q", "-b", "main")
	write(t, dir, "main.go", "package main\n\nfunc main() {}\n")
	run("add", "-A")
	run("commit", "-q", "-m", "init")

	return dir, run
}

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLocalModes(t *testing.T) {
	dir, run := setupTestRepo(t)
	opts := DiffOptions{Dir: dir}

	write(t, dir, "db.py", "query = \"SELECT * FROM t WHERE id=\" + id\n")
	run("add", "db.py")
	write(t, dir, "main.go", "package main\n\nfunc main() { panic(1) }\n")

	staged, err := Staged(opts)
	if err != nil {
		t.Fatalf("Staged error: %v", err)
	}
	if files := staged.Files(); len(files) != 1 || files[0] != "db.py" {
		t.Errorf("staged files = %v", files)
	}
	if staged.Changes[0].Status != "added" || staged.Changes[0].Language != "python" {
		t.Errorf("staged change = %+v", staged.Changes[0])
	}
	if staged.Repo.Branch != "main" {
		t.Errorf("branch = %q", staged.Repo.Branch)
	}

	unstaged, err := Unstaged(opts)
	if err != nil {
		t.Fatalf("Unstaged error: %v", err)
	}
	if files := unstaged.Files(); len(files) != 1 || files[0] != "main.go" {
		t.Errorf("unstaged files = %v", files)
	}

	run("commit", "-q", "-m", "add db")
	commit, err := Commit("HEAD", opts)
	if err != nil {
		t.Fatalf("Commit error: %v", err)
	}
	if files := commit.Files(); len(files) != 1 || files[0] != "db.py" {
		t.Errorf("commit files = %v", files)
	}

	root, err := Commit("HEAD~1", opts)
	if err != nil {
		t.Fatalf("Commit(root) error: %v", err)
	}
	if files := root.Files(); len(files) != 1 || files[0] != "main.go" {
		t.Errorf("root commit files = %v", files)
	}

	rng, err := Range("HEAD~1..HEAD", true, opts)
	if err != nil {
		t.Fatalf("Range error: %v", err)
	}
	if rng.Mode != ModeRange || len(rng.Changes) != 1 {
		t.Errorf("range = %+v", rng)
	}
}

func TestStaged_NotARepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	if _, err := Staged(DiffOptions{Dir: t.TempDir()}); err == nil {
		t.Error("expected error outside a git repository")
	}
}
