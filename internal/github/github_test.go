package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dshills/quorum/internal/review"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := newClient(server.Client(), server.URL)
	if err != nil {
		t.Fatalf("newClient error: %v", err)
	}
	c.token = "test-token"
	return c
}

func TestFetchPullRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo/pulls/42", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"number": 42,
			"title": "Add login",
			"body": "Implements login",
			"state": "open",
			"user": {"login": "alice"},
			"base": {"ref": "main"},
			"head": {"ref": "feature/login"}
		}`)
	})
	mux.HandleFunc("/repos/owner/repo/pulls/42/files", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"filename": "README.md", "status": "modified", "additions": 1, "deletions": 0, "changes": 1, "patch": "@@ -1 +1,2 @@\n # x\n+y"}]`)
			return
		}
		if r.URL.Query().Get("per_page") != "100" {
			t.Errorf("per_page = %q, want 100", r.URL.Query().Get("per_page"))
		}
		w.Header().Set("Link", `<http://`+r.Host+`/repos/owner/repo/pulls/42/files?page=2&per_page=100>; rel="next"`)
		fmt.Fprint(w, `[{"filename": "app/db.py", "status": "added", "additions": 3, "deletions": 1, "changes": 4, "patch": "@@ -1 +1 @@\n-a\n+b"}]`)
	})

	c := testClient(t, mux)
	pr, err := c.FetchPullRequest(context.Background(), "owner", "repo", 42)
	if err != nil {
		t.Fatalf("FetchPullRequest error: %v", err)
	}

	if pr.Title != "Add login" || pr.Author != "alice" || pr.BaseBranch != "main" || pr.HeadBranch != "feature/login" {
		t.Errorf("unexpected metadata: %+v", pr)
	}
	if pr.Description != "Implements login" {
		t.Errorf("Description = %q", pr.Description)
	}
	if len(pr.Files) != 2 {
		t.Fatalf("files count = %d, want 2", len(pr.Files))
	}
	f := pr.Files[0]
	if f.Filename != "app/db.py" || f.Language != "python" || f.Status != "added" {
		t.Errorf("file = %+v", f)
	}
	if f.Additions != 3 || f.Deletions != 1 || f.Changes != 4 {
		t.Errorf("counts = %+v", f)
	}
	if pr.Files[1].Language != "" {
		t.Errorf("second file language = %q", pr.Files[1].Language)
	}
}

func TestFetchPullRequest_NotFound(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	}))

	_, err := c.FetchPullRequest(context.Background(), "owner", "repo", 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), "PR #99 in owner/repo") {
		t.Errorf("error = %q", err)
	}
}

func TestFetchPullRequest_Unauthorized(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"Bad credentials"}`)
	}))

	_, err := c.FetchPullRequest(context.Background(), "owner", "repo", 1)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if !strings.Contains(err.Error(), "Bad credentials") {
		t.Errorf("error = %q", err)
	}
}

func TestPostReview(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Method = %q, want POST", r.Method)
		}
		if r.URL.Path != "/repos/owner/repo/pulls/42/reviews" {
			t.Errorf("Path = %q", r.URL.Path)
		}

		var body struct {
			Body     string `json:"body"`
			Event    string `json:"event"`
			Comments []struct {
				Path string `json:"path"`
				Line int    `json:"line"`
				Side string `json:"side"`
				Body string `json:"body"`
			} `json:"comments"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Event != "COMMENT" {
			t.Errorf("Event = %q, want COMMENT", body.Event)
		}
		if len(body.Comments) != 1 {
			t.Fatalf("Comments count = %d, want 1", len(body.Comments))
		}
		if body.Comments[0].Line != 10 || body.Comments[0].Side != "RIGHT" {
			t.Errorf("comment = %+v", body.Comments[0])
		}

		fmt.Fprint(w, `{"id":1}`)
	}))

	err := c.PostReview(context.Background(), "owner", "repo", 42, ReviewRequest{
		Body:  "summary",
		Event: "COMMENT",
		Comments: []ReviewComment{
			{Path: "main.go", Line: 10, Body: "issue here"},
		},
	})
	if err != nil {
		t.Fatalf("PostReview error: %v", err)
	}
}

func TestPostReview_Rejected(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"message":"Validation Failed"}`)
	}))

	err := c.PostReview(context.Background(), "owner", "repo", 42, ReviewRequest{Event: "COMMENT"})
	if err == nil || !strings.Contains(err.Error(), "422") {
		t.Fatalf("err = %v, want 422 rejection", err)
	}
}

func TestPostReview_NoToken(t *testing.T) {
	c, err := NewClient("", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.PostReview(context.Background(), "o", "r", 1, ReviewRequest{}); !errors.Is(err, ErrNoToken) {
		t.Errorf("err = %v, want ErrNoToken", err)
	}
}

func TestParseRemoteURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{name: "HTTPS", url: "https://github.com/dshills/quorum.git", wantOwner: "dshills", wantRepo: "quorum"},
		{name: "HTTPS no .git", url: "https://github.com/dshills/quorum", wantOwner: "dshills", wantRepo: "quorum"},
		{name: "SSH", url: "git@github.com:dshills/quorum.git", wantOwner: "dshills", wantRepo: "quorum"},
		{name: "SSH no .git", url: "git@github.com:dshills/quorum", wantOwner: "dshills", wantRepo: "quorum"},
		{name: "invalid", url: "not-a-url", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := ParseRemoteURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if owner != tt.wantOwner {
				t.Errorf("owner = %q, want %q", owner, tt.wantOwner)
			}
			if repo != tt.wantRepo {
				t.Errorf("repo = %q, want %q", repo, tt.wantRepo)
			}
		})
	}
}

func TestSplitRepo(t *testing.T) {
	owner, repo, err := SplitRepo(" octo/hello ")
	if err != nil || owner != "octo" || repo != "hello" {
		t.Errorf("SplitRepo = %q, %q, %v", owner, repo, err)
	}
	for _, bad := range []string{"", "octo", "octo/", "/hello", "a/b/c", "  /  "} {
		if _, _, err := SplitRepo(bad); err == nil {
			t.Errorf("SplitRepo(%q) expected error", bad)
		}
	}
}

func TestBuildGitHubReview(t *testing.T) {
	findings := []review.Finding{
		{
			Agent:      "Logic Analyzer",
			File:       "main.go",
			Line:       review.LineRef(12),
			Severity:   review.SeverityHigh,
			Category:   review.CategoryLogic,
			Issue:      "Possible nil dereference",
			Suggestion: "Add nil check",
			Confidence: 0.9,
		},
		{
			Agent:      "Code Quality Inspector",
			File:       "main.go",
			Severity:   review.SeverityLow,
			Category:   review.CategoryStyle,
			Issue:      "Use camelCase",
			Confidence: 0.5,
		},
		{
			Agent:    "Security Analyst",
			File:     "other.go",
			Line:     review.LineRef(3),
			Severity: review.SeverityCritical,
			Category: review.CategorySecurity,
			Issue:    "Injection",
		},
		{
			Agent:    "Performance Expert",
			File:     "main.go",
			Line:     review.LineRef(40),
			Severity: review.SeverityMedium,
			Category: review.CategoryPerformance,
			Issue:    "Allocation in loop",
		},
	}
	patches := map[string]string{
		"main.go": "@@ -10,3 +10,4 @@\n func run() {\n-\tx := load()\n+\tx := load()\n+\tuse(x.Field)\n }",
	}

	rev := BuildGitHubReview(findings, patches)

	if rev.Event != "COMMENT" {
		t.Errorf("Event = %q, want COMMENT", rev.Event)
	}
	if len(rev.Comments) != 1 {
		t.Fatalf("Comments count = %d, want 1", len(rev.Comments))
	}
	if rev.Comments[0].Path != "main.go" || rev.Comments[0].Line != 12 {
		t.Errorf("Comment = %+v", rev.Comments[0])
	}
	if !strings.Contains(rev.Comments[0].Body, "Add nil check") {
		t.Errorf("inline comment missing suggestion: %s", rev.Comments[0].Body)
	}
	for _, want := range []string{"| critical | 1 |", "| high | 1 |", "| low | 1 |", "other.go:3", "Use camelCase", "main.go:40"} {
		if !strings.Contains(rev.Body, want) {
			t.Errorf("body missing %q:\n%s", want, rev.Body)
		}
	}
}
