package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dshills/quorum/internal/agents"
	"github.com/dshills/quorum/internal/github"
	"github.com/dshills/quorum/internal/review"
)

// --- Root & health ---

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "quorum review API",
		"version": s.opts.Version,
		"health":  "/api/v1/health",
	})
}

type healthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Version:   s.opts.Version,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	})
}

// --- Review ---

type prReviewRequest struct {
	RepoOwner   string `json:"repo_owner"`
	RepoName    string `json:"repo_name"`
	PRNumber    int    `json:"pr_number"`
	GitHubToken string `json:"github_token,omitempty"`
}

func (req *prReviewRequest) validate() error {
	req.RepoOwner = strings.TrimSpace(req.RepoOwner)
	req.RepoName = strings.TrimSpace(req.RepoName)
	var errs []error
	if req.RepoOwner == "" {
		errs = append(errs, errors.New("repo_owner cannot be empty"))
	}
	if req.RepoName == "" {
		errs = append(errs, errors.New("repo_name cannot be empty"))
	}
	if req.PRNumber <= 0 {
		errs = append(errs, errors.New("pr_number must be greater than 0"))
	}
	return errors.Join(errs...)
}

func (s *Server) handleReviewPR(w http.ResponseWriter, r *http.Request) {
	var req prReviewRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation failed", err.Error())
		return
	}

	ctx, cancel := s.reviewContext(r.Context())
	defer cancel()
	s.logger.Info(ctx, "Received PR review request: %s/%s PR#%d", req.RepoOwner, req.RepoName, req.PRNumber)

	svc := s.svc
	if req.GitHubToken != "" && s.opts.SourceForToken != nil {
		src, err := s.opts.SourceForToken(req.GitHubToken)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid github_token", err.Error())
			return
		}
		svc = svc.WithSource(src)
	}

	report, err := svc.ReviewPullRequest(ctx, req.RepoOwner, req.RepoName, req.PRNumber)
	if err != nil {
		s.logger.Error(ctx, "Error reviewing PR: %v", err)
		status, msg := prErrorStatus(err)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			status, msg = http.StatusGatewayTimeout, "review timed out"
		}
		writeError(w, status, msg, err.Error())
		return
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		writeError(w, http.StatusGatewayTimeout, "review timed out", "")
		return
	}

	s.logger.Info(ctx, "PR review completed: %d findings", len(report.Findings))
	writeJSON(w, http.StatusOK, report)
}

func prErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "review timed out"
	case errors.Is(err, github.ErrNotFound):
		return http.StatusNotFound, "pull request not found"
	case errors.Is(err, github.ErrUnauthorized):
		return http.StatusUnauthorized, "GitHub authentication failed"
	case errors.Is(err, review.ErrNoPRSource):
		return http.StatusServiceUnavailable, "pull request reviews are not configured"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

type diffReviewRequest struct {
	DiffContent string `json:"diff_content"`
	Language    string `json:"language,omitempty"`
	Context     string `json:"context,omitempty"`
}

func (s *Server) handleReviewDiff(w http.ResponseWriter, r *http.Request) {
	var req diffReviewRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if strings.TrimSpace(req.DiffContent) == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation failed", "diff_content is required")
		return
	}

	ctx, cancel := s.reviewContext(r.Context())
	defer cancel()
	s.logger.Info(ctx, "Received diff review request")

	report := s.svc.ReviewDiff(ctx, req.DiffContent, req.Language, req.Context)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		writeError(w, http.StatusGatewayTimeout, "review timed out", "")
		return
	}

	report.Repository = "diff-review"
	if report.Metadata == nil {
		report.Metadata = map[string]any{}
	}
	report.Metadata["language"] = req.Language
	report.Metadata["context"] = req.Context

	s.logger.Info(ctx, "Diff review completed: %d findings", len(report.Findings))
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) reviewContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.opts.ReviewTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, s.opts.ReviewTimeout)
}

// --- Info ---

type agentsResponse struct {
	Agents []agents.Info `json:"agents"`
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, agentsResponse{Agents: s.opts.Agents})
}

type statsResponse struct {
	TotalRequests      int  `json:"total_requests"`
	ActiveIPs          int  `json:"active_ips"`
	RateLimitEnabled   bool `json:"rate_limit_enabled"`
	RateLimitPerMinute int  `json:"rate_limit_per_minute"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	requests, clients := s.limiter.Stats()
	writeJSON(w, http.StatusOK, statsResponse{
		TotalRequests:      requests,
		ActiveIPs:          clients,
		RateLimitEnabled:   s.opts.RateLimitEnabled,
		RateLimitPerMinute: s.opts.RateLimitPerMinute,
	})
}
