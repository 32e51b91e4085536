// Package server exposes the review service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/XiaoConstantine/dspy-go/pkg/logging"

	"github.com/dshills/quorum/internal/agents"
	"github.com/dshills/quorum/internal/review"
)

// maxBodyBytes caps request bodies. Diffs larger than this are rejected.
const maxBodyBytes = 10 << 20

// Options configures a Server.
type Options struct {
	Version            string
	Host               string
	Port               int
	RateLimitEnabled   bool
	RateLimitPerMinute int
	// ReviewTimeout bounds each review request. Zero means no limit.
	ReviewTimeout time.Duration
	// Agents is what GET /api/v1/agents reports. Defaults to the analyzers
	// the service actually runs.
	Agents []agents.Info
	// SourceForToken builds a PR source for a caller-supplied GitHub token.
	// When nil, per-request tokens are ignored.
	SourceForToken func(token string) (review.PRSource, error)
	Logger         *logging.Logger
}

// Server is the quorum HTTP API server.
type Server struct {
	svc     *review.Service
	opts    Options
	limiter *rateLimiter
	logger  *logging.Logger
	mux     *http.ServeMux
	server  *http.Server
	started time.Time
}

// New creates a server around a review service.
func New(svc *review.Service, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetLogger()
	}
	if opts.Agents == nil {
		opts.Agents = agents.Describe(svc.Orchestrator().Analyzers())
	}
	// A disabled limiter still records requests for /api/v1/stats.
	limit := opts.RateLimitPerMinute
	if !opts.RateLimitEnabled {
		limit = 0
	}
	s := &Server{
		svc:     svc,
		opts:    opts,
		limiter: newRateLimiter(limit, time.Minute),
		logger:  logger,
		mux:     http.NewServeMux(),
		started: time.Now(),
	}
	s.registerRoutes()
	s.server = &http.Server{
		Addr:         s.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: opts.ReviewTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	s.mux.HandleFunc("POST /api/v1/review/pr", s.rateLimited(s.handleReviewPR))
	s.mux.HandleFunc("POST /api/v1/review/diff", s.rateLimited(s.handleReviewDiff))
	s.mux.HandleFunc("GET /api/v1/agents", s.handleAgents)
	s.mux.HandleFunc("GET /api/v1/stats", s.handleStats)
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
}

// Handler returns the HTTP handler, wrapped with CORS and request logging.
func (s *Server) Handler() http.Handler {
	return s.withCORS(s.withLogging(s.mux))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "quorum API server listening on %s", s.Addr())
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info(context.Background(), "Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

func (s *Server) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(clientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", "")
			return
		}
		next(w, r)
	}
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug(r.Context(), "%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// clientIP returns the remote host without its port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// errorResponse is the JSON body of every non-2xx response.
type errorResponse struct {
	Error     string    `json:"error"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, detail string) {
	writeJSON(w, status, errorResponse{Error: msg, Detail: detail, Timestamp: time.Now().UTC()})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("empty request body")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}
