// ABOUTME: Read-side REST server: JSON-over-POST query endpoints.
// ABOUTME: Mutations stay on the CLI; this surface only lists and previews.

package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/casefile-io/casefile/internal/artifact"
	"github.com/casefile-io/casefile/internal/insights"
	"github.com/casefile-io/casefile/internal/query"
)

// Options tunes the optional pieces of the HTTP surface.
type Options struct {
	MetricsEnabled bool
	MetricsPath    string
}

// DefaultOptions serves request metrics at /metrics.
func DefaultOptions() Options {
	return Options{MetricsEnabled: true, MetricsPath: "/metrics"}
}

// Server exposes the query service over HTTP for polling UI clients.
type Server struct {
	query  *query.Service
	repo   *insights.Repository
	opts   Options
	logger *slog.Logger
}

// New creates a server over the given query service and repository.
func New(querySvc *query.Service, repo *insights.Repository, opts Options) *Server {
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	return &Server{
		query:  querySvc,
		repo:   repo,
		opts:   opts,
		logger: slog.Default().With("component", "server"),
	}
}

// Handler builds the full route table, instrumented with request metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mux
}

// RegisterRoutes attaches all endpoints to the mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/insights/analyses/list", s.instrument("analyses_list", s.handleAnalysesList))
	mux.HandleFunc("POST /api/v1/insights/analyses/get", s.instrument("analyses_get", s.handleAnalysesGet))
	mux.HandleFunc("POST /api/v1/insights/hypotheses/list", s.instrument("hypotheses_list", s.handleHypothesesList))
	mux.HandleFunc("POST /api/v1/insights/hypotheses/get", s.instrument("hypotheses_get", s.handleHypothesesGet))
	mux.HandleFunc("POST /api/v1/insights/hypotheses/preview", s.instrument("hypotheses_preview", s.handleHypothesesPreview))
	mux.HandleFunc("POST /api/v1/insights/issues/list", s.instrument("issues_list", s.handleIssuesList))
	mux.HandleFunc("POST /api/v1/insights/issues/get", s.instrument("issues_get", s.handleIssuesGet))
	mux.HandleFunc("POST /api/v1/insights/issues/preview", s.instrument("issues_preview", s.handleIssuesPreview))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.opts.MetricsEnabled {
		mux.Handle("GET "+s.opts.MetricsPath, promhttp.Handler())
	}
}

// Serve runs the HTTP server until the context is cancelled, then shuts
// down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// instrument wraps a handler with request metrics and error-aware status
// mapping.
func (s *Server) instrument(endpoint string, h func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		err := h(w, r)
		observeRequest(endpoint, time.Since(start), err)
		if err != nil {
			s.writeError(w, r, endpoint, err)
		}
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	status := http.StatusInternalServerError

	var verr *insights.ValidationError
	var terr *insights.InvalidTransitionError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
	case errors.As(err, &terr):
		status = http.StatusConflict
	case errors.Is(err, insights.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, artifact.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "endpoint", endpoint, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encodeJSON(w, v)
}
