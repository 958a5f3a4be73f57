// Package api exposes the admin HTTP surface: filter configuration, filter
// statistics, job results, health and metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/harwoodm/atheneum/internal/classify"
	"github.com/harwoodm/atheneum/internal/config"
	"github.com/harwoodm/atheneum/internal/filter"
	"github.com/harwoodm/atheneum/internal/ingest"
	"github.com/harwoodm/atheneum/internal/joblog"
)

// Server serves the admin API.
type Server struct {
	filters *filter.State
	jobLog  ingest.JobLogStore
	logger  *zap.Logger
	router  chi.Router
}

// NewServer constructs a Server and mounts its routes.
func NewServer(filters *filter.State, jobLog ingest.JobLogStore, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{filters: filters, jobLog: jobLog, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Get("/filters/config", s.handleGetFilterConfig)
		r.Put("/filters/config", s.handlePutFilterConfig)
		r.Get("/filters/stats", s.handleFilterStats)
		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/{jobID}", s.handleGetJob)
	})
	s.router = r
	return s
}

// Handler returns the mounted router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve runs the HTTP server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("admin server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetFilterConfig(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.filters.Snapshot())
}

// handlePutFilterConfig replaces the runtime filter configuration. Unknown
// fields and mistyped values are rejected, as are genres outside the
// taxonomy; genre casing is normalized to the canonical form.
func (s *Server) handlePutFilterConfig(w http.ResponseWriter, r *http.Request) {
	var req ingest.FilterConfig
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if err := config.ValidateFilters(config.FiltersConfig{
		AllowedGenres:      req.AllowedGenres,
		AllowedAuthors:     req.AllowedAuthors,
		EnableGenreFilter:  req.EnableGenreFilter,
		EnableAuthorFilter: req.EnableAuthorFilter,
	}); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	for i, g := range req.AllowedGenres {
		if canonical, ok := classify.CanonicalGenre(g); ok {
			req.AllowedGenres[i] = canonical
		}
	}

	s.filters.Set(req)
	s.logger.Info("filter configuration updated",
		zap.Strings("allowed_genres", req.AllowedGenres),
		zap.Int("allowed_authors", len(req.AllowedAuthors)),
		zap.Bool("genre_filter", req.EnableGenreFilter),
		zap.Bool("author_filter", req.EnableAuthorFilter),
	)
	s.writeJSON(w, http.StatusOK, s.filters.Snapshot())
}

func (s *Server) handleFilterStats(w http.ResponseWriter, r *http.Request) {
	results, err := s.jobLog.List(r.Context())
	if err != nil {
		s.logger.Error("job log list failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load job history")
		return
	}
	s.writeJSON(w, http.StatusOK, joblog.AggregateStats(results))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	results, err := s.jobLog.List(r.Context())
	if err != nil {
		s.logger.Error("job log list failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load job history")
		return
	}
	if results == nil {
		results = []ingest.JobResult{}
	}
	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	result, err := s.jobLog.Get(r.Context(), jobID)
	if errors.Is(err, ingest.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("job %s not found", jobID))
		return
	}
	if err != nil {
		s.logger.Error("job log get failed", zap.String("job_id", jobID), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("response encode failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
