// internal/api/handler.go
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github-org-collector/internal/analytics"
	"github-org-collector/internal/collector"
	"github-org-collector/internal/storage"
)

// Runner triggers one collection run. Implemented by *collector.Collector.
type Runner interface {
	Run(ctx context.Context) collector.Summary
}

// Reporter builds the analytics report. Implemented by *analytics.Service.
type Reporter interface {
	GenerateReport(ctx context.Context) (analytics.Report, error)
}

// Handler is the container for API dependencies.
type Handler struct {
	store    storage.Store
	runner   Runner
	reporter Reporter
	logger   *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(store storage.Store, runner Runner, reporter Reporter, logger *slog.Logger) http.Handler {
	h := &Handler{
		store:    store,
		runner:   runner,
		reporter: reporter,
		logger:   logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// API Routes
	r.Get("/health", h.healthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/collect", h.runCollection)
		r.Get("/repositories", h.listRepositories)
		r.Get("/repositories/{externalID}/pulls", h.listPullRequests)
		r.Get("/analytics/report", h.analyticsReport)
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// runCollection triggers a full collection run and returns its summary.
// POST /v1/collect
//
// A collection run can take minutes against a large organization, so the
// request context is detached from the client connection: the run finishes
// even if the caller goes away, and the summary reflects the whole run.
func (h *Handler) runCollection(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 30*time.Minute)
	defer cancel()

	summary := h.runner.Run(ctx)
	status := http.StatusOK
	if !summary.Success {
		status = http.StatusBadGateway
	}
	respondWithJSON(w, status, summary)
}

// listRepositories returns all tracked repositories.
// GET /v1/repositories
func (h *Handler) listRepositories(w http.ResponseWriter, r *http.Request) {
	repos, err := h.store.ListRepositories(r.Context())
	if err != nil {
		h.logger.Error("failed to list repositories", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, repos)
}

// listPullRequests returns the pull requests of one repository.
// GET /v1/repositories/{externalID}/pulls
func (h *Handler) listPullRequests(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "externalID")

	repo, err := h.store.GetRepositoryByExternalID(r.Context(), externalID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Repository not found")
			return
		}
		h.logger.Error("failed to get repository", "external_id", externalID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	pulls, err := h.store.ListPullRequestsByRepository(r.Context(), repo.ID)
	if err != nil {
		h.logger.Error("failed to list pull requests", "repository_id", repo.ID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, pulls)
}

// analyticsReport returns the aggregated report over all ingested data.
// GET /v1/analytics/report
func (h *Handler) analyticsReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reporter.GenerateReport(r.Context())
	if err != nil {
		h.logger.Error("failed to generate analytics report", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}
