// Package httphandler is the JSON driving adapter: the caching backend's
// /api/github-repos endpoints plus the resolver and ignore-list API.
package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ericfisherdev/repofeed/internal/application"
	"github.com/ericfisherdev/repofeed/internal/domain/model"
	"github.com/ericfisherdev/repofeed/internal/domain/port/driven"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	cacheSvc  *application.CacheService
	resolver  *application.FeedResolver
	scheduler *application.RefreshScheduler
	metrics   http.Handler
	logger    *slog.Logger
}

// NewHandler creates a Handler. cacheSvc may be nil when the caching backend
// runs elsewhere; scheduler may be nil, in which case manual refreshes run the
// resolver directly; metrics may be nil when metrics are disabled.
func NewHandler(
	cacheSvc *application.CacheService,
	resolver *application.FeedResolver,
	scheduler *application.RefreshScheduler,
	metrics http.Handler,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		cacheSvc:  cacheSvc,
		resolver:  resolver,
		scheduler: scheduler,
		metrics:   metrics,
		logger:    logger,
	}
}

// RegisterAPIRoutes registers all JSON API routes on the provided mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	if h.cacheSvc != nil {
		mux.HandleFunc("GET /api/github-repos", h.GetGitHubRepos)
		mux.HandleFunc("POST /api/refresh-repos", h.RefreshRepos)
		mux.HandleFunc("GET /api/v1/ignored", h.ListIgnored)
		mux.HandleFunc("POST /api/v1/ignored", h.AddIgnored)
		mux.HandleFunc("DELETE /api/v1/ignored/{name}", h.RemoveIgnored)
	}

	mux.HandleFunc("GET /api/v1/feed", h.GetFeed)
	mux.HandleFunc("POST /api/v1/feed/refresh", h.RefreshFeed)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}
}

// GetGitHubRepos serves the caching backend feed consumed by the resolver as
// its primary source.
func (h *Handler) GetGitHubRepos(w http.ResponseWriter, r *http.Request) {
	feed, err := h.cacheSvc.Repos(r.Context())
	if err != nil {
		if errors.Is(err, driven.ErrNoRepositories) {
			writeJSON(w, http.StatusInternalServerError, BackendResponse{Error: "Failed to fetch repositories"})
			return
		}
		h.logger.Error("failed to serve repositories", "error", err)
		writeJSON(w, http.StatusInternalServerError, BackendResponse{Error: "Internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toBackendResponse(feed))
}

// RefreshRepos rebuilds the backend snapshot from GitHub.
func (h *Handler) RefreshRepos(w http.ResponseWriter, r *http.Request) {
	feed, err := h.cacheSvc.Refresh(r.Context())
	if err != nil {
		h.logger.Error("manual repository refresh failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, BackendResponse{Error: "Failed to refresh repositories"})
		return
	}

	writeJSON(w, http.StatusOK, toBackendResponse(feed))
}

// GetFeed returns the resolver's current state. When no cycle has run yet, a
// cycle is resolved synchronously first.
func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	if h.resolver.State().Phase == model.FetchPhaseIdle {
		if _, err := h.resolver.Resolve(r.Context()); err != nil {
			h.logger.Warn("initial resolve failed", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, toFeedStateResponse(h.resolver.State()))
}

// RefreshFeed runs a resolver cycle outside the schedule and returns the
// resulting state. A failed cycle is reported in the state, not as an HTTP error.
func (h *Handler) RefreshFeed(w http.ResponseWriter, r *http.Request) {
	var err error
	if h.scheduler != nil {
		err = h.scheduler.Refresh(r.Context())
	} else {
		_, err = h.resolver.Resolve(r.Context())
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		if r.Context().Err() != nil {
			writeError(w, http.StatusServiceUnavailable, "refresh canceled")
			return
		}
	case err != nil:
		h.logger.Warn("manual feed refresh failed", "error", err)
	}

	writeJSON(w, http.StatusOK, toFeedStateResponse(h.resolver.State()))
}

// ListIgnored returns the ignore list.
func (h *Handler) ListIgnored(w http.ResponseWriter, r *http.Request) {
	ignored, err := h.cacheSvc.ListIgnored(r.Context())
	if err != nil {
		h.logger.Error("failed to list ignored repositories", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]IgnoredRepoResponse, 0, len(ignored))
	for _, ig := range ignored {
		resp = append(resp, toIgnoredRepoResponse(ig))
	}

	writeJSON(w, http.StatusOK, resp)
}

// AddIgnored adds a repository name to the ignore list.
func (h *Handler) AddIgnored(w http.ResponseWriter, r *http.Request) {
	var req IgnoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !isValidRepoName(req.Name) {
		writeError(w, http.StatusBadRequest, "invalid repository name")
		return
	}

	if err := h.cacheSvc.Ignore(r.Context(), req.Name); err != nil {
		h.logger.Error("failed to ignore repository", "repo", req.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, IgnoredRepoResponse{
		Name:    strings.ToLower(strings.TrimSpace(req.Name)),
		AddedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// RemoveIgnored removes a repository name from the ignore list.
func (h *Handler) RemoveIgnored(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if err := h.cacheSvc.Unignore(r.Context(), name); err != nil {
		switch {
		case errors.Is(err, driven.ErrIgnoredRepoNotFound):
			writeError(w, http.StatusNotFound, "repository not ignored")
		case errors.Is(err, application.ErrInvalidRepoName):
			writeError(w, http.StatusBadRequest, "invalid repository name")
		default:
			h.logger.Error("failed to unignore repository", "repo", name, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// isValidRepoName reports whether name is a plausible GitHub repository name:
// alphanumeric characters, hyphens, dots, or underscores.
func isValidRepoName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return false
	}

	for _, ch := range name {
		if !isValidRepoChar(ch) {
			return false
		}
	}

	return true
}

// isValidRepoChar returns true if the rune is allowed in a repository name.
func isValidRepoChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '-' || ch == '.' || ch == '_'
}
