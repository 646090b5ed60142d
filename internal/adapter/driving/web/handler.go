// Package web implements the HTML driving adapter using templ components.
package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ericfisherdev/repofeed/internal/application"
	"github.com/ericfisherdev/repofeed/internal/domain/model"
)

// Handler is the web driving adapter that renders the projects section.
type Handler struct {
	resolver *application.FeedResolver
	username string
	logger   *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(resolver *application.FeedResolver, username string, logger *slog.Logger) *Handler {
	return &Handler{
		resolver: resolver,
		username: username,
		logger:   logger,
	}
}

// Projects renders the full page with the projects section.
func (h *Handler) Projects(w http.ResponseWriter, r *http.Request) {
	section := toProjectsSectionViewModel(h.currentState(), h.username)
	layout := Layout("Projects", section.RefreshSeconds, ProjectsSection(section))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := layout.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render projects page", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// ProjectsFragment renders only the projects section, for embedding.
func (h *Handler) ProjectsFragment(w http.ResponseWriter, r *http.Request) {
	section := toProjectsSectionViewModel(h.currentState(), h.username)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := ProjectsSection(section).Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render projects section", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// currentState returns the resolver state, starting the first cycle in the
// background when none has run yet. The page shows the loading indicator and
// reloads until the cycle finishes.
func (h *Handler) currentState() model.FetchState {
	state := h.resolver.State()
	if state.Phase != model.FetchPhaseIdle {
		return state
	}

	// Background context since the request context is canceled once the
	// loading page has been sent.
	go func() {
		if _, err := h.resolver.Resolve(context.Background()); err != nil {
			h.logger.Warn("initial resolve failed", "error", err)
		}
	}()

	return state
}
