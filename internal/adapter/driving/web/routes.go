package web

import "net/http"

// RegisterRoutes registers all web routes on the provided mux.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /{$}", h.Projects)
	mux.HandleFunc("GET /projects", h.ProjectsFragment)
}
