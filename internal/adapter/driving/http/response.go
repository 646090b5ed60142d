package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/repofeed/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// BackendResponse is the envelope of /api/github-repos and /api/refresh-repos.
type BackendResponse struct {
	Success bool                `json:"success"`
	Repos   []model.BackendRepo `json:"repos,omitempty"`
	Source  string              `json:"source,omitempty"`
	Error   string              `json:"error,omitempty"`
}

func toBackendResponse(feed model.CachedFeed) BackendResponse {
	repos := feed.Repos
	if repos == nil {
		repos = []model.BackendRepo{}
	}
	return BackendResponse{
		Success: true,
		Repos:   repos,
		Source:  string(feed.Source),
	}
}

// ProjectResponse is the JSON representation of a normalized project.
type ProjectResponse struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Year        string   `json:"year"`
	URL         string   `json:"url"`
	Status      string   `json:"status"`
	Topics      []string `json:"topics"`
}

// FeedStateResponse is the JSON representation of the resolver state.
type FeedStateResponse struct {
	Phase      string            `json:"phase"`
	Provenance string            `json:"provenance,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	Generation uint64            `json:"generation"`
	UpdatedAt  string            `json:"updated_at,omitempty"`
	Projects   []ProjectResponse `json:"projects"`
}

func toFeedStateResponse(s model.FetchState) FeedStateResponse {
	projects := make([]ProjectResponse, 0, len(s.Projects))
	for _, p := range s.Projects {
		topics := p.Topics
		if topics == nil {
			topics = []string{}
		}
		projects = append(projects, ProjectResponse{
			ID:          p.ID,
			Title:       p.Title,
			Category:    p.Category,
			Description: p.Description,
			Year:        p.Year,
			URL:         p.URL,
			Status:      string(p.Status),
			Topics:      topics,
		})
	}

	var updatedAt string
	if !s.UpdatedAt.IsZero() {
		updatedAt = s.UpdatedAt.UTC().Format(time.RFC3339)
	}

	return FeedStateResponse{
		Phase:      string(s.Phase),
		Provenance: string(s.Provenance),
		Reason:     s.Reason,
		Generation: s.Generation,
		UpdatedAt:  updatedAt,
		Projects:   projects,
	}
}

// IgnoreRequest is the JSON body for adding an ignored repository.
type IgnoreRequest struct {
	Name string `json:"name"`
}

// IgnoredRepoResponse is the JSON representation of an ignored repository.
type IgnoredRepoResponse struct {
	Name    string `json:"name"`
	AddedAt string `json:"added_at"`
}

func toIgnoredRepoResponse(ig model.IgnoredRepo) IgnoredRepoResponse {
	return IgnoredRepoResponse{
		Name:    ig.Name,
		AddedAt: ig.AddedAt.UTC().Format(time.RFC3339),
	}
}

// HealthResponse is the JSON response for the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}
