package model

import "time"

// BackendRepo is a repository entry as served by the caching backend at
// /api/github-repos. It is also the shape persisted in the backend snapshot.
type BackendRepo struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	HTMLURL     string        `json:"html_url"`
	Language    string        `json:"language"`
	Stars       int           `json:"stargazers_count"`
	Forks       int           `json:"forks_count"`
	UpdatedAt   string        `json:"updated_at,omitempty"`
	CreatedAt   string        `json:"created_at,omitempty"`
	Topics      []string      `json:"topics"`
	Status      ProjectStatus `json:"status"`
}

// BackendPayload is the envelope returned by the caching backend.
type BackendPayload struct {
	Success bool          `json:"success"`
	Repos   []BackendRepo `json:"repos,omitempty"`
	Source  BackendSource `json:"source,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// GitHubRepo is a repository as listed by the public GitHub REST API.
type GitHubRepo struct {
	ID          int64
	Name        string
	Description string
	HTMLURL     string
	Language    string
	Topics      []string
	Fork        bool
	Stars       int
	Forks       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CachedFeed is what the caching backend serves: the repositories plus the
// source they came from.
type CachedFeed struct {
	Repos  []BackendRepo
	Source BackendSource
}

// RepoSnapshot is the most recent successful backend refresh.
type RepoSnapshot struct {
	FetchedAt time.Time
	Repos     []BackendRepo
}

// IsFresh reports whether the snapshot is younger than ttl at the given instant.
func (s RepoSnapshot) IsFresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.FetchedAt) <= ttl
}

// IgnoredRepo records a repository name excluded from the feed. Names are
// stored lowercase; matching is case-insensitive.
type IgnoredRepo struct {
	Name    string
	AddedAt time.Time
}
