package driven

import (
	"context"

	"github.com/ericfisherdev/repofeed/internal/domain/model"
)

// GitHubClient defines the driven port the caching backend uses to rebuild its
// snapshot from the GitHub API.
type GitHubClient interface {
	// ListUserRepos returns every public repository owned by username,
	// following pagination.
	ListUserRepos(ctx context.Context, username string) ([]model.GitHubRepo, error)

	// FetchReadme returns the README of owner/repo as lowercase plain text.
	// Returns "" with a nil error when the repository has no README.
	FetchReadme(ctx context.Context, owner, repo string) (string, error)
}

// PublicRepoSource is the secondary source of the feed resolver: a single,
// unauthenticated listing of a user's repositories sorted by last update.
// Failures are returned as *SourceError so the resolver can surface the
// upstream message.
type PublicRepoSource interface {
	ListPublicRepos(ctx context.Context, username string) ([]model.GitHubRepo, error)
}
