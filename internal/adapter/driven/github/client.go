// Package github implements the GitHub-facing driven ports using the go-github library.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/repofeed/internal/domain/model"
	"github.com/ericfisherdev/repofeed/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.GitHubClient     = (*Client)(nil)
	_ driven.PublicRepoSource = (*Client)(nil)
)

const (
	sourceName     = "github"
	userAgent      = "repofeed"
	msgUnavailable = "GitHub API unavailable"
	msgNonArray    = "GitHub API returned non-array data (likely rate limit)"
)

// Client implements driven.GitHubClient and driven.PublicRepoSource.
type Client struct {
	gh *gh.Client
}

// NewClient creates a GitHub API client for the caching backend with the
// following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client, PAT auth when token is non-empty)
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	client.UserAgent = userAgent

	return &Client{gh: client}
}

// NewPublicClient creates an unauthenticated client for the resolver's
// fallback path. It keeps the ETag cache, since 304 answers do not count
// against the anonymous rate limit, but omits the rate-limit sleeper so a
// fallback attempt fails instead of parking the caller.
func NewPublicClient(baseURL string) (*Client, error) {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	return NewClientWithHTTPClient(cacheTransport.Client(), baseURL)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// An empty baseURL keeps the go-github default (https://api.github.com/).
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)
	client.UserAgent = userAgent

	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parsing base URL: %w", err)
		}
		client.BaseURL = u
	}

	return &Client{gh: client}, nil
}

// ListUserRepos retrieves every repository owned by username, most recently
// updated first. It handles pagination automatically and maps go-github types
// to domain model types. Entries without a name or URL are dropped.
func (c *Client) ListUserRepos(ctx context.Context, username string) ([]model.GitHubRepo, error) {
	opts := &gh.RepositoryListByUserOptions{
		Type: "owner",
		Sort: "updated",
		ListOptions: gh.ListOptions{
			PerPage: 100,
		},
	}

	allRepos := []model.GitHubRepo{}

	for {
		repos, resp, err := c.gh.Repositories.ListByUser(ctx, username, opts)
		if err != nil {
			return nil, fmt.Errorf("listing repositories for %s (page %d): %w", username, opts.Page, err)
		}

		logRateLimit(resp, "users/"+username+"/repos", opts.Page, len(repos))

		allRepos = append(allRepos, mapRepositories(repos)...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allRepos, nil
}

// ListPublicRepos issues exactly one GET /users/{username}/repos?sort=updated
// request. Failures are returned as *driven.SourceError carrying a message fit
// for display: the API's own message when it sent one.
func (c *Client) ListPublicRepos(ctx context.Context, username string) ([]model.GitHubRepo, error) {
	opts := &gh.RepositoryListByUserOptions{Sort: "updated"}

	repos, resp, err := c.gh.Repositories.ListByUser(ctx, username, opts)
	if err != nil {
		return nil, classifyError(err)
	}

	logRateLimit(resp, "users/"+username+"/repos", 0, len(repos))

	return mapRepositories(repos), nil
}

// FetchReadme returns the README of owner/repo reduced to lowercase plain
// text. A missing README yields "", nil.
func (c *Client) FetchReadme(ctx context.Context, owner, repo string) (string, error) {
	readme, resp, err := c.gh.Repositories.GetReadme(ctx, owner, repo, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", fmt.Errorf("fetching README for %s/%s: %w", owner, repo, err)
	}

	logRateLimit(resp, owner+"/"+repo+"/readme", 0, 1)

	content, err := readme.GetContent()
	if err != nil {
		return "", fmt.Errorf("decoding README for %s/%s: %w", owner, repo, err)
	}

	return readmeText(content), nil
}

// classifyError maps a go-github error to a *driven.SourceError.
func classifyError(err error) error {
	var (
		rateErr   *gh.RateLimitError
		abuseErr  *gh.AbuseRateLimitError
		respErr   *gh.ErrorResponse
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
	)

	switch {
	case errors.As(err, &rateErr):
		return sourceError(driven.ErrSourceUnavailable, orDefault(rateErr.Message, msgUnavailable), err)
	case errors.As(err, &abuseErr):
		return sourceError(driven.ErrSourceUnavailable, orDefault(abuseErr.Message, msgUnavailable), err)
	case errors.As(err, &respErr):
		return sourceError(driven.ErrSourceUnavailable, orDefault(respErr.Message, msgUnavailable), err)
	case errors.As(err, &typeErr), errors.As(err, &syntaxErr):
		return sourceError(driven.ErrMalformedPayload, msgNonArray, err)
	default:
		return sourceError(driven.ErrSourceUnavailable, msgUnavailable, err)
	}
}

func sourceError(kind error, message string, err error) *driven.SourceError {
	return &driven.SourceError{Source: sourceName, Message: message, Kind: kind, Err: err}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// mapRepositories converts go-github repositories to domain GitHubRepos,
// rejecting entries that lack the fields every consumer relies on.
func mapRepositories(repos []*gh.Repository) []model.GitHubRepo {
	mapped := make([]model.GitHubRepo, 0, len(repos))
	for _, r := range repos {
		if r == nil || r.GetName() == "" || r.GetHTMLURL() == "" {
			slog.Warn("skipping malformed repository entry", "id", r.GetID())
			continue
		}
		mapped = append(mapped, mapRepository(r))
	}
	return mapped
}

// mapRepository converts a go-github Repository to a domain model GitHubRepo.
// It uses GetXxx() helper methods exclusively to avoid nil pointer panics.
func mapRepository(r *gh.Repository) model.GitHubRepo {
	topics := make([]string, 0, len(r.Topics))
	topics = append(topics, r.Topics...)

	return model.GitHubRepo{
		ID:          r.GetID(),
		Name:        r.GetName(),
		Description: r.GetDescription(),
		HTMLURL:     r.GetHTMLURL(),
		Language:    r.GetLanguage(),
		Topics:      topics,
		Fork:        r.GetFork(),
		Stars:       r.GetStargazersCount(),
		Forks:       r.GetForksCount(),
		CreatedAt:   r.GetCreatedAt().Time,
		UpdatedAt:   r.GetUpdatedAt().Time,
	}
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 10 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}
