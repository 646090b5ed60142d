package application

import (
	"bufio"
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ericfisherdev/repofeed/internal/domain/model"
	"github.com/ericfisherdev/repofeed/internal/domain/port/driven"
	"github.com/ericfisherdev/repofeed/internal/telemetry"
)

const (
	// DefaultCacheTTL is how long a snapshot is served without a refresh.
	DefaultCacheTTL = 2 * time.Hour

	// MaxCachedRepos is the number of repositories kept per snapshot.
	MaxCachedRepos = 12

	// DefaultRebuildTimeout bounds one rebuild from GitHub.
	DefaultRebuildTimeout = 2 * time.Minute

	readmeConcurrency  = 4
	defaultDescription = "No description available"
	defaultLanguage    = "Unknown"
)

// ErrInvalidRepoName is returned when an ignore-list name is blank.
var ErrInvalidRepoName = errors.New("repository name must not be empty")

// CacheService is the caching backend behind /api/github-repos. It serves the
// latest snapshot while it is fresh, rebuilds it from GitHub when it is stale,
// and falls back to the stale snapshot when GitHub cannot be reached.
type CacheService struct {
	ghClient  driven.GitHubClient
	snapshots driven.SnapshotStore
	ignores   driven.IgnoreStore
	username  string
	ttl       time.Duration
	metrics   *telemetry.CacheMetrics
	now       func() time.Time

	rebuildTimeout time.Duration

	refreshGroup singleflight.Group
}

// NewCacheService creates a CacheService. A non-positive ttl uses
// DefaultCacheTTL; metrics may be nil.
func NewCacheService(
	ghClient driven.GitHubClient,
	snapshots driven.SnapshotStore,
	ignores driven.IgnoreStore,
	username string,
	ttl time.Duration,
	metrics *telemetry.CacheMetrics,
) *CacheService {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &CacheService{
		ghClient:  ghClient,
		snapshots: snapshots,
		ignores:   ignores,
		username:  username,
		ttl:       ttl,
		metrics:   metrics,
		now:       time.Now,

		rebuildTimeout: DefaultRebuildTimeout,
	}
}

// Repos returns the feed served at /api/github-repos, with ignored
// repositories removed. It returns driven.ErrNoRepositories when neither
// GitHub nor a snapshot can supply any repository.
func (s *CacheService) Repos(ctx context.Context) (model.CachedFeed, error) {
	snapshot, err := s.snapshots.Latest(ctx)
	if err != nil {
		return model.CachedFeed{}, fmt.Errorf("loading snapshot: %w", err)
	}

	hasSnapshot := snapshot != nil && len(snapshot.Repos) > 0

	if hasSnapshot && snapshot.IsFresh(s.now(), s.ttl) {
		return s.serveSnapshot(ctx, snapshot, model.BackendSourceCache)
	}

	if hasSnapshot {
		slog.Info("snapshot is stale, refreshing from GitHub", "fetched_at", snapshot.FetchedAt)
	} else {
		slog.Info("no snapshot found, fetching from GitHub")
	}

	repos, err := s.refresh(ctx)
	if err == nil && len(repos) > 0 {
		s.metrics.RecordServed(ctx, string(model.BackendSourceLive))
		return model.CachedFeed{Repos: repos, Source: model.BackendSourceLive}, nil
	}
	if err != nil {
		slog.Error("refresh failed", "error", err)
	}

	if hasSnapshot {
		slog.Warn("falling back to stale snapshot", "fetched_at", snapshot.FetchedAt)
		return s.serveSnapshot(ctx, snapshot, model.BackendSourceCacheStale)
	}

	return model.CachedFeed{}, driven.ErrNoRepositories
}

// Refresh rebuilds the snapshot from GitHub regardless of its age.
func (s *CacheService) Refresh(ctx context.Context) (model.CachedFeed, error) {
	repos, err := s.refresh(ctx)
	if err != nil {
		return model.CachedFeed{}, err
	}
	if len(repos) == 0 {
		return model.CachedFeed{}, driven.ErrNoRepositories
	}
	return model.CachedFeed{Repos: repos, Source: model.BackendSourceLive}, nil
}

func (s *CacheService) serveSnapshot(ctx context.Context, snapshot *model.RepoSnapshot, source model.BackendSource) (model.CachedFeed, error) {
	ignored, err := s.ignores.Names(ctx)
	if err != nil {
		return model.CachedFeed{}, fmt.Errorf("loading ignore list: %w", err)
	}

	repos := make([]model.BackendRepo, 0, len(snapshot.Repos))
	for _, repo := range snapshot.Repos {
		if _, skip := ignored[strings.ToLower(repo.Name)]; skip {
			continue
		}
		repos = append(repos, repo)
	}

	s.metrics.RecordServed(ctx, string(source))
	return model.CachedFeed{Repos: repos, Source: source}, nil
}

// refresh deduplicates concurrent rebuilds. Callers joining an in-flight
// rebuild share its result. The rebuild runs detached from the caller's
// context, bounded by rebuildTimeout, so a caller that gives up stops waiting
// without cancelling the work for the others.
func (s *CacheService) refresh(ctx context.Context) ([]model.BackendRepo, error) {
	ch := s.refreshGroup.DoChan("refresh", func() (any, error) {
		rebuildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.rebuildTimeout)
		defer cancel()
		return s.rebuild(rebuildCtx)
	})

	select {
	case <-ctx.Done():
		slog.Warn("stopped waiting for refresh, it continues in the background", "error", ctx.Err())
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			slog.Debug("joined in-flight refresh")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]model.BackendRepo), nil
	}
}

// rebuild lists the user's repositories, drops forks and ignored names, keeps
// the most starred ones, classifies each from its README, and saves the result
// as the new snapshot when it is non-empty.
func (s *CacheService) rebuild(ctx context.Context) ([]model.BackendRepo, error) {
	start := s.now()

	ghRepos, err := s.ghClient.ListUserRepos(ctx, s.username)
	if err != nil {
		s.metrics.RecordRefresh(ctx, false, 0)
		return nil, fmt.Errorf("listing repositories: %w", err)
	}

	ignored, err := s.ignores.Names(ctx)
	if err != nil {
		s.metrics.RecordRefresh(ctx, false, 0)
		return nil, fmt.Errorf("loading ignore list: %w", err)
	}

	candidates := make([]model.GitHubRepo, 0, len(ghRepos))
	for _, repo := range ghRepos {
		if repo.Fork {
			continue
		}
		if _, skip := ignored[strings.ToLower(repo.Name)]; skip {
			continue
		}
		candidates = append(candidates, repo)
	}

	slices.SortStableFunc(candidates, func(a, b model.GitHubRepo) int {
		if c := cmp.Compare(b.Stars, a.Stars); c != 0 {
			return c
		}
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	if len(candidates) > MaxCachedRepos {
		candidates = candidates[:MaxCachedRepos]
	}

	statuses, err := s.classify(ctx, candidates)
	if err != nil {
		s.metrics.RecordRefresh(ctx, false, 0)
		return nil, err
	}

	repos := make([]model.BackendRepo, 0, len(candidates))
	for i, repo := range candidates {
		repos = append(repos, toBackendRepo(repo, statuses[i]))
	}

	if len(repos) > 0 {
		snapshot := model.RepoSnapshot{FetchedAt: s.now(), Repos: repos}
		if err := s.snapshots.Save(ctx, snapshot); err != nil {
			slog.Error("saving snapshot failed", "error", err)
		}
	}

	s.metrics.RecordRefresh(ctx, true, len(repos))

	slog.Info("repositories refreshed",
		"listed", len(ghRepos),
		"kept", len(repos),
		"duration", s.now().Sub(start).Round(time.Millisecond),
	)

	return repos, nil
}

// classify fetches READMEs in parallel and derives each repository's status.
// A README that cannot be fetched counts as missing.
func (s *CacheService) classify(ctx context.Context, repos []model.GitHubRepo) ([]model.ProjectStatus, error) {
	statuses := make([]model.ProjectStatus, len(repos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(readmeConcurrency)

	for i, repo := range repos {
		g.Go(func() error {
			text, err := s.ghClient.FetchReadme(gctx, s.username, repo.Name)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				slog.Warn("fetch README failed", "repo", repo.Name, "error", err)
				text = ""
			}
			statuses[i] = StatusFromReadme(text)
			slog.Debug("repository classified", "repo", repo.Name, "status", string(statuses[i]))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("classifying repositories: %w", err)
	}
	return statuses, nil
}

func toBackendRepo(repo model.GitHubRepo, status model.ProjectStatus) model.BackendRepo {
	description := repo.Description
	if description == "" {
		description = defaultDescription
	}
	language := repo.Language
	if language == "" {
		language = defaultLanguage
	}

	return model.BackendRepo{
		Name:        repo.Name,
		Description: description,
		HTMLURL:     repo.HTMLURL,
		Language:    language,
		Stars:       repo.Stars,
		Forks:       repo.Forks,
		UpdatedAt:   formatTimestamp(repo.UpdatedAt),
		CreatedAt:   formatTimestamp(repo.CreatedAt),
		Topics:      copyTopics(repo.Topics),
		Status:      status,
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Ignore adds name to the ignore list. Matching is case-insensitive.
func (s *CacheService) Ignore(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidRepoName
	}
	if err := s.ignores.Ignore(ctx, name); err != nil {
		return fmt.Errorf("ignoring %s: %w", name, err)
	}
	slog.Info("repository ignored", "repo", name)
	return nil
}

// Unignore removes name from the ignore list.
func (s *CacheService) Unignore(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidRepoName
	}
	if err := s.ignores.Unignore(ctx, name); err != nil {
		return fmt.Errorf("unignoring %s: %w", name, err)
	}
	slog.Info("repository unignored", "repo", name)
	return nil
}

// ListIgnored returns the ignore list ordered by name.
func (s *CacheService) ListIgnored(ctx context.Context) ([]model.IgnoredRepo, error) {
	return s.ignores.List(ctx)
}

// ImportIgnoreFile seeds the ignore list from a text file holding one
// repository name per line. Blank lines and lines starting with '#' are
// skipped. It returns the number of names read.
func (s *CacheService) ImportIgnoreFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var count int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := s.ignores.Ignore(ctx, line); err != nil {
			return count, fmt.Errorf("importing %s: %w", line, err)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("reading ignore file: %w", err)
	}

	slog.Info("ignore file imported", "path", path, "count", count)
	return count, nil
}
