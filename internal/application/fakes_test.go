package application_test

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ericfisherdev/repofeed/internal/domain/model"
	"github.com/ericfisherdev/repofeed/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockBackendFeed struct {
	calls atomic.Int32
	fetch func(ctx context.Context) (*model.BackendPayload, error)
}

func (m *mockBackendFeed) FetchRepos(ctx context.Context) (*model.BackendPayload, error) {
	m.calls.Add(1)
	return m.fetch(ctx)
}

type mockPublicSource struct {
	calls atomic.Int32
	list  func(ctx context.Context, username string) ([]model.GitHubRepo, error)
}

func (m *mockPublicSource) ListPublicRepos(ctx context.Context, username string) ([]model.GitHubRepo, error) {
	m.calls.Add(1)
	return m.list(ctx, username)
}

type mockGitHubClient struct {
	listCalls atomic.Int32
	list      func(ctx context.Context, username string) ([]model.GitHubRepo, error)
	readmes   map[string]string
	readmeErr map[string]error
}

func (m *mockGitHubClient) ListUserRepos(ctx context.Context, username string) ([]model.GitHubRepo, error) {
	m.listCalls.Add(1)
	return m.list(ctx, username)
}

func (m *mockGitHubClient) FetchReadme(_ context.Context, _, repo string) (string, error) {
	if err := m.readmeErr[repo]; err != nil {
		return "", err
	}
	return m.readmes[repo], nil
}

type mockSnapshotStore struct {
	mu       sync.Mutex
	snapshot *model.RepoSnapshot
	saves    int
}

func (m *mockSnapshotStore) Latest(_ context.Context) (*model.RepoSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil {
		return nil, nil
	}
	snap := *m.snapshot
	return &snap, nil
}

func (m *mockSnapshotStore) Save(_ context.Context, snapshot model.RepoSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = &snapshot
	m.saves++
	return nil
}

type mockIgnoreStore struct {
	mu    sync.Mutex
	names map[string]time.Time
}

func newMockIgnoreStore(names ...string) *mockIgnoreStore {
	m := &mockIgnoreStore{names: map[string]time.Time{}}
	for _, n := range names {
		m.names[strings.ToLower(n)] = time.Now()
	}
	return m
}

func (m *mockIgnoreStore) Ignore(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(strings.TrimSpace(name))
	if _, ok := m.names[key]; !ok {
		m.names[key] = time.Now()
	}
	return nil
}

func (m *mockIgnoreStore) Unignore(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(strings.TrimSpace(name))
	if _, ok := m.names[key]; !ok {
		return driven.ErrIgnoredRepoNotFound
	}
	delete(m.names, key)
	return nil
}

func (m *mockIgnoreStore) List(_ context.Context) ([]model.IgnoredRepo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.IgnoredRepo, 0, len(m.names))
	for name, at := range m.names {
		out = append(out, model.IgnoredRepo{Name: name, AddedAt: at})
	}
	return out, nil
}

func (m *mockIgnoreStore) Names(_ context.Context) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]struct{}, len(m.names))
	for name := range m.names {
		out[name] = struct{}{}
	}
	return out, nil
}

// --- Helpers ---

func backendPayload(source model.BackendSource, repos ...model.BackendRepo) func(context.Context) (*model.BackendPayload, error) {
	return func(context.Context) (*model.BackendPayload, error) {
		if repos == nil {
			repos = []model.BackendRepo{}
		}
		return &model.BackendPayload{Success: true, Repos: repos, Source: source}, nil
	}
}

func backendFails(err error) func(context.Context) (*model.BackendPayload, error) {
	return func(context.Context) (*model.BackendPayload, error) {
		return nil, err
	}
}

func publicRepos(repos ...model.GitHubRepo) func(context.Context, string) ([]model.GitHubRepo, error) {
	return func(context.Context, string) ([]model.GitHubRepo, error) {
		return repos, nil
	}
}

func publicFails(err error) func(context.Context, string) ([]model.GitHubRepo, error) {
	return func(context.Context, string) ([]model.GitHubRepo, error) {
		return nil, err
	}
}

// blockUntilDone blocks until ctx is canceled and returns its error.
func blockUntilDone(ctx context.Context) (*model.BackendPayload, error) {
	<-ctx.Done()
	return nil, &driven.SourceError{Source: "backend", Message: "timeout", Kind: driven.ErrSourceUnavailable, Err: ctx.Err()}
}

func ghRepo(id int64, name string) model.GitHubRepo {
	return model.GitHubRepo{
		ID:        id,
		Name:      name,
		HTMLURL:   "https://github.com/octocat/" + name,
		Language:  "Go",
		Topics:    []string{},
		CreatedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}
