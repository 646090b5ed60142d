package application_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/repofeed/internal/application"
	"github.com/ericfisherdev/repofeed/internal/domain/model"
	"github.com/ericfisherdev/repofeed/internal/domain/port/driven"
)

func newResolver(primary *mockBackendFeed, public *mockPublicSource) *application.FeedResolver {
	return application.NewFeedResolver(primary, public, "octocat", 200*time.Millisecond, nil)
}

func TestResolve_PrimaryProvenance(t *testing.T) {
	tests := []struct {
		source model.BackendSource
		want   model.Provenance
	}{
		{source: model.BackendSourceCache, want: model.ProvenanceCache},
		{source: model.BackendSourceCacheStale, want: model.ProvenanceCache},
		{source: model.BackendSourceLive, want: model.ProvenanceAPI},
		{source: "", want: model.ProvenanceAPI},
	}

	for _, tc := range tests {
		t.Run(string(tc.source), func(t *testing.T) {
			primary := &mockBackendFeed{fetch: backendPayload(tc.source, model.BackendRepo{
				Name: "repo", HTMLURL: "https://github.com/octocat/repo",
			})}
			public := &mockPublicSource{list: publicFails(errors.New("must not be called"))}

			feed, err := newResolver(primary, public).Resolve(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.want, feed.Provenance)
			assert.Zero(t, public.calls.Load())
		})
	}
}

func TestResolve_PrimaryMapping(t *testing.T) {
	primary := &mockBackendFeed{fetch: backendPayload(model.BackendSourceLive,
		model.BackendRepo{
			Name:        "my-cool-project",
			Description: "A thing",
			HTMLURL:     "https://github.com/octocat/my-cool-project",
			Language:    "Go",
			UpdatedAt:   "2023-05-01T00:00:00Z",
			Topics:      []string{"cli", "tools"},
			Status:      model.ProjectStatusUnderDev,
		},
		model.BackendRepo{
			Name:      "other",
			HTMLURL:   "https://github.com/octocat/other",
			UpdatedAt: "2021-02-03T04:05:06Z",
			Status:    "something else",
		},
	)}
	public := &mockPublicSource{list: publicRepos()}

	feed, err := newResolver(primary, public).Resolve(context.Background())
	require.NoError(t, err)

	want := []model.Project{
		{
			ID:          0,
			Title:       "my cool project",
			Category:    "Go",
			Description: "A thing",
			Year:        "2023",
			URL:         "https://github.com/octocat/my-cool-project",
			Status:      model.ProjectStatusUnderDev,
			Topics:      []string{"cli", "tools"},
		},
		{
			ID:       1,
			Title:    "other",
			Category: "Development",
			Year:     "2021",
			URL:      "https://github.com/octocat/other",
			Status:   model.ProjectStatusCompleted,
			Topics:   []string{},
		},
	}
	if diff := cmp.Diff(want, feed.Projects); diff != "" {
		t.Errorf("projects mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_PrimaryFailuresFallBackOnce(t *testing.T) {
	tests := []struct {
		name  string
		fetch func(context.Context) (*model.BackendPayload, error)
	}{
		{name: "timeout", fetch: blockUntilDone},
		{name: "server error", fetch: backendFails(&driven.SourceError{
			Source: "backend", Message: "backend returned status 500", Kind: driven.ErrSourceUnavailable,
		})},
		{name: "malformed", fetch: backendFails(&driven.SourceError{
			Source: "backend", Message: "backend returned invalid JSON", Kind: driven.ErrMalformedPayload,
		})},
		{name: "success false", fetch: func(context.Context) (*model.BackendPayload, error) {
			return &model.BackendPayload{Success: false, Error: "nope"}, nil
		}},
		{name: "nil payload", fetch: func(context.Context) (*model.BackendPayload, error) {
			return nil, nil
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			primary := &mockBackendFeed{fetch: tc.fetch}
			public := &mockPublicSource{list: publicRepos(ghRepo(1, "one"))}

			feed, err := newResolver(primary, public).Resolve(context.Background())
			require.NoError(t, err)
			assert.Equal(t, model.ProvenanceFallback, feed.Provenance)
			assert.Equal(t, int32(1), primary.calls.Load())
			assert.Equal(t, int32(1), public.calls.Load())
		})
	}
}

func TestResolve_PrimaryTimeoutIsBounded(t *testing.T) {
	primary := &mockBackendFeed{fetch: blockUntilDone}
	public := &mockPublicSource{list: publicRepos()}
	resolver := application.NewFeedResolver(primary, public, "octocat", 50*time.Millisecond, nil)

	start := time.Now()
	_, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestResolve_FallbackFiltersAndCaps(t *testing.T) {
	var repos []model.GitHubRepo
	for i := range 20 {
		repo := ghRepo(int64(100+i), "repo-"+strconv.Itoa(i))
		repo.Fork = i%3 == 0
		repos = append(repos, repo)
	}

	primary := &mockBackendFeed{fetch: backendFails(errors.New("down"))}
	public := &mockPublicSource{list: func(_ context.Context, username string) ([]model.GitHubRepo, error) {
		assert.Equal(t, "octocat", username)
		return repos, nil
	}}

	feed, err := newResolver(primary, public).Resolve(context.Background())
	require.NoError(t, err)
	require.Len(t, feed.Projects, application.MaxFallbackProjects)

	var lastID int64
	for _, p := range feed.Projects {
		assert.NotZero(t, (p.ID-100)%3, "fork %d leaked into feed", p.ID)
		assert.Greater(t, p.ID, lastID, "source order not preserved")
		lastID = p.ID
	}
	assert.Equal(t, int64(101), feed.Projects[0].ID)
	assert.Equal(t, "repo 1", feed.Projects[0].Title)
}

func TestResolve_FallbackStatusAndYear(t *testing.T) {
	wip := ghRepo(1, "half-done")
	wip.Description = "wip - todo"
	wip.UpdatedAt = time.Time{}
	wip.CreatedAt = time.Date(2019, 7, 1, 0, 0, 0, 0, time.UTC)

	topic := ghRepo(2, "tagged")
	topic.Topics = []string{"go", "WIP"}

	done := ghRepo(3, "finished")
	done.Description = "A finished tool"
	done.Language = ""

	primary := &mockBackendFeed{fetch: backendFails(errors.New("down"))}
	public := &mockPublicSource{list: publicRepos(wip, topic, done)}

	feed, err := newResolver(primary, public).Resolve(context.Background())
	require.NoError(t, err)
	require.Len(t, feed.Projects, 3)

	assert.Equal(t, model.ProjectStatusUnderDev, feed.Projects[0].Status)
	assert.Equal(t, "2019", feed.Projects[0].Year)
	assert.Equal(t, model.ProjectStatusUnderDev, feed.Projects[1].Status)
	assert.Equal(t, model.ProjectStatusCompleted, feed.Projects[2].Status)
	assert.Equal(t, "2024", feed.Projects[2].Year)
	assert.Equal(t, "Development", feed.Projects[2].Category)
}

func TestResolve_BothFail(t *testing.T) {
	tests := []struct {
		name       string
		publicErr  error
		wantReason string
	}{
		{
			name: "api message",
			publicErr: &driven.SourceError{
				Source: "github", Message: "API rate limit exceeded", Kind: driven.ErrSourceUnavailable,
			},
			wantReason: "System Offline: API rate limit exceeded",
		},
		{
			name: "non-array",
			publicErr: &driven.SourceError{
				Source:  "github",
				Message: "GitHub API returned non-array data (likely rate limit)",
				Kind:    driven.ErrMalformedPayload,
			},
			wantReason: "System Offline: GitHub API returned non-array data (likely rate limit)",
		},
		{
			name:       "no message",
			publicErr:  errors.New("connection reset"),
			wantReason: "System Offline: Check connection",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			primary := &mockBackendFeed{fetch: backendFails(errors.New("down"))}
			public := &mockPublicSource{list: publicFails(tc.publicErr)}
			resolver := newResolver(primary, public)

			feed, err := resolver.Resolve(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, application.ErrFeedUnavailable)

			var unavailable *application.FeedUnavailableError
			require.True(t, errors.As(err, &unavailable))
			assert.Equal(t, tc.wantReason, unavailable.Reason)
			assert.Empty(t, feed.Projects)
			assert.Equal(t, model.ProvenanceNone, feed.Provenance)

			state := resolver.State()
			assert.Equal(t, model.FetchPhaseFailed, state.Phase)
			assert.Equal(t, tc.wantReason, state.Reason)
			assert.Equal(t, model.ProvenanceNone, state.Provenance)
			assert.Empty(t, state.Projects)
		})
	}
}

func TestResolve_StateTransitions(t *testing.T) {
	inFallback := make(chan struct{})
	release := make(chan struct{})

	primary := &mockBackendFeed{fetch: backendFails(errors.New("down"))}
	public := &mockPublicSource{list: func(ctx context.Context, _ string) ([]model.GitHubRepo, error) {
		close(inFallback)
		<-release
		return []model.GitHubRepo{ghRepo(1, "one")}, nil
	}}
	resolver := newResolver(primary, public)

	assert.Equal(t, model.FetchPhaseIdle, resolver.State().Phase)

	result := make(chan error, 1)
	go func() {
		_, err := resolver.Resolve(context.Background())
		result <- err
	}()

	<-inFallback
	loading := resolver.State()
	assert.Equal(t, model.FetchPhaseLoading, loading.Phase)
	assert.Equal(t, model.ProvenanceFallback, loading.Provenance)
	assert.Equal(t, uint64(1), loading.Generation)

	close(release)
	require.NoError(t, <-result)

	final := resolver.State()
	assert.Equal(t, model.FetchPhaseSuccess, final.Phase)
	assert.Equal(t, model.ProvenanceFallback, final.Provenance)
	assert.Len(t, final.Projects, 1)
	assert.Equal(t, uint64(1), final.Generation)
}

func TestResolve_NewCycleSupersedesInFlight(t *testing.T) {
	firstStarted := make(chan struct{})

	primary := &mockBackendFeed{}
	primary.fetch = func(ctx context.Context) (*model.BackendPayload, error) {
		if primary.calls.Load() == 1 {
			close(firstStarted)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return backendPayload(model.BackendSourceCache, model.BackendRepo{
			Name: "fresh", HTMLURL: "https://github.com/octocat/fresh",
		})(ctx)
	}
	public := &mockPublicSource{list: func(ctx context.Context, _ string) ([]model.GitHubRepo, error) {
		return nil, ctx.Err()
	}}

	resolver := application.NewFeedResolver(primary, public, "octocat", time.Minute, nil)

	firstResult := make(chan error, 1)
	go func() {
		_, err := resolver.Resolve(context.Background())
		firstResult <- err
	}()
	<-firstStarted

	feed, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.ProvenanceCache, feed.Provenance)

	select {
	case err := <-firstResult:
		assert.ErrorIs(t, err, application.ErrCycleSuperseded)
	case <-time.After(5 * time.Second):
		t.Fatal("superseded cycle did not return")
	}

	state := resolver.State()
	assert.Equal(t, model.FetchPhaseSuccess, state.Phase)
	assert.Equal(t, model.ProvenanceCache, state.Provenance)
	assert.Equal(t, uint64(2), state.Generation)
	require.Len(t, state.Projects, 1)
	assert.Equal(t, "fresh", state.Projects[0].Title)
}

func TestResolve_ParentCancellation(t *testing.T) {
	primary := &mockBackendFeed{fetch: blockUntilDone}
	public := &mockPublicSource{list: func(ctx context.Context, _ string) ([]model.GitHubRepo, error) {
		return nil, &driven.SourceError{Source: "github", Message: "GitHub API unavailable", Kind: driven.ErrSourceUnavailable, Err: ctx.Err()}
	}}
	resolver := application.NewFeedResolver(primary, public, "octocat", time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := resolver.Resolve(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, application.ErrFeedUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, model.FetchPhaseFailed, resolver.State().Phase)
}

func TestState_ReturnsCopy(t *testing.T) {
	primary := &mockBackendFeed{fetch: backendPayload(model.BackendSourceCache, model.BackendRepo{
		Name: "a", HTMLURL: "https://github.com/octocat/a",
	})}
	resolver := newResolver(primary, &mockPublicSource{list: publicRepos()})

	_, err := resolver.Resolve(context.Background())
	require.NoError(t, err)

	state := resolver.State()
	state.Projects[0].Title = "mutated"
	assert.Equal(t, "a", resolver.State().Projects[0].Title)
}
