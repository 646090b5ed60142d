package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/repofeed/internal/domain/model"
	"github.com/ericfisherdev/repofeed/internal/domain/port/driven"
	"github.com/ericfisherdev/repofeed/internal/telemetry"
)

// DefaultPrimaryTimeout bounds the wait for the primary source.
const DefaultPrimaryTimeout = 3000 * time.Millisecond

const offlineDefault = "Check connection"

var (
	// ErrFeedUnavailable is wrapped by *FeedUnavailableError when neither
	// source produced a feed.
	ErrFeedUnavailable = errors.New("feed unavailable")

	// ErrCycleSuperseded is returned by a cycle that failed after a newer
	// cycle had already replaced it.
	ErrCycleSuperseded = errors.New("resolve cycle superseded")
)

// FeedUnavailableError carries the human-readable reason shown in the error
// panel when both sources failed.
type FeedUnavailableError struct {
	Reason string
	Err    error
}

func (e *FeedUnavailableError) Error() string {
	return e.Reason
}

// Unwrap exposes ErrFeedUnavailable and the secondary source's error.
func (e *FeedUnavailableError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFeedUnavailable}
	}
	return []error{ErrFeedUnavailable, e.Err}
}

// FeedResolver fetches the projects feed from the caching backend and falls
// back to the public GitHub API when the backend fails. It keeps the outcome
// of the most recent cycle as a model.FetchState.
//
// Overlapping cycles follow last-writer-wins: starting a cycle cancels the one
// in flight, and only the newest cycle may commit its outcome.
type FeedResolver struct {
	primary        driven.BackendFeed
	public         driven.PublicRepoSource
	username       string
	primaryTimeout time.Duration
	metrics        *telemetry.FeedMetrics
	now            func() time.Time

	mu         sync.Mutex
	state      model.FetchState
	generation uint64
	cancel     context.CancelFunc
}

// NewFeedResolver creates a FeedResolver. A non-positive primaryTimeout uses
// DefaultPrimaryTimeout; metrics may be nil.
func NewFeedResolver(
	primary driven.BackendFeed,
	public driven.PublicRepoSource,
	username string,
	primaryTimeout time.Duration,
	metrics *telemetry.FeedMetrics,
) *FeedResolver {
	if primaryTimeout <= 0 {
		primaryTimeout = DefaultPrimaryTimeout
	}

	return &FeedResolver{
		primary:        primary,
		public:         public,
		username:       username,
		primaryTimeout: primaryTimeout,
		metrics:        metrics,
		now:            time.Now,
		state:          model.IdleState(),
	}
}

// State returns a copy of the current fetch state.
func (r *FeedResolver) State() model.FetchState {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.state
	if s.Projects != nil {
		s.Projects = append([]model.Project(nil), s.Projects...)
	}
	return s
}

// Resolve runs one fetch cycle. The caller always receives the outcome of its
// own cycle; the shared state is only updated if no newer cycle has started.
// Every source failure is returned as an error value. When both sources fail
// the error is a *FeedUnavailableError.
func (r *FeedResolver) Resolve(ctx context.Context) (model.Feed, error) {
	start := r.now()
	ctx, gen, release := r.begin(ctx)
	defer release()

	log := slog.With("cycle_id", uuid.NewString(), "generation", gen)
	log.Debug("resolve cycle started")

	feed, err := r.resolve(ctx, gen, log)

	committed := r.finish(gen, feed, err)
	duration := r.now().Sub(start)

	switch {
	case !committed && err != nil:
		log.Info("resolve cycle superseded", "error", err)
		r.metrics.RecordCycle(context.WithoutCancel(ctx), "superseded", "", duration)
		return model.Feed{Projects: []model.Project{}}, ErrCycleSuperseded
	case err != nil:
		log.Warn("resolve cycle failed", "error", err, "duration", duration.Round(time.Millisecond))
		r.metrics.RecordCycle(context.WithoutCancel(ctx), "failed", "", duration)
	default:
		log.Info("resolve cycle complete",
			"provenance", string(feed.Provenance),
			"projects", len(feed.Projects),
			"committed", committed,
			"duration", duration.Round(time.Millisecond),
		)
		r.metrics.RecordCycle(context.WithoutCancel(ctx), "success", string(feed.Provenance), duration)
	}

	return feed, err
}

// begin starts a new generation, cancels the previous in-flight cycle and
// moves the state to loading with provenance unset.
func (r *FeedResolver) begin(parent context.Context) (context.Context, uint64, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}
	r.generation++
	r.cancel = cancel
	r.state = model.LoadingState(r.generation, model.ProvenanceNone, r.now())

	return ctx, r.generation, cancel
}

// enterFallback marks the current cycle as having moved to the public API.
func (r *FeedResolver) enterFallback(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.generation {
		return
	}
	r.state = model.LoadingState(gen, model.ProvenanceFallback, r.now())
}

// finish commits the outcome if gen is still current and reports whether it did.
func (r *FeedResolver) finish(gen uint64, feed model.Feed, err error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.generation {
		return false
	}

	r.cancel = nil
	if err != nil {
		reason := err.Error()
		var unavailable *FeedUnavailableError
		if errors.As(err, &unavailable) {
			reason = unavailable.Reason
		}
		r.state = model.FailedState(gen, reason, r.now())
		return true
	}

	r.state = model.SuccessState(gen, feed, r.now())
	return true
}

// resolve is the two-tier fetch: primary with a bounded wait, then a single
// attempt against the public API.
func (r *FeedResolver) resolve(ctx context.Context, gen uint64, log *slog.Logger) (model.Feed, error) {
	feed, err := r.fromPrimary(ctx)
	if err == nil {
		return feed, nil
	}

	log.Warn("primary source failed, falling back to public API", "error", err)
	r.enterFallback(gen)

	repos, err := r.public.ListPublicRepos(ctx, r.username)
	if err != nil {
		return model.Feed{Projects: []model.Project{}}, &FeedUnavailableError{
			Reason: offlineReason(err),
			Err:    err,
		}
	}

	return model.Feed{
		Projects:   mapFallbackRepos(repos, r.now()),
		Provenance: model.ProvenanceFallback,
	}, nil
}

func (r *FeedResolver) fromPrimary(ctx context.Context) (model.Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, r.primaryTimeout)
	defer cancel()

	payload, err := r.primary.FetchRepos(ctx)
	if err != nil {
		return model.Feed{}, err
	}
	if payload == nil || !payload.Success || payload.Repos == nil {
		return model.Feed{}, &driven.SourceError{
			Source:  "backend",
			Message: "backend payload missing repos",
			Kind:    driven.ErrMalformedPayload,
		}
	}

	return model.Feed{
		Projects:   mapBackendRepos(payload.Repos, r.now()),
		Provenance: payload.Source.Provenance(),
	}, nil
}

// offlineReason builds the error panel text from the secondary source's error.
func offlineReason(err error) string {
	msg := offlineDefault
	var srcErr *driven.SourceError
	if errors.As(err, &srcErr) && srcErr.Message != "" {
		msg = srcErr.Message
	}
	return "System Offline: " + msg
}
