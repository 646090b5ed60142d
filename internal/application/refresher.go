package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/ericfisherdev/repofeed/internal/domain/model"
)

// DefaultRefreshInterval is the period of the scheduled refresh.
const DefaultRefreshInterval = 2 * time.Hour

// Resolver runs one feed cycle. *FeedResolver implements it.
type Resolver interface {
	Resolve(ctx context.Context) (model.Feed, error)
}

// BackendRefresher rebuilds the caching backend's snapshot. *CacheService
// implements it.
type BackendRefresher interface {
	Refresh(ctx context.Context) (model.CachedFeed, error)
}

// refreshRequest represents a manual refresh trigger.
type refreshRequest struct {
	done chan error
}

// RefreshScheduler owns the periodic refresh. Each cycle rebuilds the backend
// snapshot (when a BackendRefresher is wired) and then resolves the feed.
type RefreshScheduler struct {
	backend   BackendRefresher
	resolver  Resolver
	interval  time.Duration
	refreshCh chan refreshRequest
}

// NewRefreshScheduler creates a RefreshScheduler. backend may be nil when the
// caching backend runs elsewhere. A non-positive interval uses
// DefaultRefreshInterval.
func NewRefreshScheduler(backend BackendRefresher, resolver Resolver, interval time.Duration) *RefreshScheduler {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}

	return &RefreshScheduler{
		backend:   backend,
		resolver:  resolver,
		interval:  interval,
		refreshCh: make(chan refreshRequest),
	}
}

// Start runs an immediate cycle, then one cycle per interval, and serves
// manual refresh requests in between. Start blocks until the context is
// canceled and returns after the ticker has been stopped.
func (s *RefreshScheduler) Start(ctx context.Context) {
	if err := s.runCycle(ctx); err != nil {
		slog.Error("initial refresh failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("refresh scheduler stopped")
			return
		case <-ticker.C:
			if err := s.runCycle(ctx); err != nil {
				slog.Error("scheduled refresh failed", "error", err)
			}
		case req := <-s.refreshCh:
			req.done <- s.runCycle(ctx)
		}
	}
}

// Refresh triggers a cycle outside the schedule. It blocks until the cycle
// completes or the context is canceled. It also blocks while the scheduler is
// not running.
func (s *RefreshScheduler) Refresh(ctx context.Context) error {
	done := make(chan error, 1)
	req := refreshRequest{done: done}

	select {
	case s.refreshCh <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runCycle refreshes the backend snapshot, then resolves the feed. A failed
// backend refresh is logged only; the resolver still runs and may serve the
// stale snapshot or the public API.
func (s *RefreshScheduler) runCycle(ctx context.Context) error {
	start := time.Now()

	if s.backend != nil {
		if _, err := s.backend.Refresh(ctx); err != nil {
			slog.Warn("backend refresh failed", "error", err)
		}
	}

	feed, err := s.resolver.Resolve(ctx)
	if err != nil {
		return err
	}

	slog.Info("refresh cycle complete",
		"provenance", string(feed.Provenance),
		"projects", len(feed.Projects),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}
