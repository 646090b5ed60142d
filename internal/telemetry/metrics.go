// Package telemetry provides OpenTelemetry metrics for the feed resolver and
// the repository cache.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// FeedMetricsMeterName is the name used for the resolver meter.
	FeedMetricsMeterName = "github.com/ericfisherdev/repofeed/feed"

	// CacheMetricsMeterName is the name used for the cache service meter.
	CacheMetricsMeterName = "github.com/ericfisherdev/repofeed/cache"
)

// FeedMetrics holds the instruments recorded once per resolver cycle.
type FeedMetrics struct {
	cycles   metric.Int64Counter
	duration metric.Float64Histogram
}

// NewFeedMetrics creates FeedMetrics on the given provider.
// If provider is nil, it returns nil (no-op metrics).
func NewFeedMetrics(provider metric.MeterProvider) (*FeedMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(FeedMetricsMeterName)

	cycles, err := meter.Int64Counter(
		"repofeed_resolve_cycles_total",
		metric.WithDescription("Resolver cycles by outcome and provenance"),
		metric.WithUnit("{cycle}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"repofeed_resolve_duration_seconds",
		metric.WithDescription("Duration of resolver cycles in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 10, 30),
	)
	if err != nil {
		return nil, err
	}

	return &FeedMetrics{cycles: cycles, duration: duration}, nil
}

// RecordCycle records one finished resolver cycle. outcome is one of
// "success", "failed" or "superseded".
func (m *FeedMetrics) RecordCycle(ctx context.Context, outcome, provenance string, duration time.Duration) {
	if m == nil || m.cycles == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("provenance", provenance),
	)

	m.cycles.Add(ctx, 1, attrs)
	m.duration.Record(ctx, duration.Seconds(), attrs)
}

// CacheMetrics holds the instruments of the repository cache service.
type CacheMetrics struct {
	refreshes      metric.Int64Counter
	refreshRepos   metric.Int64Gauge
	servedBySource metric.Int64Counter
}

// NewCacheMetrics creates CacheMetrics on the given provider.
// If provider is nil, it returns nil (no-op metrics).
func NewCacheMetrics(provider metric.MeterProvider) (*CacheMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(CacheMetricsMeterName)

	refreshes, err := meter.Int64Counter(
		"repofeed_cache_refreshes_total",
		metric.WithDescription("GitHub refreshes performed by the cache service"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return nil, err
	}

	refreshRepos, err := meter.Int64Gauge(
		"repofeed_cache_repos",
		metric.WithDescription("Repositories kept by the last successful refresh"),
		metric.WithUnit("{repository}"),
	)
	if err != nil {
		return nil, err
	}

	served, err := meter.Int64Counter(
		"repofeed_cache_served_total",
		metric.WithDescription("Feeds served by the cache service by source"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &CacheMetrics{
		refreshes:      refreshes,
		refreshRepos:   refreshRepos,
		servedBySource: served,
	}, nil
}

// RecordRefresh records one refresh attempt and, on success, the number of
// repositories it kept.
func (m *CacheMetrics) RecordRefresh(ctx context.Context, success bool, count int) {
	if m == nil || m.refreshes == nil {
		return
	}

	m.refreshes.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
	if success {
		m.refreshRepos.Record(ctx, int64(count))
	}
}

// RecordServed records one feed served with the given source.
func (m *CacheMetrics) RecordServed(ctx context.Context, source string) {
	if m == nil || m.servedBySource == nil {
		return
	}

	m.servedBySource.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}
