package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// collectMetricNames returns the names of every metric recorded under scope.
func collectMetricNames(t *testing.T, reader *sdkmetric.ManualReader, scope string) []string {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var names []string
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != scope {
			continue
		}
		for _, m := range sm.Metrics {
			names = append(names, m.Name)
		}
	}
	return names
}

func TestNewFeedMetrics_NilProvider(t *testing.T) {
	t.Parallel()

	metrics, err := NewFeedMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, metrics)

	// Should not panic.
	metrics.RecordCycle(context.Background(), "success", "api", time.Second)
}

func TestFeedMetrics_RecordCycle(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	metrics, err := NewFeedMetrics(mp)
	require.NoError(t, err)
	require.NotNil(t, metrics)

	metrics.RecordCycle(context.Background(), "success", "cache", 120*time.Millisecond)
	metrics.RecordCycle(context.Background(), "failed", "", 3*time.Second)

	names := collectMetricNames(t, reader, FeedMetricsMeterName)
	assert.ElementsMatch(t, []string{
		"repofeed_resolve_cycles_total",
		"repofeed_resolve_duration_seconds",
	}, names)
}

func TestCacheMetrics(t *testing.T) {
	t.Parallel()

	t.Run("no-op when metrics is nil", func(t *testing.T) {
		t.Parallel()

		var metrics *CacheMetrics
		metrics.RecordRefresh(context.Background(), true, 3)
		metrics.RecordServed(context.Background(), "cache")
	})

	t.Run("records refreshes and served sources", func(t *testing.T) {
		t.Parallel()

		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewCacheMetrics(mp)
		require.NoError(t, err)

		metrics.RecordRefresh(context.Background(), true, 12)
		metrics.RecordServed(context.Background(), "cache_stale")

		names := collectMetricNames(t, reader, CacheMetricsMeterName)
		assert.ElementsMatch(t, []string{
			"repofeed_cache_refreshes_total",
			"repofeed_cache_repos",
			"repofeed_cache_served_total",
		}, names)
	})
}

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(false)
	require.NoError(t, err)
	assert.NotNil(t, p.MeterProvider)
	assert.Nil(t, p.Handler)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_EnabledServesPrometheus(t *testing.T) {
	p, err := NewProvider(true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })
	require.NotNil(t, p.Handler)

	metrics, err := NewFeedMetrics(p.MeterProvider)
	require.NoError(t, err)
	metrics.RecordCycle(context.Background(), "success", "fallback", time.Second)

	rec := httptest.NewRecorder()
	p.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "repofeed_resolve_cycles_total")
	assert.Contains(t, string(body), `provenance="fallback"`)
	assert.Contains(t, string(body), "go_goroutines")
}
