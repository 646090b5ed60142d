package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/repofeed/internal/adapter/driven/backend"
	githubadapter "github.com/ericfisherdev/repofeed/internal/adapter/driven/github"
	sqliteadapter "github.com/ericfisherdev/repofeed/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/repofeed/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/repofeed/internal/adapter/driving/web"
	"github.com/ericfisherdev/repofeed/internal/application"
	"github.com/ericfisherdev/repofeed/internal/config"
	"github.com/ericfisherdev/repofeed/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the caching backend, the feed API and the projects page",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"backend_url", cfg.BackendURL,
		"refresh_interval", cfg.RefreshInterval,
		"github_username", cfg.GitHubUsername,
		"github_token", cfg.HasGitHubToken(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database and run migrations.
	db, err := openDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer closeDB(db)

	// 4. Metrics.
	metricsProvider, err := telemetry.NewProvider(cfg.MetricsEnabled)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := metricsProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics shutdown error", "error", err)
		}
	}()

	feedMetrics, err := telemetry.NewFeedMetrics(metricsProvider.MeterProvider)
	if err != nil {
		return err
	}
	cacheMetrics, err := telemetry.NewCacheMetrics(metricsProvider.MeterProvider)
	if err != nil {
		return err
	}

	// 5. Caching backend.
	snapshotStore := sqliteadapter.NewSnapshotRepo(db)
	ignoreStore := sqliteadapter.NewIgnoreRepo(db)
	ghClient := githubadapter.NewClient(cfg.GitHubToken)

	cacheSvc := application.NewCacheService(ghClient, snapshotStore, ignoreStore, cfg.GitHubUsername, cfg.CacheTTL, cacheMetrics)
	if cfg.IgnoreFile != "" {
		if _, err := cacheSvc.ImportIgnoreFile(ctx, cfg.IgnoreFile); err != nil {
			return err
		}
	}

	// 6. Feed resolver and its refresh scheduler.
	resolver, err := newResolver(cfg, feedMetrics)
	if err != nil {
		return err
	}

	scheduler := application.NewRefreshScheduler(cacheSvc, resolver, cfg.RefreshInterval)

	// 7. HTTP routes.
	apiHandler := httphandler.NewHandler(cacheSvc, resolver, scheduler, metricsProvider.Handler, slog.Default())
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, apiHandler)

	webHandler := webhandler.NewHandler(resolver, cfg.GitHubUsername, slog.Default())
	webhandler.RegisterRoutes(mux, webHandler)

	handler := httphandler.ApplyMiddleware(mux, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// The first scheduled cycle resolves against our own /api/github-repos, so
	// the listener must be bound before the scheduler starts.
	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ListenAddr, err)
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("http server: %w", err)
		}
		close(serveErr)
	}()

	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		scheduler.Start(ctx)
	}()

	slog.Info("repofeed started",
		"listen_addr", cfg.ListenAddr,
		"refresh_interval", cfg.RefreshInterval,
		"metrics", cfg.MetricsEnabled,
	)

	// 8. Wait for shutdown signal or a listener failure.
	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			runErr = err
		}
		stop()
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}
	<-schedulerDone

	slog.Info("shutdown complete")
	return runErr
}

// newResolver wires the feed resolver to the backend endpoint and the public
// GitHub API fallback.
func newResolver(cfg *config.Config, metrics *telemetry.FeedMetrics) (*application.FeedResolver, error) {
	primary, err := backend.NewClient(&http.Client{}, cfg.BackendURL)
	if err != nil {
		return nil, err
	}

	public, err := githubadapter.NewPublicClient(cfg.GitHubAPIURL)
	if err != nil {
		return nil, err
	}

	return application.NewFeedResolver(primary, public, cfg.GitHubUsername, cfg.PrimaryTimeout, metrics), nil
}
