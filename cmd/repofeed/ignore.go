package main

import (
	"context"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	githubadapter "github.com/ericfisherdev/repofeed/internal/adapter/driven/github"
	sqliteadapter "github.com/ericfisherdev/repofeed/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/repofeed/internal/application"
	"github.com/ericfisherdev/repofeed/internal/config"
)

func newIgnoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ignore",
		Short: "Manage repositories hidden from the caching backend",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List ignored repositories",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withCacheService(cmd.Context(), func(ctx context.Context, svc *application.CacheService) error {
					ignored, err := svc.ListIgnored(ctx)
					if err != nil {
						return err
					}

					table := tablewriter.NewWriter(cmd.OutOrStdout())
					table.Header("Name", "Added")
					for _, ig := range ignored {
						if err := table.Append([]string{ig.Name, ig.AddedAt.Local().Format(time.DateTime)}); err != nil {
							return fmt.Errorf("append row: %w", err)
						}
					}
					return table.Render()
				})
			},
		},
		&cobra.Command{
			Use:   "add NAME...",
			Short: "Hide one or more repositories",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withCacheService(cmd.Context(), func(ctx context.Context, svc *application.CacheService) error {
					for _, name := range args {
						if err := svc.Ignore(ctx, name); err != nil {
							return err
						}
						fmt.Fprintf(cmd.OutOrStdout(), "ignored %s\n", name)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "remove NAME...",
			Short: "Show previously hidden repositories again",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withCacheService(cmd.Context(), func(ctx context.Context, svc *application.CacheService) error {
					for _, name := range args {
						if err := svc.Unignore(ctx, name); err != nil {
							return err
						}
						fmt.Fprintf(cmd.OutOrStdout(), "unignored %s\n", name)
					}
					return nil
				})
			},
		},
	)

	return cmd
}

// withCacheService opens the configured database and runs fn against a cache
// service backed by it.
func withCacheService(ctx context.Context, fn func(context.Context, *application.CacheService) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer closeDB(db)

	svc := application.NewCacheService(
		githubadapter.NewClient(cfg.GitHubToken),
		sqliteadapter.NewSnapshotRepo(db),
		sqliteadapter.NewIgnoreRepo(db),
		cfg.GitHubUsername,
		cfg.CacheTTL,
		nil,
	)
	return fn(ctx, svc)
}
