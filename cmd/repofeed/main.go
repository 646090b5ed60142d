// Command repofeed serves the portfolio repository feed and its caching
// backend, and offers one-shot resolve and ignore-list commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "repofeed",
		Short:         "Repository feed for the portfolio projects section",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				slog.Error("error displaying help", "error", err)
			}
		},
	}

	root.PersistentFlags().Bool("debug", false, "Enable debug logging")
	root.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	root.AddCommand(newServeCmd(), newResolveCmd(), newIgnoreCmd())
	return root
}
