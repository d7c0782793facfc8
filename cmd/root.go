package cmd

import (
	"fmt"
	"os"

	"collection-sync/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "collection-sync",
	Short: "Collection Synchronization Service",
	Long: `Collection Sync mirrors record, board game and book collections from
Discogs, BoardGameGeek and Goodreads into a local store, keeps it reconciled
and pushes changes to connected clients.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console encoding at debug level for readable CLI errors with ISO8601 times.
		l, logErr := logger.New(&logger.Config{Level: "debug", Format: "console"})
		if logErr != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		l.Error("command failed", zap.Error(err))
		_ = l.Sync()
		os.Exit(1)
	}
}
