package cmd

import (
	"context"
	"fmt"

	"collection-sync/core/cache"
	"collection-sync/core/catalog"
	"collection-sync/core/config"
	"collection-sync/core/docstore"
	"collection-sync/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the item cache",
}

// cacheRefreshCmd rebuilds the cache from the Document Store and reports its size.
var cacheRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Reload the cache from the Document Store and print per-kind counts",
	Long: `Loads every kind from the Document Store the way the server does on start
and prints the collection and wishlist sizes. A running server is refreshed
through POST /api/cache/refresh instead.`,
	RunE: runCacheRefresh,
}

func init() {
	cacheCmd.AddCommand(cacheRefreshCmd)
	RootCmd.AddCommand(cacheCmd)
}

func runCacheRefresh(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	docs, err := docstore.Open(ctx, cfg.Database, l)
	if err != nil {
		return fmt.Errorf("failed to open document store: %w", err)
	}
	defer docs.Close(ctx)

	store := cache.New(docs, l)
	if err := store.ReloadAll(ctx); err != nil {
		return err
	}

	for _, kind := range catalog.Kinds {
		l.Info("Cached items",
			zap.String("kind", string(kind)),
			zap.Int("collection", store.Count(kind, catalog.Collection)),
			zap.Int("wishlist", store.Count(kind, catalog.Wishlist)),
		)
	}
	return nil
}
