package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"collection-sync/core/catalog"
	"collection-sync/core/config"
	"collection-sync/core/database"
	"collection-sync/core/docstore"
	"collection-sync/core/logger"
	"collection-sync/core/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dropImages bool
	yesConfirm bool
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Maintain the Document Store",
}

// storeDropCmd drops every stored item of one kind.
var storeDropCmd = &cobra.Command{
	Use:   "drop <kind>",
	Short: "Drop one kind's Document Store collection",
	Long: `Drops every stored item of a kind (record, boardgame, book). The next
cycle rebuilds it from the provider and reports every item as new.

Examples:
  # Drop stored books (with interactive confirmation)
  store drop book

  # Also delete downloaded artwork, locally and in the mirror bucket
  store drop record --images --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runStoreDrop,
}

// storeInspectCmd checks the document tables and counts stored items.
var storeInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Check document tables and count stored items per kind",
	Long: `Counts the stored items of every kind. For SQL backends it also verifies
that each document table exposes the columns the store relies on.`,
	Args: cobra.NoArgs,
	RunE: runStoreInspect,
}

func init() {
	storeCmd.AddCommand(storeInspectCmd)
	storeDropCmd.Flags().BoolVar(&dropImages, "images", false, "Also delete downloaded artwork")
	storeDropCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm (non-interactive)")
	storeCmd.AddCommand(storeDropCmd)
	RootCmd.AddCommand(storeCmd)
}

func runStoreDrop(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	kind, err := catalog.ParseKind(args[0])
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	if !confirmDestructiveAction(cmd, fmt.Sprintf("drop every stored %s", kind)) {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	docs, err := docstore.Open(ctx, cfg.Database, l)
	if err != nil {
		return fmt.Errorf("failed to open document store: %w", err)
	}
	defer docs.Close(ctx)

	if err := docs.DropCollection(ctx, kind); err != nil {
		return err
	}
	l.Info("Dropped stored items", zap.String("kind", string(kind)))

	if !dropImages {
		return nil
	}

	dir := filepath.Join(cfg.Assets.Root, string(kind))
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete %s: %w", dir, err)
	}
	l.Info("Deleted local artwork", zap.String("dir", dir))

	if cfg.Assets.Mirror {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
		n, err := storage.RemovePrefix(ctx, client, cfg.Storage.Bucket, string(kind)+"/")
		if err != nil {
			return err
		}
		l.Info("Deleted mirrored artwork", zap.String("bucket", cfg.Storage.Bucket), zap.Int("objects", n))
	}
	return nil
}

func runStoreInspect(cmd *cobra.Command, args []string) error {
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

	var broken int
	for _, kind := range catalog.Kinds {
		collection, err := docs.Find(ctx, kind, docstore.InPartition(catalog.Collection))
		if err != nil {
			return err
		}
		wishlist, err := docs.Find(ctx, kind, docstore.InPartition(catalog.Wishlist))
		if err != nil {
			return err
		}
		fields := []zap.Field{
			zap.String("kind", string(kind)),
			zap.Int("collection", len(collection)),
			zap.Int("wishlist", len(wishlist)),
		}

		if gs, ok := docs.(*docstore.GormStore); ok {
			table := gs.Table(kind)
			columns, err := database.GetTableColumns(gs.DB(), table)
			if err != nil {
				return fmt.Errorf("failed to inspect %s: %w", table, err)
			}
			if missing := database.MissingColumns(columns, docstore.DocumentColumns...); len(missing) > 0 {
				broken++
				l.Warn("Missing Columns", zap.String("table", table), zap.Strings("columns", missing))
			}
			fields = append(fields, zap.String("table", table))
		}
		l.Info("Stored items", fields...)
	}

	if broken > 0 {
		return fmt.Errorf("%d document tables are incomplete", broken)
	}
	return nil
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction(cmd *cobra.Command, what string) bool {
	if yesConfirm {
		return true
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Type 'yes' to %s: ", what)
	reader := bufio.NewReader(cmd.InOrStdin())
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}
