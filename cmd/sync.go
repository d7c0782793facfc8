package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"collection-sync/core/config"
	"collection-sync/core/logger"
	"collection-sync/core/reconcile"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var dryRunSync bool

// syncCmd runs one reconciliation cycle per provider in the foreground.
var syncCmd = &cobra.Command{
	Use:   "sync [kind...]",
	Short: "Run one reconciliation cycle now",
	Long: `Runs one reconciliation cycle for each named kind (record, boardgame, book),
or for every enabled provider when none is named.

With --dry-run the cycle fetches and diffs everything but writes nothing,
downloads no artwork and sends no events; the planned actions are printed as JSON.

Examples:
  sync
  sync record book
  sync boardgame --dry-run`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&dryRunSync, "dry-run", false, "Plan actions without applying them")
	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	rt, err := bootstrap(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer rt.close(context.WithoutCancel(ctx))

	adapters, err := rt.adaptersFor(args)
	if err != nil {
		return err
	}
	if len(adapters) == 0 {
		return fmt.Errorf("no provider enabled")
	}
	if err := rt.cache.ReloadAll(ctx); err != nil {
		return fmt.Errorf("failed to load cache: %w", err)
	}

	reconciler := rt.reconciler
	if dryRunSync {
		reconciler = reconciler.WithDryRun()
	}

	var failed int
	for _, adapter := range adapters {
		report, err := reconciler.RunCycle(ctx, adapter)
		if err != nil {
			failed++
			l.Error("Cycle failed", zap.String("kind", string(adapter.Kind())), zap.Error(err))
		}
		if dryRunSync {
			if perr := printPlan(cmd, reconcile.BuildPlan(report, err)); perr != nil {
				return perr
			}
			continue
		}
		stats := report.Stats()
		l.Info("Cycle finished",
			zap.String("kind", string(report.Kind)),
			zap.Bool("complete", report.Complete),
			zap.Int("known", stats.Known),
			zap.Int("new", stats.New),
			zap.Int("updated", stats.Updated),
			zap.Int("removed", stats.Removed),
			zap.Int("skipped", stats.Skipped),
			zap.Int("failed", stats.Failed),
		)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d cycles failed", failed, len(adapters))
	}
	return nil
}

func printPlan(cmd *cobra.Command, plan *reconcile.Plan) error {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
