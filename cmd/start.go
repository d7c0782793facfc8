package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"collection-sync/core/config"
	"collection-sync/core/loader"
	"collection-sync/core/logger"
	"collection-sync/core/middleware/auth"
	"collection-sync/core/middleware/rayid"
	"collection-sync/core/scheduler"

	"collection-sync/feature/library"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "collection-sync/docs/swagger"
)

// @title Collection Sync API
// @version 1.0
// @description Read API and change events for the mirrored record, board game and book collections.
// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the synchronization service",
	Long: `Loads the cache from the Document Store, schedules a reconciliation cycle
per enabled provider and serves the read API and change events over HTTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// 3. Document Store, providers and notifier
		rt, err := bootstrap(ctx, cfg, logg)
		if err != nil {
			logg.Fatal("Failed to initialize", zap.Error(err))
		}
		if err := rt.cache.ReloadAll(ctx); err != nil {
			logg.Fatal("Failed to load cache", zap.Error(err))
		}
		go func() {
			if err := rt.hub.Run(ctx); err != nil {
				logg.Error("Event bus forwarder stopped", zap.Error(err))
			}
		}()

		// 4. Scheduler
		sched := scheduler.New(rt.reconciler, logger.ForService(logg, "scheduler"))
		for _, adapter := range rt.adapters {
			if err := sched.Add(adapter, cfg.Scheduler.Interval); err != nil {
				logg.Fatal("Failed to schedule provider", zap.Error(err))
			}
		}
		if len(rt.adapters) == 0 {
			logg.Warn("No provider enabled, serving the stored collections only")
		}
		sched.Start(cfg.Scheduler.RunOnStart)

		// 5. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// RayID first so every log line carries it
		app.Use(rayid.New())
		app.Use(cors.New(cors.Config{AllowOrigins: cfg.Server.AllowOrigins}))
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Debug("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Get("/swagger/*", swagger.HandlerDefault)
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
		if cfg.Server.ServeImages {
			app.Static(cfg.Assets.URLPrefix, cfg.Assets.Root)
		}

		// 6. Load Features
		if !cfg.Server.RequiresAuth() {
			logg.Warn("No API key configured, admin routes are unprotected")
		}
		mgr := loader.NewManager(logg)
		svc := library.NewService(rt.cache, rt.hub, sched, logger.ForService(logg, "library"))
		mgr.Register(library.NewFeature(svc, auth.New(auth.Config{ApiKey: cfg.Server.ApiKey})))
		if err := mgr.LoadAll(app.Group("/api")); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 7. Start Server
		go func() {
			logg.Info("Starting server", zap.String("address", cfg.Server.Address()))
			if err := app.Listen(cfg.Server.Address()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 8. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down...")

		timeout := time.Duration(cfg.Scheduler.ShutdownTimeoutSeconds) * time.Second
		shutdownCtx, done := context.WithTimeout(context.Background(), timeout)
		defer done()

		// Cycles stop before the hub and the store close.
		if err := sched.Stop(shutdownCtx); err != nil {
			logg.Warn("Cycles did not stop in time", zap.Error(err))
		}
		cancel()
		rt.close(shutdownCtx)
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logg.Warn("HTTP shutdown incomplete", zap.Error(err))
		}
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
