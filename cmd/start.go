package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"netbox-geo/core/config"
	"netbox-geo/core/loader"
	"netbox-geo/core/logger"
	"netbox-geo/core/middleware"
	"netbox-geo/feature/syncapi"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sync API server",
	Long:  `Starts the HTTP server exposing sync triggers, run status and dataset uploads.`,
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

		if err := cfg.Validate(); err != nil {
			logg.Fatal("Invalid configuration", zap.Error(err))
		}

		// 3. Wire the sync pipeline
		cache := buildCache(cfg, logg)
		engine, err := buildEngine(cfg, cache, logg)
		if err != nil {
			logg.Fatal("Failed to create NetBox client", zap.Error(err))
		}
		_, store, err := buildSources(cfg, logg)
		if err != nil {
			logg.Fatal("Failed to create storage client", zap.Error(err))
		}

		service := syncapi.NewService(engine, store, cfg.Storage.Bucket, cfg.Sync, logg)

		// 4. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// Middleware Registration
		// Request id first so everything downstream can trace.
		app.Use(middleware.RequestID())

		// Logging middleware (Zap + request id)
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRequestID(logg, c)
			l.Info("Request started",
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

		// Auth (protect every endpoint; empty key disables)
		app.Use(middleware.Auth(cfg.Server.ApiKey))

		// 5. Load Features
		mgr := loader.NewManager(logg)
		mgr.Register(syncapi.NewFeature(service))
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 6. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(cfg.Server.Addr()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 7. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
