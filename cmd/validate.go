package cmd

import (
	"context"
	"log"
	"os"
	"time"

	"netbox-geo/core/config"
	"netbox-geo/core/database"
	"netbox-geo/core/logger"
	"netbox-geo/core/netbox"
	"netbox-geo/core/ratelimit"
	"netbox-geo/core/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check configuration and connectivity",
	Long: `Validates the configuration and probes every external dependency:
the cache database (including the cache table schema), the dataset
storage bucket and the NetBox API.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		logg, err := logger.New(&logger.Config{Level: cfg.Log.Level, Format: "console"})
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()

		failed := false
		fail := func(msg string, err error) {
			failed = true
			logg.Error(msg, zap.Error(err))
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		// 1. Configuration
		if err := cfg.Validate(); err != nil {
			fail("Configuration invalid", err)
		} else {
			logg.Info("Configuration valid")
		}

		// 2. Cache database
		if db, err := database.Connect(cfg.Database); err != nil {
			fail("Cache database unreachable", err)
		} else {
			columns, err := database.GetTableColumns(db, "sync_cache_entries")
			switch {
			case err != nil:
				fail("Cache table inspection failed", err)
			case len(columns) == 0:
				logg.Warn("Cache table missing, will be created on first run")
			default:
				logg.Info("Cache database ok", zap.Int("cache_columns", len(columns)))
			}
		}

		// 3. Dataset storage
		if store, err := storage.NewClient(cfg.Storage); err != nil {
			fail("Storage client creation failed", err)
		} else if exists, err := store.BucketExists(ctx, cfg.Storage.Bucket); err != nil {
			fail("Storage unreachable", err)
		} else if !exists {
			fail("Dataset bucket does not exist", nil)
		} else {
			logg.Info("Dataset bucket ok", zap.String("bucket", cfg.Storage.Bucket))
		}

		// 4. NetBox API
		limiter := ratelimit.New(cfg.RateLimit)
		if client, err := netbox.NewClient(cfg.NetBox, limiter, logg); err != nil {
			fail("NetBox client creation failed", err)
		} else if version, err := client.Status(ctx); err != nil {
			fail("NetBox unreachable", err)
		} else {
			logg.Info("NetBox ok", zap.String("version", version))
		}

		if failed {
			_ = logg.Sync()
			os.Exit(1)
		}
		logg.Info("All checks passed")
	},
}

func init() {
	RootCmd.AddCommand(validateCmd)
}
