package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"netbox-geo/core/config"
	"netbox-geo/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	syncDryRun      bool
	syncSources     string
	syncBatchSize   int
	syncAllowDelete bool
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one synchronization pass",
	Long: `Collects records from the configured dataset snapshots, diffs them
against the fingerprint cache and applies the changes to NetBox.
Exits non-zero when any record failed to sync.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// Flag overrides
		if cmd.Flags().Changed("source") {
			cfg.Sync.Sources = syncSources
		}
		if cmd.Flags().Changed("batch-size") {
			cfg.Sync.BatchSize = syncBatchSize
		}
		if cmd.Flags().Changed("allow-delete") {
			cfg.Sync.AllowDelete = syncAllowDelete
		}

		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		if err := cfg.Validate(); err != nil {
			logg.Fatal("Invalid configuration", zap.Error(err))
		}

		cache := buildCache(cfg, logg)
		engine, err := buildEngine(cfg, cache, logg)
		if err != nil {
			logg.Fatal("Failed to create NetBox client", zap.Error(err))
		}
		sources, _, err := buildSources(cfg, logg)
		if err != nil {
			logg.Fatal("Failed to create dataset importers", zap.Error(err))
		}

		// Ctrl-C stops dispatching new batches; in-flight calls finish.
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report, err := engine.Run(ctx, sources, cfg.Sync.Options(syncDryRun))
		if err != nil {
			logg.Fatal("Sync run failed", zap.Error(err))
		}

		for _, f := range report.Failures {
			logg.Warn("Record failed",
				zap.String("key", f.Key.String()),
				zap.String("op", string(f.Op)),
				zap.String("kind", string(f.Kind)),
				zap.String("message", f.Message),
			)
		}
		for _, f := range report.SourceFailures {
			logg.Error("Source failed",
				zap.String("source", string(f.Source)),
				zap.String("message", f.Message),
			)
		}

		logg.Info("Sync summary",
			zap.String("run_id", report.RunID),
			zap.Bool("dry_run", report.DryRun),
			zap.Int("planned_creates", report.PlannedCreates),
			zap.Int("planned_updates", report.PlannedUpdates),
			zap.Int("planned_deletes", report.PlannedDeletes),
			zap.Int("created", report.Created),
			zap.Int("updated", report.Updated),
			zap.Int("deleted", report.Deleted),
			zap.Int("unchanged", report.Unchanged),
			zap.Int("failed", report.Failed()),
			zap.Duration("duration", report.Duration),
		)

		if !report.Success() {
			_ = logg.Sync()
			os.Exit(1)
		}
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "plan and report without applying changes")
	syncCmd.Flags().StringVar(&syncSources, "source", "", "comma-separated datasets to sync (overrides config)")
	syncCmd.Flags().IntVar(&syncBatchSize, "batch-size", 0, "records per bulk call (overrides config)")
	syncCmd.Flags().BoolVar(&syncAllowDelete, "allow-delete", false, "delete orphaned remote objects (overrides config)")
	RootCmd.AddCommand(syncCmd)
}
