package cmd

import (
	"netbox-geo/core/config"
	"netbox-geo/core/database"
	"netbox-geo/core/netbox"
	"netbox-geo/core/ratelimit"
	"netbox-geo/core/storage"
	coresync "netbox-geo/core/sync"
	"netbox-geo/core/synccache"
	"netbox-geo/feature/importer"

	"go.uber.org/zap"
)

// buildCache opens the persistent fingerprint cache. When the database
// is unreachable the service still works, it just re-creates or
// re-updates everything, so we degrade to an in-memory cache with a
// warning instead of failing.
func buildCache(cfg *config.Config, logg *zap.Logger) synccache.Cache {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		logg.Warn("Cache database unavailable, falling back to in-memory cache", zap.Error(err))
		return synccache.NewMemory()
	}

	store := synccache.NewStore(db)
	if err := store.Migrate(); err != nil {
		logg.Warn("Cache migration failed, falling back to in-memory cache", zap.Error(err))
		return synccache.NewMemory()
	}
	logg.Info("Fingerprint cache connected", zap.String("driver", cfg.Database.Driver))
	return store
}

// buildEngine wires the rate limiter, the NetBox client and the sync
// engine.
func buildEngine(cfg *config.Config, cache synccache.Cache, logg *zap.Logger) (*coresync.Engine, error) {
	limiter := ratelimit.New(cfg.RateLimit)
	client, err := netbox.NewClient(cfg.NetBox, limiter, logg)
	if err != nil {
		return nil, err
	}
	return coresync.NewEngine(client, cache, logg), nil
}

// buildSources creates the storage client and the configured dataset
// importers.
func buildSources(cfg *config.Config, logg *zap.Logger) ([]coresync.RecordSource, storage.Client, error) {
	store, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, nil, err
	}

	names, err := cfg.Sync.SourceList()
	if err != nil {
		return nil, nil, err
	}
	sources, err := importer.ForSources(names, store, importer.Config{
		Bucket:            cfg.Storage.Bucket,
		Prefix:            cfg.Sync.DatasetPrefix,
		MinCityPopulation: cfg.Sync.MinCityPopulation,
	}, logg)
	if err != nil {
		return nil, nil, err
	}
	return sources, store, nil
}
