package sync

import (
	"fmt"
	"strings"

	"netbox-geo/core/record"
)

// Config holds configuration for sync runs.
type Config struct {
	// BatchSize caps how many records go into one bulk call.
	BatchSize int `mapstructure:"batch_size" default:"50"`
	// Concurrency caps how many bulk calls are in flight at once.
	Concurrency int `mapstructure:"concurrency" default:"4"`
	// AllowDelete enables deletion of orphaned remote objects.
	AllowDelete bool `mapstructure:"allow_delete" default:"false"`
	// Sources is the comma-separated list of datasets to sync.
	Sources string `mapstructure:"sources" default:"geonames,naturalearth,osm"`
	// MinCityPopulation drops cities below this population at import
	// time. Zero keeps everything.
	MinCityPopulation int `mapstructure:"min_city_population" default:"0"`
	// DatasetPrefix is the object key prefix of dataset files in the
	// storage bucket.
	DatasetPrefix string `mapstructure:"dataset_prefix" default:""`
}

// Validate checks the run configuration.
func (c Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("sync: batch_size must be positive, got %d", c.BatchSize)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("sync: concurrency must be positive, got %d", c.Concurrency)
	}
	if _, err := c.SourceList(); err != nil {
		return err
	}
	return nil
}

// SourceList parses the configured source names.
func (c Config) SourceList() ([]record.Source, error) {
	var sources []record.Source
	for _, name := range strings.Split(c.Sources, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		source := record.Source(name)
		if !source.IsValid() {
			return nil, fmt.Errorf("sync: unknown source %q", name)
		}
		sources = append(sources, source)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("sync: no sources configured")
	}
	return sources, nil
}

// Options derives engine options from the configuration. Dry run is a
// per-invocation choice, not a config value.
func (c Config) Options(dryRun bool) Options {
	return Options{
		DryRun:      dryRun,
		AllowDelete: c.AllowDelete,
		BatchSize:   c.BatchSize,
		Concurrency: c.Concurrency,
	}
}
