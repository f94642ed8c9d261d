package importer

import (
	"context"
	"fmt"
	"io"
	"path"

	"netbox-geo/core/record"
	"netbox-geo/core/storage"
	"netbox-geo/core/sync"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Config holds the storage location and import filters shared by all
// dataset importers.
type Config struct {
	// Bucket is the storage bucket holding dataset snapshots.
	Bucket string
	// Prefix is the object key prefix inside the bucket.
	Prefix string
	// MinCityPopulation drops cities below this population. Zero keeps
	// everything.
	MinCityPopulation int
}

// parseFunc turns one dataset stream into normalized records, calling
// emit once per record.
type parseFunc func(r io.Reader, emit func(record.Normalized) error) error

// Importer streams one dataset snapshot out of object storage and
// parses it into normalized records. It implements sync.RecordSource.
type Importer struct {
	name   record.Source
	object string
	store  storage.Client
	bucket string
	parse  parseFunc
	log    *zap.Logger
}

func (i *Importer) Name() record.Source { return i.name }

// Each fetches the dataset object and feeds every parsed record to fn.
// A storage or stream failure aborts the whole source; malformed
// individual lines are counted and skipped by the parsers.
func (i *Importer) Each(ctx context.Context, fn func(record.Normalized) error) error {
	obj, err := i.store.GetObject(ctx, i.bucket, i.object, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("importer %s: fetch %s: %w", i.name, i.object, err)
	}
	defer obj.Close()

	i.log.Debug("parsing dataset",
		zap.String("source", string(i.name)),
		zap.String("object", i.object),
	)
	if err := i.parse(obj, fn); err != nil {
		return fmt.Errorf("importer %s: parse %s: %w", i.name, i.object, err)
	}
	return nil
}

// ForSources builds the importers for the requested datasets.
func ForSources(sources []record.Source, store storage.Client, cfg Config, log *zap.Logger) ([]sync.RecordSource, error) {
	var out []sync.RecordSource
	for _, source := range sources {
		switch source {
		case record.SourceGeoNames:
			out = append(out, NewGeoNames(store, cfg, log))
		case record.SourceNaturalEarth:
			out = append(out, NewNaturalEarth(store, cfg, log))
		case record.SourceOSM:
			out = append(out, NewOSM(store, cfg, log))
		default:
			return nil, fmt.Errorf("importer: unknown source %q", source)
		}
	}
	return out, nil
}

// SnapshotObject returns the object key of a source's dataset
// snapshot under the given prefix. Used by the upload API so uploads
// land exactly where the importers look.
func SnapshotObject(source record.Source, prefix string) (string, error) {
	switch source {
	case record.SourceGeoNames:
		return objectKey(prefix, geonamesObject), nil
	case record.SourceNaturalEarth:
		return objectKey(prefix, naturalEarthObject), nil
	case record.SourceOSM:
		return objectKey(prefix, osmObject), nil
	default:
		return "", fmt.Errorf("importer: unknown source %q", source)
	}
}

func objectKey(prefix, file string) string {
	if prefix == "" {
		return file
	}
	return path.Join(prefix, file)
}
