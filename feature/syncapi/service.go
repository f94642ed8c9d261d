package syncapi

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"netbox-geo/core/record"
	"netbox-geo/core/storage"
	coresync "netbox-geo/core/sync"
	"netbox-geo/feature/importer"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ErrRunInProgress is returned when a sync run is requested while
// another one is still executing. Runs are serialized: two concurrent
// runs would race on the fingerprint cache and double-spend the rate
// budget.
var ErrRunInProgress = errors.New("a sync run is already in progress")

// Runner abstracts the sync engine for the API layer.
type Runner interface {
	Run(ctx context.Context, sources []coresync.RecordSource, opts coresync.Options) (*coresync.Report, error)
}

// Service owns run lifecycle and dataset uploads for the REST API.
type Service struct {
	engine  Runner
	store   storage.Client
	bucket  string
	syncCfg coresync.Config
	logger  *zap.Logger

	mu         sync.Mutex
	running    bool
	lastReport *coresync.Report
	lastError  string
}

// NewService creates the API service.
func NewService(engine Runner, store storage.Client, bucket string, syncCfg coresync.Config, logger *zap.Logger) *Service {
	return &Service{
		engine:  engine,
		store:   store,
		bucket:  bucket,
		syncCfg: syncCfg,
		logger:  logger,
	}
}

// StartRun launches a sync run in the background. Only one run may be
// active at a time.
func (s *Service) StartRun(dryRun bool) error {
	sources, err := s.syncCfg.SourceList()
	if err != nil {
		return err
	}
	recordSources, err := importer.ForSources(sources, s.store, importer.Config{
		Bucket:            s.bucket,
		Prefix:            s.syncCfg.DatasetPrefix,
		MinCityPopulation: s.syncCfg.MinCityPopulation,
	}, s.logger)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrRunInProgress
	}
	s.running = true
	s.mu.Unlock()

	// The run outlives the triggering request on purpose.
	go func() {
		report, err := s.engine.Run(context.Background(), recordSources, s.syncCfg.Options(dryRun))

		s.mu.Lock()
		defer s.mu.Unlock()
		s.running = false
		if err != nil {
			s.lastError = err.Error()
			s.logger.Error("sync run failed", zap.Error(err))
			return
		}
		s.lastError = ""
		s.lastReport = report
	}()
	return nil
}

// Status describes the run state for the API.
type Status struct {
	Running    bool             `json:"running"`
	LastReport *coresync.Report `json:"last_report,omitempty"`
	LastError  string           `json:"last_error,omitempty"`
}

// Status returns the current run state and the most recent report.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Running:    s.running,
		LastReport: s.lastReport,
		LastError:  s.lastError,
	}
}

// UploadDataset stores a dataset snapshot where the matching importer
// will pick it up on the next run.
func (s *Service) UploadDataset(ctx context.Context, source record.Source, data []byte) (string, error) {
	object, err := importer.SnapshotObject(source, s.syncCfg.DatasetPrefix)
	if err != nil {
		return "", err
	}
	_, err = s.store.PutObject(ctx, s.bucket, object,
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		return "", err
	}
	s.logger.Info("dataset snapshot uploaded",
		zap.String("source", string(source)),
		zap.String("object", object),
		zap.Int("bytes", len(data)),
	)
	return object, nil
}
