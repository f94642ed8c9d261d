package synccache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"netbox-geo/core/record"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// entryRow is the gorm model behind the persistent cache.
type entryRow struct {
	Source      string    `gorm:"primaryKey;size:32;column:source"`
	ExternalID  string    `gorm:"primaryKey;size:128;column:external_id"`
	Kind        string    `gorm:"size:16;column:kind"`
	RemoteID    int       `gorm:"column:remote_id"`
	Fingerprint string    `gorm:"size:16;column:fingerprint"`
	SyncedAt    time.Time `gorm:"column:synced_at"`
}

// TableName pins the table name independent of gorm pluralization.
func (entryRow) TableName() string { return "sync_cache_entries" }

// Store is the gorm-backed Cache implementation.
type Store struct {
	db *gorm.DB

	// mu serializes writes. Reads go straight to the database.
	mu sync.Mutex
}

// NewStore wraps an open database connection. Migrate must run before
// first use on a fresh database.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the cache table.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&entryRow{}); err != nil {
		return fmt.Errorf("synccache: migrate: %w", err)
	}
	return nil
}

func (s *Store) Lookup(ctx context.Context, key record.Key) (*Entry, error) {
	var row entryRow
	err := s.db.WithContext(ctx).
		Where("source = ? AND external_id = ?", string(key.Source), key.ExternalID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("synccache: lookup %s: %w", key, err)
	}

	entry, err := rowToEntry(row)
	if err != nil {
		return nil, fmt.Errorf("synccache: lookup %s: %w", key, err)
	}
	return entry, nil
}

func (s *Store) Put(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := entryRow{
		Source:      string(entry.Source),
		ExternalID:  entry.ExternalID,
		Kind:        string(entry.Kind),
		RemoteID:    entry.RemoteID,
		Fingerprint: entry.Fingerprint.String(),
		SyncedAt:    entry.SyncedAt,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source"}, {Name: "external_id"}},
			UpdateAll: true,
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("synccache: put %s: %w", entry.Key(), err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key record.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.WithContext(ctx).
		Where("source = ? AND external_id = ?", string(key.Source), key.ExternalID).
		Delete(&entryRow{}).Error
	if err != nil {
		return fmt.Errorf("synccache: remove %s: %w", key, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, source record.Source) ([]Entry, error) {
	var rows []entryRow
	err := s.db.WithContext(ctx).
		Where("source = ?", string(source)).
		Order("external_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("synccache: list %s: %w", source, err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := rowToEntry(row)
		if err != nil {
			return nil, fmt.Errorf("synccache: list %s: %w", source, err)
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

func rowToEntry(row entryRow) (*Entry, error) {
	fp, err := record.ParseFingerprint(row.Fingerprint)
	if err != nil {
		return nil, fmt.Errorf("corrupt fingerprint %q: %w", row.Fingerprint, err)
	}
	return &Entry{
		Source:      record.Source(row.Source),
		ExternalID:  row.ExternalID,
		Kind:        record.Kind(row.Kind),
		RemoteID:    row.RemoteID,
		Fingerprint: fp,
		SyncedAt:    row.SyncedAt,
	}, nil
}
