package synccache

import (
	"context"
	"time"

	"netbox-geo/core/record"
)

// Entry maps a source record to the remote object it was last synced
// to. Entries are written only after a remote operation is confirmed
// successful, never speculatively.
type Entry struct {
	// Source and ExternalID identify the record.
	Source     record.Source
	ExternalID string

	// Kind is the record kind, kept so orphaned entries can still be
	// routed to the right remote endpoint for deletion.
	Kind record.Kind

	// RemoteID is the NetBox object id created or updated for this
	// record.
	RemoteID int

	// Fingerprint is the content digest at the time of the last
	// successful sync.
	Fingerprint record.Fingerprint

	// SyncedAt is when the last successful sync happened.
	SyncedAt time.Time
}

// Key returns the record identity of the entry.
func (e *Entry) Key() record.Key {
	return record.Key{Source: e.Source, ExternalID: e.ExternalID}
}

// Cache is the fingerprint cache contract. The cache is advisory: a
// miss means "must create", and a stale entry is repaired by the
// engine when the remote reports the object gone.
//
// Implementations must support concurrent reads and serialize writes
// per (source, external_id) key.
type Cache interface {
	// Lookup returns the entry for the key, or nil without error on
	// a miss.
	Lookup(ctx context.Context, key record.Key) (*Entry, error)

	// Put inserts or replaces the entry for its key.
	Put(ctx context.Context, entry Entry) error

	// Remove deletes the entry for the key. Removing an absent key
	// is not an error.
	Remove(ctx context.Context, key record.Key) error

	// List returns all entries for a source, the scope used for
	// orphan detection.
	List(ctx context.Context, source record.Source) ([]Entry, error)
}
