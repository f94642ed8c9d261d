package synccache

import (
	"context"
	"sort"
	"sync"

	"netbox-geo/core/record"
)

// Memory is an in-memory Cache used by tests and cache-less runs.
type Memory struct {
	mu      sync.RWMutex
	entries map[record.Key]Entry
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[record.Key]Entry)}
}

func (m *Memory) Lookup(_ context.Context, key record.Key) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (m *Memory) Put(_ context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[entry.Key()] = entry
	return nil
}

func (m *Memory) Remove(_ context.Context, key record.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

func (m *Memory) List(_ context.Context, source record.Source) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []Entry
	for key, entry := range m.entries {
		if key.Source == source {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ExternalID < entries[j].ExternalID
	})
	return entries, nil
}

// Len returns the number of cached entries across all sources.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
