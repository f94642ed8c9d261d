package synccache

import (
	"context"
	"sync"
	"testing"

	"netbox-geo/core/record"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_RoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, testEntry("1")))

	got, err := m.Lookup(ctx, record.Key{Source: record.SourceGeoNames, ExternalID: "1"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 100, got.RemoteID)

	require.NoError(t, m.Remove(ctx, got.Key()))
	got, err = m.Lookup(ctx, record.Key{Source: record.SourceGeoNames, ExternalID: "1"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemory_LookupReturnsCopy(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Put(ctx, testEntry("1")))

	got, err := m.Lookup(ctx, record.Key{Source: record.SourceGeoNames, ExternalID: "1"})
	require.NoError(t, err)
	got.RemoteID = 999

	again, err := m.Lookup(ctx, record.Key{Source: record.SourceGeoNames, ExternalID: "1"})
	require.NoError(t, err)
	assert.Equal(t, 100, again.RemoteID)
}

func TestMemory_ConcurrentWritersDistinctKeys(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			e := testEntry(string(rune('a' + n%26)))
			e.RemoteID = n
			_ = m.Put(ctx, e)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 26, m.Len())
}

func TestMemory_ListScopedAndSorted(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, testEntry("z")))
	require.NoError(t, m.Put(ctx, testEntry("a")))

	other := testEntry("other")
	other.Source = record.SourceNaturalEarth
	require.NoError(t, m.Put(ctx, other))

	entries, err := m.List(ctx, record.SourceGeoNames)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].ExternalID)
	assert.Equal(t, "z", entries[1].ExternalID)
}
