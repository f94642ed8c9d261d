package synccache

import (
	"context"
	"regexp"
	"testing"
	"time"

	"netbox-geo/core/database"
	"netbox-geo/core/record"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	store := NewStore(db)
	require.NoError(t, store.Migrate())
	return store
}

func testEntry(id string) Entry {
	return Entry{
		Source:      record.SourceGeoNames,
		ExternalID:  id,
		Kind:        record.KindCity,
		RemoteID:    100,
		Fingerprint: record.Fingerprint(0xdeadbeef),
		SyncedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestStore_PutLookupRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testEntry("42")))

	got, err := store.Lookup(ctx, record.Key{Source: record.SourceGeoNames, ExternalID: "42"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 100, got.RemoteID)
	assert.Equal(t, record.Fingerprint(0xdeadbeef), got.Fingerprint)
}

func TestStore_LookupMissReturnsNil(t *testing.T) {
	store := setupStore(t)

	got, err := store.Lookup(context.Background(), record.Key{Source: record.SourceOSM, ExternalID: "nope"})
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_PutUpsertsExistingKey(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testEntry("42")))

	updated := testEntry("42")
	updated.RemoteID = 200
	updated.Fingerprint = record.Fingerprint(0xcafe)
	require.NoError(t, store.Put(ctx, updated))

	got, err := store.Lookup(ctx, record.Key{Source: record.SourceGeoNames, ExternalID: "42"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 200, got.RemoteID)
	assert.Equal(t, record.Fingerprint(0xcafe), got.Fingerprint)

	// Still a single row, not a duplicate.
	entries, err := store.List(ctx, record.SourceGeoNames)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_RemoveIsIdempotent(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	key := record.Key{Source: record.SourceGeoNames, ExternalID: "42"}

	require.NoError(t, store.Put(ctx, testEntry("42")))
	require.NoError(t, store.Remove(ctx, key))
	require.NoError(t, store.Remove(ctx, key))

	got, err := store.Lookup(ctx, key)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_ListScopedBySource(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testEntry("b")))
	require.NoError(t, store.Put(ctx, testEntry("a")))

	osmEntry := testEntry("x")
	osmEntry.Source = record.SourceOSM
	require.NoError(t, store.Put(ctx, osmEntry))

	entries, err := store.List(ctx, record.SourceGeoNames)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Deterministic order by external id.
	assert.Equal(t, "a", entries[0].ExternalID)
	assert.Equal(t, "b", entries[1].ExternalID)
}

// The mysql path is covered with sqlmock since no server is available
// in tests; the query shape is what matters here.
func TestStore_LookupQueriesByCompositeKey(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	dialector := mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"source", "external_id", "kind", "remote_id", "fingerprint", "synced_at"}).
		AddRow("geonames", "42", "city", 7, "00000000deadbeef", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT * FROM `sync_cache_entries` WHERE source = ? AND external_id = ?",
	)).WithArgs("geonames", "42").WillReturnRows(rows)

	store := NewStore(gormDB)
	got, err := store.Lookup(context.Background(), record.Key{Source: record.SourceGeoNames, ExternalID: "42"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 7, got.RemoteID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
