package importer

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"netbox-geo/core/record"
	"netbox-geo/core/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// storeWith returns a mock storage client serving content for the
// given object key.
func storeWith(object, content string) *mocks.Client {
	store := &mocks.Client{}
	store.On("GetObject", mock.Anything, "datasets", object, mock.Anything).
		Return(io.NopCloser(strings.NewReader(content)), nil)
	return store
}

func collect(t *testing.T, imp *Importer) []record.Normalized {
	t.Helper()
	var records []record.Normalized
	err := imp.Each(context.Background(), func(rec record.Normalized) error {
		records = append(records, rec)
		return nil
	})
	require.NoError(t, err)
	return records
}

func testConfig() Config {
	return Config{Bucket: "datasets"}
}

const geonamesSample = "2921044\tGermany\tGermany\t\t51.5\t10.5\tA\tPCLI\tDE\t\t00\t\t\t\t82927922\t\t\t\t\n" +
	"2951839\tBavaria\tBavaria\t\t49.0\t11.5\tA\tADM1\tDE\t\tBY\t\t\t\t13076721\t\t\t\t\n" +
	"2867714\tMunich\tMunich\t\t48.13743\t11.57549\tP\tPPLA\tDE\t\tBY\t\t\t\t1260391\t\t\t\t\n" +
	"6556330\tSome Hill\tSome Hill\t\t47.0\t11.0\tT\tHLL\tDE\t\tBY\t\t\t\t0\t\t\t\t\n"

func TestGeoNames_ParsesCountryRegionCity(t *testing.T) {
	store := storeWith("geonames.tsv", geonamesSample)
	imp := NewGeoNames(store, testConfig(), zap.NewNop())

	records := collect(t, imp)
	require.Len(t, records, 3)

	country := records[0]
	assert.Equal(t, record.KindCountry, country.Kind)
	assert.Equal(t, "DE", country.ExternalID)
	assert.Empty(t, country.ParentExternalID)

	region := records[1]
	assert.Equal(t, record.KindRegion, region.Kind)
	assert.Equal(t, "DE.BY", region.ExternalID)
	assert.Equal(t, "DE", region.ParentExternalID)

	city := records[2]
	assert.Equal(t, record.KindCity, city.Kind)
	assert.Equal(t, "2867714", city.ExternalID)
	assert.Equal(t, "DE.BY", city.ParentExternalID)
	require.NotNil(t, city.Coordinates)
	assert.InDelta(t, 48.13743, city.Coordinates.Latitude, 1e-9)
	assert.Equal(t, record.Number(1260391), city.Attributes["population"])
}

func TestGeoNames_PopulationFilterDropsSmallCities(t *testing.T) {
	store := storeWith("geonames.tsv", geonamesSample)
	cfg := testConfig()
	cfg.MinCityPopulation = 2000000

	records := collect(t, NewGeoNames(store, cfg, zap.NewNop()))

	for _, rec := range records {
		assert.NotEqual(t, record.KindCity, rec.Kind)
	}
	require.Len(t, records, 2)
}

func TestGeoNames_MalformedRowsSkipped(t *testing.T) {
	content := "bad row with no tabs\n" +
		"2921044\tGermany\tGermany\t\tnot-a-number\t10.5\tA\tPCLI\tDE\t\t00\t\t\t\t0\t\t\t\t\n" +
		geonamesSample
	store := storeWith("geonames.tsv", content)

	records := collect(t, NewGeoNames(store, testConfig(), zap.NewNop()))
	assert.Len(t, records, 3)
}

func TestGeoNames_StorageFailureFailsSource(t *testing.T) {
	store := &mocks.Client{}
	store.On("GetObject", mock.Anything, "datasets", "geonames.tsv", mock.Anything).
		Return(nil, errors.New("bucket unreachable"))

	imp := NewGeoNames(store, testConfig(), zap.NewNop())
	err := imp.Each(context.Background(), func(record.Normalized) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unreachable")
}

const naturalEarthSample = `{
  "type": "FeatureCollection",
  "features": [
    {"properties": {"ISO_A2": "DE", "NAME": "Germany", "CONTINENT": "Europe", "POP_EST": 82927922, "LABEL_X": 10.38, "LABEL_Y": 51.10}},
    {"properties": {"ISO_A2": "-99", "NAME": "Somaliland", "CONTINENT": "Africa", "POP_EST": 0, "LABEL_X": 46.2, "LABEL_Y": 9.4}}
  ]
}`

func TestNaturalEarth_ParsesCountries(t *testing.T) {
	store := storeWith("naturalearth.geojson", naturalEarthSample)

	records := collect(t, NewNaturalEarth(store, testConfig(), zap.NewNop()))
	require.Len(t, records, 1)

	de := records[0]
	assert.Equal(t, record.SourceNaturalEarth, de.Source)
	assert.Equal(t, record.KindCountry, de.Kind)
	assert.Equal(t, "DE", de.ExternalID)
	assert.Equal(t, "Germany", de.Name)
	require.NotNil(t, de.Coordinates)
	assert.InDelta(t, 51.10, de.Coordinates.Latitude, 1e-9)
	assert.Equal(t, record.String("Europe"), de.Attributes["continent"])
}

func TestNaturalEarth_RejectsNonCollection(t *testing.T) {
	store := storeWith("naturalearth.geojson", `{"type": "Feature"}`)

	imp := NewNaturalEarth(store, testConfig(), zap.NewNop())
	err := imp.Each(context.Background(), func(record.Normalized) error { return nil })
	assert.Error(t, err)
}

const osmSample = `{
  "elements": [
    {"type": "node", "id": 123456, "lat": 52.52, "lon": 13.40, "tags": {"name": "Berlin DC1", "man_made": "works", "operator": "Example Corp"}},
    {"type": "node", "id": 789, "lat": 50.0, "lon": 8.0, "tags": {"power": "substation"}},
    {"type": "way", "id": 42, "tags": {"name": "ignored way"}}
  ]
}`

func TestOSM_ParsesNamedNodesAsSites(t *testing.T) {
	store := storeWith("osm.json", osmSample)

	records := collect(t, NewOSM(store, testConfig(), zap.NewNop()))
	require.Len(t, records, 1)

	site := records[0]
	assert.Equal(t, record.SourceOSM, site.Source)
	assert.Equal(t, record.KindSite, site.Kind)
	assert.Equal(t, "node/123456", site.ExternalID)
	assert.Equal(t, "Berlin DC1", site.Name)
	assert.Equal(t, record.String("Example Corp"), site.Attributes["operator"])
}

func TestForSources_BuildsRequestedImporters(t *testing.T) {
	store := &mocks.Client{}
	sources, err := ForSources(
		[]record.Source{record.SourceGeoNames, record.SourceOSM},
		store, testConfig(), zap.NewNop(),
	)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, record.SourceGeoNames, sources[0].Name())
	assert.Equal(t, record.SourceOSM, sources[1].Name())
}

func TestImporter_PrefixAppliedToObjectKey(t *testing.T) {
	store := &mocks.Client{}
	store.On("GetObject", mock.Anything, "datasets", "snapshots/2026-08/geonames.tsv", mock.Anything).
		Return(io.NopCloser(strings.NewReader("")), nil)

	cfg := testConfig()
	cfg.Prefix = "snapshots/2026-08"
	imp := NewGeoNames(store, cfg, zap.NewNop())

	err := imp.Each(context.Background(), func(record.Normalized) error { return nil })
	require.NoError(t, err)
	store.AssertExpectations(t)
}
