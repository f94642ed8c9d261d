package netbox

import (
	"testing"

	"netbox-geo/core/record"

	"github.com/stretchr/testify/assert"
)

func TestEndpointForKind(t *testing.T) {
	assert.Equal(t, "/api/dcim/regions/", EndpointForKind(record.KindCountry))
	assert.Equal(t, "/api/dcim/regions/", EndpointForKind(record.KindRegion))
	assert.Equal(t, "/api/dcim/regions/", EndpointForKind(record.KindCity))
	assert.Equal(t, "/api/dcim/sites/", EndpointForKind(record.KindSite))
}

func TestBuildPayload(t *testing.T) {
	r := &record.Normalized{
		Source:     record.SourceGeoNames,
		ExternalID: "2950159",
		Kind:       record.KindCity,
		Name:       "Berlin",
		Coordinates: &record.Coordinates{
			Latitude:  52.52,
			Longitude: 13.41,
		},
		Attributes: record.Attributes{
			"population": record.Number(3426354),
		},
		ParentExternalID: "2950157",
	}

	p := BuildPayload(r, 17)

	assert.Equal(t, "Berlin", p["name"])
	assert.Equal(t, "geonames-2950159", p["slug"])
	assert.Equal(t, "geonames:2950159", p["description"])
	assert.Equal(t, 17, p["parent"])

	custom := p["custom_fields"].(map[string]any)
	assert.Equal(t, 52.52, custom["latitude"])
	assert.Equal(t, float64(3426354), custom["population"])
}

func TestBuildPayload_SiteParentIsRegion(t *testing.T) {
	r := &record.Normalized{
		Source:     record.SourceOSM,
		ExternalID: "node/1",
		Kind:       record.KindSite,
		Name:       "Data Center",
	}

	p := BuildPayload(r, 4)
	assert.Equal(t, 4, p["region"])
	assert.NotContains(t, p, "parent")
}

func TestBuildPayload_NoParent(t *testing.T) {
	r := &record.Normalized{
		Source:     record.SourceNaturalEarth,
		ExternalID: "FR",
		Kind:       record.KindCountry,
		Name:       "France",
	}

	p := BuildPayload(r, 0)
	assert.NotContains(t, p, "parent")
	assert.NotContains(t, p, "custom_fields")
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "osm-node-123", Slugify(record.SourceOSM, "node/123"))
	assert.Equal(t, "geonames-abc-def", Slugify(record.SourceGeoNames, "ABC_def"))
}
