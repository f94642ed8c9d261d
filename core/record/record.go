package record

import "fmt"

// Source identifies the external dataset a record was imported from.
type Source string

const (
	SourceGeoNames     Source = "geonames"
	SourceNaturalEarth Source = "naturalearth"
	SourceOSM          Source = "osm"
)

// IsValid reports whether the source is one of the known datasets.
func (s Source) IsValid() bool {
	switch s {
	case SourceGeoNames, SourceNaturalEarth, SourceOSM:
		return true
	default:
		return false
	}
}

// Kind is the geographic entity type a record describes.
type Kind string

const (
	KindCountry Kind = "country"
	KindRegion  Kind = "region"
	KindCity    Kind = "city"
	KindSite    Kind = "site"
)

// IsValid reports whether the kind is one of the known entity types.
func (k Kind) IsValid() bool {
	switch k {
	case KindCountry, KindRegion, KindCity, KindSite:
		return true
	default:
		return false
	}
}

// Coordinates holds a WGS84 position.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Normalized is the source-agnostic representation of one geographic
// entity after import-time translation. (source, external_id) is unique
// within an import run.
type Normalized struct {
	// Source is the dataset this record came from.
	Source Source `json:"source"`

	// ExternalID is the identifier within the source dataset.
	ExternalID string `json:"external_id"`

	// Kind is the entity type (country, region, city, site).
	Kind Kind `json:"kind"`

	// Name is the display name of the entity.
	Name string `json:"name"`

	// Coordinates is the optional geographic position.
	Coordinates *Coordinates `json:"coordinates,omitempty"`

	// Attributes carries source-specific metadata that maps to
	// remote-visible fields. Values are restricted to scalars.
	Attributes Attributes `json:"attributes,omitempty"`

	// ParentExternalID links to the parent entity within the same
	// source (e.g. a city's region). Empty for top-level entities.
	ParentExternalID string `json:"parent_external_id,omitempty"`
}

// Key returns the (source, external_id) identity of the record.
func (r *Normalized) Key() Key {
	return Key{Source: r.Source, ExternalID: r.ExternalID}
}

// Key identifies a record across the cache, plans and reports.
type Key struct {
	Source     Source `json:"source"`
	ExternalID string `json:"external_id"`
}

// String renders the key in "source:external_id" form.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.Source, k.ExternalID)
}
