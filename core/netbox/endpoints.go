package netbox

import (
	"fmt"
	"strings"

	"netbox-geo/core/record"
)

// EndpointForKind maps a record kind to its NetBox REST path.
// Countries, regions and cities all live in the hierarchical
// dcim/regions tree; sites map to dcim/sites.
func EndpointForKind(kind record.Kind) string {
	if kind == record.KindSite {
		return "/api/dcim/sites/"
	}
	return "/api/dcim/regions/"
}

// BuildPayload renders a normalized record into the request body for
// its NetBox endpoint. parentRemoteID is the already-created parent's
// id, or zero for top-level entities.
func BuildPayload(r *record.Normalized, parentRemoteID int) Payload {
	p := Payload{
		"name": r.Name,
		"slug": Slugify(r.Source, r.ExternalID),
		// The key tag lets operators trace a remote object back to
		// its source record, and spot duplicates left by a crash
		// between remote create and cache write.
		"description": r.Key().String(),
	}

	if parentRemoteID > 0 {
		if r.Kind == record.KindSite {
			p["region"] = parentRemoteID
		} else {
			p["parent"] = parentRemoteID
		}
	}

	custom := map[string]any{}
	if r.Coordinates != nil {
		custom["latitude"] = r.Coordinates.Latitude
		custom["longitude"] = r.Coordinates.Longitude
	}
	for key, val := range r.Attributes {
		custom[key] = val.Value()
	}
	if len(custom) > 0 {
		p["custom_fields"] = custom
	}

	return p
}

// Slugify builds the stable slug NetBox requires on regions and
// sites. The source prefix keeps slugs unique across datasets.
func Slugify(source record.Source, externalID string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, externalID)
	return fmt.Sprintf("%s-%s", source, clean)
}
