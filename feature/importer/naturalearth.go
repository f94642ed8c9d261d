package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"netbox-geo/core/record"
	"netbox-geo/core/storage"

	"go.uber.org/zap"
)

// naturalEarthObject is the snapshot file name inside the dataset
// bucket: a GeoJSON FeatureCollection of admin-0 countries.
const naturalEarthObject = "naturalearth.geojson"

// NewNaturalEarth builds the importer for the Natural Earth countries
// snapshot.
func NewNaturalEarth(store storage.Client, cfg Config, log *zap.Logger) *Importer {
	p := &naturalEarthParser{log: log}
	return &Importer{
		name:   record.SourceNaturalEarth,
		object: objectKey(cfg.Prefix, naturalEarthObject),
		store:  store,
		bucket: cfg.Bucket,
		parse:  p.parse,
		log:    log,
	}
}

type naturalEarthParser struct {
	log *zap.Logger
}

type neFeatureCollection struct {
	Type     string      `json:"type"`
	Features []neFeature `json:"features"`
}

type neFeature struct {
	Properties neProperties `json:"properties"`
}

// neProperties carries the Natural Earth attribute columns we map. The
// label point is the cartographic anchor, present on every country.
type neProperties struct {
	ISOA2     string  `json:"ISO_A2"`
	Name      string  `json:"NAME"`
	Continent string  `json:"CONTINENT"`
	PopEst    float64 `json:"POP_EST"`
	LabelX    float64 `json:"LABEL_X"`
	LabelY    float64 `json:"LABEL_Y"`
}

func (p *naturalEarthParser) parse(r io.Reader, emit func(record.Normalized) error) error {
	var collection neFeatureCollection
	if err := json.NewDecoder(r).Decode(&collection); err != nil {
		return fmt.Errorf("decode geojson: %w", err)
	}
	if collection.Type != "FeatureCollection" {
		return fmt.Errorf("unexpected geojson type %q", collection.Type)
	}

	skipped := 0
	for _, feature := range collection.Features {
		props := feature.Properties
		// Disputed territories carry "-99" instead of an ISO code.
		if props.ISOA2 == "" || strings.HasPrefix(props.ISOA2, "-") {
			skipped++
			continue
		}

		attrs := record.Attributes{
			"continent": record.String(props.Continent),
		}
		if props.PopEst > 0 {
			attrs["population_estimate"] = record.Number(props.PopEst)
		}

		rec := record.Normalized{
			Source:     record.SourceNaturalEarth,
			ExternalID: props.ISOA2,
			Kind:       record.KindCountry,
			Name:       props.Name,
			Coordinates: &record.Coordinates{
				Latitude:  props.LabelY,
				Longitude: props.LabelX,
			},
			Attributes: attrs,
		}
		if err := emit(rec); err != nil {
			return err
		}
	}
	if skipped > 0 {
		p.log.Info("naturalearth features without iso code skipped", zap.Int("skipped", skipped))
	}
	return nil
}
