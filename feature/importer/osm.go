package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"netbox-geo/core/record"
	"netbox-geo/core/storage"

	"go.uber.org/zap"
)

// osmObject is the snapshot file name inside the dataset bucket: an
// Overpass JSON export of facility nodes.
const osmObject = "osm.json"

// NewOSM builds the importer for the OpenStreetMap facility snapshot.
// Every named node becomes a site.
func NewOSM(store storage.Client, cfg Config, log *zap.Logger) *Importer {
	p := &osmParser{log: log}
	return &Importer{
		name:   record.SourceOSM,
		object: objectKey(cfg.Prefix, osmObject),
		store:  store,
		bucket: cfg.Bucket,
		parse:  p.parse,
		log:    log,
	}
}

type osmParser struct {
	log *zap.Logger
}

type osmExport struct {
	Elements []osmElement `json:"elements"`
}

type osmElement struct {
	Type string            `json:"type"`
	ID   int64             `json:"id"`
	Lat  float64           `json:"lat"`
	Lon  float64           `json:"lon"`
	Tags map[string]string `json:"tags"`
}

func (p *osmParser) parse(r io.Reader, emit func(record.Normalized) error) error {
	var export osmExport
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return fmt.Errorf("decode overpass json: %w", err)
	}

	skipped := 0
	for _, el := range export.Elements {
		if el.Type != "node" {
			continue
		}
		name := el.Tags["name"]
		if name == "" {
			skipped++
			continue
		}

		attrs := record.Attributes{}
		for _, tag := range []string{"amenity", "man_made", "operator", "power"} {
			if v, ok := el.Tags[tag]; ok && v != "" {
				attrs[tag] = record.String(v)
			}
		}

		rec := record.Normalized{
			Source:     record.SourceOSM,
			ExternalID: "node/" + strconv.FormatInt(el.ID, 10),
			Kind:       record.KindSite,
			Name:       name,
			Coordinates: &record.Coordinates{
				Latitude:  el.Lat,
				Longitude: el.Lon,
			},
			Attributes: attrs,
		}
		if err := emit(rec); err != nil {
			return err
		}
	}
	if skipped > 0 {
		p.log.Info("osm nodes without name skipped", zap.Int("skipped", skipped))
	}
	return nil
}
