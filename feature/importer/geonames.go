package importer

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"netbox-geo/core/record"
	"netbox-geo/core/storage"

	"go.uber.org/zap"
)

// geonamesObject is the snapshot file name inside the dataset bucket.
const geonamesObject = "geonames.tsv"

// Column layout of the GeoNames main export (allCountries.txt and its
// per-country subsets).
const (
	gnColID = iota
	gnColName
	gnColASCIIName
	gnColAltNames
	gnColLatitude
	gnColLongitude
	gnColFeatureClass
	gnColFeatureCode
	gnColCountryCode
	gnColCC2
	gnColAdmin1
	gnColAdmin2
	gnColAdmin3
	gnColAdmin4
	gnColPopulation
	gnColumnCount = 19
)

// NewGeoNames builds the importer for the GeoNames TSV snapshot.
// Countries come from PCLI rows, regions from ADM1 rows and cities
// from populated-place (P class) rows.
func NewGeoNames(store storage.Client, cfg Config, log *zap.Logger) *Importer {
	p := &geonamesParser{
		minCityPopulation: cfg.MinCityPopulation,
		log:               log,
	}
	return &Importer{
		name:   record.SourceGeoNames,
		object: objectKey(cfg.Prefix, geonamesObject),
		store:  store,
		bucket: cfg.Bucket,
		parse:  p.parse,
		log:    log,
	}
}

type geonamesParser struct {
	minCityPopulation int
	log               *zap.Logger
}

func (p *geonamesParser) parse(r io.Reader, emit func(record.Normalized) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	skipped := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		cols := strings.Split(line, "\t")
		if len(cols) < gnColPopulation+1 {
			skipped++
			p.log.Warn("geonames row has too few columns",
				zap.Int("line", lineNo),
				zap.Int("columns", len(cols)),
			)
			continue
		}

		rec, ok, err := p.rowToRecord(cols)
		if err != nil {
			skipped++
			p.log.Warn("geonames row rejected",
				zap.Int("line", lineNo),
				zap.Error(err),
			)
			continue
		}
		if !ok {
			continue
		}
		if err := emit(rec); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read tsv: %w", err)
	}
	if skipped > 0 {
		p.log.Info("geonames rows skipped", zap.Int("skipped", skipped))
	}
	return nil
}

// rowToRecord maps one TSV row onto a normalized record. The second
// return value is false for feature codes outside the sync scope and
// for cities below the population threshold.
func (p *geonamesParser) rowToRecord(cols []string) (record.Normalized, bool, error) {
	featureClass := cols[gnColFeatureClass]
	featureCode := cols[gnColFeatureCode]
	country := cols[gnColCountryCode]

	var kind record.Kind
	var externalID, parentID string
	switch {
	case featureCode == "PCLI":
		kind = record.KindCountry
		externalID = country
	case featureCode == "ADM1":
		kind = record.KindRegion
		externalID = country + "." + cols[gnColAdmin1]
		parentID = country
	case featureClass == "P":
		kind = record.KindCity
		externalID = cols[gnColID]
		if admin1 := cols[gnColAdmin1]; admin1 != "" && admin1 != "00" {
			parentID = country + "." + admin1
		} else {
			parentID = country
		}
	default:
		return record.Normalized{}, false, nil
	}

	lat, err := strconv.ParseFloat(cols[gnColLatitude], 64)
	if err != nil {
		return record.Normalized{}, false, fmt.Errorf("latitude %q: %w", cols[gnColLatitude], err)
	}
	lon, err := strconv.ParseFloat(cols[gnColLongitude], 64)
	if err != nil {
		return record.Normalized{}, false, fmt.Errorf("longitude %q: %w", cols[gnColLongitude], err)
	}

	population := 0
	if raw := cols[gnColPopulation]; raw != "" {
		population, err = strconv.Atoi(raw)
		if err != nil {
			return record.Normalized{}, false, fmt.Errorf("population %q: %w", raw, err)
		}
	}
	if kind == record.KindCity && population < p.minCityPopulation {
		return record.Normalized{}, false, nil
	}

	attrs := record.Attributes{
		"feature_code": record.String(featureCode),
		"country_code": record.String(country),
	}
	if population > 0 {
		attrs["population"] = record.Number(float64(population))
	}

	return record.Normalized{
		Source:           record.SourceGeoNames,
		ExternalID:       externalID,
		Kind:             kind,
		Name:             cols[gnColName],
		Coordinates:      &record.Coordinates{Latitude: lat, Longitude: lon},
		Attributes:       attrs,
		ParentExternalID: parentID,
	}, true, nil
}
