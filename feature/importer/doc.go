// Package importer turns dataset snapshots into normalized records.
//
// Each supported dataset (GeoNames TSV, Natural Earth GeoJSON,
// OpenStreetMap Overpass JSON) has its own parser; all of them stream
// the snapshot file out of the object storage bucket and emit
// record.Normalized values to the sync engine through the
// sync.RecordSource contract. Malformed rows are logged and skipped,
// a broken stream fails the whole source.
package importer
