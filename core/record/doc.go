// Package record defines the source-agnostic representation of
// geographic entities flowing through the sync pipeline.
//
// A Normalized record is what importers emit after translating raw
// GeoNames, Natural Earth or OpenStreetMap data. Records carry a
// closed set of scalar attributes so that fingerprinting stays
// deterministic: the fingerprint of a record is a 64-bit digest over
// its remote-visible fields, with attributes serialized in sorted key
// order. Two records with identical semantic content always produce
// the same fingerprint, which is what lets the planner skip
// unchanged entities on re-runs.
package record
