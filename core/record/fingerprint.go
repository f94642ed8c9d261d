package record

import (
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint is a deterministic digest over the remote-visible fields
// of a record. Identical semantic content always yields the same
// fingerprint, regardless of attribute insertion order.
type Fingerprint uint64

// String renders the fingerprint as fixed-width hex.
func (f Fingerprint) String() string {
	const hexWidth = 16
	s := strconv.FormatUint(uint64(f), 16)
	for len(s) < hexWidth {
		s = "0" + s
	}
	return s
}

// ParseFingerprint parses the hex form produced by String.
func ParseFingerprint(s string) (Fingerprint, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	return Fingerprint(v), err
}

// ComputeFingerprint hashes the synced-field subset of a record:
// kind, name, coordinates, parent link and all attributes. Volatile
// metadata (source, external id) identifies the record but is not part
// of its content, so it is excluded.
func ComputeFingerprint(r *Normalized) Fingerprint {
	d := xxhash.New()

	writeField(d, "kind", string(r.Kind))
	writeField(d, "name", r.Name)
	writeField(d, "parent", r.ParentExternalID)

	if r.Coordinates != nil {
		writeField(d, "lat", strconv.FormatFloat(r.Coordinates.Latitude, 'g', -1, 64))
		writeField(d, "lon", strconv.FormatFloat(r.Coordinates.Longitude, 'g', -1, 64))
	}

	// Attributes are serialized in sorted key order so that map
	// iteration order never leaks into the digest.
	keys := make([]string, 0, len(r.Attributes))
	for key := range r.Attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		val := r.Attributes[key]
		writeField(d, "attr."+key, string(val.Type)+"|"+val.Canonical())
	}

	return Fingerprint(d.Sum64())
}

// writeField feeds one length-prefixed key/value pair into the digest.
// Length prefixes prevent adjacent fields from colliding ("ab"+"c" vs
// "a"+"bc").
func writeField(d *xxhash.Digest, key, value string) {
	_, _ = d.WriteString(strconv.Itoa(len(key)))
	_, _ = d.WriteString(":")
	_, _ = d.WriteString(key)
	_, _ = d.WriteString(strconv.Itoa(len(value)))
	_, _ = d.WriteString(":")
	_, _ = d.WriteString(value)
}
