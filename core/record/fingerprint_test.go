package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleRecord() *Normalized {
	return &Normalized{
		Source:     SourceGeoNames,
		ExternalID: "2950159",
		Kind:       KindCity,
		Name:       "Berlin",
		Coordinates: &Coordinates{
			Latitude:  52.52437,
			Longitude: 13.41053,
		},
		Attributes: Attributes{
			"population":   Number(3426354),
			"country_code": String("DE"),
			"capital":      Bool(true),
		},
		ParentExternalID: "2950157",
	}
}

func TestComputeFingerprint_Deterministic(t *testing.T) {
	a := sampleRecord()
	b := sampleRecord()

	assert.Equal(t, ComputeFingerprint(a), ComputeFingerprint(b))
}

func TestComputeFingerprint_AttributeOrderIndependent(t *testing.T) {
	a := sampleRecord()

	// Rebuild the attribute map in a different insertion order.
	b := sampleRecord()
	b.Attributes = Attributes{}
	b.Attributes["capital"] = Bool(true)
	b.Attributes["population"] = Number(3426354)
	b.Attributes["country_code"] = String("DE")

	assert.Equal(t, ComputeFingerprint(a), ComputeFingerprint(b))
}

func TestComputeFingerprint_ChangesOnValueChange(t *testing.T) {
	base := ComputeFingerprint(sampleRecord())

	changedName := sampleRecord()
	changedName.Name = "Berlin-Mitte"
	assert.NotEqual(t, base, ComputeFingerprint(changedName))

	changedAttr := sampleRecord()
	changedAttr.Attributes["population"] = Number(3500000)
	assert.NotEqual(t, base, ComputeFingerprint(changedAttr))

	changedCoords := sampleRecord()
	changedCoords.Coordinates.Latitude = 52.6
	assert.NotEqual(t, base, ComputeFingerprint(changedCoords))

	changedParent := sampleRecord()
	changedParent.ParentExternalID = "other"
	assert.NotEqual(t, base, ComputeFingerprint(changedParent))
}

func TestComputeFingerprint_IgnoresIdentityFields(t *testing.T) {
	a := sampleRecord()
	b := sampleRecord()
	b.ExternalID = "different-id"
	b.Source = SourceOSM

	// Identity fields locate the record, they are not content.
	assert.Equal(t, ComputeFingerprint(a), ComputeFingerprint(b))
}

func TestComputeFingerprint_NoFieldConcatenationCollision(t *testing.T) {
	a := &Normalized{Kind: KindSite, Name: "ab", Attributes: Attributes{"x": String("c")}}
	b := &Normalized{Kind: KindSite, Name: "a", Attributes: Attributes{"x": String("bc")}}

	assert.NotEqual(t, ComputeFingerprint(a), ComputeFingerprint(b))
}

func TestFingerprint_StringRoundTrip(t *testing.T) {
	fp := ComputeFingerprint(sampleRecord())

	s := fp.String()
	assert.Len(t, s, 16)

	parsed, err := ParseFingerprint(s)
	assert.NoError(t, err)
	assert.Equal(t, fp, parsed)
}
