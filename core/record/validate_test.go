package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Normalized)
		wantField string
	}{
		{
			name:   "valid record",
			mutate: func(r *Normalized) {},
		},
		{
			name:      "unknown source",
			mutate:    func(r *Normalized) { r.Source = "wikipedia" },
			wantField: "source",
		},
		{
			name:      "empty external id",
			mutate:    func(r *Normalized) { r.ExternalID = "" },
			wantField: "external_id",
		},
		{
			name:      "unknown kind",
			mutate:    func(r *Normalized) { r.Kind = "continent" },
			wantField: "kind",
		},
		{
			name:      "empty name",
			mutate:    func(r *Normalized) { r.Name = "" },
			wantField: "name",
		},
		{
			name:      "latitude out of range",
			mutate:    func(r *Normalized) { r.Coordinates.Latitude = 91 },
			wantField: "latitude",
		},
		{
			name:      "longitude out of range",
			mutate:    func(r *Normalized) { r.Coordinates.Longitude = -181 },
			wantField: "longitude",
		},
		{
			name:      "bad attribute scalar",
			mutate:    func(r *Normalized) { r.Attributes["bad"] = Scalar{Type: "list"} },
			wantField: "attributes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := sampleRecord()
			tt.mutate(r)

			err := Validate(r)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestKey_String(t *testing.T) {
	k := Key{Source: SourceGeoNames, ExternalID: "42"}
	assert.Equal(t, "geonames:42", k.String())
}
