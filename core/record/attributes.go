package record

import (
	"fmt"
	"strconv"
)

// Scalar is a single attribute value. Exactly one of the fields is
// meaningful, selected by Type. Keeping the value set closed makes
// fingerprinting deterministic.
type Scalar struct {
	Type   ScalarType `json:"type"`
	Str    string     `json:"str,omitempty"`
	Number float64    `json:"number,omitempty"`
	Bool   bool       `json:"bool,omitempty"`
}

// ScalarType discriminates the variants of Scalar.
type ScalarType string

const (
	ScalarString ScalarType = "string"
	ScalarNumber ScalarType = "number"
	ScalarBool   ScalarType = "bool"
)

// String creates a string-valued scalar.
func String(v string) Scalar { return Scalar{Type: ScalarString, Str: v} }

// Number creates a number-valued scalar.
func Number(v float64) Scalar { return Scalar{Type: ScalarNumber, Number: v} }

// Bool creates a bool-valued scalar.
func Bool(v bool) Scalar { return Scalar{Type: ScalarBool, Bool: v} }

// Canonical returns a stable textual form of the scalar, used both for
// fingerprinting and for rendering remote payloads.
func (s Scalar) Canonical() string {
	switch s.Type {
	case ScalarNumber:
		return strconv.FormatFloat(s.Number, 'g', -1, 64)
	case ScalarBool:
		return strconv.FormatBool(s.Bool)
	default:
		return s.Str
	}
}

// Value returns the scalar as an untyped value for JSON payloads.
func (s Scalar) Value() any {
	switch s.Type {
	case ScalarNumber:
		return s.Number
	case ScalarBool:
		return s.Bool
	default:
		return s.Str
	}
}

// Attributes maps attribute names to scalar values.
type Attributes map[string]Scalar

// Validate rejects scalars with an unknown type tag.
func (a Attributes) Validate() error {
	for key, val := range a {
		switch val.Type {
		case ScalarString, ScalarNumber, ScalarBool:
		default:
			return fmt.Errorf("attribute %q has unknown scalar type %q", key, val.Type)
		}
	}
	return nil
}
