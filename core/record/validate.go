package record

import "fmt"

// ValidationError describes a record that failed pre-flight shape
// checks. Such records are reported per item and never sent remote.
type ValidationError struct {
	Key     Key
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("record %s: invalid %s: %s", e.Key, e.Field, e.Message)
}

// Validate performs the pre-flight shape checks on a record.
func Validate(r *Normalized) error {
	if !r.Source.IsValid() {
		return &ValidationError{Key: r.Key(), Field: "source", Message: fmt.Sprintf("unknown source %q", r.Source)}
	}
	if r.ExternalID == "" {
		return &ValidationError{Key: r.Key(), Field: "external_id", Message: "must not be empty"}
	}
	if !r.Kind.IsValid() {
		return &ValidationError{Key: r.Key(), Field: "kind", Message: fmt.Sprintf("unknown kind %q", r.Kind)}
	}
	if r.Name == "" {
		return &ValidationError{Key: r.Key(), Field: "name", Message: "must not be empty"}
	}
	if c := r.Coordinates; c != nil {
		if c.Latitude < -90 || c.Latitude > 90 {
			return &ValidationError{Key: r.Key(), Field: "latitude", Message: fmt.Sprintf("%v out of range [-90, 90]", c.Latitude)}
		}
		if c.Longitude < -180 || c.Longitude > 180 {
			return &ValidationError{Key: r.Key(), Field: "longitude", Message: fmt.Sprintf("%v out of range [-180, 180]", c.Longitude)}
		}
	}
	if err := r.Attributes.Validate(); err != nil {
		return &ValidationError{Key: r.Key(), Field: "attributes", Message: err.Error()}
	}
	return nil
}
