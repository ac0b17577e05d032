package model

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"gitlab.com/dirk.krummacker/contacts-globe/internal/apperror"
)

// FieldKind is the type of value a contact field holds.
type FieldKind int

const (
	TextField FieldKind = iota
	CoordinateField
)

// ContactFields are the contact fields a user may write, keyed by their column name, which is
// also their JSON name.
var ContactFields = map[string]FieldKind{
	"name":     TextField,
	"email":    TextField,
	"phone":    TextField,
	"company":  TextField,
	"role":     TextField,
	"city":     TextField,
	"country":  TextField,
	"address":  TextField,
	"website":  TextField,
	"notes":    TextField,
	"birthday": TextField,
	"lat":      CoordinateField,
	"lng":      CoordinateField,
}

// DateLayout is the format of all dates, e.g. 2024-03-01.
const DateLayout = "2006-01-02"

// ValidDate reports whether s is a calendar date in DateLayout.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ValidateCoordinates checks that lat and lng are both set or both absent, and within range.
func ValidateCoordinates(lat, lng *float64) error {
	if (lat == nil) != (lng == nil) {
		return apperror.Validation("lat and lng must be set or cleared together")
	}
	if lat == nil {
		return nil
	}
	if *lat < -90 || *lat > 90 {
		return apperror.Validation("field %q is out of range", "lat")
	}
	if *lng < -180 || *lng > 180 {
		return apperror.Validation("field %q is out of range", "lng")
	}
	return nil
}

// NormalizeContactFields checks field values decoded from JSON against ContactFields and
// converts them to the types the store writes. nil clears a field, except the name. A birthday
// must be a date, and lat and lng always come as a pair.
func NormalizeContactFields(values map[string]any) (map[string]any, error) {
	normalized := make(map[string]any, len(values))
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		kind, ok := ContactFields[key]
		if !ok {
			return nil, apperror.Validation("unknown contact field %q", key)
		}
		value := values[key]
		switch kind {
		case TextField:
			if value == nil {
				if key == "name" {
					return nil, apperror.Validation("name must not be empty")
				}
				normalized[key] = nil
				continue
			}
			s, ok := value.(string)
			if !ok {
				return nil, apperror.Validation("field %q must be a string", key)
			}
			if key == "name" && strings.TrimSpace(s) == "" {
				return nil, apperror.Validation("name must not be empty")
			}
			if key == "birthday" && !ValidDate(s) {
				return nil, apperror.Validation("invalid birthday")
			}
			normalized[key] = s
		case CoordinateField:
			if value == nil {
				normalized[key] = nil
				continue
			}
			f, ok := toFloat(value)
			if !ok {
				return nil, apperror.Validation("field %q must be a number", key)
			}
			normalized[key] = f
		}
	}

	lat, hasLat := normalized["lat"]
	lng, hasLng := normalized["lng"]
	if hasLat != hasLng {
		return nil, apperror.Validation("lat and lng must be set or cleared together")
	}
	if hasLat {
		if err := ValidateCoordinates(coordinate(lat), coordinate(lng)); err != nil {
			return nil, err
		}
	}
	return normalized, nil
}

func coordinate(value any) *float64 {
	f, ok := value.(float64)
	if !ok {
		return nil
	}
	return &f
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
