package models

import (
	"encoding/json"
	"fmt"
)

// LocationKind discriminates the shapes a stored location can take.
type LocationKind int

const (
	// LocationUnset means no location was ever recorded.
	LocationUnset LocationKind = iota
	// LocationCoordinate is the structured form this service writes.
	LocationCoordinate
	// LocationLegacyText is free-form text from historical rows. It is
	// surfaced as-is and never coerced into coordinates.
	LocationLegacyText
)

// Coordinate is a structured geographic point.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is a tagged variant: a structured coordinate, legacy free-form
// text, or unset. The zero value is unset.
type Location struct {
	kind   LocationKind
	coord  Coordinate
	legacy string
}

// CoordinateLocation builds a structured location.
func CoordinateLocation(lat, lng float64) Location {
	return Location{kind: LocationCoordinate, coord: Coordinate{Latitude: lat, Longitude: lng}}
}

// LegacyLocation builds a location carrying historical free-form text.
func LegacyLocation(text string) Location {
	return Location{kind: LocationLegacyText, legacy: text}
}

// Kind returns the variant tag.
func (l Location) Kind() LocationKind {
	return l.kind
}

// Coordinate returns the structured point and whether this location has one.
func (l Location) Coordinate() (Coordinate, bool) {
	return l.coord, l.kind == LocationCoordinate
}

// LegacyText returns the free-form text and whether this location is legacy.
func (l Location) LegacyText() (string, bool) {
	return l.legacy, l.kind == LocationLegacyText
}

// String renders the location for logs and plain-text surfaces.
func (l Location) String() string {
	switch l.kind {
	case LocationCoordinate:
		return fmt.Sprintf("%.6f,%.6f", l.coord.Latitude, l.coord.Longitude)
	case LocationLegacyText:
		return l.legacy
	default:
		return ""
	}
}

// MarshalJSON writes the structured object for coordinates, the original
// string for legacy rows, and null when unset.
func (l Location) MarshalJSON() ([]byte, error) {
	switch l.kind {
	case LocationCoordinate:
		return json.Marshal(l.coord)
	case LocationLegacyText:
		return json.Marshal(l.legacy)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts the structured object, a legacy free-form string,
// or null. Anything else is rejected.
func (l *Location) UnmarshalJSON(data []byte) error {
	switch {
	case len(data) == 0 || string(data) == "null":
		*l = Location{}
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("location: decode legacy text: %w", err)
		}
		*l = LegacyLocation(s)
		return nil
	case data[0] == '{':
		var c Coordinate
		if err := json.Unmarshal(data, &c); err != nil {
			return fmt.Errorf("location: decode coordinate: %w", err)
		}
		*l = Location{kind: LocationCoordinate, coord: c}
		return nil
	default:
		return fmt.Errorf("location: unsupported shape: %s", data)
	}
}
