// Package models defines the domain types for installation tracking.
package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Status values are an open set; only "complete" carries special meaning.
// Everything else counts as pending.
const StatusComplete = "complete"

// Record represents one camera-installation site.
type Record struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    *Location `json:"location,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	ImageRef    string    `json:"image_ref,omitempty"`
}

// Pending reports whether the record still needs work.
func (r *Record) Pending() bool {
	return r.Status != StatusComplete
}

// Fields is the writable subset of a record. Nil pointers mean
// "leave untouched" on update; Create fills all of them.
type Fields struct {
	Title       *string
	Description *string
	Location    *Location
	Status      *string
}

// LocationSample is a transient device fix. It is never persisted on its
// own; it only feeds Record.Location.
type LocationSample struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  *float64  `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Location returns the structured location for this sample.
func (s LocationSample) Location() *Location {
	loc := CoordinateLocation(s.Latitude, s.Longitude)
	return &loc
}

// ValidateCoordinates checks that latitude and longitude are finite and
// within valid geographic ranges.
func ValidateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return fmt.Errorf("coordinates cannot be NaN")
	}
	if math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return fmt.Errorf("coordinates cannot be infinite")
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	return nil
}

// ValidateTitle checks that a title is non-blank.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title required")
	}
	return nil
}

// String returns a pointer to s, for building Fields literals.
func String(s string) *string { return &s }
