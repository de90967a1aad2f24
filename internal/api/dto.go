package api

import (
	"github.com/sornchai/sitetrack/internal/models"
	"github.com/sornchai/sitetrack/internal/recordservice"
)

// LocationPayload is a client-resolved coordinate sample. The mobile
// client resolves GPS on-device and ships only the point.
type LocationPayload struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

func (p *LocationPayload) sample() *models.LocationSample {
	if p == nil {
		return nil
	}
	return &models.LocationSample{
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Accuracy:  p.Accuracy,
	}
}

// CreateRecordRequest is the body for POST /records.
type CreateRecordRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Location    *LocationPayload `json:"location,omitempty"`
}

// UpdateRecordRequest is the body for PUT /records/{id}. Title is
// required; description replaces the stored value; location and status
// are only written when present.
type UpdateRecordRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Location    *LocationPayload `json:"location,omitempty"`
	Status      *string          `json:"status,omitempty"`
}

// RecordListResponse wraps record listings.
type RecordListResponse struct {
	Records []models.Record `json:"records"`
}

// StatsResponse mirrors the dashboard counters.
type StatsResponse = recordservice.Stats

// ThemeResponse wraps the current theme preference.
type ThemeResponse struct {
	Theme models.Theme `json:"theme"`
}

// AttachmentResponse is returned after a successful photo upload.
type AttachmentResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}
