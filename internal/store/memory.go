package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sornchai/sitetrack/internal/apperr"
	"github.com/sornchai/sitetrack/internal/models"
)

// Memory is an in-process repository used by tests and local experiments.
// IDs are uuids; the clock is injectable so ordering can be exercised.
type Memory struct {
	mu      sync.RWMutex
	records []models.Record
	now     func() time.Time
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

// SetClock replaces the creation timestamp source.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Create appends a record, assigning id and created_at.
func (m *Memory) Create(_ context.Context, fields models.Fields) (*models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := models.Record{
		ID:        uuid.NewString(),
		CreatedAt: m.now(),
	}
	if fields.Title != nil {
		rec.Title = *fields.Title
	}
	if fields.Description != nil {
		rec.Description = *fields.Description
	}
	if fields.Status != nil {
		rec.Status = *fields.Status
	}
	rec.Location = fields.Location

	m.records = append(m.records, rec)
	out := rec
	return &out, nil
}

// List returns a copied snapshot of the records.
func (m *Memory) List(_ context.Context, opts ListOptions) ([]models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Record, len(m.records))
	copy(out, m.records)
	if opts.NewestFirst {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

// GetByID returns the record with the given id.
func (m *Memory) GetByID(_ context.Context, id string) (*models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, rec := range m.records {
		if rec.ID == id {
			out := rec
			return &out, nil
		}
	}
	return nil, apperr.ErrNotFound
}

// Update replaces the supplied fields on the record with the given id.
func (m *Memory) Update(_ context.Context, id string, fields models.Fields) (*models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.records {
		if m.records[i].ID != id {
			continue
		}
		if fields.Title != nil {
			m.records[i].Title = *fields.Title
		}
		if fields.Description != nil {
			m.records[i].Description = *fields.Description
		}
		if fields.Location != nil {
			m.records[i].Location = fields.Location
		}
		if fields.Status != nil {
			m.records[i].Status = *fields.Status
		}
		out := m.records[i]
		return &out, nil
	}
	return nil, apperr.ErrNotFound
}

// Delete removes the record with the given id; a second delete reports
// ErrNotFound.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.records {
		if m.records[i].ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return apperr.ErrNotFound
}

// Count returns the number of records matching the filter.
func (m *Memory) Count(_ context.Context, filter CountFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if filter.StatusNot == "" {
		return len(m.records), nil
	}
	n := 0
	for _, rec := range m.records {
		if rec.Status != filter.StatusNot {
			n++
		}
	}
	return n, nil
}
