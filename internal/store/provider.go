// Package store implements the installation record repository against the
// hosted REST table, a local SQLite database, or process memory.
package store

import (
	"context"

	"github.com/sornchai/sitetrack/internal/models"
)

// ListOptions controls list queries.
type ListOptions struct {
	// Limit caps the number of rows; 0 means no cap.
	Limit int
	// NewestFirst orders by creation time descending.
	NewestFirst bool
}

// CountFilter narrows count queries.
type CountFilter struct {
	// StatusNot counts only rows whose status differs from this value.
	// Empty counts all rows.
	StatusNot string
}

// Repository is the interface for installation record persistence.
// Implementations never retry; transient failures surface wrapped in
// apperr.ErrStore and id-keyed misses as apperr.ErrNotFound.
type Repository interface {
	// Create inserts one record; the store assigns id and created_at.
	Create(ctx context.Context, fields models.Fields) (*models.Record, error)
	// List returns a finite snapshot of records.
	List(ctx context.Context, opts ListOptions) ([]models.Record, error)
	// GetByID returns a single record by id.
	GetByID(ctx context.Context, id string) (*models.Record, error)
	// Update replaces the supplied fields; nil fields are left untouched.
	Update(ctx context.Context, id string, fields models.Fields) (*models.Record, error)
	// Delete removes a record. Deleting a missing id reports ErrNotFound;
	// the hosted store gives no idempotency guarantee.
	Delete(ctx context.Context, id string) error
	// Count returns the number of rows matching the filter.
	Count(ctx context.Context, filter CountFilter) (int, error)
}

// Compile-time interface checks for every driver.
var (
	_ Repository = (*REST)(nil)
	_ Repository = (*SQLite)(nil)
	_ Repository = (*Memory)(nil)
)
