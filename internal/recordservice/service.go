// Package recordservice orchestrates the installation record lifecycle:
// input validation, location merging, repository calls, and the derived
// dashboard numbers.
package recordservice

import (
	"context"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/sync/errgroup"

	"github.com/sornchai/sitetrack/internal/apperr"
	"github.com/sornchai/sitetrack/internal/locate"
	"github.com/sornchai/sitetrack/internal/models"
	"github.com/sornchai/sitetrack/internal/prefs"
	"github.com/sornchai/sitetrack/internal/store"
)

// Stats are the dashboard counters. The two counts are independent
// point-in-time reads, not a consistent snapshot; pending can lag or
// lead total when writes race the reads.
type Stats struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
}

// Service is the installation lifecycle controller. Collaborators are
// injected; it owns no ambient state beyond the cached theme.
type Service struct {
	repo     store.Repository
	resolver *locate.Resolver
	prefs    *prefs.Store

	themeMu     sync.Mutex
	theme       models.Theme
	themeLoaded bool
}

// NewService creates a service. resolver may be nil on deployments with
// no device GPS (the API then only accepts client-resolved coordinates).
func NewService(repo store.Repository, resolver *locate.Resolver, prefStore *prefs.Store) *Service {
	return &Service{repo: repo, resolver: resolver, prefs: prefStore}
}

func validateTitle(title string) error {
	if err := validation.Validate(strings.TrimSpace(title), validation.Required); err != nil {
		return &apperr.ValidationError{Reason: "title required"}
	}
	return nil
}

func validateLocation(loc *models.Location) error {
	if loc == nil {
		return nil
	}
	c, ok := loc.Coordinate()
	if !ok {
		return nil
	}
	if err := models.ValidateCoordinates(c.Latitude, c.Longitude); err != nil {
		return &apperr.ValidationError{Reason: err.Error()}
	}
	return nil
}

// SubmitNew validates and stores a new installation record. The status
// is fixed to complete; this is a single-step install workflow, not an
// approval pipeline. A nil sample omits the location entirely rather
// than writing a zero coordinate.
func (s *Service) SubmitNew(ctx context.Context, title, description string, sample *models.LocationSample) (*models.Record, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	fields := models.Fields{
		Title:       models.String(title),
		Description: models.String(description),
		Status:      models.String(models.StatusComplete),
	}
	if sample != nil {
		fields.Location = sample.Location()
		if err := validateLocation(fields.Location); err != nil {
			return nil, err
		}
	}
	return s.repo.Create(ctx, fields)
}

// FetchRecent returns the n newest records.
func (s *Service) FetchRecent(ctx context.Context, n int) ([]models.Record, error) {
	return s.repo.List(ctx, store.ListOptions{Limit: n, NewestFirst: true})
}

// FetchAll returns every record, newest first.
func (s *Service) FetchAll(ctx context.Context) ([]models.Record, error) {
	return s.repo.List(ctx, store.ListOptions{NewestFirst: true})
}

// FetchStats issues the total and pending counts concurrently and
// returns whatever pair the store reported.
func (s *Service) FetchStats(ctx context.Context) (Stats, error) {
	var stats Stats
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repo.Count(gCtx, store.CountFilter{})
		stats.Total = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.Count(gCtx, store.CountFilter{StatusNot: models.StatusComplete})
		stats.Pending = n
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// GetByID returns a single record.
func (s *Service) GetByID(ctx context.Context, id string) (*models.Record, error) {
	return s.repo.GetByID(ctx, id)
}

// RemoveByID deletes a record. Confirming user intent is the caller's
// job before this point; the delete itself is irreversible.
func (s *Service) RemoveByID(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// EditExisting replaces the supplied fields after the same validation as
// SubmitNew. Legacy free-form locations on the stored record are left
// untouched unless the caller supplies a replacement.
func (s *Service) EditExisting(ctx context.Context, id string, fields models.Fields) (*models.Record, error) {
	if fields.Title != nil {
		if err := validateTitle(*fields.Title); err != nil {
			return nil, err
		}
	}
	if err := validateLocation(fields.Location); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, fields)
}

// ResolveLocation asks the device for a current fix.
func (s *Service) ResolveLocation(ctx context.Context) (models.LocationSample, error) {
	if s.resolver == nil {
		return models.LocationSample{}, apperr.ErrPositionUnavailable
	}
	return s.resolver.RequestCurrent(ctx)
}

// ManualPoint records a user-picked map point as the current sample.
func (s *Service) ManualPoint(lat, lng float64) (models.LocationSample, error) {
	if s.resolver == nil {
		return models.LocationSample{}, apperr.ErrPositionUnavailable
	}
	return s.resolver.FromManualPoint(lat, lng), nil
}

// Theme returns the current theme, loading it from the preference store
// on first use.
func (s *Service) Theme() models.Theme {
	s.themeMu.Lock()
	defer s.themeMu.Unlock()
	if !s.themeLoaded {
		s.theme = s.prefs.Load()
		s.themeLoaded = true
	}
	return s.theme
}

// ToggleTheme flips and persists the theme, returning the new value.
func (s *Service) ToggleTheme() models.Theme {
	current := s.Theme()
	next := s.prefs.ToggleAndPersist(current)
	s.themeMu.Lock()
	s.theme = next
	s.themeMu.Unlock()
	return next
}
