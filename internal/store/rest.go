package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sornchai/sitetrack/internal/apperr"
	"github.com/sornchai/sitetrack/internal/models"
)

const defaultRESTTimeout = 15 * time.Second

// RESTConfig configures the hosted table client.
type RESTConfig struct {
	BaseURL string
	APIKey  string
	Table   string
	Timeout time.Duration
}

// REST talks to a hosted PostgREST-style table endpoint. Retry policy
// belongs to callers, so the client performs none.
type REST struct {
	client *resty.Client
	table  string
}

// NewREST creates a REST repository for the configured table.
func NewREST(cfg RESTConfig) *REST {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRESTTimeout
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("apikey", cfg.APIKey).
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetHeader("Accept", "application/json")
	return &REST{client: client, table: cfg.Table}
}

// opaqueID tolerates both numeric and string ids in store responses.
type opaqueID string

func (o *opaqueID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*o = opaqueID(s)
		return nil
	}
	*o = opaqueID(data)
	return nil
}

// row mirrors the remote table shape. Legacy rows predate created_at and
// carry a date column instead.
type row struct {
	ID          opaqueID         `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Location    *models.Location `json:"location"`
	Status      string           `json:"status"`
	CreatedAt   *time.Time       `json:"created_at"`
	Date        *time.Time       `json:"date"`
	ImageRef    string           `json:"image_ref"`
}

func (r row) record() models.Record {
	var created time.Time
	switch {
	case r.CreatedAt != nil:
		created = *r.CreatedAt
	case r.Date != nil:
		created = *r.Date
	}
	loc := r.Location
	if loc != nil && loc.Kind() == models.LocationUnset {
		loc = nil
	}
	return models.Record{
		ID:          string(r.ID),
		Title:       r.Title,
		Description: r.Description,
		Location:    loc,
		Status:      r.Status,
		CreatedAt:   created,
		ImageRef:    r.ImageRef,
	}
}

func (s *REST) tablePath() string {
	return "/rest/v1/" + s.table
}

// payload serializes only the supplied fields, preserving the update
// contract that unspecified fields stay untouched.
func payload(fields models.Fields) map[string]any {
	body := map[string]any{}
	if fields.Title != nil {
		body["title"] = *fields.Title
	}
	if fields.Description != nil {
		body["description"] = *fields.Description
	}
	if fields.Location != nil {
		body["location"] = *fields.Location
	}
	if fields.Status != nil {
		body["status"] = *fields.Status
	}
	return body
}

// Create inserts one row and returns the stored representation.
func (s *REST) Create(ctx context.Context, fields models.Fields) (*models.Record, error) {
	var rows []row
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody(payload(fields)).
		SetResult(&rows).
		Post(s.tablePath())
	if err != nil {
		return nil, apperr.Store(fmt.Errorf("store: create: %w", err))
	}
	if resp.IsError() {
		return nil, apperr.Store(fmt.Errorf("store: create: %s", resp.Status()))
	}
	if len(rows) == 0 {
		return nil, apperr.Store(fmt.Errorf("store: create returned no representation"))
	}
	rec := rows[0].record()
	return &rec, nil
}

// List returns a snapshot of rows, optionally newest-first and capped.
func (s *REST) List(ctx context.Context, opts ListOptions) ([]models.Record, error) {
	var rows []row
	req := s.client.R().
		SetContext(ctx).
		SetQueryParam("select", "*").
		SetResult(&rows)
	if opts.NewestFirst {
		req.SetQueryParam("order", "created_at.desc")
	}
	if opts.Limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(opts.Limit))
	}
	resp, err := req.Get(s.tablePath())
	if err != nil {
		return nil, apperr.Store(fmt.Errorf("store: list: %w", err))
	}
	if resp.IsError() {
		return nil, apperr.Store(fmt.Errorf("store: list: %s", resp.Status()))
	}
	out := make([]models.Record, len(rows))
	for i, r := range rows {
		out[i] = r.record()
	}
	return out, nil
}

// GetByID returns the row with the given id.
func (s *REST) GetByID(ctx context.Context, id string) (*models.Record, error) {
	var rows []row
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("select", "*").
		SetQueryParam("id", "eq."+id).
		SetQueryParam("limit", "1").
		SetResult(&rows).
		Get(s.tablePath())
	if err != nil {
		return nil, apperr.Store(fmt.Errorf("store: get %s: %w", id, err))
	}
	if resp.IsError() {
		return nil, apperr.Store(fmt.Errorf("store: get %s: %s", id, resp.Status()))
	}
	if len(rows) == 0 {
		return nil, apperr.ErrNotFound
	}
	rec := rows[0].record()
	return &rec, nil
}

// Update patches the supplied fields on the row with the given id.
func (s *REST) Update(ctx context.Context, id string, fields models.Fields) (*models.Record, error) {
	var rows []row
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParam("id", "eq."+id).
		SetBody(payload(fields)).
		SetResult(&rows).
		Patch(s.tablePath())
	if err != nil {
		return nil, apperr.Store(fmt.Errorf("store: update %s: %w", id, err))
	}
	if resp.IsError() {
		return nil, apperr.Store(fmt.Errorf("store: update %s: %s", id, resp.Status()))
	}
	if len(rows) == 0 {
		return nil, apperr.ErrNotFound
	}
	rec := rows[0].record()
	return &rec, nil
}

// Delete removes the row with the given id. The representation is
// requested so a second delete of the same id can be told apart and
// reported as ErrNotFound.
func (s *REST) Delete(ctx context.Context, id string) error {
	var rows []row
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParam("id", "eq."+id).
		SetResult(&rows).
		Delete(s.tablePath())
	if err != nil {
		return apperr.Store(fmt.Errorf("store: delete %s: %w", id, err))
	}
	if resp.IsError() {
		return apperr.Store(fmt.Errorf("store: delete %s: %s", id, resp.Status()))
	}
	if len(rows) == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Count issues a HEAD request with an exact count and reads the total
// from the Content-Range header, the same way the hosted client library
// does head counts.
func (s *REST) Count(ctx context.Context, filter CountFilter) (int, error) {
	req := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "count=exact").
		SetQueryParam("select", "*")
	if filter.StatusNot != "" {
		req.SetQueryParam("status", "neq."+filter.StatusNot)
	}
	resp, err := req.Head(s.tablePath())
	if err != nil {
		return 0, apperr.Store(fmt.Errorf("store: count: %w", err))
	}
	if resp.IsError() {
		return 0, apperr.Store(fmt.Errorf("store: count: %s", resp.Status()))
	}
	return parseContentRangeTotal(resp.Header().Get("Content-Range"))
}

// parseContentRangeTotal extracts the total from "0-24/57" or "*/0".
func parseContentRangeTotal(cr string) (int, error) {
	idx := strings.LastIndex(cr, "/")
	if idx < 0 {
		return 0, apperr.Store(fmt.Errorf("store: count: missing Content-Range"))
	}
	total, err := strconv.Atoi(cr[idx+1:])
	if err != nil {
		return 0, apperr.Store(fmt.Errorf("store: count: bad Content-Range %q: %w", cr, err))
	}
	return total, nil
}
