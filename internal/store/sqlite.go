package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sornchai/sitetrack/internal/apperr"
	"github.com/sornchai/sitetrack/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS installations (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	location    TEXT,
	status      TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	image_ref   TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_installations_created_at ON installations(created_at);
`

// SQLite is the local repository driver used by self-hosted and
// development deployments.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database and applies the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping sqlite: %w", err)
	}
	if _, err := conn.Exec(sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// encodeLocation renders a location column value. Structured locations
// become a JSON object, legacy text a JSON string, unset NULL.
func encodeLocation(loc *models.Location) (any, error) {
	if loc == nil || loc.Kind() == models.LocationUnset {
		return nil, nil
	}
	data, err := json.Marshal(loc)
	if err != nil {
		return nil, fmt.Errorf("store: encode location: %w", err)
	}
	return string(data), nil
}

func decodeLocation(col sql.NullString) (*models.Location, error) {
	if !col.Valid || col.String == "" {
		return nil, nil
	}
	var loc models.Location
	if err := json.Unmarshal([]byte(col.String), &loc); err != nil {
		return nil, fmt.Errorf("store: decode location: %w", err)
	}
	if loc.Kind() == models.LocationUnset {
		return nil, nil
	}
	return &loc, nil
}

// Create inserts a record, assigning id and created_at.
func (s *SQLite) Create(ctx context.Context, fields models.Fields) (*models.Record, error) {
	rec := models.Record{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
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

	locCol, err := encodeLocation(rec.Location)
	if err != nil {
		return nil, err
	}
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO installations (id, title, description, location, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Title, rec.Description, locCol, rec.Status, rec.CreatedAt)
	if err != nil {
		return nil, apperr.Store(fmt.Errorf("store: insert: %w", err))
	}
	return &rec, nil
}

func scanRecord(scan func(dest ...any) error) (*models.Record, error) {
	var rec models.Record
	var locCol sql.NullString
	if err := scan(&rec.ID, &rec.Title, &rec.Description, &locCol, &rec.Status, &rec.CreatedAt, &rec.ImageRef); err != nil {
		return nil, err
	}
	loc, err := decodeLocation(locCol)
	if err != nil {
		return nil, err
	}
	rec.Location = loc
	return &rec, nil
}

// List returns a snapshot of records.
func (s *SQLite) List(ctx context.Context, opts ListOptions) ([]models.Record, error) {
	q := `SELECT id, title, description, location, status, created_at, image_ref FROM installations`
	if opts.NewestFirst {
		q += ` ORDER BY created_at DESC`
	}
	var args []any
	if opts.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, opts.Limit)
	}
	rows, err := s.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, apperr.Store(fmt.Errorf("store: list: %w", err))
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, apperr.Store(fmt.Errorf("store: list scan: %w", err))
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(fmt.Errorf("store: list rows: %w", err))
	}
	return out, nil
}

// GetByID returns the record with the given id.
func (s *SQLite) GetByID(ctx context.Context, id string) (*models.Record, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, title, description, location, status, created_at, image_ref
		FROM installations WHERE id = ?
	`, id)
	rec, err := scanRecord(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Store(fmt.Errorf("store: get %s: %w", id, err))
	}
	return rec, nil
}

// Update replaces the supplied fields on the record with the given id.
func (s *SQLite) Update(ctx context.Context, id string, fields models.Fields) (*models.Record, error) {
	var sets []string
	var args []any
	if fields.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *fields.Title)
	}
	if fields.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *fields.Description)
	}
	if fields.Location != nil {
		locCol, err := encodeLocation(fields.Location)
		if err != nil {
			return nil, err
		}
		sets = append(sets, "location = ?")
		args = append(args, locCol)
	}
	if fields.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *fields.Status)
	}
	if len(sets) == 0 {
		return s.GetByID(ctx, id)
	}
	args = append(args, id)

	res, err := s.conn.ExecContext(ctx,
		`UPDATE installations SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, apperr.Store(fmt.Errorf("store: update %s: %w", id, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, apperr.Store(fmt.Errorf("store: update %s: %w", id, err))
	}
	if n == 0 {
		return nil, apperr.ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// Delete removes the record with the given id. A second delete of the
// same id reports ErrNotFound.
func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM installations WHERE id = ?`, id)
	if err != nil {
		return apperr.Store(fmt.Errorf("store: delete %s: %w", id, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Store(fmt.Errorf("store: delete %s: %w", id, err))
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Count returns the number of rows matching the filter.
func (s *SQLite) Count(ctx context.Context, filter CountFilter) (int, error) {
	q := `SELECT COUNT(*) FROM installations`
	var args []any
	if filter.StatusNot != "" {
		q += ` WHERE status != ?`
		args = append(args, filter.StatusNot)
	}
	var n int
	if err := s.conn.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, apperr.Store(fmt.Errorf("store: count: %w", err))
	}
	return n, nil
}
