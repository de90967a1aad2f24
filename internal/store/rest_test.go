package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sornchai/sitetrack/internal/apperr"
	"github.com/sornchai/sitetrack/internal/models"
)

func newTestREST(t *testing.T, handler http.HandlerFunc) *REST {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewREST(RESTConfig{BaseURL: srv.URL, APIKey: "test-key", Table: "installations"})
}

func TestRESTCreateSendsFieldsAndDecodesRow(t *testing.T) {
	rest := newTestREST(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rest/v1/installations" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("apikey"); got != "test-key" {
			t.Errorf("apikey = %q", got)
		}
		if got := r.Header.Get("Prefer"); got != "return=representation" {
			t.Errorf("Prefer = %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["title"] != "Building A" {
			t.Errorf("title = %v", body["title"])
		}
		if _, ok := body["description"]; ok {
			t.Error("unsupplied description was sent")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`[{"id":7,"title":"Building A","status":"complete","created_at":"2024-05-01T08:00:00Z","location":{"latitude":13.75,"longitude":100.5}}]`))
	})

	rec, err := rest.Create(context.Background(), models.Fields{
		Title:  models.String("Building A"),
		Status: models.String(models.StatusComplete),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID != "7" {
		t.Errorf("numeric id not normalized: %q", rec.ID)
	}
	c, ok := rec.Location.Coordinate()
	if !ok || c.Latitude != 13.75 {
		t.Errorf("location = %+v", rec.Location)
	}
}

func TestRESTListQueryEncoding(t *testing.T) {
	rest := newTestREST(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("order") != "created_at.desc" {
			t.Errorf("order = %q", q.Get("order"))
		}
		if q.Get("limit") != "3" {
			t.Errorf("limit = %q", q.Get("limit"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"a","title":"one"},{"id":"b","title":"two"}]`))
	})

	recs, err := rest.List(context.Background(), ListOptions{Limit: 3, NewestFirst: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 2 || recs[0].ID != "a" {
		t.Errorf("records = %+v", recs)
	}
}

func TestRESTGetByIDMissing(t *testing.T) {
	rest := newTestREST(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id"); got != "eq.42" {
			t.Errorf("id filter = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})

	if _, err := rest.GetByID(context.Background(), "42"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRESTDeleteMissingRow(t *testing.T) {
	rest := newTestREST(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})
	if err := rest.Delete(context.Background(), "42"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRESTCountHeadRequest(t *testing.T) {
	rest := newTestREST(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
		if got := r.Header.Get("Prefer"); got != "count=exact" {
			t.Errorf("Prefer = %q", got)
		}
		if got := r.URL.Query().Get("status"); got != "neq.complete" {
			t.Errorf("status filter = %q", got)
		}
		w.Header().Set("Content-Range", "0-24/57")
		w.WriteHeader(http.StatusOK)
	})

	n, err := rest.Count(context.Background(), CountFilter{StatusNot: models.StatusComplete})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 57 {
		t.Errorf("count = %d, want 57", n)
	}
}

func TestRESTServerErrorWrapsStore(t *testing.T) {
	rest := newTestREST(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	_, err := rest.List(context.Background(), ListOptions{})
	if !errors.Is(err, apperr.ErrStore) {
		t.Errorf("err = %v, want ErrStore", err)
	}
}

func TestRESTLegacyDateFallback(t *testing.T) {
	rest := newTestREST(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"old","title":"legacy row","date":"2021-01-02T03:04:05Z","location":"beside the old gate"}]`))
	})

	recs, err := rest.List(context.Background(), ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("len = %d", len(recs))
	}
	if recs[0].CreatedAt.Year() != 2021 {
		t.Errorf("created_at fallback = %v", recs[0].CreatedAt)
	}
	if text, ok := recs[0].Location.LegacyText(); !ok || text != "beside the old gate" {
		t.Errorf("legacy location = %+v", recs[0].Location)
	}
}

func TestParseContentRangeTotal(t *testing.T) {
	if n, err := parseContentRangeTotal("*/0"); err != nil || n != 0 {
		t.Errorf("empty table = %d, %v", n, err)
	}
	if _, err := parseContentRangeTotal(""); err == nil {
		t.Error("missing header accepted")
	}
	if _, err := parseContentRangeTotal("0-9/*"); err == nil {
		t.Error("planned count accepted as exact")
	}
}
