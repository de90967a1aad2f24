package objstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, APIKey: "key", Bucket: "pickcher"})
}

func TestUploadPath(t *testing.T) {
	p := UploadPath("IMG_0042.PNG")
	if !strings.HasPrefix(p, "uploads/") {
		t.Errorf("path = %q", p)
	}
	if !strings.HasSuffix(p, ".PNG") {
		t.Errorf("extension lost: %q", p)
	}
	if got := UploadPath("noext"); !strings.HasSuffix(got, ".jpg") {
		t.Errorf("missing extension should default to jpg: %q", got)
	}
	if UploadPath("a.jpg") == UploadPath("a.jpg") {
		t.Error("two upload paths collided")
	}
}

func TestUpload(t *testing.T) {
	var gotPath, gotType, gotUpsert string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotUpsert = r.Header.Get("x-upsert")
		w.WriteHeader(http.StatusOK)
	})

	if err := c.Upload(context.Background(), "uploads/1.jpg", []byte("img"), "image/jpeg"); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if gotPath != "/storage/v1/object/pickcher/uploads/1.jpg" {
		t.Errorf("path = %q", gotPath)
	}
	if gotType != "image/jpeg" || gotUpsert != "false" {
		t.Errorf("headers = %q, %q", gotType, gotUpsert)
	}
}

func TestUploadConflict(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	if err := c.Upload(context.Background(), "uploads/1.jpg", nil, ""); err == nil {
		t.Error("conflict accepted")
	}
}

func TestRemove(t *testing.T) {
	var gotMethod, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})
	if err := c.Remove(context.Background(), "uploads/1.jpg"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/storage/v1/object/pickcher/uploads/1.jpg" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
}

func TestPublicURL(t *testing.T) {
	c := New(Config{BaseURL: "https://example.test/", Bucket: "pickcher"})
	got := c.PublicURL("uploads/1.jpg")
	want := "https://example.test/storage/v1/object/public/pickcher/uploads/1.jpg"
	if got != want {
		t.Errorf("PublicURL = %q, want %q", got, want)
	}
}

func TestSignedURL(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body["expiresIn"] != float64(60) {
			t.Errorf("expiresIn = %v", body["expiresIn"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"signedURL":"/object/sign/pickcher/uploads/1.jpg?token=abc"}`))
	})

	got, err := c.SignedURL(context.Background(), "uploads/1.jpg", time.Minute)
	if err != nil {
		t.Fatalf("SignedURL: %v", err)
	}
	if !strings.HasSuffix(got, "/storage/v1/object/sign/pickcher/uploads/1.jpg?token=abc") {
		t.Errorf("url = %q", got)
	}
}
