package uploader

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// fakeStore records uploads.
type fakeStore struct {
	mu      sync.Mutex
	uploads map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{uploads: make(map[string][]byte)}
}

func (f *fakeStore) Upload(_ context.Context, key string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads[key] = data
	return nil
}

func (f *fakeStore) PublicURL(key string) string {
	return "https://example.test/public/" + key
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

func startWatcher(t *testing.T, spool string, store Store, onDone UploadedFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	w := New(spool, store, nil, onDone)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	// Give the watcher a moment to register with fsnotify.
	time.Sleep(100 * time.Millisecond)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestWatcherUploadsNewImage(t *testing.T) {
	spool := t.TempDir()
	store := newFakeStore()

	var mu sync.Mutex
	var doneName string
	startWatcher(t, spool, store, func(name, key, url string) {
		mu.Lock()
		doneName = name
		mu.Unlock()
	})

	if err := os.WriteFile(filepath.Join(spool, "site.jpg"), []byte("image bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return store.count() == 1 })
	mu.Lock()
	defer mu.Unlock()
	if doneName != "site.jpg" {
		t.Errorf("callback name = %q", doneName)
	}
}

func TestWatcherIgnoresNonImages(t *testing.T) {
	spool := t.TempDir()
	store := newFakeStore()
	startWatcher(t, spool, store, nil)

	if err := os.WriteFile(filepath.Join(spool, "notes.txt"), []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(500 * time.Millisecond)
	if store.count() != 0 {
		t.Errorf("uploads = %d, want 0", store.count())
	}
}

func TestWatcherSkipsDuplicateContent(t *testing.T) {
	spool := t.TempDir()
	store := newFakeStore()
	startWatcher(t, spool, store, nil)

	if err := os.WriteFile(filepath.Join(spool, "a.png"), []byte("same bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return store.count() == 1 })

	// A copy with identical content must not upload again.
	if err := os.WriteFile(filepath.Join(spool, "b.png"), []byte("same bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(500 * time.Millisecond)
	if store.count() != 1 {
		t.Errorf("uploads = %d, want 1", store.count())
	}
}

func TestWatcherSweepsExistingFiles(t *testing.T) {
	spool := t.TempDir()
	if err := os.WriteFile(filepath.Join(spool, "early.webp"), []byte("already here"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := newFakeStore()
	startWatcher(t, spool, store, nil)

	waitFor(t, func() bool { return store.count() == 1 })
}
