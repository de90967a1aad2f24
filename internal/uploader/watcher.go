// Package uploader watches a spool directory and pushes dropped-in
// photos to the object-storage bucket. Field technicians copy images
// into the spool; everything else is automatic.
package uploader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sornchai/sitetrack/internal/objstore"
)

// debounce delays an upload after the last write event so partially
// copied files are not shipped mid-write.
const debounce = 200 * time.Millisecond

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".heic": true,
}

// Store is the destination bucket surface the watcher needs.
type Store interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
}

// UploadedFunc is called after each successful upload with the local
// filename, the object key, and the public URL.
type UploadedFunc func(name, key, url string)

// Watcher uploads new spool files exactly once, keyed by content
// checksum so rename and duplicate events do not re-upload.
type Watcher struct {
	spool  string
	store  Store
	logger *slog.Logger
	onDone UploadedFunc

	mu       sync.Mutex
	uploaded map[string]string // sha256 hex -> object key
	timers   map[string]*time.Timer
}

// New creates a watcher over the spool directory.
func New(spool string, store Store, logger *slog.Logger, onDone UploadedFunc) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		spool:    spool,
		store:    store,
		logger:   logger,
		onDone:   onDone,
		uploaded: make(map[string]string),
		timers:   make(map[string]*time.Timer),
	}
}

// Run processes spool events until ctx is cancelled. Files already in
// the spool at start are uploaded first.
func (u *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(u.spool, 0o755); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(u.spool); err != nil {
		return err
	}

	u.logger.Info("uploader: started", slog.String("spool", u.spool))
	u.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			u.stopTimers()
			u.logger.Info("uploader: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !imageExts[strings.ToLower(filepath.Ext(ev.Name))] {
				continue
			}
			u.schedule(ctx, ev.Name)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			u.logger.Error("uploader: watch error", slog.String("error", watchErr.Error()))
		}
	}
}

// sweep uploads any images that were waiting in the spool before the
// watcher came up.
func (u *Watcher) sweep(ctx context.Context) {
	entries, err := os.ReadDir(u.spool)
	if err != nil {
		u.logger.Warn("uploader: sweep failed", slog.String("error", err.Error()))
		return
	}
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		u.upload(ctx, filepath.Join(u.spool, e.Name()))
	}
}

// schedule (re)arms the per-file debounce timer.
func (u *Watcher) schedule(ctx context.Context, path string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if t, ok := u.timers[path]; ok {
		t.Reset(debounce)
		return
	}
	u.timers[path] = time.AfterFunc(debounce, func() {
		u.mu.Lock()
		delete(u.timers, path)
		u.mu.Unlock()
		u.upload(ctx, path)
	})
}

func (u *Watcher) stopTimers() {
	u.mu.Lock()
	defer u.mu.Unlock()
	for path, t := range u.timers {
		t.Stop()
		delete(u.timers, path)
	}
}

func (u *Watcher) upload(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		u.logger.Warn("uploader: read failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	sum := sha256.Sum256(data)
	cs := hex.EncodeToString(sum[:])

	u.mu.Lock()
	if key, done := u.uploaded[cs]; done {
		u.mu.Unlock()
		u.logger.Debug("uploader: already uploaded", slog.String("path", path), slog.String("key", key))
		return
	}
	u.mu.Unlock()

	name := filepath.Base(path)
	key := objstore.UploadPath(name)
	contentType := mime.TypeByExtension(filepath.Ext(name))

	if err := u.store.Upload(ctx, key, data, contentType); err != nil {
		u.logger.Warn("uploader: upload failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}

	u.mu.Lock()
	u.uploaded[cs] = key
	u.mu.Unlock()

	url := u.store.PublicURL(key)
	u.logger.Info("uploader: uploaded",
		slog.String("name", name),
		slog.String("key", key),
		slog.String("url", url))
	if u.onDone != nil {
		u.onDone(name, key, url)
	}
}
