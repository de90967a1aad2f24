// Package prefs persists the theme preference in a single file, the
// on-device analogue of the mobile key-value store.
package prefs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sornchai/sitetrack/internal/models"
)

// Store reads and writes the theme preference. Toggles are serialized so
// two in-flight toggles cannot lose each other's write.
type Store struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewStore creates a store persisting at path.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}
}

// Load returns the persisted theme. An absent or corrupt value yields
// light without an error.
func (s *Store) Load() models.Theme {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return models.ThemeLight
	}
	theme := models.Theme(strings.TrimSpace(string(data)))
	if !theme.Valid() {
		return models.ThemeLight
	}
	return theme
}

// ToggleAndPersist flips the theme and writes it. A failed write is
// logged but the flipped value is still returned so the session keeps
// its visual state.
func (s *Store) ToggleAndPersist(current models.Theme) models.Theme {
	next := current.Toggle()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(next); err != nil {
		s.logger.Warn("prefs: persist failed", slog.String("error", err.Error()))
	}
	return next
}

// write atomically replaces the preference file: tmp file → fsync → rename.
func (s *Store) write(theme models.Theme) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("prefs: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".theme-tmp-*")
	if err != nil {
		return fmt.Errorf("prefs: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.WriteString(string(theme) + "\n"); err != nil {
		return fmt.Errorf("prefs: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("prefs: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("prefs: close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("prefs: rename: %w", err)
	}
	success = true
	return nil
}
