// Package manifest records which remote theme last populated a local
// snapshot directory so repeated downloads can be skipped.
package manifest

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/joshkremer/themesync/internal/fsutil"
	"github.com/joshkremer/themesync/internal/theme"
)

// FileName is the manifest file written into every downloaded directory.
const FileName = ".themesync-manifest.json"

// nowFunc is the clock used for download timestamps. Tests override it.
var nowFunc = time.Now

// Manifest is the persisted marker of a successful download.
type Manifest struct {
	ThemeID      theme.ID `json:"theme_id"`
	Title        string   `json:"title"`
	Role         string   `json:"role"`
	Store        string   `json:"store"`
	DownloadedAt string   `json:"downloaded_at"`
}

// Store reads and writes manifests on a filesystem.
type Store struct {
	fs afero.Fs
}

// NewStore creates a store over fs. A nil fs means the OS filesystem.
func NewStore(fs afero.Fs) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs}
}

// Path returns the manifest location for dir.
func Path(dir string) string { return filepath.Join(dir, FileName) }

// Read loads the manifest in dir. Missing or corrupt manifests report false.
func (s *Store) Read(dir string) (Manifest, bool) {
	data, err := afero.ReadFile(s.fs, Path(dir))
	if err != nil {
		return Manifest{}, false
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, false
	}
	return m, true
}

// IsAlreadyDownloaded reports whether dir holds a readable manifest whose
// theme id equals themeID.
func (s *Store) IsAlreadyDownloaded(dir, themeID string) bool {
	m, ok := s.Read(dir)
	if !ok || themeID == "" {
		return false
	}
	return m.ThemeID.String() == themeID
}

// Write records r as downloaded into dir, replacing any previous manifest.
func (s *Store) Write(dir string, r theme.Record, store string) error {
	m := Manifest{
		ThemeID:      r.ID,
		Title:        r.DisplayName(),
		Role:         r.Role,
		Store:        store,
		DownloadedAt: nowFunc().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	data = append(data, '\n')
	if err := fsutil.WriteFile(s.fs, Path(dir), data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}
