// Package workspace resolves the local directory that holds pulled theme
// files and the project root next to it.
package workspace

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// DefaultThemeDir is the directory name used for pulled theme files.
const DefaultThemeDir = "theme_files"

// Workspace is a resolved pair of directories. ProjectRoot is where auxiliary
// outputs such as snapshots go, so running from inside ThemeDir never nests
// ThemeDir inside itself.
type Workspace struct {
	ThemeDir    string `json:"theme_dir" yaml:"themeDir"`
	ProjectRoot string `json:"project_root" yaml:"projectRoot"`

	fs afero.Fs
}

// Locator finds or creates workspaces.
type Locator struct {
	fs      afero.Fs
	dirName string
}

// NewLocator creates a locator. An empty dirName means DefaultThemeDir and a
// nil fs means the OS filesystem.
func NewLocator(fs afero.Fs, dirName string) *Locator {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if dirName == "" {
		dirName = DefaultThemeDir
	}
	return &Locator{fs: fs, dirName: dirName}
}

// Locate resolves the workspace for cwd and creates ThemeDir if needed. If
// cwd is itself the theme directory its parent becomes the project root.
// The process working directory is never changed.
func (l *Locator) Locate(cwd string) (*Workspace, error) {
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", cwd, err)
	}
	ws := &Workspace{fs: l.fs}
	if filepath.Base(abs) == l.dirName {
		ws.ThemeDir = abs
		ws.ProjectRoot = filepath.Dir(abs)
	} else {
		ws.ThemeDir = filepath.Join(abs, l.dirName)
		ws.ProjectRoot = abs
	}
	if err := l.fs.MkdirAll(ws.ThemeDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating theme directory: %w", err)
	}
	return ws, nil
}

// Resolve makes p absolute against the project root. Absolute paths are
// returned cleaned.
func (w *Workspace) Resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(w.ProjectRoot, p)
}

// TemplatesDir is the directory holding JSON templates.
func (w *Workspace) TemplatesDir() string { return filepath.Join(w.ThemeDir, "templates") }

// AssetsDir is the directory holding theme assets.
func (w *Workspace) AssetsDir() string { return filepath.Join(w.ThemeDir, "assets") }

// Rebuild deletes ThemeDir with everything in it and recreates it empty.
func (w *Workspace) Rebuild() error {
	if err := w.fs.RemoveAll(w.ThemeDir); err != nil {
		return fmt.Errorf("removing %s: %w", w.ThemeDir, err)
	}
	if err := w.fs.MkdirAll(w.ThemeDir, 0o755); err != nil {
		return fmt.Errorf("recreating %s: %w", w.ThemeDir, err)
	}
	return nil
}
