package sanitize

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/joshkremer/themesync/internal/fsutil"
)

// SkippedFile is a template left untouched because it could not be read or
// parsed.
type SkippedFile struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Summary aggregates a sanitize pass over a directory.
type Summary struct {
	Dir            string        `json:"dir"`
	DryRun         bool          `json:"dry_run"`
	Scanned        int           `json:"scanned"`
	Changed        int           `json:"changed"`
	RemovedBlocks  int           `json:"removed_blocks"`
	ScrubbedBlocks int           `json:"scrubbed_blocks"`
	ChangedFiles   []string      `json:"changed_files"`
	Files          []FileResult  `json:"files,omitempty"`
	Skipped        []SkippedFile `json:"skipped,omitempty"`
}

// Sanitizer runs sanitize passes over a filesystem. Passes are serialized so
// a watcher and a command never edit the same file at once.
type Sanitizer struct {
	mu     sync.Mutex
	fs     afero.Fs
	logger *log.Logger
}

// New creates a Sanitizer. nil arguments select the OS filesystem and a
// silent logger.
func New(fsys afero.Fs, logger *log.Logger) *Sanitizer {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Sanitizer{fs: fsys, logger: logger}
}

// RemoveAppBlocks sanitizes every *.json file directly in dir. Unreadable or
// unparsable files are reported in Summary.Skipped; only a missing or
// unreadable dir is an error.
func (s *Sanitizer) RemoveAppBlocks(dir string, opts Options) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("reading templates: %w", err)
	}

	sum := &Summary{Dir: dir, DryRun: opts.DryRun, ChangedFiles: []string{}}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		sum.Scanned++
		res, err := s.sanitizeFile(filepath.Join(dir, e.Name()), e.Mode().Perm(), opts)
		if err != nil {
			sum.Skipped = append(sum.Skipped, SkippedFile{Name: e.Name(), Reason: err.Error()})
			s.logger.Warn("skipping template", "file", e.Name(), "err", err)
			continue
		}
		if !res.Changed() {
			continue
		}
		sum.Changed++
		sum.RemovedBlocks += len(res.Removed)
		sum.ScrubbedBlocks += len(res.Scrubbed)
		sum.ChangedFiles = append(sum.ChangedFiles, e.Name())
		sum.Files = append(sum.Files, res)
	}

	s.logger.Info("sanitized templates", "dir", dir, "scanned", sum.Scanned, "changed", sum.Changed,
		"removed", sum.RemovedBlocks, "scrubbed", sum.ScrubbedBlocks, "dry_run", opts.DryRun)
	return sum, nil
}

func (s *Sanitizer) sanitizeFile(path string, perm fs.FileMode, opts Options) (FileResult, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return FileResult{}, err
	}
	out, res, err := Transform(filepath.Base(path), data, opts)
	if err != nil || !res.Changed() {
		return res, err
	}
	if opts.DryRun {
		s.logger.Info("would update template", "file", res.Name, "removed", len(res.Removed), "scrubbed", len(res.Scrubbed))
		return res, nil
	}
	if perm == 0 {
		perm = 0o644
	}
	if err := fsutil.WriteFile(s.fs, path, out, perm); err != nil {
		return res, err
	}
	s.logger.Info("updated template", "file", res.Name, "removed", len(res.Removed), "scrubbed", len(res.Scrubbed))
	return res, nil
}

// CleanupResult lists what DeleteConflictFiles did.
type CleanupResult struct {
	Dir     string   `json:"dir"`
	DryRun  bool     `json:"dry_run"`
	Removed []string `json:"removed"`
	Missing []string `json:"missing"`
}

// DeleteConflictFiles removes the named files from dir. Files that do not
// exist are reported as missing. Names must be plain file names.
func (s *Sanitizer) DeleteConflictFiles(dir string, names []string, dryRun bool) (*CleanupResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := &CleanupResult{Dir: dir, DryRun: dryRun, Removed: []string{}, Missing: []string{}}
	var errs []error
	for _, name := range names {
		if name == "" || filepath.Base(name) != name {
			errs = append(errs, fmt.Errorf("invalid asset name %q", name))
			continue
		}
		path := filepath.Join(dir, name)
		exists, err := afero.Exists(s.fs, path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !exists {
			res.Missing = append(res.Missing, name)
			continue
		}
		if !dryRun {
			if err := s.fs.Remove(path); err != nil {
				errs = append(errs, fmt.Errorf("removing %s: %w", name, err))
				continue
			}
		}
		res.Removed = append(res.Removed, name)
		s.logger.Info("deleted conflicting asset", "file", name, "dry_run", dryRun)
	}
	return res, errors.Join(errs...)
}
