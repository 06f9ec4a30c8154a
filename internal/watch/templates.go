package watch

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/joshkremer/themesync/internal/sanitize"
)

// DefaultDebounce is how long template events must be quiet before a pass.
const DefaultDebounce = 300 * time.Millisecond

// TemplateSanitizer re-sanitizes a templates directory when its JSON files
// change, for example when `theme dev` syncs app blocks back from the editor.
// Files it wrote itself are recognised by content hash and do not trigger
// another pass.
type TemplateSanitizer struct {
	sanitizer *sanitize.Sanitizer
	fs        afero.Fs
	dir       string
	opts      sanitize.Options
	logger    *log.Logger

	mu      sync.Mutex
	written map[string]uint64
}

// NewTemplateSanitizer creates a TemplateSanitizer for dir.
func NewTemplateSanitizer(s *sanitize.Sanitizer, fs afero.Fs, dir string, opts sanitize.Options, logger *log.Logger) *TemplateSanitizer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &TemplateSanitizer{
		sanitizer: s,
		fs:        fs,
		dir:       dir,
		opts:      opts,
		logger:    logger,
		written:   make(map[string]uint64),
	}
}

// IsTemplate reports whether path is a JSON file directly in the templates
// directory.
func (t *TemplateSanitizer) IsTemplate(path string) bool {
	return filepath.Dir(path) == filepath.Clean(t.dir) && strings.EqualFold(filepath.Ext(path), ".json")
}

// HandleChanges runs a sanitize pass unless every changed path still holds
// exactly what the previous pass wrote. A nil summary means nothing ran.
func (t *TemplateSanitizer) HandleChanges(paths []string) (*sanitize.Summary, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	external := false
	for _, p := range paths {
		if !t.isOwnWrite(p) {
			external = true
			break
		}
	}
	if !external {
		t.logger.Debug("ignoring own template writes", "files", len(paths))
		return nil, nil
	}

	sum, err := t.sanitizer.RemoveAppBlocks(t.dir, t.opts)
	if err != nil {
		return nil, err
	}
	if !t.opts.DryRun {
		for _, name := range sum.ChangedFiles {
			t.remember(filepath.Join(t.dir, name))
		}
	}
	return sum, nil
}

func (t *TemplateSanitizer) isOwnWrite(path string) bool {
	want, ok := t.written[path]
	if !ok {
		return false
	}
	data, err := afero.ReadFile(t.fs, path)
	if err != nil {
		delete(t.written, path)
		return false
	}
	if xxhash.Sum64(data) != want {
		delete(t.written, path)
		return false
	}
	return true
}

func (t *TemplateSanitizer) remember(path string) {
	data, err := afero.ReadFile(t.fs, path)
	if err != nil {
		return
	}
	t.written[path] = xxhash.Sum64(data)
}

// Run watches the templates directory until ctx is cancelled. report is
// called after every pass that changed something.
func (t *TemplateSanitizer) Run(ctx context.Context, debounce time.Duration, report func(*sanitize.Summary)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := NewWatcher([]string{t.dir}, debounce, func(paths []string) {
		sum, err := t.HandleChanges(paths)
		if err != nil {
			t.logger.Error("sanitize after change failed", "dir", t.dir, "err", err)
			return
		}
		if sum != nil && sum.Changed > 0 && report != nil {
			report(sum)
		}
	}, WithFilter(t.IsTemplate), WithLogger(t.logger))
	t.logger.Info("watching templates", "dir", t.dir)
	return w.Run(ctx)
}
