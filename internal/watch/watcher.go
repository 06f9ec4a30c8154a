// Package watch re-runs work when files under a directory change.
package watch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Watcher monitors filesystem paths for changes and invokes a callback with
// the changed paths once events have been quiet for the debounce duration.
type Watcher struct {
	paths    []string
	filter   func(path string) bool
	onChange func(paths []string)
	debounce time.Duration
	logger   *log.Logger

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	ready   chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithFilter ignores events for paths the filter rejects.
func WithFilter(f func(path string) bool) Option {
	return func(w *Watcher) { w.filter = f }
}

// WithLogger sets the logger for watch errors.
func WithLogger(l *log.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// NewWatcher creates a Watcher over paths. Directories are watched
// recursively.
func NewWatcher(paths []string, debounce time.Duration, onChange func(paths []string), opts ...Option) *Watcher {
	w := &Watcher{
		paths:    paths,
		onChange: onChange,
		debounce: debounce,
		logger:   log.New(io.Discard),
		pending:  make(map[string]struct{}),
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Ready is closed once every path is being watched.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = fsw
	defer fsw.Close()

	for _, p := range w.paths {
		info, err := os.Stat(p)
		if err != nil {
			w.logger.Warn("not watching missing path", "path", p)
			continue
		}
		if info.IsDir() {
			err = w.addRecursive(p)
		} else {
			err = fsw.Add(p)
		}
		if err != nil {
			w.logger.Warn("failed to watch", "path", p, "err", err)
		}
	}
	close(w.ready)

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.addRecursive(event.Name)
					continue
				}
			}
			if w.filter != nil && !w.filter(event.Name) {
				continue
			}
			w.schedule(event.Name)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "err", err)

		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return nil
		}
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)
	w.onChange(paths)
}

// addRecursive adds a directory and all its subdirectories to the watcher.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				return err
			}
		}
		return nil
	})
}
