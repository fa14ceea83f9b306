// Package watcher reports changes under the scan root so watch mode can rebuild.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a batch of changes is reported.
const DefaultDebounce = 100 * time.Millisecond

// IgnoreChecker is used by the watcher to check if a path should be ignored.
type IgnoreChecker interface {
	ShouldIgnoreDir(absolutePath string) bool
	ShouldIgnore(absolutePath string) bool
}

// Options configures a Watcher.
type Options struct {
	RootDir string
	Ignore  IgnoreChecker // may be nil
	// AlwaysReport lists base names that are reported even when Ignore excludes them,
	// such as the ignore file itself.
	AlwaysReport []string
	Debounce     time.Duration
	Logger       *slog.Logger
}

// Watcher provides recursive file system watching with debouncing.
type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	debouncer    *Debouncer
	ignore       IgnoreChecker
	alwaysReport map[string]bool
	rootDir      string
	logger       *slog.Logger
}

// NewWatcher creates a recursive watcher on opts.RootDir, registering every
// non-ignored directory.
func NewWatcher(opts Options) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	interval := opts.Debounce
	if interval <= 0 {
		interval = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		fsWatcher:    fsWatcher,
		debouncer:    NewDebouncer(interval),
		ignore:       opts.Ignore,
		alwaysReport: make(map[string]bool, len(opts.AlwaysReport)),
		rootDir:      opts.RootDir,
		logger:       logger,
	}
	for _, name := range opts.AlwaysReport {
		w.alwaysReport[name] = true
	}

	if err := w.addTree(opts.RootDir); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	return w, nil
}

// Events returns the channel that receives debounced batches. It is closed when Run returns.
func (w *Watcher) Events() <-chan []Event {
	return w.debouncer.Output()
}

// Run forwards file system events to the debouncer until ctx is done or the
// underlying watcher fails. It closes the watcher before returning.
func (w *Watcher) Run(ctx context.Context) {
	defer w.debouncer.Stop()
	defer w.fsWatcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// addTree watches root and every non-ignored directory below it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Skip entries that can't be read
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.isIgnoredDir(path) {
			return filepath.SkipDir
		}
		if watchErr := w.fsWatcher.Add(path); watchErr != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", watchErr)
		}
		return nil
	})
}

// handleEvent converts one fsnotify event into a debounced event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	// New directories are watched along with everything already inside them.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if w.isIgnoredDir(path) {
				return
			}
			if err := w.addTree(path); err != nil {
				w.logger.Warn("failed to watch new directory", "path", path, "error", err)
			}
			w.debouncer.Add(path, OpCreate)
			return
		}
	}

	if !w.alwaysReport[filepath.Base(path)] && w.ignore != nil && w.ignore.ShouldIgnore(path) {
		return
	}

	var op EventOp
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Write):
		op = OpWrite
	case event.Has(fsnotify.Remove):
		op = OpRemove
	case event.Has(fsnotify.Rename):
		op = OpRename
	default:
		return
	}

	w.debouncer.Add(path, op)
}

func (w *Watcher) isIgnoredDir(path string) bool {
	return w.ignore != nil && w.ignore.ShouldIgnoreDir(path)
}
