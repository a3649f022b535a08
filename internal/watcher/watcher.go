// Package watcher turns file system changes under note directories into import calls.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// FileFunc is called with the absolute path of a created or modified file once its
// events have settled.
type FileFunc func(ctx context.Context, path string)

// Watcher watches root directories and reports settled file changes. Removals are only
// logged: notes are never deleted because their source file went away.
type Watcher struct {
	roots     []string
	recursive bool
	accept    func(path string, isDir bool) bool
	onFile    FileFunc
	debounce  time.Duration
	syncFirst bool
	logger    *zap.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets a logger for debug output (directory changes, file events, etc.).
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce overrides how long a path must be quiet before onFile runs.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithFilter sets the predicate that decides which files are reported. Directories
// rejected by it are not descended into. The default accepts everything.
func WithFilter(accept func(path string, isDir bool) bool) WatcherOption {
	return func(w *Watcher) { w.accept = accept }
}

// WithSyncOnStart makes Run report existing files once the watches are in place, so
// files created while the sync runs are still seen as events.
func WithSyncOnStart() WatcherOption {
	return func(w *Watcher) { w.syncFirst = true }
}

// NewWatcher creates a watcher for roots. Missing roots are created on Run.
func NewWatcher(roots []string, recursive bool, onFile FileFunc, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		recursive: recursive,
		onFile:    onFile,
		debounce:  defaultDebounce,
		logger:    zap.NewNop(),
		accept:    func(string, bool) bool { return true },
		pending:   make(map[string]*time.Timer),
	}
	for _, r := range roots {
		if abs, err := filepath.Abs(r); err == nil {
			w.roots = append(w.roots, filepath.Clean(abs))
		}
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Roots returns the watched root directories.
func (w *Watcher) Roots() []string {
	return append([]string(nil), w.roots...)
}

// Run watches until ctx is cancelled. Pending debounced calls are dropped on return.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.fsw = fsw
	w.mu.Unlock()
	defer w.close()

	for _, root := range w.roots {
		if err := os.MkdirAll(root, 0755); err != nil {
			return err
		}
		if err := w.addTree(root); err != nil {
			return err
		}
	}
	w.logger.Info("watching directories", zap.Strings("roots", w.roots), zap.Bool("recursive", w.recursive))
	if w.syncFirst {
		w.Sync(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// Sync reports every accepted file already present under the roots.
func (w *Watcher) Sync(ctx context.Context) {
	for _, root := range w.roots {
		w.walkFiles(ctx, root)
	}
}

func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))

	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			if ev.Has(fsnotify.Create) && w.recursive && w.accept(path, true) {
				if err := w.addTree(path); err != nil {
					w.logger.Warn("watcher failed to add directory", zap.String("path", path), zap.Error(err))
				}
				w.walkFiles(ctx, path)
			}
			return
		}
		if w.accept(path, false) {
			w.schedule(ctx, path)
		}
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		if w.cancel(path) || w.accept(path, false) {
			w.logger.Info("source file removed; note kept", zap.String("path", path))
		}
	}
}

// addTree watches dir, and its subdirectories when recursive.
func (w *Watcher) addTree(dir string) error {
	w.mu.Lock()
	fsw := w.fsw
	w.mu.Unlock()
	if fsw == nil {
		return errors.New("watcher not running")
	}
	if !w.recursive {
		return fsw.Add(dir)
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && !w.accept(path, true) {
			return filepath.SkipDir
		}
		w.logger.Debug("watching directory", zap.String("path", path))
		return fsw.Add(path)
	})
}

func (w *Watcher) walkFiles(ctx context.Context, root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != root && (!w.recursive || !w.accept(path, true)) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.accept(path, false) {
			w.onFile(ctx, path)
		}
		return nil
	})
}

func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if prev, ok := w.pending[path]; ok && prev.Stop() {
		w.wg.Done()
	}
	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.pending[path] == t {
			delete(w.pending, path)
		}
		w.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		w.logger.Debug("watcher importing file", zap.String("path", path))
		w.onFile(ctx, path)
	})
	w.pending[path] = t
}

// cancel drops a pending call for path and reports whether there was one.
func (w *Watcher) cancel(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, ok := w.pending[path]
	if ok && t.Stop() {
		w.wg.Done()
	}
	delete(w.pending, path)
	return ok
}

func (w *Watcher) close() {
	w.mu.Lock()
	for path, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	if w.fsw != nil {
		_ = w.fsw.Close()
		w.fsw = nil
	}
	w.mu.Unlock()
	w.wg.Wait()
}

// InDir reports whether path is dir or inside it.
func InDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
