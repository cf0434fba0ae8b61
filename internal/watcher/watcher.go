// Package watcher keeps the index in step with directories of API spec files.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hyperjump/apiquery/internal/extract"
	"github.com/hyperjump/apiquery/internal/indexer"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Sink receives the spec files the watcher sees change.
type Sink interface {
	IndexFile(ctx context.Context, path string) (*indexer.IngestResult, error)
	DeleteFile(ctx context.Context, path string) error
}

// Watcher watches spec directories and forwards debounced changes to a Sink.
type Watcher struct {
	sink       Sink
	roots      []string
	extensions []string
	recursive  bool
	debounce   time.Duration
	logger     *zap.Logger

	mu        sync.Mutex
	ctx       context.Context
	fsw       *fsnotify.Watcher
	pending   map[string]*time.Timer
	rootPaths map[string][]string // root -> directories added to fsw for it
	done      chan struct{}
	stopOnce  sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithExtensions restricts the watched files. The default is every extension the loader accepts.
func WithExtensions(exts []string) Option {
	return func(w *Watcher) {
		if len(exts) > 0 {
			w.extensions = exts
		}
	}
}

// WithRecursive controls whether subdirectories are watched. Default true.
func WithRecursive(recursive bool) Option {
	return func(w *Watcher) { w.recursive = recursive }
}

// WithDebounce sets how long a file must be quiet before it is indexed.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher for roots. Nothing is watched until Start.
func New(sink Sink, roots []string, opts ...Option) *Watcher {
	w := &Watcher{
		sink:       sink,
		roots:      append([]string(nil), roots...),
		extensions: extract.SupportedExtensions,
		recursive:  true,
		debounce:   defaultDebounce,
		logger:     zap.NewNop(),
		pending:    make(map[string]*time.Timer),
		rootPaths:  make(map[string][]string),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. Missing roots are created. The watcher runs until ctx is
// cancelled or Stop is called; ctx is also passed to the sink.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.fsw != nil {
		w.mu.Unlock()
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.fsw = fsw
	w.ctx = ctx
	w.logger.Info("watcher starting",
		zap.Strings("roots", w.roots),
		zap.Strings("extensions", w.extensions),
		zap.Bool("recursive", w.recursive))
	for i, root := range w.roots {
		abs, err := filepath.Abs(root)
		if err == nil {
			err = w.addRootLocked(abs)
		}
		if err != nil {
			_ = fsw.Close()
			w.fsw = nil
			w.mu.Unlock()
			return err
		}
		w.roots[i] = abs
	}
	w.mu.Unlock()
	go w.run(ctx, fsw)
	return nil
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := ev.Name
	if !w.underRoot(path) {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			if ev.Has(fsnotify.Create) {
				w.handleNewDirectory(path)
			}
			return
		}
		if matchExtension(path, w.extensions) {
			w.schedule(path)
		}
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		// A rename reports the old name; the new name arrives as a Create.
		w.cancel(path)
		if matchExtension(path, w.extensions) {
			w.remove(path)
		}
	}
}

// handleNewDirectory watches a directory created or moved under a root and indexes its files.
func (w *Watcher) handleNewDirectory(dir string) {
	w.mu.Lock()
	fsw := w.fsw
	recursive := w.recursive
	w.mu.Unlock()
	if fsw == nil {
		return
	}
	if recursive {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if err := fsw.Add(path); err != nil {
					w.logger.Warn("watcher failed to add directory", zap.String("path", path), zap.Error(err))
				}
			}
			return nil
		})
	} else if err := fsw.Add(dir); err != nil {
		w.logger.Warn("watcher failed to add directory", zap.String("path", dir), zap.Error(err))
	}
	w.syncDirectory(dir)
}

func (w *Watcher) underRoot(path string) bool {
	w.mu.Lock()
	roots := append([]string(nil), w.roots...)
	w.mu.Unlock()
	clean := filepath.Clean(path)
	for _, root := range roots {
		if inDir(filepath.Clean(root), clean) {
			return true
		}
	}
	return false
}

func inDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.index(path)
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) sinkContext() context.Context {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ctx == nil {
		return context.Background()
	}
	return w.ctx
}

func (w *Watcher) index(path string) {
	res, err := w.sink.IndexFile(w.sinkContext(), path)
	if err != nil {
		w.logger.Warn("watcher could not index file", zap.String("path", path), zap.Error(err))
		return
	}
	w.logger.Debug("watcher indexed file", zap.String("path", path), zap.Int("chunks", res.Chunks))
}

func (w *Watcher) remove(path string) {
	if err := w.sink.DeleteFile(w.sinkContext(), path); err != nil {
		w.logger.Warn("watcher could not remove file", zap.String("path", path), zap.Error(err))
		return
	}
	w.logger.Debug("watcher removed file", zap.String("path", path))
}

// AddDirectory starts watching root and, if syncExisting, indexes the files already in it
// in the background. Adding a watched root again is a no-op.
func (w *Watcher) AddDirectory(root string, syncExisting bool) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw == nil {
		return nil
	}
	for _, r := range w.roots {
		if filepath.Clean(r) == filepath.Clean(abs) {
			return nil
		}
	}
	if err := w.addRootLocked(abs); err != nil {
		return err
	}
	w.roots = append(w.roots, abs)
	w.logger.Info("watcher directory added", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if syncExisting {
		go w.syncDirectory(abs)
	}
	return nil
}

func (w *Watcher) addRootLocked(root string) error {
	root = filepath.Clean(root)
	if _, err := os.Stat(root); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		if err := os.MkdirAll(root, 0755); err != nil {
			return err
		}
	}
	var paths []string
	if w.recursive {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if err := w.fsw.Add(path); err != nil {
				return err
			}
			paths = append(paths, path)
			return nil
		})
		if err != nil {
			return err
		}
	} else {
		if err := w.fsw.Add(root); err != nil {
			return err
		}
		paths = append(paths, root)
	}
	w.rootPaths[root] = paths
	return nil
}

func (w *Watcher) syncDirectory(root string) {
	w.mu.Lock()
	recursive := w.recursive
	w.mu.Unlock()
	w.logger.Debug("watcher syncing directory", zap.String("root", root))
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if matchExtension(path, w.extensions) {
			w.index(path)
		}
		return nil
	})
}

// RemoveDirectory stops watching root. Documents already indexed from it stay indexed.
func (w *Watcher) RemoveDirectory(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	abs = filepath.Clean(abs)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw == nil {
		return nil
	}
	idx := -1
	for i, r := range w.roots {
		if filepath.Clean(r) == abs {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	for _, p := range w.rootPaths[abs] {
		_ = w.fsw.Remove(p)
	}
	delete(w.rootPaths, abs)
	w.roots = append(w.roots[:idx], w.roots[idx+1:]...)
	w.logger.Info("watcher directory removed", zap.String("path", abs))
	return nil
}

// Directories returns the watched roots.
func (w *Watcher) Directories() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.roots...)
}

// SyncExistingFiles indexes the matching files already present under every root.
func (w *Watcher) SyncExistingFiles() {
	for _, root := range w.Directories() {
		w.syncDirectory(root)
	}
}

// Stop stops watching and drops pending debounced work.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.fsw == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	_ = w.fsw.Close()
	w.fsw = nil
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
