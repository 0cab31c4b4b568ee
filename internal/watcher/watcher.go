// Package watcher reloads ranking configuration when the config or profiles file changes on disk.
package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// ReloadFunc rebuilds state from the watched files. A returned error keeps the previous state.
type ReloadFunc func() error

// ConfigWatcher watches a set of files and invokes a reload callback once writes settle.
// Parent directories are watched so editors that replace files by rename are handled.
type ConfigWatcher struct {
	files    map[string]bool
	onReload ReloadFunc
	debounce time.Duration
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	timer    *time.Timer
	dirs     map[string]bool
	done     chan struct{}
	started  bool
	stopOnce sync.Once
	logger   *zap.Logger

	reloads  int
	failures int
}

// WatcherOption configures a ConfigWatcher.
type WatcherOption func(*ConfigWatcher)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *ConfigWatcher) { w.logger = l }
}

// WithDebounce sets how long writes must be quiet before reloading.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *ConfigWatcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewConfigWatcher creates a watcher for files. Empty paths are ignored.
func NewConfigWatcher(files []string, onReload ReloadFunc, opts ...WatcherOption) *ConfigWatcher {
	w := &ConfigWatcher{
		files:    make(map[string]bool),
		onReload: onReload,
		debounce: defaultDebounce,
		dirs:     make(map[string]bool),
		done:     make(chan struct{}),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	for _, f := range files {
		if f == "" {
			continue
		}
		if abs, err := filepath.Abs(f); err == nil {
			w.files[filepath.Clean(abs)] = true
		}
	}
	return w
}

// OnReload sets the reload callback. Call it before Start.
func (w *ConfigWatcher) OnReload(fn ReloadFunc) {
	w.mu.Lock()
	w.onReload = fn
	w.mu.Unlock()
}

// Start starts watching. It runs until ctx is cancelled or Stop is called.
func (w *ConfigWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	if len(w.files) == 0 {
		w.mu.Unlock()
		return errors.New("no files to watch")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	for f := range w.files {
		if err := w.addDirLocked(filepath.Dir(f)); err != nil {
			_ = w.watcher.Close()
			w.watcher = nil
			w.mu.Unlock()
			return err
		}
	}
	w.started = true
	w.mu.Unlock()

	w.logger.Info("config watcher started", zap.Strings("files", w.Files()))
	go w.run(ctx)
	return nil
}

func (w *ConfigWatcher) addDirLocked(dir string) error {
	if w.dirs[dir] {
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	w.dirs[dir] = true
	return nil
}

func (w *ConfigWatcher) run(ctx context.Context) {
	w.mu.Lock()
	watcher := w.watcher
	w.mu.Unlock()
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Warn("config watcher error", zap.Error(err))
			}
		}
	}
}

func (w *ConfigWatcher) handleEvent(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return
	}
	path := filepath.Clean(ev.Name)
	w.mu.Lock()
	watched := w.files[path]
	w.mu.Unlock()
	if !watched {
		return
	}
	w.logger.Debug("config file changed", zap.String("op", ev.Op.String()), zap.String("path", path))
	w.scheduleReload()
}

func (w *ConfigWatcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *ConfigWatcher) reload() {
	w.mu.Lock()
	fn := w.onReload
	w.mu.Unlock()
	if fn == nil {
		return
	}
	err := fn()
	w.mu.Lock()
	if err != nil {
		w.failures++
	} else {
		w.reloads++
	}
	w.mu.Unlock()
	if err != nil {
		w.logger.Error("config reload failed; keeping previous configuration", zap.Error(err))
		return
	}
	w.logger.Info("configuration reloaded")
}

// SetFiles replaces the watched file set, e.g. after a reload changes the profiles file path.
func (w *ConfigWatcher) SetFiles(files []string) error {
	next := make(map[string]bool, len(files))
	for _, f := range files {
		if f == "" {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		next[filepath.Clean(abs)] = true
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files = next
	if w.watcher == nil {
		return nil
	}
	for f := range next {
		if err := w.addDirLocked(filepath.Dir(f)); err != nil {
			return err
		}
	}
	return nil
}

// Files returns the watched file paths.
func (w *ConfigWatcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	return out
}

// Stats returns the number of successful and failed reloads.
func (w *ConfigWatcher) Stats() (reloads, failures int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads, w.failures
}

// Stop stops the watcher and releases resources. A pending reload is cancelled.
func (w *ConfigWatcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
