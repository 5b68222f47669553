// Package watcher keeps the code graph current while files change on disk.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/codeprism/codeprism/pkg/config"
	"github.com/codeprism/codeprism/pkg/parser"
)

// Watcher monitors a directory tree and reports changed and removed source
// files after a debounce window. Rapid successive writes to the same file
// collapse into one event.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    *config.Config
	debounce  time.Duration
	path      string

	onChange func(path string)
	onRemove func(path string)
	onError  func(err error)

	mu      sync.Mutex
	pending map[string]time.Time
	removed map[string]time.Time
}

// New creates a watcher for the given root.
func New(path string, cfg *config.Config) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	debounce := time.Duration(cfg.Watcher.DebounceMS) * time.Millisecond
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		fsWatcher: fsWatcher,
		config:    cfg,
		debounce:  debounce,
		path:      path,
		pending:   make(map[string]time.Time),
		removed:   make(map[string]time.Time),
	}, nil
}

// OnChange sets the callback for created or modified files.
func (w *Watcher) OnChange(cb func(path string)) { w.onChange = cb }

// OnRemove sets the callback for deleted files.
func (w *Watcher) OnRemove(cb func(path string)) { w.onRemove = cb }

// OnError sets the callback for watch errors.
func (w *Watcher) OnError(cb func(err error)) { w.onError = cb }

// Start watches until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	err := filepath.Walk(w.path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			for _, excluded := range w.config.Exclude.Dirs {
				if info.Name() == excluded {
					return filepath.SkipDir
				}
			}
			return w.fsWatcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	// New directories need their own watch.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.config.ShouldExclude(path) {
				_ = w.fsWatcher.Add(path)
			}
			return
		}
	}

	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		if parser.DetectLanguage(path) == parser.LangUnknown {
			return
		}
		w.mu.Lock()
		delete(w.pending, path)
		w.removed[path] = time.Now()
		w.mu.Unlock()
		return
	}

	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	if w.config.ShouldExclude(path) {
		return
	}
	if parser.DetectLanguage(path) == parser.LangUnknown {
		return
	}

	w.mu.Lock()
	delete(w.removed, path)
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending()
		}
	}
}

// processPending fires callbacks for files stable for the debounce window.
func (w *Watcher) processPending() {
	w.mu.Lock()
	now := time.Now()
	var changed, deleted []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			changed = append(changed, path)
			delete(w.pending, path)
		}
	}
	for path, last := range w.removed {
		if now.Sub(last) >= w.debounce {
			deleted = append(deleted, path)
			delete(w.removed, path)
		}
	}
	w.mu.Unlock()

	for _, path := range changed {
		if w.onChange != nil {
			w.onChange(path)
		}
	}
	for _, path := range deleted {
		if w.onRemove != nil {
			w.onRemove(path)
		}
	}
}

// Stop closes the underlying filesystem watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedPaths returns the directories currently watched.
func (w *Watcher) WatchedPaths() []string {
	return w.fsWatcher.WatchList()
}
