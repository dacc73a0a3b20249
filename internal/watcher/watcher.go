package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Reextract runs one full extraction pass and reports how many nodes
// and relationships it produced. The watcher owns when, the caller owns
// how.
type Reextract func(ctx context.Context) (nodes, relationships int, err error)

// watchedExtensions are the file types whose changes can alter the
// graph.
var watchedExtensions = map[string]bool{
	".go": true, ".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".py": true, ".md": true, ".txt": true, ".json": true,
	".prisma": true, ".sql": true, ".mod": true,
}

// Watcher watches a source tree and triggers re-extraction after
// changes settle.
type Watcher struct {
	root      string
	reextract Reextract
	fsWatcher *fsnotify.Watcher

	debounceDelay time.Duration
	pendingFiles  map[string]struct{}
	pendingMu     sync.Mutex
	debounceTimer *time.Timer

	onStart func(changed []string)
	onDone  func(nodes, relationships int, duration time.Duration)
	onError func(error)

	done chan struct{}
}

// WatcherOption configures the watcher.
type WatcherOption func(*Watcher)

// WithDebounceDelay sets how long changes must settle before a
// re-extraction starts.
func WithDebounceDelay(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounceDelay = d
	}
}

// WithOnStart sets the callback invoked when re-extraction begins.
func WithOnStart(fn func(changed []string)) WatcherOption {
	return func(w *Watcher) {
		w.onStart = fn
	}
}

// WithOnDone sets the callback invoked when re-extraction completes.
func WithOnDone(fn func(nodes, relationships int, duration time.Duration)) WatcherOption {
	return func(w *Watcher) {
		w.onDone = fn
	}
}

// WithOnError sets the callback for watch and extraction errors.
func WithOnError(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// New creates a watcher over root that calls reextract after changes.
func New(root string, reextract Reextract, opts ...WatcherOption) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:          root,
		reextract:     reextract,
		fsWatcher:     fsWatcher,
		debounceDelay: 500 * time.Millisecond,
		pendingFiles:  make(map[string]struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.addDirs(); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("add directories to watch: %w", err)
	}
	return w, nil
}

// addDirs recursively registers every source directory.
func (w *Watcher) addDirs() error {
	return filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		name := info.Name()
		if path != w.root && (strings.HasPrefix(name, ".") || name == "vendor" || name == "node_modules" || name == "dist" || name == "build") {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// Start begins watching for changes.
func (w *Watcher) Start() {
	go w.eventLoop()
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.done:
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
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	// New directories need to be registered before their files can be
	// seen.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.fsWatcher.Add(event.Name)
			return
		}
	}

	ext := strings.ToLower(filepath.Ext(event.Name))
	if !watchedExtensions[ext] {
		return
	}
	if strings.HasSuffix(event.Name, "_test.go") {
		return
	}

	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pendingFiles[event.Name] = struct{}{}
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.trigger)
}

// trigger runs one re-extraction for all changes accumulated during the
// debounce window.
func (w *Watcher) trigger() {
	w.pendingMu.Lock()
	changed := make([]string, 0, len(w.pendingFiles))
	for f := range w.pendingFiles {
		changed = append(changed, f)
	}
	w.pendingFiles = make(map[string]struct{})
	w.pendingMu.Unlock()

	if len(changed) == 0 {
		return
	}

	if w.onStart != nil {
		w.onStart(changed)
	}

	start := time.Now()
	nodes, relationships, err := w.reextract(context.Background())
	if err != nil {
		if w.onError != nil {
			w.onError(fmt.Errorf("re-extraction failed: %w", err))
		}
		return
	}

	if w.onDone != nil {
		w.onDone(nodes, relationships, time.Since(start))
	}
}
