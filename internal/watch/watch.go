// Package watch reports batches of file changes under a project tree.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period that closes a batch of changes.
const DefaultDebounce = 500 * time.Millisecond

// DefaultIgnore lists directory names that are never watched.
var DefaultIgnore = []string{".git", "target", "node_modules", ".idea", ".vscode"}

// Watcher watches a directory tree. fsnotify is not recursive, so every
// directory is added on its own and directories created later are added
// as they appear.
type Watcher struct {
	root     string
	debounce time.Duration
	ignore   []string
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	closed   bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithIgnore adds directory names or absolute paths to skip.
func WithIgnore(names ...string) Option {
	return func(w *Watcher) {
		w.ignore = append(w.ignore, names...)
	}
}

// New creates a Watcher for root and starts watching its tree.
func New(root string, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:     root,
		debounce: DefaultDebounce,
		ignore:   slices.Clone(DefaultIgnore),
		watcher:  fsw,
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// ignored reports whether dir is excluded from watching. Hidden
// directories are skipped except the project config directory.
func (w *Watcher) ignored(dir string) bool {
	if dir == w.root {
		return false
	}
	name := filepath.Base(dir)
	for _, ig := range w.ignore {
		if ig == name || ig == dir {
			return true
		}
	}
	return strings.HasPrefix(name, ".") && name != ".featurecheck"
}

// addTree adds dir and its subdirectories.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// vanished while walking
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// Changes streams debounced batches of changed paths, sorted. The channel
// is closed when ctx is done or the watcher is closed.
func (w *Watcher) Changes(ctx context.Context) <-chan []string {
	out := make(chan []string)
	go w.loop(ctx, out)
	return out
}

func (w *Watcher) loop(ctx context.Context, out chan<- []string) {
	defer close(out)

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			pending[event.Name] = true
			timer.Reset(w.debounce)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			slices.Sort(batch)
			clear(pending)
			select {
			case out <- batch:
			case <-ctx.Done():
				return
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// overflow or transient errors: the next event resyncs
		}
	}
}

// relevant filters events and follows newly created directories.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}
	if w.ignored(filepath.Dir(event.Name)) {
		return false
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.ignored(event.Name) {
				return false
			}
			_ = w.addTree(event.Name)
		}
	}
	return true
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	return w.watcher.Close()
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.root
}
