package app

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/justyntemme/filespanel/internal/debug"
)

// DirectoryWatcher watches a set of directories and reports, debounced,
// which of them changed. fsnotify is not recursive, so every folder of the
// tree is registered on its own.
type DirectoryWatcher struct {
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	watching map[string]bool
	notify   chan string
	done     chan struct{}
	once     sync.Once
	debounce time.Duration
}

// NewDirectoryWatcher creates a watcher. A non-positive debounce uses 200ms.
func NewDirectoryWatcher(debounce time.Duration) (*DirectoryWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}

	dw := &DirectoryWatcher{
		watcher:  w,
		watching: make(map[string]bool),
		notify:   make(chan string, 10),
		done:     make(chan struct{}),
		debounce: debounce,
	}
	go dw.run()
	return dw, nil
}

// run collects events and sends a directory once it has been quiet for the
// debounce interval.
func (dw *DirectoryWatcher) run() {
	lastEvent := make(map[string]time.Time)
	tick := dw.debounce / 2
	if tick <= 0 {
		tick = dw.debounce
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-dw.done:
			return

		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if !(event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) ||
				event.Has(fsnotify.Rename) || event.Has(fsnotify.Write)) {
				continue
			}
			if dir := dw.owner(event.Name); dir != "" {
				lastEvent[dir] = time.Now()
				debug.Log(debug.WATCH, "fsnotify: %s on %s (dir %s)", event.Op, event.Name, dir)
			}

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			debug.Log(debug.WATCH, "fsnotify error: %v", err)

		case now := <-ticker.C:
			for dir, at := range lastEvent {
				if now.Sub(at) < dw.debounce {
					continue
				}
				select {
				case dw.notify <- dir:
					debug.Log(debug.WATCH, "change notification: %s", dir)
				default:
					// a refresh is already queued
				}
				delete(lastEvent, dir)
			}
		}
	}
}

// owner returns the watched directory an event path belongs to.
func (dw *DirectoryWatcher) owner(p string) string {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if parent := filepath.Dir(p); dw.watching[parent] {
		return parent
	}
	if dw.watching[p] {
		return p
	}
	return ""
}

// Watch adds a directory to the watch list
func (dw *DirectoryWatcher) Watch(path string) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	return dw.watchLocked(path)
}

func (dw *DirectoryWatcher) watchLocked(path string) error {
	if dw.watching[path] {
		return nil
	}
	if err := dw.watcher.Add(path); err != nil {
		return err
	}
	dw.watching[path] = true
	return nil
}

func (dw *DirectoryWatcher) unwatchLocked(path string) {
	if !dw.watching[path] {
		return
	}
	if err := dw.watcher.Remove(path); err != nil {
		// path may already be gone
		debug.Log(debug.WATCH, "unwatch %s: %v", path, err)
	}
	delete(dw.watching, path)
}

// Unwatch removes a directory from the watch list
func (dw *DirectoryWatcher) Unwatch(path string) {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	dw.unwatchLocked(path)
}

// Sync makes paths the exact watch list. Directories that cannot be
// watched are skipped.
func (dw *DirectoryWatcher) Sync(paths []string) {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	want := make(map[string]bool, len(paths))
	for _, p := range paths {
		want[p] = true
	}
	for p := range dw.watching {
		if !want[p] {
			dw.unwatchLocked(p)
		}
	}
	for _, p := range paths {
		if err := dw.watchLocked(p); err != nil {
			debug.Log(debug.WATCH, "watch %s: %v", p, err)
		}
	}
	debug.Log(debug.WATCH, "watching %d directories", len(dw.watching))
}

// Watching returns the number of watched directories.
func (dw *DirectoryWatcher) Watching() int {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	return len(dw.watching)
}

// Notify returns the channel that receives directory change notifications
func (dw *DirectoryWatcher) Notify() <-chan string {
	return dw.notify
}

// Close shuts down the watcher
func (dw *DirectoryWatcher) Close() error {
	var err error
	dw.once.Do(func() {
		close(dw.done)
		err = dw.watcher.Close()
	})
	return err
}
