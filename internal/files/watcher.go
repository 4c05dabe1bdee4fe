package files

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/lsr/internal/debug"
)

// DefaultDebounce is the quiet period before a batch of changes is
// delivered.
const DefaultDebounce = 200 * time.Millisecond

// FileEventType is the kind of change recorded for a path.
type FileEventType int

const (
	FileEventCreate FileEventType = iota
	FileEventWrite
	FileEventRemove
	FileEventRename
)

func (t FileEventType) String() string {
	switch t {
	case FileEventCreate:
		return "create"
	case FileEventWrite:
		return "write"
	case FileEventRemove:
		return "remove"
	case FileEventRename:
		return "rename"
	}
	return "unknown"
}

// Batch is a debounced set of changes, each path listed once.
type Batch struct {
	Changed []string
	Removed []string
}

// WatchStats counts watcher activity.
type WatchStats struct {
	Batches         int64
	EventsProcessed int64
	ErrorCount      int64
	LastEventTime   time.Time
	Watches         int
}

// Watcher reports files under a Walker's root that change, filtered by the
// walker's rules. Changes are coalesced until DefaultDebounce (or the
// configured period) passes without a new event.
type Watcher struct {
	walker   *Walker
	debounce time.Duration
	onBatch  func(Batch)

	fs     *fsnotify.Watcher
	cancel context.CancelFunc
	wg     sync.WaitGroup

	statsMu sync.RWMutex
	stats   WatchStats
}

// NewWatcher creates a watcher; onBatch runs on the watcher goroutine, so
// batches never overlap.
func NewWatcher(walker *Walker, debounce time.Duration, onBatch func(Batch)) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{walker: walker, debounce: debounce, onBatch: onBatch}
}

// Start adds watches for every directory the walker would visit and begins
// processing events until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fs = fsw
	if err := w.addWatches(w.walker.Root()); err != nil {
		fsw.Close()
		return err
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.processEvents(ctx)
	debug.LogSearch("watcher: watching %s\n", w.walker.Root())
	return nil
}

// Stop ends event processing and releases the OS watches. Pending,
// undelivered changes are dropped.
func (w *Watcher) Stop() error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()
	w.wg.Wait()
	w.cancel = nil
	return w.fs.Close()
}

// Stats returns a snapshot of watcher counters.
func (w *Watcher) Stats() WatchStats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	return w.stats
}

// addWatches walks root adding a watch per directory. Symlinked
// directories are resolved so a link cycle is only watched once.
func (w *Watcher) addWatches(root string) error {
	visited := make(map[string]bool)
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.walker.SkipDir(path) {
			return filepath.SkipDir
		}
		real, err := filepath.EvalSymlinks(path)
		if err != nil {
			return filepath.SkipDir
		}
		if visited[real] {
			return filepath.SkipDir
		}
		visited[real] = true

		if err := w.fs.Add(path); err != nil {
			debug.LogSearch("watcher: cannot watch %s: %v\n", path, err)
			return nil
		}
		w.statsMu.Lock()
		w.stats.Watches++
		w.statsMu.Unlock()
		return nil
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()

	pending := make(map[string]FileEventType)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if w.handleEvent(event, pending) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			debug.LogSearch("watcher: %v\n", err)
			w.statsMu.Lock()
			w.stats.ErrorCount++
			w.statsMu.Unlock()

		case <-timer.C:
			w.flush(pending)
			pending = make(map[string]FileEventType)
		}
	}
}

// handleEvent records event in pending and reports whether it is relevant.
func (w *Watcher) handleEvent(event fsnotify.Event, pending map[string]FileEventType) bool {
	path := event.Name
	debug.LogSearch("watcher: %v %s\n", event.Op, path)

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		if _, err := os.Stat(path); err != nil {
			pending[path] = FileEventRemove
			return true
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) && !w.walker.SkipDir(path) {
			if err := w.addWatches(path); err != nil {
				debug.LogSearch("watcher: cannot watch new directory %s: %v\n", path, err)
			}
		}
		return false
	}
	if !w.walker.Accept(path) {
		return false
	}

	switch {
	case event.Has(fsnotify.Create):
		pending[path] = FileEventCreate
	case event.Has(fsnotify.Write):
		if pending[path] != FileEventCreate {
			pending[path] = FileEventWrite
		}
	case event.Has(fsnotify.Rename):
		pending[path] = FileEventRename
	default:
		return false
	}
	return true
}

func (w *Watcher) flush(pending map[string]FileEventType) {
	if len(pending) == 0 {
		return
	}
	var batch Batch
	for path, kind := range pending {
		if kind == FileEventRemove {
			batch.Removed = append(batch.Removed, path)
		} else {
			batch.Changed = append(batch.Changed, path)
		}
	}
	sort.Strings(batch.Changed)
	sort.Strings(batch.Removed)

	w.statsMu.Lock()
	w.stats.Batches++
	w.stats.EventsProcessed += int64(len(pending))
	w.stats.LastEventTime = time.Now()
	w.statsMu.Unlock()

	debug.LogSearch("watcher: %d changed, %d removed\n", len(batch.Changed), len(batch.Removed))
	if w.onBatch != nil {
		w.onBatch(batch)
	}
}
