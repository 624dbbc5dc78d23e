// Package watch re-checks snippet files as they change on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/snippetgate/internal/batch"
	"github.com/standardbeagle/snippetgate/internal/debug"
)

// EventType is the kind of change seen for a path
type EventType int

const (
	EventCreate EventType = iota
	EventWrite
	EventRemove
	EventRename
)

// Stats describes watch activity so far
type Stats struct {
	Batches         int64
	EventsProcessed int64
	ErrorCount      int64
	LastEventTime   time.Time
	IsActive        bool
}

// Watcher monitors a project tree and hands debounced batches of changed
// snippet files to a callback
type Watcher struct {
	fsw      *fsnotify.Watcher
	scanner  *batch.Scanner
	debounce time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	onChanged func(ctx context.Context, paths []string)
	onRemoved func(paths []string)

	mu      sync.Mutex
	pending map[string]EventType
	timer   *time.Timer
	flushCh chan struct{}

	statsMu sync.RWMutex
	stats   Stats
}

// New creates a watcher over the scanner's root. Files are filtered with
// the scanner's include, exclude and gitignore rules.
func New(scanner *batch.Scanner, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		fsw:      fsw,
		scanner:  scanner,
		debounce: debounce,
		ctx:      ctx,
		cancel:   cancel,
		pending:  make(map[string]EventType),
		flushCh:  make(chan struct{}, 1),
	}, nil
}

// SetCallbacks sets the handlers for changed and removed files. Both run on
// the watcher's goroutine, one batch at a time, with paths sorted.
func (w *Watcher) SetCallbacks(onChanged func(ctx context.Context, paths []string), onRemoved func(paths []string)) {
	w.onChanged = onChanged
	w.onRemoved = onRemoved
}

// Start adds watches for every directory under the root and begins
// processing events
func (w *Watcher) Start() error {
	root := w.scanner.Root()
	debug.LogWatch("watch: starting on %s\n", root)
	if err := w.addWatches(root); err != nil {
		return fmt.Errorf("failed to add watches starting from %s: %w", root, err)
	}
	w.wg.Add(1)
	go w.processEvents()
	return nil
}

// Stop stops watching and waits for an in-flight batch to finish. Pending
// events that have not been flushed are dropped.
func (w *Watcher) Stop() error {
	w.cancel()
	err := w.fsw.Close()
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	w.wg.Wait()
	return err
}

// Run starts the watcher and blocks until ctx is done
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-w.ctx.Done():
	}
	return w.Stop()
}

func (w *Watcher) addWatches(root string) error {
	visited := make(map[string]bool)
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			return filepath.SkipDir
		}
		if visited[resolved] {
			return filepath.SkipDir
		}
		visited[resolved] = true
		if path != root && w.ignoredDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			debug.LogWatch("watch: failed to add watch for %s: %v\n", path, err)
		}
		return nil
	})
}

func (w *Watcher) ignoredDir(path string) bool {
	rel, err := filepath.Rel(w.scanner.Root(), path)
	if err != nil {
		return false
	}
	return w.scanner.IgnoresDir(filepath.ToSlash(rel))
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			debug.LogWatch("watch: %v\n", err)
			w.incrementStats(0, 1, false)
		case <-w.flushCh:
			w.flush()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	info, err := os.Stat(path)
	if err != nil {
		if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && w.scanner.Matches(path) {
			w.addEvent(path, EventRemove)
		}
		return
	}
	if info.IsDir() {
		if event.Op&fsnotify.Create != 0 && !w.ignoredDir(path) {
			if err := w.addWatches(path); err != nil {
				debug.LogWatch("watch: failed to watch new directory %s: %v\n", path, err)
			}
		}
		return
	}
	if !w.scanner.Matches(path) {
		return
	}

	var eventType EventType
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = EventCreate
	case event.Op&fsnotify.Write != 0:
		eventType = EventWrite
	case event.Op&fsnotify.Rename != 0:
		eventType = EventRename
	default:
		return
	}
	w.addEvent(path, eventType)
}

// addEvent records the latest event for path and restarts the debounce
// timer
func (w *Watcher) addEvent(path string, eventType EventType) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = eventType
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.flushCh <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) flush() {
	w.mu.Lock()
	events := w.pending
	w.pending = make(map[string]EventType)
	w.mu.Unlock()
	if len(events) == 0 {
		return
	}

	var changed, removed []string
	for path, eventType := range events {
		if eventType == EventRemove {
			removed = append(removed, path)
		} else {
			changed = append(changed, path)
		}
	}
	sort.Strings(changed)
	sort.Strings(removed)
	debug.LogWatch("watch: %d changed, %d removed\n", len(changed), len(removed))

	if len(removed) > 0 && w.onRemoved != nil {
		w.onRemoved(removed)
	}
	if len(changed) > 0 && w.onChanged != nil {
		w.onChanged(w.ctx, changed)
	}
	w.incrementStats(int64(len(events)), 0, true)
}

func (w *Watcher) incrementStats(events, errors int64, flushed bool) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.EventsProcessed += events
	w.stats.ErrorCount += errors
	if flushed {
		w.stats.Batches++
		w.stats.LastEventTime = time.Now()
	}
}

// Stats returns current watch statistics
func (w *Watcher) Stats() Stats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	s := w.stats
	s.IsActive = w.ctx.Err() == nil
	return s
}
