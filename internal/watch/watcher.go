package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/globwalk/pkg/dirwalk"
	"github.com/Aman-CERP/globwalk/pkg/pattern"
)

// verdictKey identifies one memoized match verdict.
type verdictKey struct {
	rel   string
	isDir bool
}

// Watcher reports changes to paths selected by a pattern set. It uses
// fsnotify when available and falls back to polling. Subtrees the pattern
// set excludes are never registered, so events inside them never surface.
type Watcher struct {
	set         *pattern.Set
	root        string
	fsw         *fsnotify.Watcher
	poller      *Poller
	useFsnotify bool
	debouncer   *Debouncer
	cache       *lru.Cache[verdictKey, pattern.Verdict]
	events      chan []Event
	errs        chan error
	stopCh      chan struct{}
	opts        Options

	mu             sync.RWMutex
	stopped        bool
	droppedBatches atomic.Uint64
}

// New creates a watcher for the base directory and rules of set.
func New(set *pattern.Set, opts Options) (*Watcher, error) {
	opts = opts.WithDefaults()

	cache, err := lru.New[verdictKey, pattern.Verdict](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create verdict cache: %w", err)
	}

	w := &Watcher{
		set:       set,
		root:      set.Base(),
		debouncer: NewDebouncer(opts.Debounce),
		cache:     cache,
		events:    make(chan []Event, opts.BufferSize),
		errs:      make(chan error, 10),
		stopCh:    make(chan struct{}),
		opts:      opts,
	}

	fsw, err := fsnotify.NewWatcher()
	if err == nil {
		w.fsw = fsw
		w.useFsnotify = true
	} else {
		w.useFsnotify = false
		w.poller = NewPoller(set, opts.PollInterval)
	}

	return w, nil
}

// Start begins watching and blocks until the context is cancelled or Stop
// is called. By the time Start returns the watcher is stopped and both the
// event and error channels are closed, so drain loops always terminate.
func (w *Watcher) Start(ctx context.Context) error {
	defer func() { _ = w.Stop() }()

	go w.forward(ctx)

	if w.useFsnotify {
		return w.startFsnotify(ctx)
	}
	return w.startPolling(ctx)
}

// startFsnotify registers the tree and runs the fsnotify event loop.
func (w *Watcher) startFsnotify(ctx context.Context) error {
	if err := w.registerTree(w.root, false); err != nil {
		return fmt.Errorf("register directories: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleFsnotify(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

// startPolling forwards poller events through the verdict filter and runs
// the poll loop.
func (w *Watcher) startPolling(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stopCh:
				return
			case event, ok := <-w.poller.Events():
				if !ok {
					return
				}
				w.add(event)
			case err, ok := <-w.poller.Errors():
				if !ok {
					return
				}
				w.emitError(err)
			}
		}
	}()

	return w.poller.Start(ctx)
}

// handleFsnotify converts one fsnotify event, maintaining dir registrations
// as the tree changes.
func (w *Watcher) handleFsnotify(event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || rel == "." {
		return
	}

	isDir := false
	if info, err := os.Stat(event.Name); err == nil {
		isDir = info.IsDir()
	}

	var op Op
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
		if isDir && !w.verdict(rel, true).Exclude() {
			// Watch the new subtree. Entries written before the watch took
			// effect are reported by the registration scan.
			if err := w.registerTree(event.Name, true); err != nil {
				w.emitError(err)
			}
		}
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRename
	default:
		// Chmod and unknown ops are noise here.
		return
	}

	w.add(Event{Rel: rel, Op: op, IsDir: isDir, At: time.Now()})
}

// add filters an event against the pattern set and hands it to the
// debouncer.
func (w *Watcher) add(ev Event) {
	// The path is gone for deletes, so recover the kind seen while it
	// existed.
	if (ev.Op == OpDelete || ev.Op == OpRename) && !ev.IsDir {
		if _, ok := w.cache.Get(verdictKey{rel: ev.Rel, isDir: true}); ok {
			ev.IsDir = true
		}
	}

	if w.verdict(ev.Rel, ev.IsDir).Include() {
		w.debouncer.Add(ev)
	}
}

// registerTree walks dir and adds every non-excluded directory to the
// fsnotify watcher. When emit is true, discovered entries are also queued
// as creates; the debouncer drops duplicates of events already seen.
func (w *Watcher) registerTree(dir string, emit bool) error {
	baseRel, err := filepath.Rel(w.root, dir)
	if err != nil {
		return fmt.Errorf("register %s: %w", dir, err)
	}

	dw := dirwalk.New(dir, dirwalk.Options{
		Descend: func(e *dirwalk.Entry) bool {
			if e.Depth() == 0 {
				return true
			}
			return !w.verdict(filepath.Join(baseRel, e.Rel()), true).Exclude()
		},
	})
	defer dw.Close()

	for {
		e, err := dw.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			w.emitError(err)
			continue
		}

		rel := filepath.Join(baseRel, e.Rel())
		if e.IsDir() {
			if w.verdict(rel, true).Exclude() {
				continue
			}
			if err := w.fsw.Add(e.Path()); err != nil {
				w.emitError(fmt.Errorf("watch %s: %w", e.Path(), err))
				continue
			}
		}

		if emit && rel != "." {
			w.add(Event{Rel: rel, Op: OpCreate, IsDir: e.IsDir(), At: time.Now()})
		}
	}
}

// verdict returns the memoized match verdict for rel.
func (w *Watcher) verdict(rel string, isDir bool) pattern.Verdict {
	key := verdictKey{rel: rel, isDir: isDir}
	if v, ok := w.cache.Get(key); ok {
		return v
	}

	v := w.set.Match(rel, isDir)
	w.cache.Add(key, v)
	return v
}

// forward moves debounced batches to the output channel.
func (w *Watcher) forward(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case events, ok := <-w.debouncer.Output():
			if !ok {
				return
			}
			if len(events) == 0 {
				continue
			}
			w.emitBatch(events)
		}
	}
}

// emitBatch sends a batch to the output channel without blocking. The read
// lock is held through the send so Stop cannot close the channel mid-send.
func (w *Watcher) emitBatch(events []Event) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		return
	}

	select {
	case w.events <- events:
	default:
		count := w.droppedBatches.Add(1)
		slog.Warn("event channel full, batch dropped",
			slog.Int("batch_size", len(events)),
			slog.Uint64("dropped_total", count),
		)
	}
}

// emitError sends an error to the error channel without blocking.
func (w *Watcher) emitError(err error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		return
	}

	select {
	case w.errs <- err:
	default:
	}
}

// Stop stops the watcher and releases resources. Safe to call multiple
// times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}

	w.stopped = true
	close(w.stopCh)

	w.debouncer.Stop()

	if w.useFsnotify && w.fsw != nil {
		_ = w.fsw.Close()
	}
	if w.poller != nil {
		_ = w.poller.Stop()
	}

	close(w.events)
	close(w.errs)
	return nil
}

// Events returns the channel that delivers debounced event batches.
func (w *Watcher) Events() <-chan []Event {
	return w.events
}

// Errors returns the channel of non-fatal errors.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// DroppedBatches returns the number of batches dropped due to a full
// buffer.
func (w *Watcher) DroppedBatches() uint64 {
	return w.droppedBatches.Load()
}

// Mode reports which detection mechanism is active.
func (w *Watcher) Mode() string {
	if w.useFsnotify {
		return "fsnotify"
	}
	return "polling"
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.root
}
