package watch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Aman-CERP/globwalk/pkg/dirwalk"
	"github.com/Aman-CERP/globwalk/pkg/pattern"
)

// Poller detects changes by rescanning the tree on an interval. It is the
// fallback when the platform notifier cannot be created. Excluded subtrees
// are pruned from every scan, so the poller never touches them.
type Poller struct {
	set      *pattern.Set
	interval time.Duration
	state    map[string]fileState
	events   chan Event
	errs     chan error
	stopCh   chan struct{}
	mu       sync.Mutex
	stopped  bool
}

type fileState struct {
	modTime time.Time
	size    int64
	isDir   bool
}

// NewPoller creates a poller over the base directory of set.
func NewPoller(set *pattern.Set, interval time.Duration) *Poller {
	return &Poller{
		set:      set,
		interval: interval,
		events:   make(chan Event, 100),
		errs:     make(chan error, 10),
		stopCh:   make(chan struct{}),
	}
}

// Start establishes a baseline scan and then polls for changes until the
// context is cancelled or Stop is called.
func (p *Poller) Start(ctx context.Context) error {
	base := p.snapshot()
	p.mu.Lock()
	p.state = base
	p.mu.Unlock()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = p.Stop()
			return ctx.Err()
		case <-p.stopCh:
			return nil
		case <-ticker.C:
			p.detectChanges()
		}
	}
}

// Stop stops the poller. Safe to call multiple times.
func (p *Poller) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil
	}

	p.stopped = true
	close(p.stopCh)
	close(p.events)
	close(p.errs)
	return nil
}

// Events returns the channel of raw file events. Pattern filtering happens
// in the watcher layer.
func (p *Poller) Events() <-chan Event {
	return p.events
}

// Errors returns the channel of scan errors.
func (p *Poller) Errors() <-chan error {
	return p.errs
}

// snapshot walks the tree and records the state of every candidate path.
func (p *Poller) snapshot() map[string]fileState {
	state := make(map[string]fileState)

	dw := dirwalk.New(p.set.Base(), dirwalk.Options{
		Descend: func(e *dirwalk.Entry) bool {
			if e.Depth() == 0 {
				return true
			}
			return !p.set.Match(e.Rel(), true).Exclude()
		},
	})
	defer dw.Close()

	for {
		e, err := dw.Next()
		if errors.Is(err, io.EOF) {
			return state
		}
		if err != nil {
			p.emitError(err)
			continue
		}
		if e.Depth() == 0 {
			continue
		}
		if e.IsDir() && p.set.Match(e.Rel(), true).Exclude() {
			continue
		}

		info, err := e.Info()
		if err != nil {
			// Entry vanished between readdir and stat.
			continue
		}

		state[e.Rel()] = fileState{
			modTime: info.ModTime(),
			size:    info.Size(),
			isDir:   e.IsDir(),
		}
	}
}

// detectChanges diffs the current tree against the previous scan and emits
// events for the differences.
func (p *Poller) detectChanges() {
	current := p.snapshot()

	p.mu.Lock()
	defer p.mu.Unlock()

	for rel, cur := range current {
		prev, exists := p.state[rel]
		switch {
		case !exists:
			p.emit(Event{Rel: rel, Op: OpCreate, IsDir: cur.isDir, At: time.Now()})
		case prev.modTime != cur.modTime || prev.size != cur.size:
			p.emit(Event{Rel: rel, Op: OpModify, IsDir: cur.isDir, At: time.Now()})
		}
	}

	for rel, prev := range p.state {
		if _, exists := current[rel]; !exists {
			p.emit(Event{Rel: rel, Op: OpDelete, IsDir: prev.isDir, At: time.Now()})
		}
	}

	p.state = current
}

// emit sends an event without blocking. Must be called with the lock held.
func (p *Poller) emit(event Event) {
	if p.stopped {
		return
	}

	select {
	case p.events <- event:
	default:
		slog.Warn("poller buffer full, dropping event",
			slog.String("path", event.Rel),
			slog.String("op", event.Op.String()),
		)
	}
}

// emitError sends an error without blocking.
func (p *Poller) emitError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}

	select {
	case p.errs <- err:
	default:
	}
}
