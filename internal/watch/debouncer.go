package watch

import (
	"log/slog"
	"sync"
	"time"
)

// Debouncer coalesces rapid file events so a burst of writes to the same
// path surfaces as one event. Within a window, events for one path merge
// pairwise by operation:
//
//	CREATE then MODIFY  -> CREATE (the file is still new)
//	CREATE then DELETE  -> dropped (it never really existed)
//	MODIFY then DELETE  -> DELETE
//	DELETE then CREATE  -> MODIFY (the file was replaced)
//
// Any other pair keeps the latest operation.
type Debouncer struct {
	window time.Duration

	mu      sync.Mutex
	pending map[string]*pendingEvent
	timer   *time.Timer
	output  chan []Event
	stopped bool
}

type pendingEvent struct {
	event   Event
	firstOp Op // the first operation drives the coalescing rules
}

// NewDebouncer creates a debouncer with the given window duration.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window:  window,
		pending: make(map[string]*pendingEvent),
		output:  make(chan []Event, 10),
	}
}

// Add feeds one event into the window, coalescing it with any pending
// event for the same path, and restarts the flush timer.
func (d *Debouncer) Add(event Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if existing, ok := d.pending[event.Rel]; ok {
		if merged := coalesce(existing, event); merged == nil {
			delete(d.pending, event.Rel)
		} else {
			existing.event = *merged
		}
	} else {
		d.pending[event.Rel] = &pendingEvent{event: event, firstOp: event.Op}
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

// coalesce applies the pairwise merge rules. A nil result drops the path
// from the window entirely.
func coalesce(existing *pendingEvent, next Event) *Event {
	switch {
	case existing.firstOp == OpCreate && next.Op == OpModify:
		return &existing.event
	case existing.firstOp == OpCreate && next.Op == OpDelete:
		return nil
	case existing.firstOp == OpDelete && next.Op == OpCreate:
		replaced := next
		replaced.Op = OpModify
		return &replaced
	default:
		return &next
	}
}

// flush emits everything pending as one batch.
func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || len(d.pending) == 0 {
		return
	}

	batch := make([]Event, 0, len(d.pending))
	for _, pe := range d.pending {
		batch = append(batch, pe.event)
	}
	d.pending = make(map[string]*pendingEvent)

	select {
	case d.output <- batch:
	default:
		slog.Warn("debounce batch dropped", slog.Int("events", len(batch)))
	}
}

// Output returns the channel of debounced event batches.
func (d *Debouncer) Output() <-chan []Event {
	return d.output
}

// Stop discards any pending events, cancels the timer, and closes the
// output channel. Calling it more than once is harmless.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.output)
}
