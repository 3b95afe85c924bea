// Package watch emits debounced file events for paths selected by a
// pattern set. Excluded subtrees are never registered with the underlying
// notifier, so changes inside them are invisible, matching what a fresh
// walk of the tree would report.
package watch

import "time"

// Op classifies what happened to a watched path.
type Op int

const (
	// OpCreate marks a path that appeared.
	OpCreate Op = iota
	// OpModify marks content changes to an existing file.
	OpModify
	// OpDelete marks a path that went away.
	OpDelete
	// OpRename marks a path renamed away from its old name.
	OpRename
)

var opNames = [...]string{"CREATE", "MODIFY", "DELETE", "RENAME"}

// String returns the uppercase event tag the CLI prints.
func (op Op) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return "UNKNOWN"
	}
	return opNames[op]
}

// Event is one observed change.
type Event struct {
	// Rel names the changed path relative to the watch root.
	Rel string

	// Op classifies the change.
	Op Op

	// IsDir marks directory events.
	IsDir bool

	// At records when the change was noticed.
	At time.Time
}

// Options tunes a watcher.
type Options struct {
	// Debounce is the quiet period before a coalesced batch is emitted.
	// Default: 500ms
	Debounce time.Duration

	// PollInterval is the scan cadence when falling back to polling.
	// Default: 5s
	PollInterval time.Duration

	// BufferSize is the batch channel's capacity.
	// Default: 100
	BufferSize int

	// CacheSize is the number of match verdicts to memoize.
	// Default: 1024
	CacheSize int
}

// DefaultOptions returns the watcher settings used when none are given.
func DefaultOptions() Options {
	return Options{
		Debounce:     500 * time.Millisecond,
		PollInterval: 5 * time.Second,
		BufferSize:   100,
		CacheSize:    1024,
	}
}

// WithDefaults fills zero fields with their defaults.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.Debounce == 0 {
		o.Debounce = d.Debounce
	}
	if o.PollInterval == 0 {
		o.PollInterval = d.PollInterval
	}
	if o.BufferSize == 0 {
		o.BufferSize = d.BufferSize
	}
	if o.CacheSize == 0 {
		o.CacheSize = d.CacheSize
	}
	return o
}
