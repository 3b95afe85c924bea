package snapshot

import (
	"slices"
	"strings"
)

// Change classifies one difference between two snapshots.
type Change int

const (
	// Added means the path exists now but not in the snapshot.
	Added Change = iota
	// Removed means the path was in the snapshot but is gone.
	Removed
	// Modified means size, mtime, or kind changed.
	Modified
)

// String returns the diff marker for the change.
func (c Change) String() string {
	switch c {
	case Added:
		return "+"
	case Removed:
		return "-"
	case Modified:
		return "~"
	default:
		return "?"
	}
}

// Delta is one difference between two entry sets.
type Delta struct {
	Rel    string
	Change Change
	IsDir  bool
}

// Diff compares two entry sets and returns the differences sorted by path.
// Files count as modified when size or mtime changed; directories only when
// they changed kind, since their mtimes move whenever children do.
func Diff(before, after []Entry) []Delta {
	prev := make(map[string]Entry, len(before))
	for _, e := range before {
		prev[e.Rel] = e
	}

	var deltas []Delta
	seen := make(map[string]struct{}, len(after))
	for _, cur := range after {
		seen[cur.Rel] = struct{}{}
		old, ok := prev[cur.Rel]
		switch {
		case !ok:
			deltas = append(deltas, Delta{Rel: cur.Rel, Change: Added, IsDir: cur.IsDir})
		case old.IsDir != cur.IsDir:
			deltas = append(deltas, Delta{Rel: cur.Rel, Change: Modified, IsDir: cur.IsDir})
		case !cur.IsDir && (old.Size != cur.Size || !old.ModTime.Equal(cur.ModTime)):
			deltas = append(deltas, Delta{Rel: cur.Rel, Change: Modified, IsDir: false})
		}
	}

	for _, e := range before {
		if _, ok := seen[e.Rel]; !ok {
			deltas = append(deltas, Delta{Rel: e.Rel, Change: Removed, IsDir: e.IsDir})
		}
	}

	slices.SortFunc(deltas, func(a, b Delta) int {
		return strings.Compare(a.Rel, b.Rel)
	})
	return deltas
}
