// Package walker enumerates filesystem entries under a base directory that
// match an ordered list of glob rules. Rules follow pkg/pattern's gitignore
// line reading: plain patterns include, "!" patterns exclude, the last match
// wins. Directories an exclude rule matches are pruned, so nothing beneath
// them is opened or reported; pruning is what keeps a broad rule like
// **/*.png from resurfacing files inside an excluded directory.
//
// Walkers are lazy and pull-based: each Next call does just enough
// filesystem work to produce one entry. The base directory itself is never
// reported. Filesystem problems along the way surface inline as
// *dirwalk.Error values without ending the walk.
package walker

import (
	"errors"
	"io"
	"iter"

	"github.com/Aman-CERP/globwalk/pkg/dirwalk"
	"github.com/Aman-CERP/globwalk/pkg/pattern"
)

// Walker streams matching entries. It is single-pass and not safe for
// concurrent use. To parallelize, partition the work into disjoint roots and
// run one Walker per goroutine.
type Walker struct {
	set  *pattern.Set
	base string
	dw   *dirwalk.Walker
}

// Base returns the absolute base directory the walk is anchored to.
func (w *Walker) Base() string { return w.base }

// Next returns the next matching entry in traversal order. It returns a
// *dirwalk.Error for filesystem problems, leaving the walk resumable, and
// io.EOF once the tree is exhausted.
func (w *Walker) Next() (*dirwalk.Entry, error) {
	for {
		e, err := w.dw.Next()
		if err != nil {
			return nil, err
		}
		if e.Depth() == 0 {
			continue
		}

		v := w.set.Match(e.Rel(), e.IsDir())
		if e.IsDir() {
			switch {
			case v.Include():
				return e, nil
			case v.Exclude():
				// Pruned. In contents-first mode the descend predicate
				// already refused it; here it covers pre-order walks.
				w.dw.SkipDir()
			}
			continue
		}
		if v.Include() {
			return e, nil
		}
	}
}

// Close releases the walk's directory handles. The Walker cannot be
// restarted afterwards; Next reports io.EOF.
func (w *Walker) Close() error { return w.dw.Close() }

// All adapts the Walker to a range-over-func sequence and closes it when the
// loop ends. Inline walk errors appear as (nil, err) pairs; the io.EOF
// terminator is consumed rather than yielded.
func (w *Walker) All() iter.Seq2[*dirwalk.Entry, error] {
	return func(yield func(*dirwalk.Entry, error) bool) {
		defer func() { _ = w.Close() }()
		for {
			e, err := w.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(e, err) {
				return
			}
		}
	}
}

// shouldDescend is the pruning seam handed to dirwalk: directories the rule
// set excludes are never opened.
func (w *Walker) shouldDescend(e *dirwalk.Entry) bool {
	if e.Depth() == 0 {
		return true
	}
	return !w.set.Match(e.Rel(), true).Exclude()
}
