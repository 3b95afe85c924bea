// Package dirwalk walks a directory tree depth-first, one entry per call.
// Unlike path/filepath's callback walkers it is pull-based: the caller asks
// for the next entry and can stop, skip a subtree, or interleave other work
// between calls. It bounds the number of simultaneously open directory
// handles, optionally follows symbolic links with loop detection, and can
// sort siblings or yield directories after their contents.
package dirwalk

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

const (
	// DefaultMaxOpen is the open handle budget used when Options.MaxOpen
	// is zero.
	DefaultMaxOpen = 10

	// readChunk is how many directory entries are read per batch.
	readChunk = 128
)

// SortFunc orders two sibling entries as read from their parent directory.
// It reports a negative number when a sorts before b, zero when they are
// equal and a positive number otherwise.
type SortFunc func(a, b fs.DirEntry) int

// Options configure a Walker. The zero value walks everything in native
// readdir order with the default handle budget.
type Options struct {
	// MinDepth suppresses yielding entries shallower than this depth.
	// Traversal itself is unaffected. The root is depth 0.
	MinDepth int

	// MaxDepth stops descent into directories at this depth; the
	// directories themselves are still yielded. 0 means unlimited.
	MaxDepth int

	// FollowLinks resolves symbolic links to directories and walks their
	// targets. A link that resolves to an ancestor is reported as a *Error
	// wrapping ErrLoop and not entered.
	FollowLinks bool

	// MaxOpen bounds the number of simultaneously open directory handles
	// (0 = DefaultMaxOpen). When the bound is hit, the oldest open handle
	// is read to its end in memory and closed. Output order and contents
	// are unaffected.
	MaxOpen int

	// ContentsFirst yields a directory's entry after its contents instead
	// of before.
	ContentsFirst bool

	// Sort orders siblings before they are yielded. A sorted directory is
	// read fully up front. Nil keeps the native order.
	Sort SortFunc

	// Descend, when non-nil, is consulted before any subdirectory is
	// opened. Returning false skips the whole subtree; the directory's own
	// entry is still yielded.
	Descend func(*Entry) bool
}

// Walker iterates a directory tree. It is not safe for concurrent use; run
// one Walker per goroutine.
type Walker struct {
	root    string
	opts    Options
	maxOpen int

	stack   []*frame
	open    int    // frames currently holding a handle
	pending *Entry // directory yielded last call, descent decision still due
	started bool
	closed  bool
}

// frame tracks one directory being listed.
type frame struct {
	dir      *Entry
	info     fs.FileInfo // identity for loop checks, set when following links
	handle   *os.File    // nil once drained or fully read
	buf      []fs.DirEntry
	pos      int
	readErr  error // deferred listing error, surfaced after buffered entries
	deferred bool  // contents-first: yield dir when the frame is exhausted
}

// New returns a Walker rooted at root. The walk is lazy: nothing is touched
// until the first call to Next.
func New(root string, opts Options) *Walker {
	maxOpen := opts.MaxOpen
	if maxOpen <= 0 {
		maxOpen = DefaultMaxOpen
	}
	return &Walker{
		root:    filepath.Clean(root),
		opts:    opts,
		maxOpen: maxOpen,
	}
}

// Next returns the next entry in depth-first order. Filesystem problems are
// returned as a *Error and the walk continues with the next call. Once the
// tree is exhausted (or the Walker is closed), Next returns io.EOF.
func (w *Walker) Next() (*Entry, error) {
	if w.closed {
		return nil, io.EOF
	}

	if !w.started {
		w.started = true
		if e, err := w.begin(); e != nil || err != nil {
			return e, err
		}
	}

	for {
		// Descend into the directory yielded by the previous call unless
		// SkipDir cancelled it.
		if w.pending != nil {
			d := w.pending
			w.pending = nil
			if w.shouldDescend(d) {
				if err := w.pushDir(d); err != nil {
					return nil, &Error{Path: d.path, Err: err}
				}
			}
		}

		if len(w.stack) == 0 {
			return nil, io.EOF
		}

		top := w.stack[len(w.stack)-1]
		de, err := w.frameNext(top)
		if err != nil {
			// The unread rest of this directory is lost; what was already
			// buffered has been served and the walk goes on.
			return nil, &Error{Path: top.dir.path, Err: err}
		}
		if de == nil {
			w.popFrame()
			if top.deferred && top.dir.depth >= w.opts.MinDepth {
				return top.dir, nil
			}
			continue
		}

		child, werr := w.childEntry(top.dir, de)
		if werr != nil {
			return nil, werr
		}

		if child.IsDir() {
			if w.opts.ContentsFirst {
				// Contents-first emits the directory at frame pop, so the
				// descend decision has to be taken now.
				if w.shouldDescend(child) {
					if err := w.pushDir(child); err != nil {
						return nil, &Error{Path: child.path, Err: err}
					}
					continue
				}
				if child.depth >= w.opts.MinDepth {
					return child, nil
				}
				continue
			}
			w.pending = child
			if child.depth >= w.opts.MinDepth {
				return child, nil
			}
			continue
		}

		if child.depth >= w.opts.MinDepth {
			return child, nil
		}
	}
}

// SkipDir prevents descent into the directory most recently returned by
// Next. It is a no-op after non-directory entries and in contents-first
// mode, where the descent already happened.
func (w *Walker) SkipDir() {
	w.pending = nil
}

// Close releases every open directory handle. Afterwards Next returns
// io.EOF. Close may be called any number of times.
func (w *Walker) Close() error {
	w.closed = true
	w.pending = nil

	var first error
	for _, fr := range w.stack {
		if fr.handle != nil {
			if err := fr.handle.Close(); err != nil && first == nil {
				first = err
			}
			fr.handle = nil
		}
	}
	w.stack = nil
	w.open = 0
	return first
}

// begin stats the root and either yields it (pre-order), queues it, or, for
// non-directory roots, makes it the only entry of the walk.
func (w *Walker) begin() (*Entry, error) {
	info, err := os.Stat(w.root)
	if err != nil {
		return nil, &Error{Path: w.root, Err: err}
	}

	root := &Entry{
		path:  w.root,
		rel:   ".",
		name:  filepath.Base(w.root),
		depth: 0,
		mode:  info.Mode().Type(),
		info:  info,
	}

	if !root.IsDir() {
		if w.opts.MinDepth <= 0 {
			return root, nil
		}
		return nil, nil
	}

	if w.opts.ContentsFirst {
		if w.shouldDescend(root) {
			if err := w.pushDir(root); err != nil {
				return nil, &Error{Path: root.path, Err: err}
			}
			return nil, nil
		}
		if w.opts.MinDepth <= 0 {
			return root, nil
		}
		return nil, nil
	}

	w.pending = root
	if w.opts.MinDepth <= 0 {
		return root, nil
	}
	return nil, nil
}

func (w *Walker) shouldDescend(d *Entry) bool {
	if w.opts.MaxDepth > 0 && d.depth >= w.opts.MaxDepth {
		return false
	}
	if w.opts.Descend != nil && !w.opts.Descend(d) {
		return false
	}
	return true
}

// pushDir opens d for listing and puts it on the stack.
func (w *Walker) pushDir(d *Entry) error {
	var info fs.FileInfo
	if w.opts.FollowLinks {
		info = d.info
		if info == nil {
			fi, err := os.Stat(d.path)
			if err != nil {
				return err
			}
			info = fi
		}
	}

	fr := &frame{dir: d, info: info, deferred: w.opts.ContentsFirst}

	if w.opts.Sort != nil {
		// Sorting needs the whole listing; the handle is not kept.
		h, err := os.Open(d.path)
		if err != nil {
			return err
		}
		ents, rerr := h.ReadDir(-1)
		_ = h.Close()
		slices.SortStableFunc(ents, w.opts.Sort)
		fr.buf = ents
		fr.readErr = rerr
	} else {
		if w.open >= w.maxOpen {
			w.drainOldest()
		}
		h, err := os.Open(d.path)
		if err != nil {
			return err
		}
		fr.handle = h
		w.open++
	}

	w.stack = append(w.stack, fr)
	return nil
}

// drainOldest reads the oldest open frame to its end and closes its handle,
// freeing one slot in the budget.
func (w *Walker) drainOldest() {
	for _, fr := range w.stack {
		if fr.handle == nil {
			continue
		}
		rest, err := fr.handle.ReadDir(-1)
		_ = fr.handle.Close()
		fr.handle = nil
		w.open--

		remaining := fr.buf[fr.pos:]
		buf := make([]fs.DirEntry, 0, len(remaining)+len(rest))
		buf = append(buf, remaining...)
		buf = append(buf, rest...)
		fr.buf, fr.pos = buf, 0
		if err != nil {
			fr.readErr = err
		}
		return
	}
}

// frameNext returns the next raw entry of f, nil when f is exhausted.
func (w *Walker) frameNext(f *frame) (fs.DirEntry, error) {
	for {
		if f.pos < len(f.buf) {
			de := f.buf[f.pos]
			f.pos++
			return de, nil
		}
		if f.readErr != nil {
			err := f.readErr
			f.readErr = nil
			return nil, err
		}
		if f.handle == nil {
			return nil, nil
		}

		ents, err := f.handle.ReadDir(readChunk)
		if len(ents) > 0 {
			f.buf, f.pos = ents, 0
			continue
		}
		w.closeHandle(f)
		if err != nil && err != io.EOF {
			return nil, err
		}
		return nil, nil
	}
}

// childEntry builds the Entry for one listed child, resolving symlinks when
// the walker follows them.
func (w *Walker) childEntry(parent *Entry, de fs.DirEntry) (*Entry, *Error) {
	name := de.Name()
	path := filepath.Join(parent.path, name)

	e := &Entry{
		path:  path,
		rel:   filepath.Join(parent.rel, name),
		name:  name,
		depth: parent.depth + 1,
		mode:  de.Type(),
	}

	if e.mode&fs.ModeSymlink != 0 {
		e.link = true
		if w.opts.FollowLinks {
			info, err := os.Stat(path)
			if err != nil {
				return nil, &Error{Path: path, Err: err}
			}
			e.mode = info.Mode().Type()
			e.info = info
			if info.IsDir() && w.isAncestor(info) {
				return nil, &Error{Path: path, Err: ErrLoop}
			}
		}
	}

	return e, nil
}

// isAncestor reports whether info names a directory already on the stack.
func (w *Walker) isAncestor(info fs.FileInfo) bool {
	for _, fr := range w.stack {
		if fr.info != nil && os.SameFile(fr.info, info) {
			return true
		}
	}
	return false
}

func (w *Walker) popFrame() {
	f := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	w.closeHandle(f)
}

func (w *Walker) closeHandle(f *frame) {
	if f.handle != nil {
		_ = f.handle.Close()
		f.handle = nil
		w.open--
	}
}
