package dirwalk

import (
	"io/fs"
	"os"
)

// Entry is one filesystem object reported by a Walker.
type Entry struct {
	path  string
	rel   string
	name  string
	depth int
	mode  fs.FileMode
	link  bool
	info  fs.FileInfo
}

// Path returns the entry's path, rooted at the walk root as it was given.
func (e *Entry) Path() string { return e.path }

// Rel returns the path relative to the walk root, "." for the root itself.
func (e *Entry) Rel() string { return e.rel }

// Name returns the final path component.
func (e *Entry) Name() string { return e.name }

// Depth returns the number of components below the root. The root is 0.
func (e *Entry) Depth() int { return e.depth }

// IsDir reports whether the entry is a directory. For a symlink the walker
// followed, this reflects the target.
func (e *Entry) IsDir() bool { return e.mode.IsDir() }

// IsSymlink reports whether the entry itself is a symbolic link, even when
// the walker followed it to its target.
func (e *Entry) IsSymlink() bool { return e.link }

// Type returns the entry's type bits.
func (e *Entry) Type() fs.FileMode { return e.mode }

// Info stats the entry. Links the walker followed are followed here too, so
// the result describes what IsDir and Type describe. The walker's own stat
// result is reused when it has one.
func (e *Entry) Info() (fs.FileInfo, error) {
	if e.info != nil {
		return e.info, nil
	}
	if e.link && e.mode.IsDir() {
		return os.Stat(e.path)
	}
	return os.Lstat(e.path)
}

// String returns the entry's path.
func (e *Entry) String() string { return e.path }
