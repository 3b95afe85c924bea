package dirwalk

import (
	"errors"
	"fmt"
)

// ErrLoop reports a symbolic link cycle: a followed link resolved to one of
// the directories currently being walked above it.
var ErrLoop = errors.New("file system loop")

// Error is a non-fatal problem hit during a walk: an unreadable directory, a
// broken or cyclic symlink, an entry that vanished mid-walk. The walk
// continues after one is reported.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("walk %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
