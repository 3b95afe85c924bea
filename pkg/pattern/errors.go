package pattern

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPatterns is reported when a Builder holds no patterns at all.
	ErrNoPatterns = errors.New("no patterns")

	// ErrEmptyPattern is reported for a pattern that is empty after trimming
	// and prefix handling.
	ErrEmptyPattern = errors.New("empty pattern")
)

// Error reports a pattern that failed to compile. Pattern carries the text
// exactly as it was added to the Builder; it is empty when the failure is not
// tied to a single pattern.
type Error struct {
	Pattern string
	Err     error
}

func (e *Error) Error() string {
	if e.Pattern == "" {
		return fmt.Sprintf("compile patterns: %v", e.Err)
	}
	return fmt.Sprintf("compile pattern %q: %v", e.Pattern, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
