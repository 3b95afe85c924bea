package walker

import (
	"path/filepath"

	"github.com/Aman-CERP/globwalk/pkg/dirwalk"
	"github.com/Aman-CERP/globwalk/pkg/pattern"
)

// Builder assembles a Walker. The zero knobs walk without depth limits, in
// native sibling order, case-sensitively, without following symlinks.
type Builder struct {
	base          string
	patterns      []string
	minDepth      int
	maxDepth      int
	followLinks   bool
	maxOpen       int
	contentsFirst bool
	insensitive   bool
	sort          dirwalk.SortFunc
}

// NewBuilder starts a Builder matching patterns against base. Patterns are
// kept in declaration order; later ones take precedence.
func NewBuilder(base string, patterns ...string) *Builder {
	return &Builder{base: base, patterns: patterns}
}

// Patterns appends more patterns after the ones already added.
func (b *Builder) Patterns(patterns ...string) *Builder {
	b.patterns = append(b.patterns, patterns...)
	return b
}

// MinDepth suppresses entries shallower than n. The base is depth 0.
func (b *Builder) MinDepth(n int) *Builder {
	b.minDepth = n
	return b
}

// MaxDepth stops descent into directories at depth n. 0 means unlimited.
func (b *Builder) MaxDepth(n int) *Builder {
	b.maxDepth = n
	return b
}

// FollowLinks walks through symlinks to directories. Link cycles surface as
// inline walk errors.
func (b *Builder) FollowLinks(on bool) *Builder {
	b.followLinks = on
	return b
}

// MaxOpen bounds the simultaneously open directory handles. 0 keeps
// dirwalk.DefaultMaxOpen.
func (b *Builder) MaxOpen(n int) *Builder {
	b.maxOpen = n
	return b
}

// ContentsFirst reports directories after their contents.
func (b *Builder) ContentsFirst(on bool) *Builder {
	b.contentsFirst = on
	return b
}

// CaseInsensitive matches patterns without regard to case.
func (b *Builder) CaseInsensitive(on bool) *Builder {
	b.insensitive = on
	return b
}

// SortBy orders siblings with cmp before they are considered. Sorting forces
// each directory to be read fully.
func (b *Builder) SortBy(cmp dirwalk.SortFunc) *Builder {
	b.sort = cmp
	return b
}

// Build resolves the base, compiles the patterns and returns the Walker.
// Malformed patterns are the only build failures; they arrive as a
// *pattern.Error and nothing is walked. Problems with the base itself are
// walk-time errors, not build errors.
func (b *Builder) Build() (*Walker, error) {
	base, err := filepath.Abs(b.base)
	if err != nil {
		return nil, err
	}

	set, err := pattern.NewBuilder(base, b.patterns...).
		CaseInsensitive(b.insensitive).
		Build()
	if err != nil {
		return nil, err
	}

	w := &Walker{set: set, base: base}
	w.dw = dirwalk.New(base, dirwalk.Options{
		MinDepth:      b.minDepth,
		MaxDepth:      b.maxDepth,
		FollowLinks:   b.followLinks,
		MaxOpen:       b.maxOpen,
		ContentsFirst: b.contentsFirst,
		Sort:          b.sort,
		Descend:       w.shouldDescend,
	})
	return w, nil
}

// Glob matches a single pattern against the current working directory,
// the one-liner for the common case.
func Glob(pat string) (*Walker, error) {
	return NewBuilder(".", pat).Build()
}
