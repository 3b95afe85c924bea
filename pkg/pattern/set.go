package pattern

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Builder accumulates pattern texts for a Set anchored at a base directory.
type Builder struct {
	base        string
	texts       []string
	insensitive bool
}

// NewBuilder returns a Builder for rules evaluated against paths relative
// to base.
func NewBuilder(base string, patterns ...string) *Builder {
	b := &Builder{base: base}
	return b.Add(patterns...)
}

// Add appends patterns in declaration order. Later patterns take precedence
// over earlier ones when both match a path.
func (b *Builder) Add(patterns ...string) *Builder {
	b.texts = append(b.texts, patterns...)
	return b
}

// CaseInsensitive toggles case-insensitive matching for the whole Set.
// Pattern bodies are lowercased at compile time and candidate paths at
// match time.
func (b *Builder) CaseInsensitive(on bool) *Builder {
	b.insensitive = on
	return b
}

// Build compiles every pattern into an immutable Set. Compilation is atomic:
// the first pattern that fails aborts the build with a *Error and no Set is
// produced.
func (b *Builder) Build() (*Set, error) {
	if len(b.texts) == 0 {
		return nil, &Error{Err: ErrNoPatterns}
	}

	s := &Set{
		base:        b.base,
		rules:       make([]*Pattern, 0, len(b.texts)),
		insensitive: b.insensitive,
	}
	for _, text := range b.texts {
		p, err := compile(text, b.insensitive)
		if err != nil {
			return nil, err
		}
		s.rules = append(s.rules, p)
	}

	return s, nil
}

// Compile is shorthand for NewBuilder(base, patterns...).Build().
func Compile(base string, patterns ...string) (*Set, error) {
	return NewBuilder(base, patterns...).Build()
}

// Set is an immutable, ordered collection of compiled rules. A Set carries no
// locks and is safe for concurrent readers once built.
type Set struct {
	base        string
	rules       []*Pattern
	insensitive bool
}

// Base returns the directory the rules are anchored to.
func (s *Set) Base() string { return s.base }

// Len returns the number of rules.
func (s *Set) Len() int { return len(s.rules) }

// Rule returns the i'th rule in declaration order.
func (s *Set) Rule(i int) *Pattern { return s.rules[i] }

// Match evaluates rel, a path relative to the Set's base, and reports which
// rule decided it. Rules are consulted from last declared to first and the
// first hit wins. Passing a path that is not relative to the base is a
// caller bug; Match does not re-derive it.
func (s *Set) Match(rel string, isDir bool) Verdict {
	rel = strings.TrimPrefix(filepath.ToSlash(rel), "./")
	if rel == "" || rel == "." {
		return Verdict{Decision: DecisionNone, Rule: -1}
	}
	if s.insensitive {
		rel = strings.ToLower(rel)
	}

	for i := len(s.rules) - 1; i >= 0; i-- {
		r := s.rules[i]
		if r.dirOnly && !isDir {
			continue
		}
		if doublestar.MatchUnvalidated(r.glob, rel) {
			if r.negated {
				return Verdict{Decision: DecisionExclude, Rule: i}
			}
			return Verdict{Decision: DecisionInclude, Rule: i}
		}
	}

	return Verdict{Decision: DecisionNone, Rule: -1}
}
