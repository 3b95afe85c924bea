// Package pattern compiles ordered glob rules and evaluates relative paths
// against them. Each rule is read the way a gitignore line is: a plain
// pattern includes matching paths, a leading "!" excludes them, a trailing
// "/" restricts the rule to directories, and a rule containing a separator
// is anchored to the base directory while one without matches its final
// path component at any depth. When several rules match the same path the
// last one declared wins.
package pattern

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Decision is the outcome of evaluating a path against a Set.
type Decision uint8

const (
	// DecisionNone means no rule matched the path.
	DecisionNone Decision = iota
	// DecisionInclude means the last matching rule was a plain pattern.
	DecisionInclude
	// DecisionExclude means the last matching rule was negated with "!".
	DecisionExclude
)

// String returns a human-readable name for the decision.
func (d Decision) String() string {
	switch d {
	case DecisionInclude:
		return "include"
	case DecisionExclude:
		return "exclude"
	default:
		return "none"
	}
}

// Verdict is the result of matching one path: the decision together with the
// index of the rule that produced it. Rule is -1 when no rule matched.
type Verdict struct {
	Decision Decision
	Rule     int
}

// Include reports whether the path was matched by a plain rule.
func (v Verdict) Include() bool { return v.Decision == DecisionInclude }

// Exclude reports whether the path was matched by a negated rule.
func (v Verdict) Exclude() bool { return v.Decision == DecisionExclude }

// None reports whether no rule matched the path.
func (v Verdict) None() bool { return v.Decision == DecisionNone }

// Pattern is a single compiled rule.
type Pattern struct {
	raw      string // text as added, including any "!" prefix
	glob     string // glob actually matched against paths
	negated  bool   // leading !
	dirOnly  bool   // trailing /
	anchored bool   // contains / (relative to the base)
}

// String returns the pattern text as it was added.
func (p *Pattern) String() string { return p.raw }

// Negated reports whether the rule excludes rather than includes.
func (p *Pattern) Negated() bool { return p.negated }

// DirOnly reports whether the rule matches directory entries only. Dir-only
// rules say nothing about the directory's contents; subtree effects are the
// walker's job.
func (p *Pattern) DirOnly() bool { return p.dirOnly }

// Anchored reports whether the rule is fixed to the base directory.
func (p *Pattern) Anchored() bool { return p.anchored }

// compile parses one rule line. The order of the steps matters: the "!"
// prefix is read first, then the trailing "/", then anchoring.
func compile(text string, fold bool) (*Pattern, error) {
	p := &Pattern{raw: text}

	body := strings.TrimSpace(text)
	if body == "" {
		return nil, &Error{Pattern: text, Err: ErrEmptyPattern}
	}

	// Handle escaped leading ! (literal bang) before negation.
	if strings.HasPrefix(body, `\!`) {
		body = body[1:]
	} else if strings.HasPrefix(body, "!") {
		p.negated = true
		body = body[1:]
	}

	if strings.HasSuffix(body, "/") {
		p.dirOnly = true
		body = strings.TrimSuffix(body, "/")
	}

	if strings.HasPrefix(body, "/") {
		p.anchored = true
		body = strings.TrimPrefix(body, "/")
	}
	if body == "" {
		return nil, &Error{Pattern: text, Err: ErrEmptyPattern}
	}

	// A separator anywhere else also anchors the rule. Rules without one
	// float: compiling them as **/body makes a single glob match cover
	// "final component at any depth".
	if strings.Contains(body, "/") {
		p.anchored = true
	} else {
		body = "**/" + body
	}

	if fold {
		body = strings.ToLower(body)
	}
	if !doublestar.ValidatePattern(body) {
		return nil, &Error{Pattern: text, Err: doublestar.ErrBadPattern}
	}
	p.glob = body

	return p, nil
}
