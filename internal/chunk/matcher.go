// SPDX-License-Identifier: MPL-2.0

package chunk

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

const (
	regexpPrefix = "re:"
	globPrefix   = "glob:"
)

// ErrEmptyMatcher is returned when a matcher expression is empty.
var ErrEmptyMatcher = errors.New("empty chunk matcher")

type (
	// Matcher tests a normalized module id.
	Matcher interface {
		Match(id string) bool
		String() string
	}

	// literalMatcher matches a package or directory name delimited by
	// slashes, so "vue" matches ".../vue/..." but not ".../vue-router/...".
	literalMatcher struct {
		needle string
		name   string
	}

	regexpMatcher struct {
		re *regexp.Regexp
	}

	globMatcher struct {
		pattern string
		g       glob.Glob
	}
)

// Literal returns a matcher for the /name/-delimited substring.
func Literal(name string) Matcher {
	return literalMatcher{needle: "/" + name + "/", name: name}
}

// Regexp compiles expr into an unanchored pattern matcher.
func Regexp(expr string) (Matcher, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid chunk pattern %q: %w", expr, err)
	}
	return regexpMatcher{re: re}, nil
}

// Glob compiles pattern with '/' as separator; the pattern must match the
// whole id, so "**/node_modules/echarts/**" is the usual shape.
func Glob(pattern string) (Matcher, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("invalid chunk glob %q: %w", pattern, err)
	}
	return globMatcher{pattern: pattern, g: g}, nil
}

// ParseMatcher reads the configuration form of a matcher: "re:<expr>",
// "glob:<pattern>" or a plain literal.
func ParseMatcher(s string) (Matcher, error) {
	switch {
	case strings.HasPrefix(s, regexpPrefix):
		expr := strings.TrimPrefix(s, regexpPrefix)
		if expr == "" {
			return nil, ErrEmptyMatcher
		}
		return Regexp(expr)
	case strings.HasPrefix(s, globPrefix):
		pattern := strings.TrimPrefix(s, globPrefix)
		if pattern == "" {
			return nil, ErrEmptyMatcher
		}
		return Glob(pattern)
	case s == "":
		return nil, ErrEmptyMatcher
	default:
		return Literal(s), nil
	}
}

func (m literalMatcher) Match(id string) bool { return strings.Contains(id, m.needle) }
func (m literalMatcher) String() string       { return m.name }

func (m regexpMatcher) Match(id string) bool { return m.re.MatchString(id) }
func (m regexpMatcher) String() string       { return regexpPrefix + m.re.String() }

func (m globMatcher) Match(id string) bool { return m.g.Match(id) }
func (m globMatcher) String() string       { return globPrefix + m.pattern }
