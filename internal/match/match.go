// Package match implements the glob matching used to select pages and assets.
//
// A pattern may carry several alternatives separated by "|". A path matches when any
// alternative matches the whole path or any trailing run of its segments, so "*.png"
// matches "img/a.png" and "posts/*.md" matches "site/posts/a.md".
package match

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher is a compiled set of glob alternatives.
type Matcher struct {
	pattern      string
	alternatives []string
}

// Compile validates every alternative of pattern.
func Compile(pattern string) (*Matcher, error) {
	m := &Matcher{pattern: pattern}
	for _, alt := range strings.Split(pattern, "|") {
		alt = strings.TrimSpace(alt)
		if alt == "" {
			continue
		}
		if !doublestar.ValidatePattern(alt) {
			return nil, fmt.Errorf("invalid glob %q in pattern %q", alt, pattern)
		}
		m.alternatives = append(m.alternatives, alt)
	}
	if len(m.alternatives) == 0 {
		return nil, fmt.Errorf("empty pattern %q", pattern)
	}
	return m, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string) *Matcher {
	m, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Matcher) String() string { return m.pattern }

// Match reports whether the forward-slash path p satisfies any alternative.
func (m *Matcher) Match(p string) bool {
	p = strings.TrimPrefix(path.Clean(p), "./")
	segments := strings.Split(p, "/")
	for _, alt := range m.alternatives {
		for i := range segments {
			if ok, _ := doublestar.Match(alt, strings.Join(segments[i:], "/")); ok {
				return true
			}
		}
	}
	return false
}

// IsExternal reports whether ref points outside the local asset tree: URLs with a
// scheme, protocol- or host-relative paths, bare fragments and empty values.
func IsExternal(ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, `\`) {
		return true
	}
	return hasScheme(ref)
}

// hasScheme checks for an RFC 3986 scheme followed by ':' before any path separator.
func hasScheme(ref string) bool {
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9', c == '+', c == '-', c == '.':
			if i == 0 {
				return false
			}
		case c == ':':
			return i > 0
		default:
			return false
		}
	}
	return false
}
