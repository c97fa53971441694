// Package ignore implements glob-based ignore sets for walks and reports.
// Patterns use fnmatch-style syntax (*, ?, [seq]) and are matched against
// slash-separated relative paths; a path matching any pattern is ignored.
package ignore

import (
	"errors"
	"fmt"
	"os"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// ErrMalformedFile indicates an ignore-list document that is missing or
// cannot be parsed. Supplying a bad ignore file is fatal for the run;
// only omitting the option entirely yields an empty set.
var ErrMalformedFile = errors.New("malformed ignore file")

// Set is an ordered collection of compiled ignore patterns.
// The zero value ignores nothing.
type Set struct {
	patterns []string
	globs    []glob.Glob
}

// Compile builds a Set from glob patterns. Pattern order is preserved for
// Patterns(); matching semantics do not depend on order.
func Compile(patterns []string) (*Set, error) {
	s := &Set{
		patterns: make([]string, 0, len(patterns)),
		globs:    make([]glob.Glob, 0, len(patterns)),
	}
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling ignore pattern %q: %w", p, err)
		}
		s.patterns = append(s.patterns, p)
		s.globs = append(s.globs, g)
	}
	return s, nil
}

// ignoreDoc is the on-disk shape of an ignore-list file.
type ignoreDoc struct {
	Ignore []string `yaml:"ignore"`
}

// LoadFile reads a YAML document exposing a pattern list under the
// "ignore" key and compiles it.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedFile, path, err)
	}

	var doc ignoreDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedFile, path, err)
	}

	s, err := Compile(doc.Ignore)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedFile, path, err)
	}
	return s, nil
}

// Match reports whether the relative path matches any pattern.
func (s *Set) Match(relPath string) bool {
	if s == nil {
		return false
	}
	for _, g := range s.globs {
		if g.Match(relPath) {
			return true
		}
	}
	return false
}

// Patterns returns the source patterns in their original order.
func (s *Set) Patterns() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.patterns))
	copy(out, s.patterns)
	return out
}

// Len returns the number of patterns.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.patterns)
}
