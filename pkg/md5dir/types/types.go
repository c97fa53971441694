// Package types provides the core data types for md5dir: manifest entries,
// manifests, and the validation rules they share. A manifest maps relative
// file paths to content checksums and is the unit of comparison for change
// detection.
package types

import (
	"errors"
	"fmt"
	"sort"
)

// ChecksumLen is the length of a hex-encoded 128-bit digest.
const ChecksumLen = 32

// ErrInvalidChecksum indicates a checksum string that is not exactly 32
// lowercase hex characters.
var ErrInvalidChecksum = errors.New("invalid checksum")

// ErrInvalidPath indicates a manifest path that cannot be stored safely.
var ErrInvalidPath = errors.New("invalid manifest path")

// ValidateChecksum reports whether s is a well-formed manifest checksum.
func ValidateChecksum(s string) error {
	if len(s) != ChecksumLen {
		return fmt.Errorf("%w: %q has length %d, want %d", ErrInvalidChecksum, s, len(s), ChecksumLen)
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return fmt.Errorf("%w: %q contains non-hex character %q", ErrInvalidChecksum, s, c)
		}
	}
	return nil
}

// ValidatePath reports whether p can be stored as a manifest path.
// Paths are relative, slash-separated, and must not contain newlines
// because the on-disk format is line oriented.
func ValidatePath(p string) error {
	if p == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	for i := 0; i < len(p); i++ {
		if p[i] == '\n' || p[i] == '\r' {
			return fmt.Errorf("%w: %q contains a line break", ErrInvalidPath, p)
		}
	}
	return nil
}

// Entry is a single manifest record: a relative path and its checksum.
type Entry struct {
	// Path is the file path relative to the manifest root, slash separated.
	Path string

	// Checksum is the lowercase hex digest of the file contents.
	Checksum string
}

// Manifest is an immutable-by-convention snapshot of a directory tree:
// one checksum per relative path. The Root annotation is used only for
// reporting and for the on-disk header; it never participates in diffs.
type Manifest struct {
	// Root is the directory the manifest describes.
	Root string

	entries map[string]string
}

// NewManifest creates an empty manifest for the given root.
func NewManifest(root string) *Manifest {
	return &Manifest{
		Root:    root,
		entries: make(map[string]string),
	}
}

// Set records the checksum for a path, replacing any previous value.
// The path and checksum are validated; invalid values are rejected so a
// manifest can never hold an entry Save would corrupt.
func (m *Manifest) Set(path, checksum string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if err := ValidateChecksum(checksum); err != nil {
		return fmt.Errorf("checksum for %q: %w", path, err)
	}
	m.entries[path] = checksum
	return nil
}

// Delete removes the entry for a path. Deleting an absent path is a no-op.
func (m *Manifest) Delete(path string) {
	delete(m.entries, path)
}

// Get returns the checksum for a path and whether the path is present.
func (m *Manifest) Get(path string) (string, bool) {
	sum, ok := m.entries[path]
	return sum, ok
}

// Has reports whether the manifest contains the path.
func (m *Manifest) Has(path string) bool {
	_, ok := m.entries[path]
	return ok
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.entries)
}

// Paths returns all paths in ascending lexicographic order.
func (m *Manifest) Paths() []string {
	paths := make([]string, 0, len(m.entries))
	for p := range m.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Entries returns all entries sorted by path. The slice is freshly
// allocated; mutating it does not affect the manifest.
func (m *Manifest) Entries() []Entry {
	entries := make([]Entry, 0, len(m.entries))
	for _, p := range m.Paths() {
		entries = append(entries, Entry{Path: p, Checksum: m.entries[p]})
	}
	return entries
}

// Equal reports whether two manifests hold exactly the same entries.
// Root annotations are not compared.
func (m *Manifest) Equal(other *Manifest) bool {
	if m.Len() != other.Len() {
		return false
	}
	for p, sum := range m.entries {
		if osum, ok := other.entries[p]; !ok || osum != sum {
			return false
		}
	}
	return true
}
