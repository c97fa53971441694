// Package manifest reads and writes the on-disk manifest format: an
// optional "#md5dir <root>" header followed by md5sum-compatible lines of
// the form "<32 hex chars>  <relative path>". The format round-trips with
// GNU md5sum so manifests can be checked with external tooling.
package manifest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/jamesainslie/md5dir/pkg/md5dir/types"
)

// headerPrefix marks the root annotation line written by Save.
const headerPrefix = "#md5dir "

// entryLine matches one md5sum-format line: digest, a space, a space or
// asterisk (text/binary marker), then the path. Anything else is skipped.
var entryLine = regexp.MustCompile(`^([0-9a-f]{32}) [ *](.*)$`)

// Load parses the manifest at path. A missing file yields an empty
// manifest, not an error; an existing prior snapshot is never required.
// Lines that do not match the entry format are silently skipped so the
// loader tolerates headers and foreign comment lines.
func Load(path string) (*types.Manifest, error) {
	m := types.NewManifest("")

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("opening manifest %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if root, ok := parseHeader(line); ok {
			m.Root = root
			continue
		}
		match := entryLine.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		if err := m.Set(match[2], match[1]); err != nil {
			// The regexp guarantees a valid digest; only a pathological
			// path can fail here, and tolerant reads skip it.
			continue
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	return m, nil
}

// parseHeader extracts the root from a "#md5dir <root>" line.
func parseHeader(line string) (string, bool) {
	if len(line) > len(headerPrefix) && line[:len(headerPrefix)] == headerPrefix {
		return line[len(headerPrefix):], true
	}
	return "", false
}

// Save writes the manifest to path: header first, then entries in
// ascending path order, two spaces between digest and path. The write goes
// through a temp file and rename so readers never observe a partial
// manifest.
func Save(path string, m *types.Manifest) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".md5dir-*")
	if err != nil {
		return fmt.Errorf("creating temp manifest: %w", err)
	}
	tmpPath := tmp.Name()

	w := bufio.NewWriter(tmp)
	if _, err := fmt.Fprintf(w, "%s%s\n", headerPrefix, m.Root); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing manifest header: %w", err)
	}
	for _, e := range m.Entries() {
		if _, err := fmt.Fprintf(w, "%s  %s\n", e.Checksum, e.Path); err != nil {
			tmp.Close()
			_ = os.Remove(tmpPath)
			return fmt.Errorf("writing manifest entry: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("flushing manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp manifest: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming manifest into place: %w", err)
	}
	return nil
}
