package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileAndMatch(t *testing.T) {
	t.Parallel()

	s, err := Compile([]string{"build", "*.tmp", "cache-?", "[ab]side"})
	require.NoError(t, err)

	tests := []struct {
		path string
		want bool
	}{
		{"build", true},
		{"build2", false},
		{"notes.tmp", true},
		{"sub/notes.tmp", true}, // * crosses separators, fnmatch style
		{"notes.txt", false},
		{"cache-1", true},
		{"cache-12", false},
		{"aside", true},
		{"bside", true},
		{"cside", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, s.Match(tt.path))
		})
	}
}

func TestCompileRejectsBadPattern(t *testing.T) {
	t.Parallel()

	_, err := Compile([]string{"[unterminated"})
	assert.Error(t, err)
}

func TestMatchOnNilAndEmptySet(t *testing.T) {
	t.Parallel()

	var s *Set
	assert.False(t, s.Match("anything"))
	assert.Equal(t, 0, s.Len())

	empty, err := Compile(nil)
	require.NoError(t, err)
	assert.False(t, empty.Match("anything"))
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	t.Run("valid document", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "ignore.yaml")
		require.NoError(t, os.WriteFile(path, []byte("ignore:\n  - build\n  - '*.log'\n"), 0o644))

		s, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"build", "*.log"}, s.Patterns())
		assert.True(t, s.Match("errors.log"))
		assert.False(t, s.Match("errors.txt"))
	})

	t.Run("missing file is fatal", func(t *testing.T) {
		t.Parallel()
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, ErrMalformedFile)
	})

	t.Run("unparsable document is fatal", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("ignore: {not: [a, list"), 0o644))

		_, err := LoadFile(path)
		assert.ErrorIs(t, err, ErrMalformedFile)
	})

	t.Run("document without ignore key yields empty set", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "other.yaml")
		require.NoError(t, os.WriteFile(path, []byte("other: 1\n"), 0o644))

		s, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, 0, s.Len())
	})
}
