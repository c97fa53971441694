package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/md5dir/pkg/md5dir/hashcache"
	"github.com/jamesainslie/md5dir/pkg/md5dir/ignore"
)

func write(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestBuildProducesSortedManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write(t, dir, "b.txt", "world")
	write(t, dir, "a.txt", "hello")
	write(t, dir, "sub/c.txt", "")

	m, problems, err := Build(context.Background(), dir, Options{})
	require.NoError(t, err)
	assert.Empty(t, problems)

	assert.Equal(t, dir, m.Root)
	assert.Equal(t, []string{"a.txt", "b.txt", "sub/c.txt"}, m.Paths())

	sum, ok := m.Get("a.txt")
	require.True(t, ok)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", sum)

	sum, ok = m.Get("sub/c.txt")
	require.True(t, ok)
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", sum)
}

func TestBuildAppliesIgnoreSet(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write(t, dir, "keep.txt", "x")
	write(t, dir, "build/out.txt", "y")
	write(t, dir, "trace.log", "z")

	ig, err := ignore.Compile([]string{"build", "*.log"})
	require.NoError(t, err)

	m, _, err := Build(context.Background(), dir, Options{Ignore: ig})
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.txt"}, m.Paths())
}

func TestBuildSkipsUnreadableFiles(t *testing.T) {
	t.Parallel()
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	dir := t.TempDir()
	write(t, dir, "open.txt", "fine")
	write(t, dir, "locked.txt", "secret")
	require.NoError(t, os.Chmod(filepath.Join(dir, "locked.txt"), 0o000))
	t.Cleanup(func() { _ = os.Chmod(filepath.Join(dir, "locked.txt"), 0o644) })

	m, _, err := Build(context.Background(), dir, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"open.txt"}, m.Paths())
}

func TestBuildWithWorkerLimit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		write(t, dir, name+".bin", name)
	}

	m, _, err := Build(context.Background(), dir, Options{Workers: 2})
	require.NoError(t, err)
	assert.Equal(t, 6, m.Len())
}

func TestBuildUsesCache(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write(t, dir, "stable.txt", "same content")

	cache, err := hashcache.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	first, _, err := Build(context.Background(), dir, Options{Cache: cache})
	require.NoError(t, err)

	wantSum, ok := first.Get("stable.txt")
	require.True(t, ok)

	// The cache now vouches for the file.
	info, err := os.Stat(filepath.Join(dir, "stable.txt"))
	require.NoError(t, err)
	assert.Equal(t, wantSum, cache.Lookup(dir, "stable.txt", info.Size(), info.ModTime().UnixNano(), false))

	second, _, err := Build(context.Background(), dir, Options{Cache: cache})
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
}

func TestBuildCacheInvalidatedByModification(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write(t, dir, "f.txt", "before")

	cache, err := hashcache.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	first, _, err := Build(context.Background(), dir, Options{Cache: cache})
	require.NoError(t, err)

	write(t, dir, "f.txt", "after!")
	// Force a distinct mtime even on coarse-grained filesystems.
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "f.txt"), later, later))

	second, _, err := Build(context.Background(), dir, Options{Cache: cache})
	require.NoError(t, err)

	oldSum, _ := first.Get("f.txt")
	newSum, _ := second.Get("f.txt")
	assert.NotEqual(t, oldSum, newSum)
}

func TestBuildMissingDirectoryFails(t *testing.T) {
	t.Parallel()

	_, _, err := Build(context.Background(), filepath.Join(t.TempDir(), "nope"), Options{})
	assert.Error(t, err)
}
