package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/md5dir/pkg/md5dir/diff"
	"github.com/jamesainslie/md5dir/pkg/md5dir/ignore"
	"github.com/jamesainslie/md5dir/pkg/md5dir/types"
	"github.com/jamesainslie/md5dir/pkg/md5dir/walker"
)

const (
	sumOne = "d41d8cd98f00b204e9800998ecf8427e"
	sumTwo = "5d41402abc4b2a76b9719d911017c592"
)

func manifestOf(t *testing.T, entries map[string]string) *types.Manifest {
	t.Helper()
	m := types.NewManifest(".")
	for p, s := range entries {
		require.NoError(t, m.Set(p, s))
	}
	return m
}

func TestDiffOutputFormat(t *testing.T) {
	t.Parallel()

	oldM := manifestOf(t, map[string]string{"gone.txt": sumOne, "same.txt": sumOne, "edit.txt": sumOne})
	newM := manifestOf(t, map[string]string{"new.txt": sumTwo, "same.txt": sumOne, "edit.txt": sumTwo})

	var buf bytes.Buffer
	r := New(&buf, false, nil)
	r.Diff(diff.Compare(oldM, newM), "/srv/data")

	want := "ADDED: new.txt\n" +
		"DELETED: gone.txt\n" +
		"CHANGED: edit.txt\n" +
		"LOCATION: /srv/data\n" +
		"STATUS: confirmed 1 added 1 deleted 1 changed 1\n"
	assert.Equal(t, want, buf.String())
}

func TestDiffSecondPassIgnoreFilter(t *testing.T) {
	t.Parallel()

	oldM := manifestOf(t, map[string]string{"seen.log": sumOne})
	newM := manifestOf(t, map[string]string{"added.txt": sumTwo, "noise.log": sumOne})

	ig, err := ignore.Compile([]string{"*.log"})
	require.NoError(t, err)

	var buf bytes.Buffer
	r := New(&buf, false, ig)
	r.Diff(diff.Compare(oldM, newM), "/x")

	out := buf.String()
	assert.Contains(t, out, "ADDED: added.txt\n")
	assert.NotContains(t, out, "noise.log")
	assert.NotContains(t, out, "seen.log")
	// Summary counts match the filtered lines.
	assert.Contains(t, out, "STATUS: confirmed 0 added 1 deleted 0 changed 0\n")
}

func TestQuietSuppressesEverything(t *testing.T) {
	t.Parallel()

	newM := manifestOf(t, map[string]string{"a": sumOne})

	var buf bytes.Buffer
	r := New(&buf, true, nil)
	r.Diff(diff.Compare(types.NewManifest("."), newM), "/x")
	r.Problems([]walker.Problem{{Path: "dead-link", Kind: walker.ProblemBroken}})
	r.Line(LabelAdded, "direct")

	assert.Empty(t, buf.String())
}

func TestProblemsReportedAsBroken(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := New(&buf, false, nil)
	r.Problems([]walker.Problem{
		{Path: "dangling", Kind: walker.ProblemBroken},
		{Path: "loop", Kind: walker.ProblemCycle},
	})

	assert.Equal(t, "BROKEN: dangling\nBROKEN: loop\n", buf.String())
}

func TestNewFileWritesToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "changes.txt")
	r, err := NewFile(path, false, nil)
	require.NoError(t, err)

	r.Line(LabelAdded, "x.txt")
	require.NoError(t, r.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ADDED: x.txt\n", string(data))
}
