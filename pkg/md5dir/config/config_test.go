package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/md5dir/pkg/md5dir/walker"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestFromViperDefaults(t *testing.T) {
	t.Parallel()

	r, err := FromViper(newViper(nil), []string{"/data"})
	require.NoError(t, err)

	assert.Equal(t, ModeSnapshot, r.Mode)
	assert.Equal(t, []string{"/data"}, r.Args)
	assert.False(t, r.MP3Mode)
	assert.False(t, r.Quiet)
	assert.Equal(t, walker.IdentityLink, r.LinkIdentity)
	assert.Equal(t, DefaultLogLevel, r.LogLevel)
	assert.NotEmpty(t, r.CacheDir)
}

func TestFromViperModeSelection(t *testing.T) {
	t.Parallel()

	r, err := FromViper(newViper(map[string]any{"comparefiles": true}), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, ModeCompareFiles, r.Mode)

	r, err = FromViper(newViper(map[string]any{"twodir": true}), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, ModeCompareDirs, r.Mode)

	_, err = FromViper(newViper(map[string]any{"comparefiles": true, "twodir": true}), []string{"a", "b"})
	assert.ErrorIs(t, err, ErrUsage)
}

func TestFromViperArityChecks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values map[string]any
		args   []string
	}{
		{"no directories", nil, nil},
		{"comparefiles one arg", map[string]any{"comparefiles": true}, []string{"a"}},
		{"comparefiles three args", map[string]any{"comparefiles": true}, []string{"a", "b", "c"}},
		{"twodir one arg", map[string]any{"twodir": true}, []string{"a"}},
		{"hashfile count mismatch", map[string]any{"hashfile": "one,two"}, []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := FromViper(newViper(tt.values), tt.args)
			assert.ErrorIs(t, err, ErrUsage)
		})
	}
}

func TestFromViperHashfiles(t *testing.T) {
	t.Parallel()

	r, err := FromViper(newViper(map[string]any{"hashfile": "one.sum,two.sum"}), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, r.Hashfiles, 2)

	// Overrides are absolutized.
	assert.True(t, filepath.IsAbs(r.HashfilePath(0, "a")))
	assert.Equal(t, "one.sum", filepath.Base(r.HashfilePath(0, "a")))
	assert.Equal(t, "two.sum", filepath.Base(r.HashfilePath(1, "b")))
}

func TestHashfilePathDefault(t *testing.T) {
	t.Parallel()

	r, err := FromViper(newViper(nil), []string{"/data"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", DefaultHashfileName), r.HashfilePath(0, "/data"))
}

func TestFromViperLinkIdentity(t *testing.T) {
	t.Parallel()

	r, err := FromViper(newViper(map[string]any{"link_identity": "target"}), []string{"d"})
	require.NoError(t, err)
	assert.Equal(t, walker.IdentityTarget, r.LinkIdentity)

	_, err = FromViper(newViper(map[string]any{"link_identity": "bogus"}), []string{"d"})
	assert.ErrorIs(t, err, ErrUsage)
}

func TestFromViperVerboseSetsDebug(t *testing.T) {
	t.Parallel()

	r, err := FromViper(newViper(map[string]any{"verbose": true}), []string{"d"})
	require.NoError(t, err)
	assert.Equal(t, "debug", r.LogLevel)
}
