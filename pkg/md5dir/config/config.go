// Package config builds the immutable per-invocation configuration for
// md5dir. The CLI constructs one Run value from flags, environment, and
// an optional config file, then threads it explicitly into the walk,
// checksum, and report code; nothing reads flag state ambiently.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/jamesainslie/md5dir/pkg/md5dir/walker"
)

// Defaults applied when neither flags nor config file say otherwise.
const (
	// DefaultHashfileName is the manifest filename inside each directory.
	DefaultHashfileName = "md5sum"

	// DefaultLogLevel is the logging level when --verbose is not given.
	DefaultLogLevel = "info"
)

// ErrUsage indicates an invalid argument combination. The CLI maps it to
// exit code 1 with the descriptive message.
var ErrUsage = errors.New("usage error")

// Mode selects the comparison behavior of an invocation.
type Mode int

const (
	// ModeSnapshot compares each directory against its own prior
	// manifest and refreshes it. The default.
	ModeSnapshot Mode = iota

	// ModeCompareDirs snapshots exactly two directories and compares
	// them against each other.
	ModeCompareDirs

	// ModeCompareFiles compares two existing manifest files without
	// walking or hashing anything.
	ModeCompareFiles
)

// Run is the immutable configuration of one invocation.
type Run struct {
	// Mode is the comparison mode.
	Mode Mode

	// Args are the positional arguments: directories for ModeSnapshot
	// and ModeCompareDirs, manifest files for ModeCompareFiles.
	Args []string

	// MP3Mode enables tag-skipping checksums for ".mp3" files.
	MP3Mode bool

	// Quiet suppresses all report output.
	Quiet bool

	// OutputPath redirects report lines to a file. Empty means stdout.
	OutputPath string

	// IgnoreFile is the YAML ignore-list path. Empty means no ignores.
	IgnoreFile string

	// Hashfiles overrides the manifest location per directory, one entry
	// per positional directory.
	Hashfiles []string

	// Timing prints the total runtime after the run.
	Timing bool

	// Workers bounds the checksum worker pool. Zero means NumCPU.
	Workers int

	// LinkIdentity selects link-path vs target-path manifest identity
	// for file symlinks.
	LinkIdentity walker.LinkIdentity

	// CacheEnabled turns on the persistent hash cache.
	CacheEnabled bool

	// CacheDir is the hash cache location.
	CacheDir string

	// LogLevel is the logging verbosity.
	LogLevel string
}

// DefaultCacheDir returns the hash cache directory under XDG_CACHE_HOME.
func DefaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, "md5dir")
}

// FromViper builds a Run from the bound flag/config state and positional
// args, validating mode exclusivity and argument arity. All violations
// wrap ErrUsage.
func FromViper(v *viper.Viper, args []string) (*Run, error) {
	r := &Run{
		Args:         args,
		MP3Mode:      v.GetBool("mp3"),
		Quiet:        v.GetBool("quiet"),
		OutputPath:   v.GetString("output"),
		IgnoreFile:   v.GetString("ignore"),
		Timing:       v.GetBool("time"),
		Workers:      v.GetInt("workers"),
		CacheEnabled: v.GetBool("cache"),
		CacheDir:     v.GetString("cache_dir"),
		LogLevel:     DefaultLogLevel,
	}

	if v.GetBool("verbose") {
		r.LogLevel = "debug"
	}
	if r.CacheDir == "" {
		r.CacheDir = DefaultCacheDir()
	}

	switch identity := v.GetString("link_identity"); identity {
	case "", string(walker.IdentityLink):
		r.LinkIdentity = walker.IdentityLink
	case string(walker.IdentityTarget):
		r.LinkIdentity = walker.IdentityTarget
	default:
		return nil, fmt.Errorf("%w: invalid link-identity %q (want link or target)", ErrUsage, identity)
	}

	if hf := v.GetString("hashfile"); hf != "" {
		r.Hashfiles = strings.Split(hf, ",")
	}

	compareFiles := v.GetBool("comparefiles")
	compareDirs := v.GetBool("twodir")

	switch {
	case compareFiles && compareDirs:
		return nil, fmt.Errorf("%w: --comparefiles and --twodir are mutually exclusive", ErrUsage)
	case compareFiles:
		r.Mode = ModeCompareFiles
	case compareDirs:
		r.Mode = ModeCompareDirs
	default:
		r.Mode = ModeSnapshot
	}

	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// validate checks argument arity per mode.
func (r *Run) validate() error {
	switch r.Mode {
	case ModeCompareFiles:
		if len(r.Args) != 2 {
			return fmt.Errorf("%w: --comparefiles expects exactly two manifest files, got %d", ErrUsage, len(r.Args))
		}
	case ModeCompareDirs:
		if len(r.Args) != 2 {
			return fmt.Errorf("%w: --twodir expects exactly two directories, got %d", ErrUsage, len(r.Args))
		}
		if len(r.Hashfiles) > 0 && len(r.Hashfiles) != 2 {
			return fmt.Errorf("%w: %d hashfiles given for 2 directories", ErrUsage, len(r.Hashfiles))
		}
	case ModeSnapshot:
		if len(r.Args) == 0 {
			return fmt.Errorf("%w: no directories given", ErrUsage)
		}
		if len(r.Hashfiles) > 0 && len(r.Hashfiles) != len(r.Args) {
			return fmt.Errorf("%w: %d hashfiles given for %d directories", ErrUsage, len(r.Hashfiles), len(r.Args))
		}
	}
	return nil
}

// HashfilePath returns the manifest path for the i-th directory argument:
// the per-directory override when --hashfile was given, otherwise the
// default manifest name inside the directory.
func (r *Run) HashfilePath(i int, dir string) string {
	if len(r.Hashfiles) > 0 {
		hf := r.Hashfiles[i]
		if abs, err := filepath.Abs(hf); err == nil {
			return abs
		}
		return hf
	}
	return filepath.Join(dir, DefaultHashfileName)
}
