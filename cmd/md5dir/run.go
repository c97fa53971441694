package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/md5dir/pkg/md5dir/config"
	"github.com/jamesainslie/md5dir/pkg/md5dir/diff"
	"github.com/jamesainslie/md5dir/pkg/md5dir/hashcache"
	"github.com/jamesainslie/md5dir/pkg/md5dir/ignore"
	"github.com/jamesainslie/md5dir/pkg/md5dir/logging"
	"github.com/jamesainslie/md5dir/pkg/md5dir/manifest"
	"github.com/jamesainslie/md5dir/pkg/md5dir/report"
	"github.com/jamesainslie/md5dir/pkg/md5dir/snapshot"
	"github.com/jamesainslie/md5dir/pkg/md5dir/types"
)

// runRoot dispatches one invocation to the selected comparison mode.
func runRoot(cmd *cobra.Command, args []string) error {
	started := time.Now()

	cfg, err := config.FromViper(viper.GetViper(), args)
	if err != nil {
		return err
	}

	if err := logging.Init(logging.Config{Level: cfg.LogLevel}); err != nil {
		return err
	}
	logger := logging.Get("md5dir")

	ig, err := loadIgnores(cfg)
	if err != nil {
		return err
	}

	reporter, err := newReporter(cfg, ig)
	if err != nil {
		return err
	}
	defer reporter.Close()

	var cache *hashcache.Cache
	if cfg.CacheEnabled {
		if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
			return fmt.Errorf("creating cache directory: %w", err)
		}
		cache, err = hashcache.Open(cfg.CacheDir)
		if err != nil {
			return err
		}
		defer cache.Close()
		logger.Debug("hash cache enabled", "dir", cfg.CacheDir)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	switch cfg.Mode {
	case config.ModeCompareFiles:
		err = runCompareFiles(cfg, reporter)
	case config.ModeCompareDirs:
		err = runCompareDirs(ctx, cfg, ig, cache, reporter)
	default:
		err = runSnapshots(ctx, cfg, ig, cache, reporter)
	}
	if err != nil {
		return err
	}

	if cfg.Timing {
		fmt.Printf("%.5f\n", time.Since(started).Seconds())
	}
	return nil
}

// loadIgnores loads the ignore set. A missing or unparsable ignore file is
// fatal; only omitting the flag yields an empty set.
func loadIgnores(cfg *config.Run) (*ignore.Set, error) {
	if cfg.IgnoreFile == "" {
		return nil, nil
	}
	return ignore.LoadFile(cfg.IgnoreFile)
}

// newReporter builds the Reporter for the configured destination.
func newReporter(cfg *config.Run, ig *ignore.Set) (*report.Reporter, error) {
	if cfg.OutputPath != "" {
		return report.NewFile(cfg.OutputPath, cfg.Quiet, ig)
	}
	return report.New(os.Stdout, cfg.Quiet, ig), nil
}

// buildOptions assembles snapshot options from the run configuration.
func buildOptions(cfg *config.Run, ig *ignore.Set, cache *hashcache.Cache) snapshot.Options {
	return snapshot.Options{
		MP3Mode:      cfg.MP3Mode,
		Workers:      cfg.Workers,
		Ignore:       ig,
		LinkIdentity: cfg.LinkIdentity,
		Cache:        cache,
	}
}

// runSnapshots handles the default mode: each directory is compared
// against its own prior manifest, which is then refreshed.
func runSnapshots(ctx context.Context, cfg *config.Run, ig *ignore.Set, cache *hashcache.Cache, reporter *report.Reporter) error {
	logger := logging.Get("md5dir")

	for i, dir := range cfg.Args {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			logger.Error("argument is not a directory", "path", dir)
			continue
		}

		hashfile := cfg.HashfilePath(i, dir)

		prior, err := manifest.Load(hashfile)
		if err != nil {
			return err
		}

		fresh, problems, err := snapshot.Build(ctx, dir, buildOptions(cfg, ig, cache))
		if err != nil {
			return err
		}
		excludeHashfile(prior, dir, hashfile)
		excludeHashfile(fresh, dir, hashfile)

		if err := manifest.Save(hashfile, fresh); err != nil {
			return err
		}

		reporter.Problems(problems)
		reporter.Diff(diff.Compare(prior, fresh), mustAbs(dir))
	}
	return nil
}

// runCompareDirs snapshots two directories, refreshes both manifests, and
// compares the directories against each other.
func runCompareDirs(ctx context.Context, cfg *config.Run, ig *ignore.Set, cache *hashcache.Cache, reporter *report.Reporter) error {
	for _, dir := range cfg.Args {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("%w: %s is not a directory", config.ErrUsage, dir)
		}
	}

	first, problems, err := snapshot.Build(ctx, cfg.Args[0], buildOptions(cfg, ig, cache))
	if err != nil {
		return err
	}
	reporter.Problems(problems)

	second, problems, err := snapshot.Build(ctx, cfg.Args[1], buildOptions(cfg, ig, cache))
	if err != nil {
		return err
	}
	reporter.Problems(problems)

	excludeHashfile(first, cfg.Args[0], cfg.HashfilePath(0, cfg.Args[0]))
	excludeHashfile(second, cfg.Args[1], cfg.HashfilePath(1, cfg.Args[1]))

	if err := manifest.Save(cfg.HashfilePath(0, cfg.Args[0]), first); err != nil {
		return err
	}
	if err := manifest.Save(cfg.HashfilePath(1, cfg.Args[1]), second); err != nil {
		return err
	}

	reporter.Diff(diff.Compare(first, second), mustAbs(cfg.Args[0]))
	return nil
}

// runCompareFiles diffs two existing manifest files without walking.
func runCompareFiles(cfg *config.Run, reporter *report.Reporter) error {
	for _, path := range cfg.Args {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return fmt.Errorf("%w: %s is not a manifest file", config.ErrUsage, path)
		}
	}

	first, err := manifest.Load(cfg.Args[0])
	if err != nil {
		return err
	}
	second, err := manifest.Load(cfg.Args[1])
	if err != nil {
		return err
	}

	reporter.Diff(diff.Compare(first, second), mustAbs(filepath.Dir(cfg.Args[0])))
	return nil
}

// excludeHashfile drops the manifest's own entry from a snapshot of dir.
// Writing the hashfile into the directory it describes must never surface
// as an add or a change on the next run. Hashfiles outside dir never enter
// the walk and need no exclusion.
func excludeHashfile(m *types.Manifest, dir, hashfile string) {
	rel, err := filepath.Rel(mustAbs(dir), mustAbs(hashfile))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return
	}
	m.Delete(filepath.ToSlash(rel))
}

// mustAbs resolves a path for reporting, falling back to the path itself.
func mustAbs(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
