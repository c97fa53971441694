// Package snapshot builds a fresh manifest for a directory: it walks the
// tree, fans the per-file checksum work out across a bounded worker pool,
// and collects the results into a sorted manifest. Unreadable files are
// logged and excluded; they never abort the run.
package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/jamesainslie/md5dir/pkg/md5dir/checksum"
	"github.com/jamesainslie/md5dir/pkg/md5dir/hashcache"
	"github.com/jamesainslie/md5dir/pkg/md5dir/ignore"
	"github.com/jamesainslie/md5dir/pkg/md5dir/logging"
	"github.com/jamesainslie/md5dir/pkg/md5dir/types"
	"github.com/jamesainslie/md5dir/pkg/md5dir/walker"
)

// Options configures a snapshot build.
type Options struct {
	// MP3Mode enables the tag-skipping checksum for ".mp3" files.
	MP3Mode bool

	// Workers bounds the checksum pool. Zero or negative means NumCPU.
	Workers int

	// Ignore is the ignore set applied during the walk.
	Ignore *ignore.Set

	// LinkIdentity selects link-path vs target-path identity for file
	// symlinks.
	LinkIdentity walker.LinkIdentity

	// Cache, when non-nil, is consulted per file so unchanged files are
	// not re-hashed, and updated with the fresh checksums afterwards.
	Cache *hashcache.Cache
}

// Build walks dir and returns its manifest plus the walk problems for
// reporting. The manifest root annotation is the directory as given.
func Build(ctx context.Context, dir string, opts Options) (*types.Manifest, []walker.Problem, error) {
	logger := logging.Get("snapshot")

	files, problems, err := walker.List(ctx, dir, walker.Options{
		Ignore:       opts.Ignore,
		LinkIdentity: opts.LinkIdentity,
	})
	if err != nil {
		return nil, nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	sums := make([]string, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var bytesHashed, cacheHits atomic.Int64
	var cacheMu sync.Mutex
	fresh := make(map[string]*hashcache.Entry)

	for i, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			full := absolutize(dir, rel)
			mp3 := opts.MP3Mode && strings.HasSuffix(rel, ".mp3")

			var size, mtime int64
			statted := false
			if info, err := os.Stat(full); err == nil {
				size, mtime = info.Size(), info.ModTime().UnixNano()
				statted = true
				if opts.Cache != nil {
					if sum := opts.Cache.Lookup(dir, rel, size, mtime, mp3); sum != "" {
						sums[i] = sum
						cacheHits.Add(1)
						return nil
					}
				}
			}

			sum, err := checksum.ForFile(full, opts.MP3Mode)
			if err != nil {
				logger.Warn("skipping unreadable file", "path", rel, "err", err)
				return nil
			}
			sums[i] = sum
			bytesHashed.Add(size)

			if opts.Cache != nil && statted {
				cacheMu.Lock()
				fresh[rel] = &hashcache.Entry{Size: size, Mtime: mtime, MP3: mp3, Checksum: sum}
				cacheMu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	m := types.NewManifest(dir)
	for i, rel := range files {
		if sums[i] == "" {
			continue
		}
		if err := m.Set(rel, sums[i]); err != nil {
			logger.Warn("dropping invalid manifest entry", "path", rel, "err", err)
		}
	}

	if opts.Cache != nil && len(fresh) > 0 {
		if err := opts.Cache.PutBatch(dir, fresh); err != nil {
			logger.Warn("hash cache update failed", "root", dir, "err", err)
		}
	}

	logger.Debug("snapshot built",
		"root", dir,
		"files", m.Len(),
		"hashed", humanize.IBytes(uint64(bytesHashed.Load())),
		"cache_hits", cacheHits.Load())

	return m, problems, nil
}

// absolutize joins a walker-relative path onto dir. Target-identity links
// can contribute absolute paths, which are used as-is.
func absolutize(dir, rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(dir, filepath.FromSlash(rel))
}
