// Package walker produces the canonical file list for a directory tree.
// It traverses with fastwalk, prunes subtrees matching the ignore set,
// follows directory symlinks with cycle detection, and collects per-entry
// problems (broken links, cycles, unreadable entries) without aborting
// the walk.
package walker

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/md5dir/pkg/md5dir/ignore"
)

// LinkIdentity selects which path a resolved file symlink contributes to
// the file list.
type LinkIdentity string

const (
	// IdentityLink records the link's own relative path. This is the
	// default: a retargeted link shows up as a content change, a moved
	// link as an add/delete pair.
	IdentityLink LinkIdentity = "link"

	// IdentityTarget records the link target's path, resolved relative to
	// the directory containing the link. This matches the historical
	// md5dir behavior.
	IdentityTarget LinkIdentity = "target"
)

// ProblemKind classifies a non-fatal walk problem.
type ProblemKind int

const (
	// ProblemBroken is a symbolic link whose target does not exist.
	ProblemBroken ProblemKind = iota

	// ProblemCycle is a directory symlink whose target contains the link
	// itself or one of the directories already being walked, so following
	// it would recurse forever.
	ProblemCycle

	// ProblemUnreadable is any other per-entry resolution failure.
	ProblemUnreadable
)

// Problem records one skipped entry and why it was skipped.
type Problem struct {
	// Path is the entry's path relative to the walk root.
	Path string

	// Kind classifies the problem.
	Kind ProblemKind

	// Err is the underlying error, nil for cycles.
	Err error
}

// Options configures a walk.
type Options struct {
	// Ignore is the ignore set applied to directories (pruning whole
	// subtrees) and files. Nil ignores nothing.
	Ignore *ignore.Set

	// LinkIdentity selects link-path vs target-path identity for file
	// symlinks. Empty defaults to IdentityLink.
	LinkIdentity LinkIdentity
}

// List walks the tree rooted at root and returns the relative paths of
// all regular files, sorted ascending, plus the problems encountered.
// Paths use forward slashes and have no leading "./". Only a failure to
// access the root itself is a fatal error.
func List(ctx context.Context, root string, opts Options) ([]string, []Problem, error) {
	if opts.LinkIdentity == "" {
		opts.LinkIdentity = IdentityLink
	}

	// The root is a directory encountered like any other: an ignore match
	// yields an empty walk, not an error.
	if opts.Ignore.Match(filepath.ToSlash(filepath.Clean(root))) {
		return nil, nil, nil
	}

	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, nil, err
	}

	w := &walk{ctx: ctx, opts: opts}

	if err := w.run(resolved, "", []string{resolved}); err != nil {
		return nil, nil, err
	}

	sort.Strings(w.files)
	sort.Slice(w.problems, func(i, j int) bool { return w.problems[i].Path < w.problems[j].Path })
	return w.files, w.problems, nil
}

// walk carries the shared traversal state. fastwalk invokes callbacks
// from multiple goroutines, so every mutation goes through mu.
type walk struct {
	ctx  context.Context
	opts Options

	mu       sync.Mutex
	files    []string
	problems []Problem
}

// run walks one real directory, recording files under the given relative
// prefix. Symlinked directories re-enter run with the link's relative
// path as the prefix; chain holds the canonical roots of every enclosing
// run, innermost last, and bounds the recursion.
func (w *walk) run(root, prefix string, chain []string) error {
	conf := fastwalk.Config{
		Follow: false, // symlinks are handled explicitly below
	}

	return fastwalk.Walk(&conf, root, func(p string, d fs.DirEntry, err error) error {
		if cerr := w.ctx.Err(); cerr != nil {
			return cerr
		}

		rel := w.relative(root, prefix, p)

		if err != nil {
			w.addProblem(Problem{Path: rel, Kind: ProblemUnreadable, Err: err})
			return nil
		}

		switch {
		case d.IsDir():
			if rel != "" && w.opts.Ignore.Match(rel) {
				return fastwalk.SkipDir
			}
			return nil

		case d.Type()&fs.ModeSymlink != 0:
			if w.opts.Ignore.Match(rel) {
				return nil
			}
			w.handleSymlink(p, rel, chain)
			return nil

		case d.Type().IsRegular():
			if w.opts.Ignore.Match(rel) {
				return nil
			}
			w.addFile(rel)
			return nil

		default:
			// Sockets, pipes and devices are not manifest material.
			return nil
		}
	})
}

// handleSymlink resolves a symlink entry: broken targets and cycles are
// recorded as problems, file targets are added under the configured
// identity, directory targets are walked as a nested subtree.
func (w *walk) handleSymlink(p, rel string, chain []string) {
	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			w.addProblem(Problem{Path: rel, Kind: ProblemBroken, Err: err})
		} else {
			w.addProblem(Problem{Path: rel, Kind: ProblemUnreadable, Err: err})
		}
		return
	}

	if !info.IsDir() {
		w.addFile(w.fileIdentity(p, rel))
		return
	}

	canonical, err := filepath.EvalSymlinks(p)
	if err != nil {
		w.addProblem(Problem{Path: rel, Kind: ProblemUnreadable, Err: err})
		return
	}

	if cycles(canonical, p, chain) {
		w.addProblem(Problem{Path: rel, Kind: ProblemCycle})
		return
	}

	// Concurrent callbacks at the same depth each get their own chain.
	next := make([]string, len(chain)+1)
	copy(next, chain)
	next[len(chain)] = canonical

	if err := w.run(canonical, rel, next); err != nil {
		w.addProblem(Problem{Path: rel, Kind: ProblemUnreadable, Err: err})
	}
}

// cycles reports whether walking target would recurse forever: the target
// subtree contains the link itself, or one of the roots already being
// walked (whose subtree in turn contains the link). Links to disjoint
// directories, siblings included, are followed; their outcome does not
// depend on traversal order.
func cycles(target, link string, chain []string) bool {
	if isAncestor(target, link) {
		return true
	}
	for _, root := range chain {
		if isAncestor(target, root) {
			return true
		}
	}
	return false
}

// isAncestor reports whether p equals dir or lies inside it.
func isAncestor(dir, p string) bool {
	return p == dir || strings.HasPrefix(p, dir+string(filepath.Separator))
}

// fileIdentity returns the path recorded for a resolved file symlink.
func (w *walk) fileIdentity(p, rel string) string {
	if w.opts.LinkIdentity != IdentityTarget {
		return rel
	}

	target, err := os.Readlink(p)
	if err != nil {
		// Stat already succeeded; fall back to the link's own path.
		return rel
	}
	if filepath.IsAbs(target) {
		return filepath.ToSlash(target)
	}
	return path.Join(path.Dir(rel), filepath.ToSlash(target))
}

// relative converts an absolute walk path into the slash-separated path
// relative to the overall walk root. Returns "" for the subtree root.
func (w *walk) relative(root, prefix, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == "." {
		rel = ""
	}
	return path.Join(prefix, filepath.ToSlash(rel))
}

func (w *walk) addFile(rel string) {
	w.mu.Lock()
	w.files = append(w.files, rel)
	w.mu.Unlock()
}

func (w *walk) addProblem(pr Problem) {
	w.mu.Lock()
	w.problems = append(w.problems, pr)
	w.mu.Unlock()
}
