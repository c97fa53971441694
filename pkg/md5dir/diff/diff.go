// Package diff compares two manifests and classifies every path into one
// of four disjoint sets: added, deleted, changed, or unchanged. Compare is
// a pure function; display ordering is the caller's concern.
package diff

import (
	"sort"

	"github.com/jamesainslie/md5dir/pkg/md5dir/types"
)

// Result holds the classification of paths across two manifests. The four
// sets are disjoint and together cover the union of both manifests' paths.
type Result struct {
	added     map[string]struct{}
	deleted   map[string]struct{}
	changed   map[string]struct{}
	unchanged map[string]struct{}
}

// Compare diffs old against new:
//   - Added: present only in new.
//   - Deleted: present only in old.
//   - Changed: present in both with differing checksums.
//   - Unchanged: present in both with equal checksums.
func Compare(oldM, newM *types.Manifest) Result {
	r := Result{
		added:     make(map[string]struct{}),
		deleted:   make(map[string]struct{}),
		changed:   make(map[string]struct{}),
		unchanged: make(map[string]struct{}),
	}

	for _, path := range newM.Paths() {
		newSum, _ := newM.Get(path)
		oldSum, ok := oldM.Get(path)
		switch {
		case !ok:
			r.added[path] = struct{}{}
		case oldSum != newSum:
			r.changed[path] = struct{}{}
		default:
			r.unchanged[path] = struct{}{}
		}
	}

	for _, path := range oldM.Paths() {
		if !newM.Has(path) {
			r.deleted[path] = struct{}{}
		}
	}

	return r
}

// Added returns the added paths in ascending order.
func (r Result) Added() []string { return sorted(r.added) }

// Deleted returns the deleted paths in ascending order.
func (r Result) Deleted() []string { return sorted(r.deleted) }

// Changed returns the changed paths in ascending order.
func (r Result) Changed() []string { return sorted(r.changed) }

// Unchanged returns the unchanged paths in ascending order.
func (r Result) Unchanged() []string { return sorted(r.unchanged) }

// Counts returns the set sizes in report order: unchanged, added,
// deleted, changed.
func (r Result) Counts() (unchanged, added, deleted, changed int) {
	return len(r.unchanged), len(r.added), len(r.deleted), len(r.changed)
}

// InSync reports whether the two manifests held identical entries.
func (r Result) InSync() bool {
	return len(r.added) == 0 && len(r.deleted) == 0 && len(r.changed) == 0
}

func sorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
