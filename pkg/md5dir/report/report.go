// Package report writes the comparison results in the md5dir line format:
// one "<LABEL>: <path>" line per event plus a location and summary line
// per comparison. Output goes to stdout or a file; quiet mode suppresses
// everything while leaving the rest of the run untouched.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/jamesainslie/md5dir/pkg/md5dir/diff"
	"github.com/jamesainslie/md5dir/pkg/md5dir/ignore"
	"github.com/jamesainslie/md5dir/pkg/md5dir/walker"
)

// Event labels for report lines.
const (
	LabelAdded   = "ADDED"
	LabelDeleted = "DELETED"
	LabelChanged = "CHANGED"
	LabelBroken  = "BROKEN"
)

// Reporter writes report lines to a destination.
type Reporter struct {
	w      io.Writer
	quiet  bool
	ignore *ignore.Set

	closer io.Closer
}

// New creates a Reporter writing to w. The ignore set is applied a second
// time at report level so patterns also suppress lines for paths loaded
// from older manifests.
func New(w io.Writer, quiet bool, ig *ignore.Set) *Reporter {
	return &Reporter{w: w, quiet: quiet, ignore: ig}
}

// NewFile creates a Reporter writing to the named file, truncating it.
// Close releases the file handle.
func NewFile(path string, quiet bool, ig *ignore.Set) (*Reporter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("opening output file %s: %w", path, err)
	}
	r := New(f, quiet, ig)
	r.closer = f
	return r, nil
}

// Close releases the underlying file when the Reporter owns one.
func (r *Reporter) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Line writes one labeled line, honoring quiet mode.
func (r *Reporter) Line(label, text string) {
	if r.quiet {
		return
	}
	fmt.Fprintf(r.w, "%s: %s\n", label, text)
}

// Problems reports walk problems; every kind surfaces as a BROKEN event.
func (r *Reporter) Problems(problems []walker.Problem) {
	for _, p := range problems {
		r.Line(LabelBroken, p.Path)
	}
}

// Diff reports a comparison: sorted ADDED/DELETED/CHANGED lines filtered
// through the ignore set, then the location and summary lines. Counts are
// computed after filtering so the summary matches the lines printed.
func (r *Reporter) Diff(result diff.Result, root string) {
	added := r.filtered(result.Added())
	deleted := r.filtered(result.Deleted())
	changed := r.filtered(result.Changed())

	r.lines(LabelAdded, added)
	r.lines(LabelDeleted, deleted)
	r.lines(LabelChanged, changed)

	unchanged, _, _, _ := result.Counts()
	r.Line("LOCATION", root)
	if r.quiet {
		return
	}
	fmt.Fprintf(r.w, "STATUS: confirmed %d added %d deleted %d changed %d\n",
		unchanged, len(added), len(deleted), len(changed))
}

func (r *Reporter) lines(label string, paths []string) {
	for _, p := range paths {
		r.Line(label, p)
	}
}

// filtered drops paths matching the ignore set.
func (r *Reporter) filtered(paths []string) []string {
	if r.ignore.Len() == 0 {
		return paths
	}
	out := paths[:0:0]
	for _, p := range paths {
		if !r.ignore.Match(p) {
			out = append(out, p)
		}
	}
	return out
}
