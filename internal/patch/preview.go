// SPDX-License-Identifier: MPL-2.0

package patch

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// previewContext is the number of unchanged lines shown around each change.
const previewContext = 2

// FileDiff is the change Apply would make to one header.
type FileDiff struct {
	Path string
	Diff string
}

// Preview computes, without writing anything, the change Apply would make
// to every header under baseDir. It fails with the same errors Apply would
// report before mutating.
func (e *Engine) Preview(baseDir string) ([]FileDiff, error) {
	targets, err := e.plan(baseDir, true)
	if err != nil {
		return nil, err
	}

	out := make([]FileDiff, 0, len(targets))
	for _, t := range targets {
		out = append(out, FileDiff{Path: t.live, Diff: lineDiff(t.original, t.patched)})
	}
	return out, nil
}

// lineDiff renders a line-oriented diff of from → to with previewContext
// lines of context. Unchanged regions beyond the context are collapsed to
// a single "..." marker.
func lineDiff(from, to string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	type line struct {
		op   diffmatchpatch.Operation
		text string
	}
	var all []line
	for _, d := range diffs {
		for _, l := range splitLines(d.Text) {
			all = append(all, line{op: d.Type, text: l})
		}
	}

	keep := make([]bool, len(all))
	for i, l := range all {
		if l.op == diffmatchpatch.DiffEqual {
			continue
		}
		for j := max(0, i-previewContext); j <= min(len(all)-1, i+previewContext); j++ {
			keep[j] = true
		}
	}

	var sb strings.Builder
	skipped := false
	for i, l := range all {
		if !keep[i] {
			if !skipped {
				sb.WriteString("...\n")
				skipped = true
			}
			continue
		}
		skipped = false
		switch l.op {
		case diffmatchpatch.DiffInsert:
			sb.WriteString("+ ")
		case diffmatchpatch.DiffDelete:
			sb.WriteString("- ")
		case diffmatchpatch.DiffEqual:
			sb.WriteString("  ")
		}
		sb.WriteString(l.text)
		sb.WriteString("\n")
	}
	return sb.String()
}

// splitLines splits s into lines without their terminators. A trailing
// newline does not produce an empty final line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
