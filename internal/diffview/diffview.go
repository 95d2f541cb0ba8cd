// Package diffview compares two FileSets line by line for terminal display.
package diffview

import (
	"fmt"
	"io"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/jorge-barreto/sitepatch/internal/patch"
)

// Status is how a file changed between two sets.
type Status string

const (
	StatusAdded     Status = "added"
	StatusModified  Status = "modified"
	StatusRemoved   Status = "removed"
	StatusUnchanged Status = "unchanged"
)

// Op marks a diff line.
type Op byte

const (
	OpEqual  Op = ' '
	OpInsert Op = '+'
	OpDelete Op = '-'
)

// Line is one line of a hunk. Old and New are 1-indexed line numbers in the
// before and after text, 0 when the line does not exist there.
type Line struct {
	Op   Op
	Text string
	Old  int
	New  int
}

// Hunk is a run of changes with surrounding context.
type Hunk struct {
	OldStart, OldLines int
	NewStart, NewLines int
	Lines              []Line
}

// FileDiff is the comparison of one path.
type FileDiff struct {
	Path    string
	Status  Status
	Added   int
	Deleted int
	Hunks   []Hunk
}

// Context is the number of unchanged lines kept around each change.
const Context = 2

// Compare diffs every path in before and after. Files appear in after's
// order, followed by files that were removed. Unchanged files are omitted.
func Compare(before, after *patch.FileSet) []FileDiff {
	var out []FileDiff
	for _, p := range after.Paths() {
		next, _ := after.Get(p)
		prev, existed := before.Get(p)
		d := compareFile(p, prev, next)
		switch {
		case !existed:
			d.Status = StatusAdded
		case d.Added == 0 && d.Deleted == 0:
			continue
		default:
			d.Status = StatusModified
		}
		out = append(out, d)
	}
	for _, p := range before.Paths() {
		if after.Lookup(p) >= 0 {
			continue
		}
		prev, _ := before.Get(p)
		d := compareFile(p, prev, "")
		d.Status = StatusRemoved
		out = append(out, d)
	}
	return out
}

func compareFile(path, before, after string) FileDiff {
	d := FileDiff{Path: path}
	lines := flatten(lineDiff(before, after))
	for _, l := range lines {
		switch l.Op {
		case OpInsert:
			d.Added++
		case OpDelete:
			d.Deleted++
		}
	}
	d.Hunks = hunks(lines, Context)
	return d
}

func lineDiff(a, b string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffMain(ca, cb, false)
	return dmp.DiffCharsToLines(diffs, lines)
}

// flatten turns line-mode diffs into numbered lines.
func flatten(diffs []diffmatchpatch.Diff) []Line {
	var out []Line
	oldN, newN := 0, 0
	for _, d := range diffs {
		for _, text := range splitLines(d.Text) {
			l := Line{Text: text}
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				newN++
				l.Op, l.New = OpInsert, newN
			case diffmatchpatch.DiffDelete:
				oldN++
				l.Op, l.Old = OpDelete, oldN
			default:
				oldN++
				newN++
				l.Op, l.Old, l.New = OpEqual, oldN, newN
			}
			out = append(out, l)
		}
	}
	return out
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.SplitAfter(s, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	for i, p := range parts {
		parts[i] = strings.TrimSuffix(p, "\n")
	}
	return parts
}

// hunks groups changed lines with up to ctx lines of context, merging
// groups whose context would overlap.
func hunks(lines []Line, ctx int) []Hunk {
	var out []Hunk
	i := 0
	for i < len(lines) {
		if lines[i].Op == OpEqual {
			i++
			continue
		}
		start := max(i-ctx, 0)
		end := i
		for end < len(lines) {
			if lines[end].Op != OpEqual {
				end++
				continue
			}
			run := end
			for run < len(lines) && lines[run].Op == OpEqual {
				run++
			}
			if run == len(lines) || run-end > 2*ctx {
				end = min(end+ctx, len(lines))
				break
			}
			end = run
		}
		out = append(out, newHunk(lines[start:end]))
		i = end
	}
	return out
}

func newHunk(lines []Line) Hunk {
	h := Hunk{Lines: lines}
	for _, l := range lines {
		if l.Op != OpInsert {
			h.OldLines++
			if h.OldStart == 0 {
				h.OldStart = l.Old
			}
		}
		if l.Op != OpDelete {
			h.NewLines++
			if h.NewStart == 0 {
				h.NewStart = l.New
			}
		}
	}
	return h
}

const (
	red   = "\033[31m"
	green = "\033[32m"
	cyan  = "\033[36m"
	bold  = "\033[1m"
	reset = "\033[0m"
)

// Render writes diffs in unified format. color adds ANSI escapes.
func Render(w io.Writer, diffs []FileDiff, color bool) {
	paint := func(code, s string) string {
		if !color {
			return s
		}
		return code + s + reset
	}
	for _, d := range diffs {
		oldName, newName := "a/"+d.Path, "b/"+d.Path
		switch d.Status {
		case StatusAdded:
			oldName = "/dev/null"
		case StatusRemoved:
			newName = "/dev/null"
		}
		fmt.Fprintln(w, paint(bold, "--- "+oldName))
		fmt.Fprintln(w, paint(bold, "+++ "+newName))
		for _, h := range d.Hunks {
			fmt.Fprintln(w, paint(cyan, fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldLines, h.NewStart, h.NewLines)))
			for _, l := range h.Lines {
				text := string(l.Op) + l.Text
				switch l.Op {
				case OpInsert:
					text = paint(green, text)
				case OpDelete:
					text = paint(red, text)
				}
				fmt.Fprintln(w, text)
			}
		}
	}
}

// Stat is a one-line summary like "index.html | +3 -1".
func (d FileDiff) Stat() string {
	return fmt.Sprintf("%s | +%d -%d", d.Path, d.Added, d.Deleted)
}
