package patch

import (
	"fmt"
	"strings"

	"github.com/jorge-barreto/sitepatch/internal/grammar"
)

// ChangeRecord marks the 1-indexed, inclusive line range of a file that an
// edit just inserted or replaced.
type ChangeRecord struct {
	Path  string `json:"path"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

func (c ChangeRecord) String() string {
	if c.Start == c.End {
		return fmt.Sprintf("%s:%d", c.Path, c.Start)
	}
	return fmt.Sprintf("%s:%d-%d", c.Path, c.Start, c.End)
}

// Reason says why an edit was not applied.
type Reason string

const (
	SkipUnknownFile   Reason = "unknown-file"
	SkipNoMatch       Reason = "no-match"
	SkipNoPrimaryFile Reason = "no-primary-file"
)

// Skip is one search/replace operation that could not be applied.
type Skip struct {
	Path   string `json:"path"`
	Reason Reason `json:"reason"`
	Search string `json:"search"`
}

// Result is what one Apply, Feed or Close did to the FileSet.
type Result struct {
	Changes     []ChangeRecord `json:"changes"`
	ProjectName string         `json:"project_name,omitempty"`
	Created     []string       `json:"created,omitempty"`
	Updated     []string       `json:"updated,omitempty"`
	Skipped     []Skip         `json:"skipped,omitempty"`
}

// Empty reports whether nothing happened.
func (r *Result) Empty() bool {
	return len(r.Changes) == 0 && r.ProjectName == "" && len(r.Created) == 0 &&
		len(r.Updated) == 0 && len(r.Skipped) == 0
}

// Merge appends other to r. The first project name wins.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.Changes = append(r.Changes, other.Changes...)
	r.Skipped = append(r.Skipped, other.Skipped...)
	if r.ProjectName == "" {
		r.ProjectName = other.ProjectName
	}
	for _, p := range other.Created {
		r.created(p)
	}
	for _, p := range other.Updated {
		r.updated(p)
	}
}

// ChangesFor returns the change records for one path, in the order applied.
func (r *Result) ChangesFor(path string) []ChangeRecord {
	var out []ChangeRecord
	for _, c := range r.Changes {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func (r *Result) created(path string) {
	if !contains(r.Created, path) {
		r.Created = append(r.Created, path)
	}
}

func (r *Result) updated(path string) {
	if !contains(r.Created, path) && !contains(r.Updated, path) {
		r.Updated = append(r.Updated, path)
	}
}

func (r *Result) skip(path string, reason Reason, search string) {
	r.Skipped = append(r.Skipped, Skip{Path: path, Reason: reason, Search: search})
}

// Apply finds every complete block in text and applies it to files, which is
// mutated in place. Blocks are handled in a single left-to-right pass, so an
// update that follows a new file for the same path sees the new content.
//
// Incomplete blocks are left alone; they are expected to match on a later
// call once more text has arrived. Unknown files and search text that
// cannot be found are reported in Result.Skipped. Apply never fails.
//
// When text contains no new-file block and no update-file start marker at
// all, bare search/replace operations are applied to the first file.
func Apply(text string, files *FileSet) *Result {
	if files == nil {
		files = &FileSet{}
	}
	res := &Result{}
	sawNewFile := false
	for _, b := range grammar.Scan(text) {
		if !b.Complete {
			continue
		}
		if b.Kind == grammar.KindNewFile {
			sawNewFile = true
		}
		applyBlock(b, files, res)
	}
	if !sawNewFile && !strings.Contains(text, grammar.UpdateFileStart) {
		applyBare(grammar.SearchReplaces(text), files, res)
	}
	return res
}

// applyBlock applies one complete block.
func applyBlock(b grammar.Block, files *FileSet, res *Result) {
	switch b.Kind {
	case grammar.KindProjectName:
		if res.ProjectName == "" {
			res.ProjectName = b.Name
		}
	case grammar.KindNewFile:
		applyNewFile(b, files, res)
	case grammar.KindUpdateFile:
		applyOps(b.Path, grammar.SearchReplaces(b.Body), files, res)
	}
}

func applyNewFile(b grammar.Block, files *FileSet, res *Result) {
	if files.Put(b.Path, grammar.FileContent(b.Body)) {
		res.created(b.Path)
	} else {
		res.updated(b.Path)
	}
}

// applyBare applies operations found outside any update-file block to the
// primary file.
func applyBare(ops []grammar.SearchReplace, files *FileSet, res *Result) {
	if len(ops) == 0 {
		return
	}
	first, ok := files.First()
	if !ok {
		for _, op := range ops {
			res.skip("", SkipNoPrimaryFile, op.Search)
		}
		return
	}
	applyOps(first.Path, ops, files, res)
}

// applyOps runs search/replace operations against one file in order.
func applyOps(path string, ops []grammar.SearchReplace, files *FileSet, res *Result) {
	i := files.Lookup(path)
	for _, op := range ops {
		if i < 0 {
			res.skip(path, SkipUnknownFile, op.Search)
			continue
		}
		f := &files.Files[i]

		if op.Blank() {
			f.Content = op.Replace + "\n" + f.Content
			res.Changes = append(res.Changes, ChangeRecord{Path: path, Start: 1, End: countLines(op.Replace)})
			res.updated(path)
			continue
		}

		m, err := CompileMatcher(op.Search)
		if err != nil {
			res.skip(path, SkipNoMatch, op.Search)
			continue
		}
		start, end, ok := m.Find(f.Content)
		if !ok {
			res.skip(path, SkipNoMatch, op.Search)
			continue
		}
		replace := m.TrimIndent(op.Replace)
		line := strings.Count(f.Content[:start], "\n") + 1
		f.Content = f.Content[:start] + replace + f.Content[end:]
		res.Changes = append(res.Changes, ChangeRecord{Path: path, Start: line, End: line + countLines(replace) - 1})
		res.updated(path)
	}
}

// countLines counts lines the way a split on "\n" does: "" is one line.
func countLines(s string) int {
	return strings.Count(s, "\n") + 1
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
