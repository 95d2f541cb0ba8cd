// Package grammar defines the delimiter format a model uses to describe a
// website project and recognizes its blocks in raw response text.
//
// The format is line oriented and every marker is unique, so plain substring
// search is enough to find block boundaries. Nothing here holds state.
package grammar

import "strings"

// Markers. These literals are shared with the system prompt given to the
// model and must not change.
const (
	ProjectNameStart = "<<<<<<< PROJECT_NAME_START"
	ProjectNameEnd   = ">>>>>>> PROJECT_NAME_END"
	NewFileStart     = "<<<<<<< NEW_FILE_START"
	NewFileEnd       = ">>>>>>> NEW_FILE_END"
	UpdateFileStart  = "<<<<<<< UPDATE_FILE_START"
	UpdateFileEnd    = ">>>>>>> UPDATE_FILE_END"
	SearchStart      = "<<<<<<< SEARCH"
	Divider          = "======="
	ReplaceEnd       = ">>>>>>> REPLACE"
)

// Kind identifies a top-level block.
type Kind int

const (
	KindProjectName Kind = iota + 1
	KindNewFile
	KindUpdateFile
)

func (k Kind) String() string {
	switch k {
	case KindProjectName:
		return "project-name"
	case KindNewFile:
		return "new-file"
	case KindUpdateFile:
		return "update-file"
	default:
		return "unknown"
	}
}

// startToken returns the opening marker for a block kind.
func (k Kind) startToken() string {
	switch k {
	case KindProjectName:
		return ProjectNameStart
	case KindNewFile:
		return NewFileStart
	case KindUpdateFile:
		return UpdateFileStart
	}
	return ""
}

// endToken returns the closing marker of the block header.
func (k Kind) endToken() string {
	switch k {
	case KindProjectName:
		return ProjectNameEnd
	case KindNewFile:
		return NewFileEnd
	case KindUpdateFile:
		return UpdateFileEnd
	}
	return ""
}

var kinds = []Kind{KindProjectName, KindNewFile, KindUpdateFile}

// NormalizePath turns a model-supplied path into a relative project path.
// Leading slashes, "." and ".." segments are dropped rather than rejected,
// so a traversal attempt degrades to a harmless path inside the project.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.Trim(p, "`\"'")
	p = strings.ReplaceAll(p, "\\", "/")

	var parts []string
	for _, seg := range strings.Split(p, "/") {
		seg = strings.TrimSpace(seg)
		switch seg {
		case "", ".", "..":
			continue
		}
		parts = append(parts, seg)
	}
	return strings.Join(parts, "/")
}

// NextBlockStart returns the offset of the first project-name, new-file or
// update-file start marker at or after from, or -1 if there is none.
func NextBlockStart(text string, from int) int {
	if from < 0 {
		from = 0
	}
	if from >= len(text) {
		return -1
	}
	best := -1
	for _, k := range kinds {
		i := strings.Index(text[from:], k.startToken())
		if i >= 0 && (best < 0 || from+i < best) {
			best = from + i
		}
	}
	return best
}

// kindAt reports which start marker begins at offset at.
func kindAt(text string, at int) Kind {
	for _, k := range kinds {
		if strings.HasPrefix(text[at:], k.startToken()) {
			return k
		}
	}
	return 0
}

// lineStart reports whether offset i is preceded only by blanks on its line.
func lineStart(text string, i int) bool {
	for j := i - 1; j >= 0; j-- {
		switch text[j] {
		case '\n':
			return true
		case ' ', '\t':
			continue
		default:
			return false
		}
	}
	return true
}

// indexLine finds token at or after from, only where it opens a line.
func indexLine(text, token string, from int) int {
	for from <= len(text) {
		i := strings.Index(text[from:], token)
		if i < 0 {
			return -1
		}
		if lineStart(text, from+i) {
			return from + i
		}
		from += i + len(token)
	}
	return -1
}

// afterLine returns the offset just past the newline ending the line that
// contains offset i, or -1 when that line is not terminated yet.
func afterLine(text string, i int) int {
	nl := strings.IndexByte(text[i:], '\n')
	if nl < 0 {
		return -1
	}
	return i + nl + 1
}

// lineBegin returns the offset of the first byte of the line containing i.
func lineBegin(text string, i int) int {
	return strings.LastIndexByte(text[:i], '\n') + 1
}

// trimEOL removes a single trailing line break.
func trimEOL(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
