// Package patch applies model responses written in the sitepatch block
// format to an in-memory set of project files.
package patch

import (
	"encoding/json"

	"github.com/jorge-barreto/sitepatch/internal/grammar"
)

// File is one artifact of the generated project.
type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// FileSet is the ordered set of project files. It holds at most one File per
// normalized path. By convention the first file is the entry page.
type FileSet struct {
	Files []File
}

// NewFileSet builds a set from files, normalizing paths. A later duplicate
// overwrites the content of the earlier one but keeps its position.
func NewFileSet(files ...File) *FileSet {
	fs := &FileSet{}
	for _, f := range files {
		fs.Put(f.Path, f.Content)
	}
	return fs
}

// Lookup returns the index of path in the set, or -1.
func (fs *FileSet) Lookup(path string) int {
	if fs == nil {
		return -1
	}
	path = grammar.NormalizePath(path)
	for i := range fs.Files {
		if fs.Files[i].Path == path {
			return i
		}
	}
	return -1
}

// Get returns the content of path.
func (fs *FileSet) Get(path string) (string, bool) {
	i := fs.Lookup(path)
	if i < 0 {
		return "", false
	}
	return fs.Files[i].Content, true
}

// Put overwrites the content of path, appending a new file when the path is
// not in the set yet. It reports whether the file was created. Paths that
// normalize to nothing are ignored.
func (fs *FileSet) Put(path, content string) bool {
	path = grammar.NormalizePath(path)
	if path == "" {
		return false
	}
	if i := fs.Lookup(path); i >= 0 {
		fs.Files[i].Content = content
		return false
	}
	fs.Files = append(fs.Files, File{Path: path, Content: content})
	return true
}

// Remove deletes path from the set and reports whether it was present.
func (fs *FileSet) Remove(path string) bool {
	i := fs.Lookup(path)
	if i < 0 {
		return false
	}
	fs.Files = append(fs.Files[:i], fs.Files[i+1:]...)
	return true
}

// First returns the primary file.
func (fs *FileSet) First() (File, bool) {
	if fs.Len() == 0 {
		return File{}, false
	}
	return fs.Files[0], true
}

// Paths returns the file paths in order.
func (fs *FileSet) Paths() []string {
	if fs == nil {
		return nil
	}
	paths := make([]string, len(fs.Files))
	for i, f := range fs.Files {
		paths[i] = f.Path
	}
	return paths
}

func (fs *FileSet) Len() int {
	if fs == nil {
		return 0
	}
	return len(fs.Files)
}

// Clone returns a deep copy. Apply mutates its FileSet, so callers that
// need the previous state clone first.
func (fs *FileSet) Clone() *FileSet {
	c := &FileSet{}
	if fs == nil {
		return c
	}
	c.Files = make([]File, len(fs.Files))
	copy(c.Files, fs.Files)
	return c
}

// MarshalJSON encodes the set as a bare array of {path, content} records.
func (fs *FileSet) MarshalJSON() ([]byte, error) {
	files := []File{}
	if fs != nil && fs.Files != nil {
		files = fs.Files
	}
	return json.Marshal(files)
}

// UnmarshalJSON decodes a bare array, normalizing and de-duplicating paths.
func (fs *FileSet) UnmarshalJSON(data []byte) error {
	var files []File
	if err := json.Unmarshal(data, &files); err != nil {
		return err
	}
	*fs = *NewFileSet(files...)
	return nil
}
