// Package contextgather builds the prompt sent to the generator: the block
// format the response must use and the files it is allowed to edit.
package contextgather

import (
	"fmt"
	"path"
	"strings"

	"github.com/jorge-barreto/sitepatch/internal/grammar"
	"github.com/jorge-barreto/sitepatch/internal/patch"
	"github.com/jorge-barreto/sitepatch/internal/state"
)

const maxFileSize = 32 * 1024 // 32KB per file

// recentTurns is how many turn log entries are summarized.
const recentTurns = 5

// ProjectContext holds gathered project information.
type ProjectContext struct {
	Name  string
	Files []patch.File // contents truncated to maxFileSize
	Turns []state.TurnEntry
}

// Gather collects the context for the next request. turns may be nil.
func Gather(files *patch.FileSet, projectName string, turns *state.TurnLog) *ProjectContext {
	pc := &ProjectContext{Name: projectName}
	if files != nil {
		for _, f := range files.Files {
			content := f.Content
			if len(content) > maxFileSize {
				content = content[:maxFileSize] + "\n... (truncated)"
			}
			pc.Files = append(pc.Files, patch.File{Path: f.Path, Content: content})
		}
	}
	if turns != nil {
		entries := turns.Entries
		if len(entries) > recentTurns {
			entries = entries[len(entries)-recentTurns:]
		}
		pc.Turns = append(pc.Turns, entries...)
	}
	return pc
}

// Render formats the context as prompt sections.
func (pc *ProjectContext) Render() string {
	var buf strings.Builder

	buf.WriteString("## Response Format\n\n")
	buf.WriteString(MarkerReference())

	buf.WriteString("\n## Project\n\n")
	if pc.Name != "" {
		fmt.Fprintf(&buf, "Name: %s\n", pc.Name)
	} else {
		buf.WriteString("This project has no name yet. Give it one with a project name block.\n")
	}

	if len(pc.Files) > 0 {
		buf.WriteString("\n## Current Files\n")
		buf.WriteString("\nThe first file is the entry page.\n")
		for _, f := range pc.Files {
			fence := fenceFor(f.Content)
			fmt.Fprintf(&buf, "\n### %s\n\n%s%s\n%s\n%s\n", f.Path, fence, language(f.Path), f.Content, fence)
		}
	} else {
		buf.WriteString("\nThere are no files yet. Create the entry page first.\n")
	}

	if len(pc.Turns) > 0 {
		buf.WriteString("\n## Recent Turns\n\n")
		for _, t := range pc.Turns {
			fmt.Fprintf(&buf, "- turn %d: %s, %d change(s), %d skipped", t.Turn, t.Status, t.Changes, t.Skipped)
			if len(t.Created) > 0 {
				fmt.Fprintf(&buf, ", created %s", strings.Join(t.Created, ", "))
			}
			buf.WriteString("\n")
		}
	}
	return buf.String()
}

// Prompt renders the context followed by the user's request.
func (pc *ProjectContext) Prompt(request string) string {
	return pc.Render() + "\n## Request\n\n" + strings.TrimSpace(request) + "\n"
}

// MarkerReference documents the block format using the literal markers.
func MarkerReference() string {
	var b strings.Builder
	b.WriteString("Name the project:\n\n")
	fmt.Fprintf(&b, "%s Project Name %s\n\n", grammar.ProjectNameStart, grammar.ProjectNameEnd)
	b.WriteString("Create or replace a whole file:\n\n")
	fmt.Fprintf(&b, "%s path/to/file.html %s\n```html\n...full content...\n```\n\n", grammar.NewFileStart, grammar.NewFileEnd)
	b.WriteString("Edit an existing file with one or more search/replace operations:\n\n")
	fmt.Fprintf(&b, "%s path/to/file.html %s\n%s\nexact lines to find\n%s\nreplacement lines\n%s\n\n",
		grammar.UpdateFileStart, grammar.UpdateFileEnd, grammar.SearchStart, grammar.Divider, grammar.ReplaceEnd)
	b.WriteString("Search text must match the current file; only the first occurrence is replaced. ")
	b.WriteString("An empty search inserts the replacement at the top of the file.\n")
	return b.String()
}

var languages = map[string]string{
	".html": "html",
	".htm":  "html",
	".css":  "css",
	".js":   "javascript",
	".mjs":  "javascript",
	".json": "json",
	".svg":  "svg",
	".md":   "markdown",
	".txt":  "text",
}

func language(p string) string {
	return languages[strings.ToLower(path.Ext(p))]
}

// fenceFor returns a backtick fence longer than any run inside content.
func fenceFor(content string) string {
	longest, run := 0, 0
	for i := 0; i < len(content); i++ {
		if content[i] == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	return strings.Repeat("`", max(3, longest+1))
}
