package grammar

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Fence is a fenced code block found in a new-file body.
type Fence struct {
	Lang    string // e.g. "html", "css", "javascript"; may be empty
	Content string // raw text between the fences
}

// ExtractFence returns the first fenced code block in body, using the
// markdown AST so that fences inside lists or after prose are still found.
func ExtractFence(body string) (Fence, bool) {
	source := []byte(body)
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	var fence Fence
	found := false
	walker := func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		fence.Lang = string(block.Language(source))
		var content bytes.Buffer
		lines := block.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			content.Write(line.Value(source))
		}
		fence.Content = content.String()
		found = true
		return ast.WalkStop, nil
	}

	if err := ast.Walk(root, walker); err != nil {
		return Fence{}, false
	}
	return fence, found
}

// FileContent returns the file text carried by a new-file body: the first
// fenced block without its trailing line breaks, or the trimmed body when
// the model did not fence the content.
func FileContent(body string) string {
	if f, ok := ExtractFence(body); ok {
		return strings.TrimRight(f.Content, "\r\n")
	}
	return strings.TrimSpace(body)
}
