package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"index.html", "index.html"},
		{"/index.html", "index.html"},
		{"///css/style.css", "css/style.css"},
		{"/a/../b", "a/b"},
		{"a/b", "a/b"},
		{"//../a/../b", "a/b"},
		{"../../etc/passwd", "etc/passwd"},
		{"./js/./app.js", "js/app.js"},
		{"js\\app.js", "js/app.js"},
		{"  `style.css`  ", "style.css"},
		{"./ a.css", "a.css"},
		{"' a'", "a"},
		{"css / site.css ", "css/site.css"},
		{"..", ""},
		{"", ""},
	}
	for _, tt := range tests {
		got := NormalizePath(tt.in)
		assert.Equal(t, tt.want, got, "NormalizePath(%q)", tt.in)
		assert.Equal(t, got, NormalizePath(got), "NormalizePath not idempotent for %q", tt.in)
	}
}

func TestNextBlockStart(t *testing.T) {
	text := "intro\n" + UpdateFileStart + " a.css " + UpdateFileEnd + "\nbody\n" + NewFileStart + " b.js " + NewFileEnd
	first := NextBlockStart(text, 0)
	assert.Equal(t, 6, first)

	second := NextBlockStart(text, first+1)
	require.Greater(t, second, first)
	assert.Equal(t, KindNewFile, kindAt(text, second))

	assert.Equal(t, -1, NextBlockStart(text, second+1))
	assert.Equal(t, -1, NextBlockStart("no markers here", 0))
	assert.Equal(t, -1, NextBlockStart(text, len(text)+5))
}

func TestScan_OrderAndBounds(t *testing.T) {
	text := ProjectNameStart + " Bakery " + ProjectNameEnd + "\n" +
		NewFileStart + " index.html " + NewFileEnd + "\n```html\n<h1>Hi</h1>\n```\n" +
		UpdateFileStart + " /style.css " + UpdateFileEnd + "\n" +
		SearchStart + "\nbody {}\n" + Divider + "\nbody { margin: 0; }\n" + ReplaceEnd + "\n"

	blocks := Scan(text)
	require.Len(t, blocks, 3)

	assert.Equal(t, KindProjectName, blocks[0].Kind)
	assert.Equal(t, "Bakery", blocks[0].Name)
	assert.True(t, blocks[0].Complete)
	assert.True(t, blocks[0].Bounded)

	assert.Equal(t, KindNewFile, blocks[1].Kind)
	assert.Equal(t, "index.html", blocks[1].Path)
	assert.Contains(t, blocks[1].Body, "<h1>Hi</h1>")
	assert.NotContains(t, blocks[1].Body, UpdateFileStart)
	assert.True(t, blocks[1].Bounded)

	assert.Equal(t, KindUpdateFile, blocks[2].Kind)
	assert.Equal(t, "style.css", blocks[2].Path)
	assert.False(t, blocks[2].Bounded)
	assert.Equal(t, len(text), blocks[2].End)
}

func TestScan_HeaderMustCloseOnSameLine(t *testing.T) {
	text := NewFileStart + " index.html\n" + NewFileEnd + "\n<p>x</p>"
	blocks := Scan(text)
	require.Len(t, blocks, 1)
	assert.False(t, blocks[0].Complete)
}

func TestScan_StreamingHeader(t *testing.T) {
	text := UpdateFileStart + " index.ht"
	blocks := Scan(text)
	require.Len(t, blocks, 1)
	assert.False(t, blocks[0].Complete)
	assert.False(t, blocks[0].Bounded)
}

func TestScan_EmptyPathIsIncomplete(t *testing.T) {
	text := NewFileStart + " /../ " + NewFileEnd + "\n<p>x</p>"
	blocks := Scan(text)
	require.Len(t, blocks, 1)
	assert.False(t, blocks[0].Complete)
}

func TestFindProjectName(t *testing.T) {
	name, _, ok := FindProjectName("text "+ProjectNameStart+"\n  Sunrise Bakery \n"+ProjectNameEnd+" more", 0)
	require.True(t, ok)
	assert.Equal(t, "Sunrise Bakery", name)

	_, _, ok = FindProjectName(ProjectNameStart+" Half", 0)
	assert.False(t, ok)
}

func TestFindProjectName_EndMustPrecedeNextBlock(t *testing.T) {
	text := ProjectNameStart + " Name\n" + NewFileStart + " a.html " + NewFileEnd + "\n" + ProjectNameEnd
	_, _, ok := FindProjectName(text, 0)
	assert.False(t, ok)
}

func TestFindNewFileAndUpdateFile(t *testing.T) {
	text := UpdateFileStart + " index.html " + UpdateFileEnd + "\nops\n" +
		NewFileStart + " about.html " + NewFileEnd + "\nbody\n" +
		NewFileStart + " contact.html " + NewFileEnd + "\nbody2"

	b, next, ok := FindNewFile(text, 0)
	require.True(t, ok)
	assert.Equal(t, "about.html", b.Path)

	b, _, ok = FindNewFile(text, next)
	require.True(t, ok)
	assert.Equal(t, "contact.html", b.Path)
	assert.Equal(t, "\nbody2", b.Body)

	u, _, ok := FindUpdateFile(text, 0)
	require.True(t, ok)
	assert.Equal(t, "index.html", u.Path)
	assert.Equal(t, "\nops\n", u.Body)

	_, _, ok = FindUpdateFile(text, next)
	assert.False(t, ok)
}

func TestFindSearchReplace(t *testing.T) {
	body := "\n" + SearchStart + "\n<h1>Hi</h1>\n" + Divider + "\n<h1>Bye</h1>\n" + ReplaceEnd + "\n"
	op, next, ok := FindSearchReplace(body, 0)
	require.True(t, ok)
	assert.Equal(t, "<h1>Hi</h1>", op.Search)
	assert.Equal(t, "<h1>Bye</h1>", op.Replace)
	assert.False(t, op.Blank())
	assert.Equal(t, len(body)-1, next)
}

func TestFindSearchReplace_EmptySearchAndReplace(t *testing.T) {
	body := SearchStart + "\n" + Divider + "\nline0\n" + ReplaceEnd
	op, _, ok := FindSearchReplace(body, 0)
	require.True(t, ok)
	assert.Equal(t, "", op.Search)
	assert.True(t, op.Blank())
	assert.Equal(t, "line0", op.Replace)

	body = SearchStart + "\n<p>gone</p>\n" + Divider + "\n" + ReplaceEnd
	op, _, ok = FindSearchReplace(body, 0)
	require.True(t, ok)
	assert.Equal(t, "<p>gone</p>", op.Search)
	assert.Equal(t, "", op.Replace)
}

func TestFindSearchReplace_Multiline(t *testing.T) {
	body := SearchStart + "\r\n<ul>\r\n  <li>a</li>\r\n</ul>\r\n" + Divider + "\r\n<ul></ul>\r\n" + ReplaceEnd + "\r\n"
	op, _, ok := FindSearchReplace(body, 0)
	require.True(t, ok)
	assert.Equal(t, "<ul>\r\n  <li>a</li>\r\n</ul>", op.Search)
	assert.Equal(t, "<ul></ul>", op.Replace)
}

func TestFindSearchReplace_Incomplete(t *testing.T) {
	partials := []string{
		SearchStart,
		SearchStart + "\n<p>a</p>\n",
		SearchStart + "\n<p>a</p>\n" + Divider,
		SearchStart + "\n<p>a</p>\n" + Divider + "\n<p>b</p>\n>>>>>>> REPL",
	}
	for _, p := range partials {
		_, _, ok := FindSearchReplace(p, 0)
		assert.False(t, ok, "expected no op in %q", p)
	}
}

func TestFindSearchReplace_MarkersMustOpenLine(t *testing.T) {
	body := "see " + SearchStart + " in prose\n" + Divider + "\nx\n" + ReplaceEnd
	_, _, ok := FindSearchReplace(body, 0)
	assert.False(t, ok)

	indented := "  " + SearchStart + "\n  a\n  " + Divider + "\n  b\n  " + ReplaceEnd
	op, _, ok := FindSearchReplace(indented, 0)
	require.True(t, ok)
	assert.Equal(t, "  a", op.Search)
	assert.Equal(t, "  b", op.Replace)
}

func TestSearchReplaces(t *testing.T) {
	body := SearchStart + "\na\n" + Divider + "\nb\n" + ReplaceEnd + "\n" +
		"between\n" +
		SearchStart + "\nc\n" + Divider + "\nd\n" + ReplaceEnd + "\n" +
		SearchStart + "\ne\n" + Divider + "\n"
	ops := SearchReplaces(body)
	require.Len(t, ops, 2)
	assert.Equal(t, "a", ops[0].Search)
	assert.Equal(t, "d", ops[1].Replace)
}
