package diffview

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorge-barreto/sitepatch/internal/patch"
)

func TestCompare_Statuses(t *testing.T) {
	before := patch.NewFileSet(
		patch.File{Path: "index.html", Content: "<h1>Hi</h1>\n<p>old</p>\n"},
		patch.File{Path: "style.css", Content: "body{}\n"},
		patch.File{Path: "gone.js", Content: "x()\n"},
	)
	after := before.Clone()
	after.Put("index.html", "<h1>Hi</h1>\n<p>new</p>\n")
	after.Put("about.html", "<p>about</p>\n")
	after.Remove("gone.js")

	diffs := Compare(before, after)
	require.Len(t, diffs, 3)

	assert.Equal(t, "index.html", diffs[0].Path)
	assert.Equal(t, StatusModified, diffs[0].Status)
	assert.Equal(t, 1, diffs[0].Added)
	assert.Equal(t, 1, diffs[0].Deleted)

	assert.Equal(t, "about.html", diffs[1].Path)
	assert.Equal(t, StatusAdded, diffs[1].Status)
	assert.Equal(t, 1, diffs[1].Added)

	assert.Equal(t, "gone.js", diffs[2].Path)
	assert.Equal(t, StatusRemoved, diffs[2].Status)
	assert.Equal(t, 1, diffs[2].Deleted)
}

func TestCompare_NilBefore(t *testing.T) {
	after := patch.NewFileSet(patch.File{Path: "index.html", Content: "a\nb"})
	diffs := Compare(nil, after)
	require.Len(t, diffs, 1)
	assert.Equal(t, StatusAdded, diffs[0].Status)
	assert.Equal(t, 2, diffs[0].Added)
}

func TestHunks_ContextAndMerge(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 20; i++ {
		b.WriteString("line\n")
	}
	lines := strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
	for i := range lines {
		lines[i] = string(rune('a' + i))
	}
	before := strings.Join(lines, "\n") + "\n"

	changed := append([]string{}, lines...)
	changed[2] = "C"  // line 3
	changed[4] = "E"  // line 5, close enough to merge with line 3
	changed[15] = "P" // line 16, separate hunk
	after := strings.Join(changed, "\n") + "\n"

	d := compareFile("f", before, after)
	require.Len(t, d.Hunks, 2)
	assert.Equal(t, 3, d.Added)
	assert.Equal(t, 3, d.Deleted)

	h := d.Hunks[0]
	assert.Equal(t, 1, h.OldStart)
	assert.Equal(t, 1, h.NewStart)
	assert.Equal(t, 7, h.OldLines) // a..g
	assert.Equal(t, 7, h.NewLines)

	h = d.Hunks[1]
	assert.Equal(t, 14, h.OldStart)
	assert.Equal(t, 5, h.OldLines) // n..r
}

func TestRender(t *testing.T) {
	before := patch.NewFileSet(patch.File{Path: "index.html", Content: "a\nb\nc\n"})
	after := patch.NewFileSet(patch.File{Path: "index.html", Content: "a\nB\nc\n"})

	var out bytes.Buffer
	Render(&out, Compare(before, after), false)
	want := "--- a/index.html\n+++ b/index.html\n@@ -1,3 +1,3 @@\n a\n-b\n+B\n c\n"
	assert.Equal(t, want, out.String())

	out.Reset()
	Render(&out, Compare(before, after), true)
	assert.Contains(t, out.String(), green+"+B"+reset)
}

func TestRender_NewFile(t *testing.T) {
	after := patch.NewFileSet(patch.File{Path: "new.html", Content: "x\n"})
	var out bytes.Buffer
	Render(&out, Compare(patch.NewFileSet(), after), false)
	assert.True(t, strings.HasPrefix(out.String(), "--- /dev/null\n+++ b/new.html\n@@ -0,0 +1,1 @@\n+x\n"))
}

func TestStat(t *testing.T) {
	assert.Equal(t, "index.html | +2 -1", FileDiff{Path: "index.html", Added: 2, Deleted: 1}.Stat())
}
