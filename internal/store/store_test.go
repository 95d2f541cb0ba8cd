package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorge-barreto/sitepatch/internal/config"
	"github.com/jorge-barreto/sitepatch/internal/patch"
)

func openBoth(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	sq, err := OpenSQLite(filepath.Join(dir, "site.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })
	return map[string]Store{
		"files":  NewDirStore(filepath.Join(dir, "site"), "index.html"),
		"sqlite": sq,
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range openBoth(t) {
		t.Run(name, func(t *testing.T) {
			empty, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, empty.Len())

			files := patch.NewFileSet(
				patch.File{Path: "index.html", Content: "<h1>Hi</h1>"},
				patch.File{Path: "css/style.css", Content: "h1 { color: red; }"},
				patch.File{Path: "app.js", Content: ""},
			)
			require.NoError(t, s.Save(ctx, files))

			loaded, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, files.Paths(), loaded.Paths())
			css, ok := loaded.Get("css/style.css")
			require.True(t, ok)
			assert.Equal(t, "h1 { color: red; }", css)
		})
	}
}

func TestStore_SaveReplacesSet(t *testing.T) {
	ctx := context.Background()
	for name, s := range openBoth(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Save(ctx, patch.NewFileSet(
				patch.File{Path: "index.html", Content: "a"},
				patch.File{Path: "old.css", Content: "b"},
			)))
			require.NoError(t, s.Save(ctx, patch.NewFileSet(
				patch.File{Path: "index.html", Content: "c"},
			)))

			loaded, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"index.html"}, loaded.Paths())
			got, _ := loaded.Get("index.html")
			assert.Equal(t, "c", got)
		})
	}
}

func TestDirStore_RemovesStaleFiles(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := NewDirStore(root, "index.html")
	require.NoError(t, s.Save(ctx, patch.NewFileSet(
		patch.File{Path: "index.html", Content: "a"},
		patch.File{Path: "js/old.js", Content: "b"},
	)))
	require.FileExists(t, filepath.Join(root, "js", "old.js"))

	require.NoError(t, s.Save(ctx, patch.NewFileSet(patch.File{Path: "index.html", Content: "a"})))
	assert.NoFileExists(t, filepath.Join(root, "js", "old.js"))
	assert.FileExists(t, filepath.Join(root, ManifestName))
}

func TestDirStore_SkipsManifestName(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := NewDirStore(root, "index.html")
	require.NoError(t, s.Save(ctx, patch.NewFileSet(
		patch.File{Path: "index.html", Content: "a"},
		patch.File{Path: ManifestName, Content: "not a manifest"},
	)))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"index.html"}, loaded.Paths())

	data, err := os.ReadFile(filepath.Join(root, ManifestName))
	require.NoError(t, err)
	assert.JSONEq(t, `["index.html"]`, string(data))
}

func TestDirStore_DiscoverWithoutManifest(t *testing.T) {
	root := t.TempDir()
	for path, content := range map[string]string{
		"about.html":    "about",
		"index.html":    "home",
		"css/style.css": "css",
	} {
		full := filepath.Join(root, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}

	files, err := NewDirStore(root, "index.html").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"index.html", "about.html", "css/style.css"}, files.Paths())
}

func TestDirStore_MissingRoot(t *testing.T) {
	files, err := NewDirStore(filepath.Join(t.TempDir(), "nope"), "index.html").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, files.Len())
}

func TestDirStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewDirStore(t.TempDir(), "index.html")
	err := s.Save(ctx, patch.NewFileSet(patch.File{Path: "index.html", Content: "a"}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen_PicksDriver(t *testing.T) {
	root := t.TempDir()

	cfg := config.Default("bakery")
	s, err := Open(cfg, root)
	require.NoError(t, err)
	ds, ok := s.(*DirStore)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "site"), ds.Root())

	cfg = &config.Config{Name: "bakery", Store: config.Store{Driver: config.DriverSQLite}}
	require.NoError(t, config.Validate(cfg, root))
	s, err = Open(cfg, root)
	require.NoError(t, err)
	defer s.Close()
	_, ok = s.(*SQLiteStore)
	assert.True(t, ok)
	assert.FileExists(t, filepath.Join(root, ".sitepatch", "site.db"))

	_, err = Open(&config.Config{Store: config.Store{Driver: "mongo"}}, root)
	assert.Error(t, err)
}
