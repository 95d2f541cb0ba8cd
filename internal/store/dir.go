package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/jorge-barreto/sitepatch/internal/grammar"
	"github.com/jorge-barreto/sitepatch/internal/patch"
	"github.com/jorge-barreto/sitepatch/internal/state"
)

// ManifestName is the file inside the site directory that records file order.
const ManifestName = ".sitepatch-manifest.json"

// DirStore keeps each file as a plain file under a root directory, so the
// site can be opened or served as is.
type DirStore struct {
	root  string
	entry string
}

// NewDirStore returns a store rooted at root. entry is placed first when
// files are discovered without a manifest.
func NewDirStore(root, entry string) *DirStore {
	return &DirStore{root: root, entry: grammar.NormalizePath(entry)}
}

// Root returns the site directory.
func (d *DirStore) Root() string {
	return d.root
}

func (d *DirStore) manifestPath() string {
	return filepath.Join(d.root, ManifestName)
}

func (d *DirStore) readManifest() ([]string, bool, error) {
	data, err := os.ReadFile(d.manifestPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("store: reading manifest: %w", err)
	}
	var paths []string
	if err := json.Unmarshal(data, &paths); err != nil {
		return nil, false, fmt.Errorf("store: parsing manifest: %w", err)
	}
	return paths, true, nil
}

func (d *DirStore) Load(ctx context.Context) (*patch.FileSet, error) {
	paths, ok, err := d.readManifest()
	if err != nil {
		return nil, err
	}
	if !ok {
		paths, err = d.discover()
		if err != nil {
			return nil, err
		}
	}

	files := &patch.FileSet{}
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p == ManifestName {
			continue
		}
		data, err := os.ReadFile(d.fullPath(p))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("store: reading %s: %w", p, err)
		}
		files.Put(p, string(data))
	}
	return files, nil
}

// discover lists the files under root in lexical order, entry first.
func (d *DirStore) discover() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(d.root, func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == d.root {
				return filepath.SkipDir
			}
			return err
		}
		if e.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == ManifestName {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: scanning %s: %w", d.root, err)
	}
	sort.SliceStable(paths, func(i, j int) bool {
		if paths[i] == d.entry || paths[j] == d.entry {
			return paths[i] == d.entry
		}
		return paths[i] < paths[j]
	})
	return paths, nil
}

func (d *DirStore) Save(ctx context.Context, files *patch.FileSet) error {
	if files == nil {
		files = &patch.FileSet{}
	}
	previous, _, err := d.readManifest()
	if err != nil {
		return err
	}

	keep := make(map[string]bool, files.Len())
	paths := make([]string, 0, files.Len())
	for _, f := range files.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		// The manifest owns this name; a site file there would be clobbered.
		if f.Path == ManifestName {
			continue
		}
		if err := state.WriteFileAtomic(d.fullPath(f.Path), []byte(f.Content), 0644); err != nil {
			return fmt.Errorf("store: writing %s: %w", f.Path, err)
		}
		keep[f.Path] = true
		paths = append(paths, f.Path)
	}

	for _, p := range previous {
		if keep[p] || p == ManifestName {
			continue
		}
		if err := os.Remove(d.fullPath(p)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("store: removing stale %s: %w", p, err)
		}
	}

	data, err := json.MarshalIndent(paths, "", "  ")
	if err != nil {
		return err
	}
	return state.WriteFileAtomic(d.manifestPath(), data, 0644)
}

func (d *DirStore) Close() error {
	return nil
}

func (d *DirStore) fullPath(p string) string {
	return filepath.Join(d.root, filepath.FromSlash(grammar.NormalizePath(p)))
}
