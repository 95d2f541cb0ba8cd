// Package store persists a project's FileSet between turns.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jorge-barreto/sitepatch/internal/config"
	"github.com/jorge-barreto/sitepatch/internal/patch"
)

// Store loads and saves the whole FileSet of a project.
type Store interface {
	// Load returns the saved files, or an empty set for a new project.
	Load(ctx context.Context) (*patch.FileSet, error)
	// Save replaces the saved files with files.
	Save(ctx context.Context, files *patch.FileSet) error
	Close() error
}

// Open returns the store configured for the project at root.
func Open(cfg *config.Config, root string) (Store, error) {
	path := cfg.StorePath(root)
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		return OpenSQLite(path)
	case config.DriverFiles, "":
		return NewDirStore(path, cfg.Entry), nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Store.Driver)
	}
}
