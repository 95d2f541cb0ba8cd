package scaffold

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jorge-barreto/sitepatch/internal/config"
	"github.com/jorge-barreto/sitepatch/internal/ux"
)

func quiet(t *testing.T) {
	t.Helper()
	old := ux.Out
	ux.Out = &bytes.Buffer{}
	t.Cleanup(func() { ux.Out = old })
}

func TestInit_CreatesDirectoryStructure(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	if err := Init(dir, Options{Name: "bakery"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	for _, path := range []string{
		config.Dir,
		filepath.Join(config.Dir, config.FileName),
		filepath.Join(config.Dir, ".gitignore"),
	} {
		full := filepath.Join(dir, path)
		info, err := os.Stat(full)
		if err != nil {
			t.Fatalf("%s not created: %v", path, err)
		}
		if !info.IsDir() && info.Size() == 0 {
			t.Fatalf("%s is empty", path)
		}
	}
}

func TestInit_GeneratedConfigIsValid(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	if err := Init(dir, Options{Name: `Joe's "Bakery"`}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	cfg, err := config.Load(config.Path(dir), dir)
	if err != nil {
		t.Fatalf("config.Load failed on generated config: %v", err)
	}
	if cfg.Name != `Joe's "Bakery"` {
		t.Fatalf("name = %q", cfg.Name)
	}
	if cfg.Store.Driver != config.DriverFiles || cfg.Store.Path != "site" {
		t.Fatalf("store = %+v", cfg.Store)
	}
	if cfg.Checkpoints.Keep != 20 || !cfg.Checkpoints.On() {
		t.Fatalf("checkpoints = %+v", cfg.Checkpoints)
	}
}

func TestInit_SQLite(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	if err := Init(dir, Options{Name: "bakery", Driver: config.DriverSQLite}); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(config.Path(dir), dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Driver != config.DriverSQLite || cfg.Store.Path != ".sitepatch/site.db" {
		t.Fatalf("store = %+v", cfg.Store)
	}
}

func TestInit_NameFromDirectory(t *testing.T) {
	quiet(t)
	dir := filepath.Join(t.TempDir(), "my bakery!")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := Init(dir, Options{}); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(config.Path(dir), dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "my-bakery" {
		t.Fatalf("name = %q", cfg.Name)
	}
}

func TestInit_UnknownDriver(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	if err := Init(dir, Options{Name: "x", Driver: "postgres"}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(filepath.Join(dir, config.Dir)); !os.IsNotExist(err) {
		t.Fatal("nothing should be created for a bad driver")
	}
}

func TestInit_FailsIfDirExists(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, config.Dir), 0755); err != nil {
		t.Fatal(err)
	}

	err := Init(dir, Options{Name: "x"})
	if err == nil {
		t.Fatal("expected error when .sitepatch already exists")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected error containing 'already exists', got: %s", err)
	}
}
