package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jorge-barreto/sitepatch/internal/config"
	"github.com/jorge-barreto/sitepatch/internal/ux"
)

const configTemplate = `name: %q
entry: index.html

store:
  driver: %s
%s
checkpoints:
  enabled: true
  compression-level: 3
  keep: 20

generator:
  command: claude
  model: sonnet
  timeout: 10

watch:
  debounce-ms: 150

log:
  level: info
  format: console
  # file: .sitepatch/logs/sitepatch.log
`

const gitignoreTemplate = `state.json
turns.json
responses/
logs/
checkpoints/
*.db
*.db-wal
*.db-shm
`

// Options control what Init writes.
type Options struct {
	Name   string // defaults to the directory name
	Driver string // config.DriverFiles or config.DriverSQLite
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Init creates a new .sitepatch/ directory with a config and .gitignore.
func Init(targetDir string, opts Options) error {
	dir := filepath.Join(targetDir, config.Dir)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("%s directory already exists in %s", config.Dir, targetDir)
	}

	name := strings.TrimSpace(opts.Name)
	if name == "" {
		abs, err := filepath.Abs(targetDir)
		if err != nil {
			return err
		}
		name = strings.Trim(unsafeName.ReplaceAllString(filepath.Base(abs), "-"), "-")
		if name == "" {
			name = "site"
		}
	}

	driver := opts.Driver
	storePath := ""
	switch driver {
	case "", config.DriverFiles:
		driver = config.DriverFiles
		storePath = "  path: site\n"
	case config.DriverSQLite:
		storePath = "  path: .sitepatch/site.db\n"
	default:
		return fmt.Errorf("unknown store driver %q (valid: files, sqlite)", driver)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", config.Dir, err)
	}

	cfgData := fmt.Sprintf(configTemplate, name, driver, storePath)
	if _, err := config.Parse([]byte(cfgData), targetDir); err != nil {
		os.RemoveAll(dir)
		return err
	}
	if err := os.WriteFile(config.Path(targetDir), []byte(cfgData), 0644); err != nil {
		return fmt.Errorf("writing config.yaml: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignoreTemplate), 0644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	fmt.Fprintf(ux.Out, "\n%s%s✓ Initialized %s/ for %s%s\n\n", ux.Bold, ux.Green, config.Dir, name, ux.Reset)
	fmt.Fprintf(ux.Out, "  Created:\n")
	fmt.Fprintf(ux.Out, "    %s.sitepatch/config.yaml%s  project configuration\n", ux.Cyan, ux.Reset)
	fmt.Fprintf(ux.Out, "    %s.sitepatch/.gitignore%s   keeps state and history out of git\n\n", ux.Cyan, ux.Reset)
	fmt.Fprintf(ux.Out, "  Next steps:\n")
	fmt.Fprintf(ux.Out, "    1. Apply a response with %ssitepatch apply response.md%s\n", ux.Cyan, ux.Reset)
	fmt.Fprintf(ux.Out, "    2. Or generate one with %ssitepatch generate \"a bakery landing page\"%s\n", ux.Cyan, ux.Reset)
	fmt.Fprintf(ux.Out, "    3. Read %ssitepatch docs format%s for the block format\n\n", ux.Cyan, ux.Reset)
	return nil
}
