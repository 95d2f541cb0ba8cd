package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	cli "github.com/urfave/cli/v3"

	"github.com/jorge-barreto/sitepatch/internal/checkpoint"
	"github.com/jorge-barreto/sitepatch/internal/config"
	"github.com/jorge-barreto/sitepatch/internal/logging"
	"github.com/jorge-barreto/sitepatch/internal/patch"
	"github.com/jorge-barreto/sitepatch/internal/runner"
	"github.com/jorge-barreto/sitepatch/internal/state"
	"github.com/jorge-barreto/sitepatch/internal/store"
	"github.com/jorge-barreto/sitepatch/internal/ux"
)

// project is everything a command needs to work on the current project.
type project struct {
	root  string
	dir   string
	cfg   *config.Config
	log   *logging.Logger
	store store.Store
	cps   *checkpoint.Storage
}

func openProject(cmd *cli.Command) (*project, error) {
	root, err := findProjectRoot()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(config.Path(root), root)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	consoleLevel := zerolog.WarnLevel
	if cmd.Bool("verbose") {
		consoleLevel = zerolog.DebugLevel
	}
	log, err := logging.New(cfg.Log, logging.Options{File: cfg.LogPath(root), ConsoleLevel: consoleLevel})
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg, root)
	if err != nil {
		log.Close()
		return nil, err
	}

	p := &project{root: root, dir: filepath.Join(root, config.Dir), cfg: cfg, log: log, store: st}
	if cfg.Checkpoints.On() {
		p.cps, err = checkpoint.NewStorage(state.CheckpointDir(p.dir), cfg.Checkpoints.CompressionLevel)
		if err != nil {
			p.Close()
			return nil, err
		}
	}
	return p, nil
}

func (p *project) Close() {
	if err := p.store.Close(); err != nil {
		p.log.Warn().Err(err).Msg("closing store")
	}
	p.log.Close()
}

func (p *project) runner(dryRun bool) *runner.Runner {
	return &runner.Runner{
		Config:      p.cfg,
		Dir:         p.dir,
		Store:       p.store,
		Checkpoints: p.cps,
		Log:         p.log.Logger,
		DryRun:      dryRun,
		OnApply:     ux.Applied,
	}
}

func (p *project) files(ctx context.Context) (*patch.FileSet, error) {
	files, err := p.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading files: %w", err)
	}
	return files, nil
}

func (p *project) checkpoints() []checkpoint.Checkpoint {
	if p.cps == nil {
		return nil
	}
	cps, err := p.cps.List()
	if err != nil {
		p.log.Warn().Err(err).Msg("listing checkpoints")
	}
	return cps
}

// findProjectRoot walks up from cwd looking for .sitepatch/config.yaml.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(config.Path(dir)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s/%s found (searched from cwd to root); run 'sitepatch init' first", config.Dir, config.FileName)
		}
		dir = parent
	}
}
