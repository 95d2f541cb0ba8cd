package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/jorge-barreto/sitepatch/internal/diffview"
	"github.com/jorge-barreto/sitepatch/internal/docs"
	"github.com/jorge-barreto/sitepatch/internal/doctor"
	"github.com/jorge-barreto/sitepatch/internal/grammar"
	"github.com/jorge-barreto/sitepatch/internal/lint"
	"github.com/jorge-barreto/sitepatch/internal/scaffold"
	"github.com/jorge-barreto/sitepatch/internal/state"
	"github.com/jorge-barreto/sitepatch/internal/ux"
)

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Set up a sitepatch project in the current directory",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Project name (defaults to the directory name)"},
			&cli.StringFlag{Name: "driver", Value: "files", Usage: "Store driver: files or sqlite"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			return scaffold.Init(cwd, scaffold.Options{Name: cmd.String("name"), Driver: cmd.String("driver")})
		},
	}
}

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the project, its last turn and its checkpoints",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			files, err := p.files(ctx)
			if err != nil {
				return err
			}
			st, err := state.Load(p.dir)
			if err != nil {
				return fmt.Errorf("loading state: %w", err)
			}
			turns, err := state.LoadTurns(p.dir)
			if err != nil {
				return fmt.Errorf("loading turn log: %w", err)
			}
			ux.RenderStatus(p.cfg, st, turns, files, p.checkpoints())
			return nil
		},
	}
}

func filesCmd() *cli.Command {
	return &cli.Command{
		Name:      "files",
		Usage:     "List the project's files, or print one of them",
		ArgsUsage: "[path]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			files, err := p.files(ctx)
			if err != nil {
				return err
			}
			name := cmd.Args().First()
			if name == "" {
				ux.RenderFiles(files)
				return nil
			}
			content, ok := files.Get(grammar.NormalizePath(name))
			if !ok {
				return fmt.Errorf("no file %q in project", name)
			}
			fmt.Fprint(ux.Out, content)
			return nil
		},
	}
}

func historyCmd() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent turns",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Number of turns to show (0 for all)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			turns, err := state.LoadTurns(p.dir)
			if err != nil {
				return fmt.Errorf("loading turn log: %w", err)
			}
			ux.RenderHistory(turns, int(cmd.Int("limit")))
			return nil
		},
	}
}

func undoCmd() *cli.Command {
	return &cli.Command{
		Name:  "undo",
		Usage: "Restore the files as they were before a turn",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Usage: "Checkpoint ID or prefix (defaults to the latest)"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Show what would change without restoring"},
			&cli.BoolFlag{Name: "diff", Usage: "Print a diff of the changes"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			dryRun := cmd.Bool("dry-run")
			cp, diffs, err := p.runner(dryRun).Undo(ctx, cmd.String("id"))
			if err != nil {
				return err
			}
			verb := "Restored"
			if dryRun {
				verb = "Would restore"
			}
			fmt.Fprintf(ux.Out, "%s%s%s files from before turn %d (checkpoint %s)\n",
				ux.Bold, verb, ux.Reset, cp.Turn, cp.ID)
			if len(diffs) == 0 {
				fmt.Fprintf(ux.Out, "  %sno changes%s\n", ux.Dim, ux.Reset)
				return nil
			}
			for _, d := range diffs {
				fmt.Fprintf(ux.Out, "  %s\n", d.Stat())
			}
			if cmd.Bool("diff") {
				diffview.Render(ux.Out, diffs, true)
			}
			return nil
		},
	}
}

func checkCmd() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Look for a missing entry file and broken local references",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			files, err := p.files(ctx)
			if err != nil {
				return err
			}
			warnings := lint.Check(files, p.cfg.Entry)
			if len(warnings) == 0 {
				fmt.Fprintf(ux.Out, "%s✓%s %d files, no problems found\n", ux.Green, ux.Reset, files.Len())
				return nil
			}
			for _, w := range warnings {
				ux.Warning(w.String())
			}
			return fmt.Errorf("%d problem(s) found", len(warnings))
		},
	}
}

func doctorCmd() *cli.Command {
	return &cli.Command{
		Name:  "doctor",
		Usage: "Ask the generator why the last turn skipped or failed edits",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
			defer stop()
			return doctor.Run(ctx, p.root, p.dir, p.cfg, p.cps)
		},
	}
}

func docsCmd() *cli.Command {
	return &cli.Command{
		Name:      "docs",
		Usage:     "Show documentation on a topic",
		ArgsUsage: "[topic]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				fmt.Fprintf(ux.Out, "%sAvailable topics:%s\n\n", ux.Bold, ux.Reset)
				for _, t := range docs.All() {
					fmt.Fprintf(ux.Out, "  %-14s %s\n", t.Name, t.Summary)
				}
				fmt.Fprintf(ux.Out, "\nRun 'sitepatch docs <topic>' to read one.\n")
				return nil
			}
			t, err := docs.Get(name)
			if err != nil {
				return err
			}
			fmt.Fprint(ux.Out, t.Content)
			return nil
		},
	}
}
