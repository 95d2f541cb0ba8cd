package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/jorge-barreto/sitepatch/internal/contextgather"
	"github.com/jorge-barreto/sitepatch/internal/source"
	"github.com/jorge-barreto/sitepatch/internal/state"
	"github.com/jorge-barreto/sitepatch/internal/ux"
)

func applyCmd() *cli.Command {
	return &cli.Command{
		Name:      "apply",
		Usage:     "Apply a model response from a file, stdin or the clipboard",
		ArgsUsage: "[file|-]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "clipboard", Aliases: []string{"c"}, Usage: "Read the response from the clipboard"},
			&cli.BoolFlag{Name: "stream-json", Usage: "Input is claude stream-json output"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Show what would change without saving"},
			&cli.BoolFlag{Name: "diff", Usage: "Print a diff of the changes"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() > 1 {
				return fmt.Errorf("apply takes at most one file")
			}
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			src, err := source.FromInput(source.Input{
				Arg:        cmd.Args().First(),
				Clipboard:  cmd.Bool("clipboard"),
				StreamJSON: cmd.Bool("stream-json"),
			})
			if err != nil {
				return err
			}
			return runTurn(ctx, p, src, cmd.Bool("dry-run"), cmd.Bool("diff"))
		},
	}
}

func generateCmd() *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Usage:     "Ask the generator for changes and apply them as they stream in",
		ArgsUsage: "<request...>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "model", Usage: "Override generator.model"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Show what would change without saving"},
			&cli.BoolFlag{Name: "diff", Usage: "Print a diff of the changes"},
			&cli.BoolFlag{Name: "print-prompt", Usage: "Print the prompt and exit"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			request := strings.Join(cmd.Args().Slice(), " ")
			if strings.TrimSpace(request) == "" {
				return fmt.Errorf("request argument is required")
			}
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			gen := p.cfg.Generator
			if m := cmd.String("model"); m != "" {
				gen.Model = m
			}

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
			prompt := contextgather.Gather(files, st.ProjectName, turns).Prompt(request)
			if cmd.Bool("print-prompt") {
				fmt.Fprint(ux.Out, prompt)
				return nil
			}

			if err := source.Preflight(gen.Command); err != nil {
				return err
			}
			vars := source.Vars{Prompt: prompt, Model: gen.Model, ProjectRoot: p.root, ProjectName: st.ProjectName}
			args := source.GeneratorArgs(gen, vars)
			src := &source.Command{
				Bin:        gen.Command,
				Args:       args,
				Dir:        p.root,
				Env:        source.BuildEnv(vars),
				Timeout:    time.Duration(gen.Timeout) * time.Minute,
				StreamJSON: source.WantsStreamJSON(args),
				LogPath:    state.GeneratorLogPath(p.dir, st.Turn+1),
				OnTool:     ux.ToolUse,
			}
			return runTurn(ctx, p, src, cmd.Bool("dry-run"), cmd.Bool("diff"))
		},
	}
}

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Follow a response file as it is written; each rewrite starts a new turn",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "from-end", Usage: "Ignore what the file already holds"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("file argument is required")
			}
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
			defer stop()

			tail := &source.Tail{
				Path:     path,
				Debounce: time.Duration(p.cfg.Watch.DebounceMS) * time.Millisecond,
				FromEnd:  cmd.Bool("from-end"),
			}
			fmt.Fprintf(ux.Out, "%sWatching %s (Ctrl-C to stop)%s\n", ux.Dim, path, ux.Reset)
			for {
				if err := turn(ctx, p, tail, false, false); err != nil {
					return err
				}
				if !tail.Truncated() || ctx.Err() != nil {
					return nil
				}
				tail.FromEnd = false
			}
		},
	}
}

// runTurn runs one turn with signal handling.
func runTurn(ctx context.Context, p *project, src source.Source, dryRun, showDiff bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()
	return turn(ctx, p, src, dryRun, showDiff)
}

func turn(ctx context.Context, p *project, src source.Source, dryRun, showDiff bool) error {
	st, err := state.Load(p.dir)
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}
	ux.TurnHeader(st.Turn+1, src.Name())
	if dryRun {
		fmt.Fprintf(ux.Out, "  %s(dry run: nothing will be saved)%s\n", ux.Dim, ux.Reset)
	}

	r := p.runner(dryRun)
	sum, err := r.Run(ctx, src)
	if sum == nil {
		return err
	}
	ux.TurnSummary(sum, showDiff)
	if sum.Status == state.StatusFailed {
		return fmt.Errorf("turn %d failed", sum.Turn)
	}
	return err
}
