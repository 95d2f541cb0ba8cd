package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/jorge-barreto/sitepatch/internal/ux"
)

func main() {
	app := &cli.Command{
		Name:        "sitepatch",
		Usage:       "Apply streamed model responses to a website project",
		Description: "Run 'sitepatch docs' for documentation on the response format, matching, storage and config.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Show debug logs on stderr"},
		},
		Commands: []*cli.Command{
			initCmd(),
			applyCmd(),
			generateCmd(),
			watchCmd(),
			statusCmd(),
			filesCmd(),
			historyCmd(),
			undoCmd(),
			checkCmd(),
			doctorCmd(),
			docsCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		ux.Error(err)
		os.Exit(1)
	}
}
