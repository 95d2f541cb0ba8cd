package ux

import (
	"fmt"
	"strings"

	"github.com/jorge-barreto/sitepatch/internal/checkpoint"
	"github.com/jorge-barreto/sitepatch/internal/config"
	"github.com/jorge-barreto/sitepatch/internal/patch"
	"github.com/jorge-barreto/sitepatch/internal/state"
)

// RenderStatus prints the project overview.
func RenderStatus(cfg *config.Config, st *state.State, turns *state.TurnLog, files *patch.FileSet, cps []checkpoint.Checkpoint) {
	name := st.ProjectName
	if name == "" {
		name = Dim + "(unnamed)" + Reset
	}
	fmt.Fprintf(Out, "%sProject:%s %s %s[%s]%s\n", Bold, Reset, name, Dim, cfg.Name, Reset)
	fmt.Fprintf(Out, "%sState:%s   turn %d, %s%s%s\n", Bold, Reset, st.Turn, statusColor(st.Status), st.Status, Reset)
	fmt.Fprintf(Out, "%sStore:%s   %s (%s)\n", Bold, Reset, cfg.Store.Path, cfg.Store.Driver)

	fmt.Fprintf(Out, "\n%sFiles:%s\n", Bold, Reset)
	RenderFiles(files)

	if last, ok := turns.Last(); ok {
		fmt.Fprintf(Out, "\n%sLast turn:%s\n", Bold, Reset)
		renderTurn(last)
	}

	fmt.Fprintf(Out, "\n%sCheckpoints:%s %d", Bold, Reset, len(cps))
	if len(cps) > 0 {
		fmt.Fprintf(Out, " (latest %s, turn %d)", shortID(cps[0].ID), cps[0].Turn)
	}
	fmt.Fprintln(Out)
}

// RenderFiles lists files in order with their sizes.
func RenderFiles(files *patch.FileSet) {
	if files.Len() == 0 {
		fmt.Fprintf(Out, "  %s(none)%s\n", Dim, Reset)
		return
	}
	for i, f := range files.Files {
		marker := "  "
		if i == 0 {
			marker = fmt.Sprintf("%s→%s ", Yellow, Reset)
		}
		fmt.Fprintf(Out, "  %s%-32s %s%5d lines %7d bytes%s\n",
			marker, f.Path, Dim, lineCount(f.Content), len(f.Content), Reset)
	}
}

// RenderHistory prints the most recent turns, newest last. limit <= 0 shows
// all of them.
func RenderHistory(turns *state.TurnLog, limit int) {
	entries := turns.Entries
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	if len(entries) == 0 {
		fmt.Fprintf(Out, "  %s(no turns yet)%s\n", Dim, Reset)
		return
	}
	for _, e := range entries {
		renderTurn(e)
	}
}

func renderTurn(e state.TurnEntry) {
	fmt.Fprintf(Out, "  %s%3d%s  %s  %s%-11s%s %3d change(s) %2d skipped  %s%s%s\n",
		Dim, e.Turn, Reset,
		e.Start.Format("2006-01-02 15:04"),
		statusColor(e.Status), e.Status, Reset,
		e.Changes, e.Skipped,
		Dim, e.Source, Reset)
	if len(e.Created) > 0 {
		fmt.Fprintf(Out, "       %screated:%s %s\n", Dim, Reset, strings.Join(e.Created, ", "))
	}
	if len(e.Updated) > 0 {
		fmt.Fprintf(Out, "       %supdated:%s %s\n", Dim, Reset, strings.Join(e.Updated, ", "))
	}
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
