// Package doctor explains why the last turn did not apply cleanly by
// handing its response, skipped edits and generator log to the model.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/jorge-barreto/sitepatch/internal/checkpoint"
	"github.com/jorge-barreto/sitepatch/internal/config"
	"github.com/jorge-barreto/sitepatch/internal/patch"
	"github.com/jorge-barreto/sitepatch/internal/source"
	"github.com/jorge-barreto/sitepatch/internal/state"
	"github.com/jorge-barreto/sitepatch/internal/ux"
)

const maxLogLines = 200

// maxResponse caps how much of the response goes into the prompt.
const maxResponse = 48 * 1024

// ErrNothingToDiagnose means the last turn completed with no skipped edits.
var ErrNothingToDiagnose = errors.New("no problem turn to diagnose")

const diagPrompt = `You are diagnosing a model response that did not apply cleanly to a website project. The response uses search/replace blocks; search text must match the current file (whitespace is flexible, everything else exact).

## Turn
%s

## Skipped Edits
%s

## Response (turn %d)
%s
%s
Instructions:
1. For each skipped edit, explain why the search text did not match the file it targets.
2. Say whether the response or the project is at fault.
3. Suggest the next step:
   - sitepatch undo            (restore the files from before the turn)
   - sitepatch generate ...    (ask again with the current files)
   - edit the response and run sitepatch apply again

Be direct and concise.`

// Report is what is known about the last turn.
type Report struct {
	Turn     state.TurnEntry
	Response string
	Skipped  []patch.Skip
	Log      string
}

// Gather collects the last turn's context from the state directory. Skipped
// edits are recomputed by replaying the response against the turn's
// checkpoint; without one only the count from the turn log is known.
func Gather(dir string, cps *checkpoint.Storage) (*Report, error) {
	turns, err := state.LoadTurns(dir)
	if err != nil {
		return nil, fmt.Errorf("loading turn log: %w", err)
	}
	last, ok := turns.Last()
	if !ok || (last.Status == state.StatusCompleted && last.Skipped == 0) {
		return nil, ErrNothingToDiagnose
	}

	r := &Report{Turn: last}
	if resp, err := state.ReadResponse(dir, last.Turn); err == nil {
		r.Response = resp
	}
	if cps != nil && last.Checkpoint != "" && r.Response != "" {
		if _, pre, err := cps.Load(last.Checkpoint); err == nil {
			r.Skipped = patch.Apply(r.Response, pre).Skipped
		}
	}
	r.Log = gatherLog(state.GeneratorLogPath(dir, last.Turn))
	return r, nil
}

// Prompt renders the diagnosis request.
func (r *Report) Prompt() string {
	response := r.Response
	switch {
	case response == "":
		response = "(no response saved)"
	case len(response) > maxResponse:
		response = truncateRunes(response, maxResponse) + "\n... (truncated)"
	}
	var logSection string
	if r.Log != "" {
		logSection = fmt.Sprintf("\n## Generator Log\n%s\n", r.Log)
	}
	return fmt.Sprintf(diagPrompt, describeTurn(r.Turn), describeSkips(r), r.Turn.Turn, response, logSection)
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func describeTurn(e state.TurnEntry) string {
	parts := []string{
		fmt.Sprintf("Number: %d", e.Turn),
		fmt.Sprintf("Source: %s", e.Source),
		fmt.Sprintf("Status: %s", e.Status),
		fmt.Sprintf("Applied changes: %d", e.Changes),
		fmt.Sprintf("Skipped edits: %d", e.Skipped),
	}
	if e.Duration != "" {
		parts = append(parts, fmt.Sprintf("Duration: %s", e.Duration))
	}
	if len(e.Created) > 0 {
		parts = append(parts, fmt.Sprintf("Created: %s", strings.Join(e.Created, ", ")))
	}
	if len(e.Updated) > 0 {
		parts = append(parts, fmt.Sprintf("Updated: %s", strings.Join(e.Updated, ", ")))
	}
	return strings.Join(parts, "\n")
}

func describeSkips(r *Report) string {
	if len(r.Skipped) == 0 {
		if r.Turn.Skipped > 0 {
			return fmt.Sprintf("%d edit(s) were skipped; details are unavailable.", r.Turn.Skipped)
		}
		return "(none)"
	}
	var b strings.Builder
	for i, s := range r.Skipped {
		fmt.Fprintf(&b, "%d. %s (%s)\n   search:\n", i+1, s.Path, s.Reason)
		for _, line := range strings.Split(s.Search, "\n") {
			b.WriteString("     " + line + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func gatherLog(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) > maxLogLines {
		lines = lines[len(lines)-maxLogLines:]
		return fmt.Sprintf("... (truncated to last %d lines)\n%s", maxLogLines, strings.Join(lines, "\n"))
	}
	return string(data)
}

// Run gathers the report and streams the generator's diagnosis to ux.Out.
func Run(ctx context.Context, projectRoot, dir string, cfg *config.Config, cps *checkpoint.Storage) error {
	r, err := Gather(dir, cps)
	if errors.Is(err, ErrNothingToDiagnose) {
		fmt.Fprintln(ux.Out, "Nothing to diagnose: the last turn applied cleanly.")
		return nil
	}
	if err != nil {
		return err
	}
	if err := source.Preflight(cfg.Generator.Command); err != nil {
		return err
	}

	fmt.Fprintf(ux.Out, "\n%s%s══ Doctor: turn %d (%s, %d skipped) ══%s\n\n",
		ux.Bold, ux.Cyan, r.Turn.Turn, r.Turn.Status, r.Turn.Skipped, ux.Reset)

	model := cfg.Generator.Model
	if model == "" {
		model = "sonnet"
	}
	vars := source.Vars{ProjectRoot: projectRoot, Model: model}
	cmd := &source.Command{
		Bin:  cfg.Generator.Command,
		Args: []string{"-p", r.Prompt(), "--model", model},
		Dir:  projectRoot,
		Env:  source.BuildEnv(vars),
	}
	if err := cmd.Stream(ctx, func(s string) { fmt.Fprint(ux.Out, s) }); err != nil {
		return fmt.Errorf("failed to run %s: %w", cfg.Generator.Command, err)
	}
	fmt.Fprintln(ux.Out)
	if r.Turn.Checkpoint != "" {
		ux.UndoHint(r.Turn.Checkpoint)
	}
	return nil
}
