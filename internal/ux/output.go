package ux

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jorge-barreto/sitepatch/internal/diffview"
	"github.com/jorge-barreto/sitepatch/internal/patch"
	"github.com/jorge-barreto/sitepatch/internal/runner"
	"github.com/jorge-barreto/sitepatch/internal/state"
)

// ANSI color helpers
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
)

// Out and Err receive everything this package prints.
var (
	Out io.Writer = os.Stdout
	Err io.Writer = os.Stderr
)

func timestamp() string {
	return time.Now().Format("15:04:05")
}

// TurnHeader prints a timestamped header for a turn.
func TurnHeader(turn int, source string) {
	fmt.Fprintf(Out, "\n%s[%s]%s %s══════════════════════════════════════%s\n",
		Dim, timestamp(), Reset, Cyan, Reset)
	fmt.Fprintf(Out, "%s[%s]%s  %sTurn %d%s %s(%s)%s\n",
		Dim, timestamp(), Reset, Bold, turn, Reset, Dim, source, Reset)
	fmt.Fprintf(Out, "%s[%s]%s %s══════════════════════════════════════%s\n",
		Dim, timestamp(), Reset, Cyan, Reset)
}

// Applied prints edits as they land during a turn.
func Applied(res *patch.Result) {
	if res.ProjectName != "" {
		fmt.Fprintf(Out, "  %s◆ %s%s\n", Bold, res.ProjectName, Reset)
	}
	for _, p := range res.Created {
		fmt.Fprintf(Out, "  %s+ %s%s\n", Green, p, Reset)
	}
	for _, c := range res.Changes {
		fmt.Fprintf(Out, "  %s~ %s%s\n", Cyan, c, Reset)
	}
	for _, s := range res.Skipped {
		fmt.Fprintf(Out, "  %s! %s skipped (%s)%s %s\n", Yellow, s.Path, s.Reason, Reset, truncate(firstLine(s.Search), 60))
	}
}

// ToolUse prints an inline tool call made by the generator.
func ToolUse(name, input string) {
	fmt.Fprintf(Out, "  %s⚡ %s%s %s\n", Cyan, name, Reset, truncate(input, 80))
}

// TurnSummary prints the outcome of a turn.
func TurnSummary(sum *runner.Summary, showDiff bool) {
	res := sum.Result
	status := statusColor(sum.Status) + sum.Status + Reset
	fmt.Fprintf(Out, "\n%s[%s]%s  %s: %d change(s), %d skipped",
		Dim, timestamp(), Reset, status, len(res.Changes), len(res.Skipped))
	if n := len(res.Created); n > 0 {
		fmt.Fprintf(Out, ", %d created", n)
	}
	fmt.Fprintf(Out, " (%s)", formatDuration(sum.Duration))
	if sum.CostUSD > 0 {
		fmt.Fprintf(Out, " $%.4f", sum.CostUSD)
	}
	fmt.Fprintln(Out)

	for _, d := range sum.Diffs {
		fmt.Fprintf(Out, "  %s%-9s%s %s\n", Dim, d.Status, Reset, d.Stat())
	}
	for _, w := range sum.Warnings {
		Warning(w.String())
	}
	if showDiff && len(sum.Diffs) > 0 {
		fmt.Fprintln(Out)
		diffview.Render(Out, sum.Diffs, true)
	}
	if sum.Err != nil {
		fmt.Fprintf(Out, "  %s✗ %v%s\n", Red, sum.Err, Reset)
	}
	if sum.Checkpoint != "" && (sum.Status != state.StatusCompleted || len(res.Skipped) > 0) {
		UndoHint(sum.Checkpoint)
	}
}

// UndoHint prints how to restore the files from before a turn.
func UndoHint(id string) {
	fmt.Fprintf(Out, "\n%sUndo:%s sitepatch undo --id %s\n", Yellow, Reset, shortID(id))
}

// Warning prints a non-fatal problem.
func Warning(msg string) {
	fmt.Fprintf(Err, "%swarning:%s %s\n", Yellow, Reset, msg)
}

// Error prints a fatal error.
func Error(err error) {
	fmt.Fprintf(Err, "%serror:%s %v\n", Red, Reset, err)
}

func statusColor(status string) string {
	switch status {
	case state.StatusCompleted:
		return Green
	case state.StatusInterrupted:
		return Yellow
	case state.StatusFailed:
		return Red
	default:
		return Dim
	}
}

func formatDuration(d time.Duration) string {
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %02ds", m, s)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
