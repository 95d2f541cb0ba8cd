// Package runner drives one logical turn: a model response streamed from a
// source into a patch session, with the project persisted and recorded
// around it.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jorge-barreto/sitepatch/internal/checkpoint"
	"github.com/jorge-barreto/sitepatch/internal/config"
	"github.com/jorge-barreto/sitepatch/internal/diffview"
	"github.com/jorge-barreto/sitepatch/internal/lint"
	"github.com/jorge-barreto/sitepatch/internal/patch"
	"github.com/jorge-barreto/sitepatch/internal/source"
	"github.com/jorge-barreto/sitepatch/internal/state"
	"github.com/jorge-barreto/sitepatch/internal/store"
)

// Runner applies turns to one project.
type Runner struct {
	Config *config.Config
	// Dir is the project state directory (.sitepatch).
	Dir         string
	Store       store.Store
	Checkpoints *checkpoint.Storage // nil when checkpoints are off
	Log         zerolog.Logger
	// DryRun applies the turn to a copy and persists nothing.
	DryRun bool
	// OnApply, when set, sees each non-empty batch of edits as it lands.
	OnApply func(*patch.Result)
}

// Summary describes a finished turn.
type Summary struct {
	ID          string
	Turn        int
	Source      string
	Status      string
	ProjectName string
	Result      *patch.Result
	Diffs       []diffview.FileDiff
	Warnings    []lint.Warning
	Checkpoint  string
	Duration    time.Duration
	CostUSD     float64
	Err         error
}

// resultSource is implemented by sources that report a final stream result.
type resultSource interface {
	Result() source.StreamResult
}

// Run streams src into a new turn. Edits are applied as soon as they are
// complete. If ctx is cancelled the edits applied so far are kept and the
// turn ends as interrupted; a failing source ends it as failed. Either way
// the project is persisted and the summary returned. The error is non-nil
// only when the turn could not be run or recorded, or the source failed.
func (r *Runner) Run(ctx context.Context, src source.Source) (*Summary, error) {
	if err := state.EnsureDir(r.Dir); err != nil {
		return nil, err
	}
	st, err := state.Load(r.Dir)
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	turns, err := state.LoadTurns(r.Dir)
	if err != nil {
		return nil, fmt.Errorf("loading turn log: %w", err)
	}

	files, err := r.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading files: %w", err)
	}
	before := files.Clone()

	sum := &Summary{
		ID:     checkpoint.GenerateID(),
		Turn:   st.Turn + 1,
		Source: src.Name(),
	}
	log := r.Log.With().Str("turn", sum.ID).Int("n", sum.Turn).Logger()
	start := time.Now()

	if !r.DryRun {
		st.BeginTurn(sum.ID)
		if err := st.Save(r.Dir); err != nil {
			return nil, fmt.Errorf("saving state: %w", err)
		}
		turns.Start(sum.ID, st.Turn, sum.Source)
		if r.Checkpoints != nil {
			cp, err := r.Checkpoints.Save(&checkpoint.Checkpoint{
				ID:          sum.ID,
				Turn:        st.Turn,
				Label:       sum.Source,
				ProjectName: st.ProjectName,
			}, before)
			if err != nil {
				return nil, r.abort(st, turns, sum.ID, fmt.Errorf("saving checkpoint: %w", err))
			}
			sum.Checkpoint = cp.ID
		}
	}
	log.Info().Str("source", sum.Source).Int("files", files.Len()).Msg("turn started")

	sess := patch.NewSession(files)
	streamErr := src.Stream(ctx, func(chunk string) {
		r.report(log, sess.Feed(chunk))
	})
	r.report(log, sess.Close())

	sum.Result = sess.Total()
	sum.ProjectName = sess.ProjectName()
	sum.Duration = time.Since(start)
	if rs, ok := src.(resultSource); ok {
		sum.CostUSD = rs.Result().CostUSD
	}

	switch {
	case ctx.Err() != nil && (streamErr == nil || errors.Is(streamErr, ctx.Err())):
		sum.Status = state.StatusInterrupted
	case streamErr != nil:
		sum.Status = state.StatusFailed
		sum.Err = streamErr
	default:
		sum.Status = state.StatusCompleted
	}

	sum.Diffs = diffview.Compare(before, files)
	sum.Warnings = lint.Check(files, r.Config.Entry)
	for _, w := range sum.Warnings {
		log.Warn().Str("path", w.Path).Msg(w.Message)
	}

	if !r.DryRun {
		if err := r.persist(context.WithoutCancel(ctx), st, turns, sess, sum); err != nil {
			return sum, err
		}
	}

	log.Info().
		Str("status", sum.Status).
		Int("changes", len(sum.Result.Changes)).
		Int("skipped", len(sum.Result.Skipped)).
		Dur("duration", sum.Duration).
		Msg("turn finished")
	return sum, sum.Err
}

// persist saves the edited files and records the turn. It runs even after
// cancellation so applied edits are never lost.
func (r *Runner) persist(ctx context.Context, st *state.State, turns *state.TurnLog, sess *patch.Session, sum *Summary) error {
	if err := r.Store.Save(ctx, sess.Files()); err != nil {
		r.abort(st, turns, sum.ID, err)
		return fmt.Errorf("saving files: %w", err)
	}
	if err := state.WriteResponse(r.Dir, sum.Turn, sess.Text()); err != nil {
		r.Log.Warn().Err(err).Msg("failed to save response")
	}

	st.SetProjectName(sum.ProjectName)
	st.Finish(sum.Status)
	if err := st.Save(r.Dir); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	turns.End(sum.ID, func(e *state.TurnEntry) {
		e.Status = sum.Status
		e.Changes = len(sum.Result.Changes)
		e.Skipped = len(sum.Result.Skipped)
		e.Created = sum.Result.Created
		e.Updated = sum.Result.Updated
		e.Checkpoint = sum.Checkpoint
	})
	if err := turns.Flush(r.Dir); err != nil {
		return fmt.Errorf("flushing turn log: %w", err)
	}

	if r.Checkpoints != nil {
		pruned, err := r.Checkpoints.Prune(r.Config.Checkpoints.Keep)
		if err != nil {
			r.Log.Warn().Err(err).Msg("failed to prune checkpoints")
		} else if len(pruned) > 0 {
			r.Log.Debug().Strs("ids", pruned).Msg("pruned checkpoints")
		}
	}
	return nil
}

// abort marks the turn failed, saving state and the turn log (warning on
// error), and returns err.
func (r *Runner) abort(st *state.State, turns *state.TurnLog, id string, err error) error {
	st.Finish(state.StatusFailed)
	if saveErr := st.Save(r.Dir); saveErr != nil {
		r.Log.Warn().Err(saveErr).Msg("failed to save state")
	}
	turns.End(id, func(e *state.TurnEntry) { e.Status = state.StatusFailed })
	if flushErr := turns.Flush(r.Dir); flushErr != nil {
		r.Log.Warn().Err(flushErr).Msg("failed to flush turn log")
	}
	return err
}

func (r *Runner) report(log zerolog.Logger, res *patch.Result) {
	if res.Empty() {
		return
	}
	if res.ProjectName != "" {
		log.Info().Str("name", res.ProjectName).Msg("project named")
	}
	for _, p := range res.Created {
		log.Info().Str("path", p).Msg("file created")
	}
	for _, c := range res.Changes {
		log.Debug().Str("path", c.Path).Int("start", c.Start).Int("end", c.End).Msg("lines changed")
	}
	for _, s := range res.Skipped {
		log.Warn().Str("path", s.Path).Str("reason", string(s.Reason)).Str("search", firstLine(s.Search)).Msg("edit skipped")
	}
	if r.OnApply != nil {
		r.OnApply(res)
	}
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
