package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/jorge-barreto/sitepatch/internal/checkpoint"
	"github.com/jorge-barreto/sitepatch/internal/diffview"
	"github.com/jorge-barreto/sitepatch/internal/state"
)

// ErrNoCheckpoints is returned by Undo when there is nothing to restore.
var ErrNoCheckpoints = errors.New("no checkpoints to restore")

// Undo restores the files captured before a turn. An empty id picks the
// most recent checkpoint; otherwise id may be any unique prefix. The
// restored checkpoint is removed so repeated undos walk further back.
func (r *Runner) Undo(ctx context.Context, id string) (*checkpoint.Checkpoint, []diffview.FileDiff, error) {
	if r.Checkpoints == nil {
		return nil, nil, errors.New("checkpoints are disabled")
	}
	var (
		cp  *checkpoint.Checkpoint
		err error
	)
	if id == "" {
		cp, err = r.Checkpoints.Latest()
	} else {
		cp, err = r.Checkpoints.Resolve(id)
	}
	if errors.Is(err, checkpoint.ErrNotFound) {
		if id == "" {
			return nil, nil, ErrNoCheckpoints
		}
		return nil, nil, fmt.Errorf("no checkpoint matches %q", id)
	}
	if err != nil {
		return nil, nil, err
	}

	cp, restored, err := r.Checkpoints.Load(cp.ID)
	if err != nil {
		return nil, nil, err
	}
	current, err := r.Store.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading files: %w", err)
	}
	diffs := diffview.Compare(current, restored)
	if r.DryRun {
		return cp, diffs, nil
	}

	if err := r.Store.Save(ctx, restored); err != nil {
		return nil, nil, fmt.Errorf("saving files: %w", err)
	}
	st, err := state.Load(r.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading state: %w", err)
	}
	st.ProjectName = cp.ProjectName
	st.Finish(state.StatusIdle)
	if err := st.Save(r.Dir); err != nil {
		return nil, nil, fmt.Errorf("saving state: %w", err)
	}
	if err := r.Checkpoints.Delete(cp.ID); err != nil {
		r.Log.Warn().Err(err).Str("checkpoint", cp.ID).Msg("failed to delete restored checkpoint")
	}
	r.Log.Info().Str("checkpoint", cp.ID).Int("turn", cp.Turn).Msg("checkpoint restored")
	return cp, diffs, nil
}
