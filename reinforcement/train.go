package reinforcement

import (
	"context"
	"errors"
)

// ProgressFunc is a callback by which the training loop lends snapshots to views,
// while exercising some level of control over its cancellation to prevent blocking.
// ProgressFunc is synchronous/blocking and should be defined to complete quickly.
type ProgressFunc func(context.Context, *Snapshot)

// TrainOptions bound and instrument a training run.
type TrainOptions struct {
	// MaxSteps caps the run; zero runs until the context is done.
	MaxSteps int64
	// ExportEvery is the number of steps between calls to the ProgressFunc.
	ExportEvery int64
	// Window is the number of steps averaged per reward-curve point.
	Window int64
}

// Options extracts the loop options from the config.
func (cfg *TrainingConfig) Options() TrainOptions {
	return TrainOptions{
		MaxSteps:    cfg.MaxSteps,
		ExportEvery: cfg.ExportEvery,
		Window:      cfg.Window,
	}
}

// Train drives the estimator synchronously until ctx is done or MaxSteps is reached,
// then exports a final snapshot and returns the accumulated statistics. Without
// auto-reset the world stays terminal after reaching a win or lose cell, so Train resets
// it before the next step, as any driver must.
func Train(
	ctx context.Context,
	est *Estimator,
	opts TrainOptions,
	progressFn ProgressFunc,
) (*Progress, error) {
	progress := NewProgress(opts.Window)
	export := func() {
		if progressFn != nil {
			progressFn(ctx, TakeSnapshot(est, progress))
		}
	}
	defer export()

	rewards := est.World().Rewards()
	for opts.MaxSteps <= 0 || progress.Steps < opts.MaxSteps {
		select {
		case <-ctx.Done():
			return progress, nil
		default:
		}

		if est.World().Terminal() {
			est.Reset()
		}

		tr, err := est.Step()
		if err != nil {
			return progress, err
		}
		progress.Observe(tr, rewards)

		if opts.ExportEvery > 0 && progress.Steps%opts.ExportEvery == 0 {
			export()
		}
	}
	return progress, nil
}

// IsContractViolation reports whether err stems from stepping in a terminal state.
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrTerminalState)
}
