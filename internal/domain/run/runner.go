package run

import (
	"context"
	"time"

	"github.com/rigstrap/rigstrap/internal/domain/step"
	"github.com/rigstrap/rigstrap/internal/ports"
)

// Runner executes an ordered sequence of steps with a fail-fast policy:
// the first failure stops the run, because later steps assume earlier ones
// succeeded. No rollback is attempted; each step is idempotent, so the
// recovery path for a partial run is simply running the sequence again.
type Runner struct {
	logger ports.Logger
}

// NewRunner creates a new Runner.
func NewRunner(logger ports.Logger) *Runner {
	return &Runner{logger: logger}
}

// Run executes the steps strictly in order and returns the run report.
// Steps after the first failure receive no outcome.
func (r *Runner) Run(ctx context.Context, steps []step.Step) Report {
	report := NewReport()
	runCtx := step.NewRunContext(ctx)

	for _, s := range steps {
		select {
		case <-ctx.Done():
			report.stopped = true
			return report.finish()
		default:
		}

		outcome := r.runStep(runCtx, s)
		report = report.add(outcome)

		if outcome.Failed() {
			r.logger.Error(ctx, "step failed",
				ports.F("step", s.ID().String()),
				ports.F("error", outcome.Error()))
			report.stopped = true
			break
		}
	}

	return report.finish()
}

// runStep checks a single step and applies it when needed.
func (r *Runner) runStep(ctx step.RunContext, s step.Step) Outcome {
	id := s.ID()
	start := time.Now()

	status, err := s.Check(ctx)
	if err != nil {
		checkErr := step.NewCheckFailedError(id.String(), err)
		return NewOutcome(id, step.StatusFailed, checkErr).WithDuration(time.Since(start))
	}

	switch status {
	case step.StatusSatisfied:
		r.logger.Debug(ctx.Context(), "step already satisfied", ports.F("step", id.String()))
		return NewOutcome(id, step.StatusSatisfied, nil).WithDuration(time.Since(start))
	case step.StatusSkipped:
		r.logger.Info(ctx.Context(), "step not applicable, skipping", ports.F("step", id.String()))
		return NewOutcome(id, step.StatusSkipped, nil).WithDuration(time.Since(start))
	}

	r.logger.Info(ctx.Context(), "applying step", ports.F("step", id.String()))

	if err := s.Apply(ctx); err != nil {
		applyErr := step.NewApplyFailedError(id.String(), err)
		return NewOutcome(id, step.StatusFailed, applyErr).WithDuration(time.Since(start))
	}

	return NewOutcome(id, step.StatusSatisfied, nil).
		WithDuration(time.Since(start)).
		WithApplied(true)
}
