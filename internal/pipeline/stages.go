package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitesync/internal/logfields"
	"git.home.luguber.info/inful/sitesync/internal/metrics"
)

// Stage names used in reports, logs, and metrics labels.
const (
	StageFetch    = "fetch_sources"
	StageValidate = "validate_records"
	StageEmit     = "emit_artifacts"
)

// Stage is a discrete unit of work in a sync run.
type Stage func(ctx context.Context, st *runState) error

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Run must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func newWarnStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func newCanceledStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// runStages executes stages in order, recording timing and stopping on the
// first fatal error. Warning-kind stage errors are recorded and the run
// continues.
func (r *Runner) runStages(ctx context.Context, st *runState, stages []struct {
	name string
	fn   Stage
}) error {
	for _, stage := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(stage.name, ctx.Err())
			st.run.StageErrorKinds[stage.name] = string(se.Kind)
			r.recorder.IncStageResult(stage.name, metrics.ResultCanceled)
			return se
		default:
		}

		t0 := time.Now()
		err := stage.fn(ctx, st)
		dur := time.Since(t0)
		st.run.StageDurations[stage.name] = dur
		r.recorder.ObserveStageDuration(stage.name, dur)

		if err == nil {
			r.recorder.IncStageResult(stage.name, metrics.ResultSuccess)
			continue
		}

		var se *StageError
		if !errors.As(err, &se) {
			se = newFatalStageError(stage.name, err)
		}
		st.run.StageErrorKinds[stage.name] = string(se.Kind)

		switch se.Kind {
		case StageErrorWarning:
			r.recorder.IncStageResult(stage.name, metrics.ResultWarning)
			slog.Warn("Stage degraded",
				slog.String(logfields.Stage, stage.name),
				slog.Any(logfields.Error, se.Err))
			continue
		case StageErrorCanceled:
			r.recorder.IncStageResult(stage.name, metrics.ResultCanceled)
			return se
		default:
			r.recorder.IncStageResult(stage.name, metrics.ResultFatal)
			return se
		}
	}
	return nil
}
