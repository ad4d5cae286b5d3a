package site

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
)

// StageName identifies a build stage.
type StageName string

// Stages in execution order.
const (
	StagePrepareOutput   StageName = "prepare_output"
	StageLoadData        StageName = "load_data"
	StageDiscoverContent StageName = "discover_content"
	StageRenderPages     StageName = "render_pages"
	StageRenderNotFound  StageName = "render_not_found"
	StageCopyStatic      StageName = "copy_static"
	StageBuildEnd        StageName = "build_end"
	StagePromote         StageName = "promote"
)

// StageErrorKind classifies a stage failure.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"
	StageErrorCanceled StageErrorKind = "canceled"
)

// StageError wraps the cause of a failed stage.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

type stageFunc func(ctx context.Context, bs *buildState) error

type stageDef struct {
	name StageName
	fn   stageFunc
}

func pipeline() []stageDef {
	return []stageDef{
		{StagePrepareOutput, stagePrepareOutput},
		{StageLoadData, stageLoadData},
		{StageDiscoverContent, stageDiscoverContent},
		{StageRenderPages, stageRenderPages},
		{StageRenderNotFound, stageRenderNotFound},
		{StageCopyStatic, stageCopyStatic},
		{StageBuildEnd, stageBuildEnd},
		{StagePromote, stagePromote},
	}
}

// runStages executes stages in order, recording timing and stopping on the
// first failure. Cancellation is checked between stages.
func runStages(ctx context.Context, bs *buildState, stages []stageDef) error {
	rec := bs.g.recorder
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := &StageError{Kind: StageErrorCanceled, Stage: st.name, Err: ctx.Err()}
			bs.report.recordStage(st.name, 0, metrics.ResultCanceled)
			rec.IncStageResult(string(st.name), metrics.ResultCanceled)
			return se
		default:
		}

		t0 := time.Now()
		err := st.fn(ctx, bs)
		dur := time.Since(t0)
		rec.ObserveStageDuration(string(st.name), dur)

		if err == nil {
			bs.report.recordStage(st.name, dur, metrics.ResultSuccess)
			rec.IncStageResult(string(st.name), metrics.ResultSuccess)
			bs.g.logger.Debug("Stage complete",
				logfields.BuildID(bs.info.ID),
				logfields.Stage(string(st.name)),
				logfields.DurationMS(float64(dur.Microseconds())/1000))
			continue
		}

		kind, result := StageErrorFatal, metrics.ResultFatal
		if stdErrors.Is(err, context.Canceled) || stdErrors.Is(err, context.DeadlineExceeded) {
			kind, result = StageErrorCanceled, metrics.ResultCanceled
		}
		bs.report.recordStage(st.name, dur, result)
		rec.IncStageResult(string(st.name), result)
		return &StageError{Kind: kind, Stage: st.name, Err: err}
	}
	return nil
}
