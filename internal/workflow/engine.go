// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workflow runs a fixed sequence of stages over an immutable run
// state and turns the final state into a types.Result.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/exchange-scout/pkg/types"
)

// StageFunc computes the next state from the current one. It reports
// failures through State.Fail, never by returning an error.
type StageFunc[G any] func(ctx context.Context, s State[G]) State[G]

// Stage is a named step of a pipeline.
type Stage[G any] struct {
	Name string
	Run  StageFunc[G]
}

// Engine executes stages in order for one use case. An Engine holds no run
// state and may be shared between concurrent runs.
type Engine[G any] struct {
	useCase string
	stages  []Stage[G]
	logger  *zap.Logger
	now     func() time.Time
}

// New creates an Engine for useCase running stages in the given order.
func New[G any](useCase string, logger *zap.Logger, stages ...Stage[G]) *Engine[G] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine[G]{useCase: useCase, stages: stages, logger: logger, now: time.Now}
}

// UseCase returns the use-case name.
func (e *Engine[G]) UseCase() string { return e.useCase }

// Run executes every stage against goal and returns the outcome. Once a
// stage fails, the remaining stages are skipped. A cancelled context stops
// the run between stages. Run never returns an error or panics for pipeline
// failures; they are reported in the Result.
func (e *Engine[G]) Run(ctx context.Context, goal G) types.Result {
	runID := uuid.NewString()
	log := e.logger.With(zap.String("run_id", runID), zap.String("use_case", e.useCase))
	started := e.now()
	log.Info("run started", zap.Int("stages", len(e.stages)))

	state := State[G]{RunID: runID, Goal: goal}
	traces := make([]types.StageTrace, 0, len(e.stages))

	for _, st := range e.stages {
		if state.Err == nil {
			if err := ctx.Err(); err != nil {
				state = state.Fail(types.NewStageError(st.Name, types.ErrCancelled, "%v", err))
			}
		}
		if state.Err != nil {
			traces = append(traces, types.StageTrace{Name: st.Name, Status: types.StageSkipped, Facts: len(state.Facts)})
			log.Debug("stage skipped", zap.String("stage", st.Name))
			continue
		}

		t0 := e.now()
		state = runStage(ctx, st, state)
		trace := types.StageTrace{
			Name:     st.Name,
			Status:   types.StageOK,
			Duration: e.now().Sub(t0),
			Facts:    len(state.Facts),
		}
		if state.Err != nil {
			trace.Status = types.StageFailed
			log.Warn("stage failed", zap.String("stage", st.Name), zap.Error(state.Err))
		} else {
			log.Debug("stage done", zap.String("stage", st.Name), zap.Duration("duration", trace.Duration), zap.Int("facts", trace.Facts))
		}
		traces = append(traces, trace)
	}

	res := e.result(state, traces, started)
	log.Info("run finished", zap.String("outcome", string(res.Outcome)), zap.Int("facts", len(res.Facts)), zap.Duration("elapsed", res.FinishedAt.Sub(started)))
	return res
}

// runStage isolates a panicking stage so it fails the run instead of the
// caller.
func runStage[G any](ctx context.Context, st Stage[G], s State[G]) (out State[G]) {
	defer func() {
		if r := recover(); r != nil {
			out = s.Fail(&types.StageError{Stage: st.Name, Kind: errStagePanic, Msg: fmt.Sprint(r)})
		}
	}()
	return st.Run(ctx, s)
}

var errStagePanic = errors.New("stage panicked")

func (e *Engine[G]) result(s State[G], traces []types.StageTrace, started time.Time) types.Result {
	res := types.Result{
		RunID:       s.RunID,
		UseCase:     e.useCase,
		Facts:       s.Facts,
		Comparisons: s.Comparisons,
		Caveats:     s.Caveats,
		Payload:     s.Payload,
		Stages:      traces,
		StartedAt:   started,
		FinishedAt:  e.now(),
	}
	switch {
	case s.Err != nil:
		res.Outcome = types.OutcomeFailed
		res.Error = s.Err.Error()
	case len(s.Facts) == 0 && s.Payload == nil:
		res.Outcome = types.OutcomeFailed
		res.Error = types.ErrNoFacts.Error()
	case len(s.Caveats) > 0:
		res.Outcome = types.OutcomeSucceededWithCaveats
	default:
		res.Outcome = types.OutcomeSucceeded
	}
	return res
}
