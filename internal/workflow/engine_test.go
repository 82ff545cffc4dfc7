// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/exchange-scout/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type goal struct{ Name string }

func addQuote(text string) Stage[goal] {
	return Stage[goal]{Name: "quote " + text, Run: func(_ context.Context, s State[goal]) State[goal] {
		return s.WithFacts(types.Quote{Text: text, SourceURL: "https://example.org"})
	}}
}

func TestRunSucceeded(t *testing.T) {
	e := New[goal]("test", nil, addQuote("a"), addQuote("b"))
	res := e.Run(context.Background(), goal{"x"})

	assert.Equal(t, types.OutcomeSucceeded, res.Outcome)
	assert.Len(t, res.Facts, 2)
	assert.NotEmpty(t, res.RunID)
	require.Len(t, res.Stages, 2)
	assert.Equal(t, types.StageOK, res.Stages[1].Status)
	assert.Equal(t, 2, res.Stages[1].Facts)
	assert.Equal(t, "succeeded (2 facts)", res.Summary())
}

func TestRunSkipsAfterFailure(t *testing.T) {
	ran := false
	fail := Stage[goal]{Name: "search", Run: func(_ context.Context, s State[goal]) State[goal] {
		return s.Fail(types.NewStageError("search", types.ErrNoCandidates, "no results for %q", s.Goal.Name))
	}}
	after := Stage[goal]{Name: "extract", Run: func(_ context.Context, s State[goal]) State[goal] {
		ran = true
		return s
	}}

	res := New[goal]("test", nil, addQuote("a"), fail, after).Run(context.Background(), goal{"oslo"})

	assert.False(t, ran)
	assert.Equal(t, types.OutcomeFailed, res.Outcome)
	assert.Equal(t, `search: no relevant candidates: no results for "oslo"`, res.Error)
	assert.Len(t, res.Facts, 1, "partial facts survive")
	assert.Equal(t, []string{types.StageOK, types.StageFailed, types.StageSkipped},
		[]string{res.Stages[0].Status, res.Stages[1].Status, res.Stages[2].Status})
}

func TestRunCaveats(t *testing.T) {
	caveat := Stage[goal]{Name: "normalize", Run: func(_ context.Context, s State[goal]) State[goal] {
		return s.WithCaveat("date adjusted forward 1 year")
	}}
	res := New[goal]("test", nil, addQuote("a"), caveat).Run(context.Background(), goal{})
	assert.Equal(t, types.OutcomeSucceededWithCaveats, res.Outcome)
	assert.Equal(t, []string{"date adjusted forward 1 year"}, res.Caveats)
}

func TestRunNoFactsFails(t *testing.T) {
	res := New[goal]("test", nil, Stage[goal]{Name: "noop", Run: func(_ context.Context, s State[goal]) State[goal] { return s }}).
		Run(context.Background(), goal{})
	assert.Equal(t, types.OutcomeFailed, res.Outcome)
	assert.Equal(t, types.ErrNoFacts.Error(), res.Error)
}

func TestRunCancelledBetweenStages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stop := Stage[goal]{Name: "first", Run: func(_ context.Context, s State[goal]) State[goal] {
		cancel()
		return s.WithFacts(types.Quote{Text: "q"})
	}}
	res := New[goal]("test", nil, stop, addQuote("never")).Run(ctx, goal{})

	assert.Equal(t, types.OutcomeFailed, res.Outcome)
	assert.Contains(t, res.Error, types.ErrCancelled.Error())
	assert.Len(t, res.Facts, 1)
	assert.Equal(t, types.StageSkipped, res.Stages[1].Status)
}

func TestRunRecoversPanic(t *testing.T) {
	boom := Stage[goal]{Name: "boom", Run: func(_ context.Context, s State[goal]) State[goal] {
		var m map[string]int
		m["x"]++
		return s
	}}
	var res types.Result
	assert.NotPanics(t, func() {
		res = New[goal]("test", nil, boom).Run(context.Background(), goal{})
	})
	assert.Equal(t, types.OutcomeFailed, res.Outcome)
	assert.Contains(t, res.Error, "boom: stage panicked")
}

func TestRunLogsRunID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	res := New[goal]("deadline", zap.New(core), addQuote("a")).Run(context.Background(), goal{})

	finished := logs.FilterMessage("run finished").All()
	require.Len(t, finished, 1)
	fields := finished[0].ContextMap()
	assert.Equal(t, res.RunID, fields["run_id"])
	assert.Equal(t, "deadline", fields["use_case"])
	assert.Equal(t, "succeeded", fields["outcome"])
}

func TestStateUpdatesDoNotAlias(t *testing.T) {
	base := State[goal]{}.WithFacts(types.Quote{Text: "a"}, types.Quote{Text: "b"})
	left := base.WithFacts(types.Quote{Text: "left"})
	right := base.WithFacts(types.Quote{Text: "right"})

	assert.Len(t, base.Facts, 2)
	assert.Equal(t, "left", left.Facts[2].(types.Quote).Text)
	assert.Equal(t, "right", right.Facts[2].(types.Quote).Text)

	c := base.WithCaveat("x")
	assert.Empty(t, base.Caveats)
	assert.Equal(t, []string{"x"}, c.Caveats)
}
