// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agents

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/exchange-scout/internal/calendar"
	"github.com/pdiddy/exchange-scout/internal/extract"
	"github.com/pdiddy/exchange-scout/internal/temporal"
	"github.com/pdiddy/exchange-scout/internal/workflow"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

type deadlineState = workflow.State[types.DeadlineGoal]

// Deadline builds the deadline discovery pipeline: search, filter the
// candidates, try each relevant page in turn until one states a deadline,
// roll the date forward into the future and attach a calendar reminder.
func Deadline(d Deps) *workflow.Engine[types.DeadlineGoal] {
	k := newKit(d, "deadline")
	return workflow.New(UseCaseDeadline, k.Logger,
		workflow.Stage[types.DeadlineGoal]{Name: "search", Run: k.deadlineSearch},
		workflow.Stage[types.DeadlineGoal]{Name: "filter", Run: k.deadlineFilter},
		workflow.Stage[types.DeadlineGoal]{Name: "extract", Run: k.deadlineExtract},
		workflow.Stage[types.DeadlineGoal]{Name: "normalize", Run: k.deadlineNormalize},
		workflow.Stage[types.DeadlineGoal]{Name: "calendar", Run: k.deadlineCalendar},
	)
}

func (k *kit) deadlineSearch(ctx context.Context, s deadlineState) deadlineState {
	g := s.Goal
	query := nonEmpty(g.HomeUniversity, g.ForeignUniversity, g.Program(), "exchange program application deadline")
	results, err := k.search(ctx, []string{query}, k.Config.Search.MaxResults)
	if len(results) == 0 {
		if err != nil {
			return s.Fail(types.NewStageError("search", types.ErrSearchFailure, "%v", err))
		}
		return s.Fail(types.NewStageError("search", types.ErrNoCandidates, "no results for %q", query))
	}
	return s.WithCandidates(results)
}

func (k *kit) deadlineFilter(ctx context.Context, s deadlineState) deadlineState {
	g := s.Goal
	goal := fmt.Sprintf("application deadlines for a %s exchange program between %s and %s",
		g.Program(), g.HomeUniversity, g.ForeignUniversity)
	relevant := k.classifier.Filter(ctx, s.Candidates, goal)
	if len(relevant) == 0 {
		return s.Fail(types.NewStageError("filter", types.ErrNoCandidates,
			"none of %d results looked relevant", len(s.Candidates)))
	}
	return s.WithCandidates(relevant)
}

// deadlineExtract tries candidates in order. Each is fetched and read at most
// once; the first that yields a deadline ends the search.
func (k *kit) deadlineExtract(ctx context.Context, s deadlineState) deadlineState {
	g := s.Goal
	schema := extract.Deadline{
		Home:    g.HomeUniversity,
		Foreign: g.ForeignUniversity,
		Program: g.Program(),
		Term:    g.Term(),
	}
	cfg := k.Config.Fetch
	for i, c := range s.Candidates {
		if err := ctx.Err(); err != nil {
			return s.Fail(types.NewStageError("extract", types.ErrCancelled, "after %d of %d candidates", i, len(s.Candidates)))
		}
		doc := k.Fetcher.Fetch(ctx, c.URL, cfg.Timeout, cfg.MaxChars)
		if doc.Empty() {
			k.Logger.Debug("no content", zap.String("url", c.URL))
			continue
		}
		facts := k.extractor.Extract(ctx, doc.Text, doc.URL, schema)
		if len(facts) > 0 {
			k.Logger.Info("deadline found", zap.String("url", c.URL), zap.Int("candidate", i+1))
			return s.WithFacts(facts[0])
		}
	}
	return s.Fail(types.NewStageError("extract", types.ErrNoFacts,
		"no deadline found in %s", plural(len(s.Candidates), "candidate")))
}

func (k *kit) deadlineNormalize(_ context.Context, s deadlineState) deadlineState {
	deadlines := types.FactsOf[types.DeadlineFact](s.Facts)
	if len(deadlines) == 0 {
		return s.Fail(types.NewStageError("normalize", types.ErrNoFacts, "no deadline to normalize"))
	}
	fact := deadlines[0]
	now := k.Now()

	date, err := temporal.ParseDate(fact.Date, now)
	if err != nil {
		return s.Fail(types.NewStageError("normalize", types.ErrDateUnparsable, "%q from %s", fact.Date, fact.SourceURL))
	}
	n := temporal.Normalize(date, now)
	if n.Adjusted() {
		s = s.WithCaveat(fmt.Sprintf("date adjusted forward %s; verify the current cycle with the university", plural(n.YearsAdded, "year")))
	}
	return s.WithPayload(types.DeadlinePayload{
		Deadline:   fact,
		Date:       n.Date.Format(time.DateOnly),
		YearsAdded: n.YearsAdded,
	})
}

func (k *kit) deadlineCalendar(_ context.Context, s deadlineState) deadlineState {
	p, ok := s.Payload.(types.DeadlinePayload)
	if !ok {
		return s.Fail(types.NewStageError("calendar", types.ErrNoFacts, "no normalized deadline"))
	}
	date, err := time.Parse(time.DateOnly, p.Date)
	if err != nil {
		return s.Fail(types.NewStageError("calendar", types.ErrDateUnparsable, "%v", err))
	}
	art, err := calendar.Build(calendar.Event{
		Program:           s.Goal.Program(),
		HomeUniversity:    s.Goal.HomeUniversity,
		ForeignUniversity: s.Goal.ForeignUniversity,
		Date:              date,
		StatedDate:        p.Deadline.Date,
		Details:           p.Deadline.Description,
		SourceURL:         p.Deadline.SourceURL,
		YearsAdded:        p.YearsAdded,
	}, k.Now())
	if err != nil {
		return s.WithCaveat("calendar reminder not created: " + err.Error())
	}
	p.Calendar = &art
	return s.WithPayload(p)
}
