// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/exchange-scout/internal/dedupe"
	"github.com/pdiddy/exchange-scout/internal/extract"
	"github.com/pdiddy/exchange-scout/internal/fetch"
	"github.com/pdiddy/exchange-scout/internal/workflow"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

type insightState = workflow.State[types.InsightGoal]

const (
	// resultsPerQuery is how many results are read for each insight query.
	resultsPerQuery = 2
	maxQuotes       = 5
)

// topic is one summarized aspect of a university.
type topic struct {
	name        string
	queries     func(g types.InsightGoal) []string
	instruction func(g types.InsightGoal) string
	set         func(p *types.InsightPayload, summary string)
}

var campusLife = topic{
	name: "campus_life",
	queries: func(g types.InsightGoal) []string {
		return []string{
			g.University + " student life campus activities",
			g.University + " student clubs organizations",
			g.University + " campus facilities " + g.Subject,
			g.University + " student housing accommodation",
		}
	},
	instruction: func(g types.InsightGoal) string {
		return fmt.Sprintf(`Summarize campus life at %s for incoming exchange students.
Focus on campus strengths (infrastructure, facilities, location), concrete housing options and costs, the most relevant clubs or activities for international students, and notable events or traditions.
Avoid generic phrases; give specific examples and approximate numbers or dates where possible. Use 5 to 8 sentences.`, g.University)
	},
	set: func(p *types.InsightPayload, s string) { p.CampusLife = s },
}

var research = topic{
	name: "research",
	queries: func(g types.InsightGoal) []string {
		return []string{
			g.University + " " + g.Subject + " department research areas",
			g.University + " " + g.Subject + " THE ranking",
			g.University + " " + g.Subject + " research centers",
			g.University + " " + g.Subject + " academic reputation",
		}
	},
	instruction: func(g types.InsightGoal) string {
		return fmt.Sprintf(`Summarize rankings and research in %s at %s for exchange students.
Prioritize the concrete THE ranking position, two or three standout research areas with examples, notable facilities or resources for students, well-known professors or projects, and international reputation in specific subfields.
Give exact numbers, names and dates where possible. Keep a factual tone. Use 5 to 8 sentences.`, g.Subject, g.University)
	},
	set: func(p *types.InsightPayload, s string) { p.Research = s },
}

func experienceQueries(g types.InsightGoal) []string {
	return []string{
		g.University + " " + g.Subject + " student experience reviews",
		g.University + " " + g.Subject + " student testimonials",
		g.University + " " + g.Subject + " study abroad experiences",
		g.University + " " + g.Subject + " student blog",
	}
}

// Insights builds the campus insights pipeline: summarize campus life and
// research from a handful of pages each, then collect student quotes.
func Insights(d Deps) *workflow.Engine[types.InsightGoal] {
	k := newKit(d, "insights")
	return workflow.New(UseCaseInsights, k.Logger,
		workflow.Stage[types.InsightGoal]{Name: campusLife.name, Run: k.summarizeTopic(campusLife)},
		workflow.Stage[types.InsightGoal]{Name: research.name, Run: k.summarizeTopic(research)},
		workflow.Stage[types.InsightGoal]{Name: "quotes", Run: k.collectQuotes},
		workflow.Stage[types.InsightGoal]{Name: "review", Run: k.reviewInsights},
	)
}

func insightPayload(s insightState) types.InsightPayload {
	p, _ := s.Payload.(types.InsightPayload)
	return p
}

// withSources returns p with urls appended, skipping ones already listed.
func withSources(p types.InsightPayload, urls ...string) types.InsightPayload {
	p.Sources = dedupe.Dedupe(append(append([]string(nil), p.Sources...), urls...), dedupe.URLKey)
	return p
}

// summarizeTopic gathers text for t and summarizes it. A topic without
// usable content leaves a caveat instead of failing the run.
func (k *kit) summarizeTopic(t topic) workflow.StageFunc[types.InsightGoal] {
	return func(ctx context.Context, s insightState) insightState {
		g := s.Goal
		results, _ := k.search(ctx, t.queries(g), resultsPerQuery)
		docs := k.fetch(ctx, urlsOf(results, 0))
		if len(docs) == 0 {
			return s.WithCaveat(fmt.Sprintf("no content found for %s", t.name))
		}

		texts := make([]string, len(docs))
		urls := make([]string, len(docs))
		for i, d := range docs {
			texts[i] = d.Text
			urls[i] = d.URL
		}
		combined, truncated := fetch.Truncate(strings.Join(texts, "\n"), k.Config.Summarize.MaxInput)
		if truncated {
			k.Logger.Debug("combined text capped", zap.String("topic", t.name), zap.Int("max", k.Config.Summarize.MaxInput))
		}

		summary, err := k.summarizer.Summarize(ctx, combined, k.Config.Summarize.ChunkSize, t.instruction(g))
		if err != nil {
			k.Logger.Warn("summary failed", zap.String("topic", t.name), zap.Error(err))
			return s.WithCaveat(fmt.Sprintf("%s could not be summarized", t.name))
		}
		p := insightPayload(s)
		t.set(&p, summary)
		return s.WithPayload(withSources(p, urls...))
	}
}

// collectQuotes reads experience reports until maxQuotes quotes are found.
func (k *kit) collectQuotes(ctx context.Context, s insightState) insightState {
	g := s.Goal
	var quotes []types.Fact
	var used []string
	for _, q := range experienceQueries(g) {
		if len(quotes) >= maxQuotes || ctx.Err() != nil {
			break
		}
		results, _ := k.search(ctx, []string{q}, resultsPerQuery)
		for _, d := range k.fetch(ctx, urlsOf(results, 0)) {
			if len(quotes) >= maxQuotes {
				break
			}
			found := k.extractor.Extract(ctx, d.Text, d.URL, extract.Quotes{University: g.University, Max: maxQuotes - len(quotes)})
			if len(found) > 0 {
				quotes = append(quotes, found...)
				used = append(used, d.URL)
			}
		}
	}
	quotes = dedupe.Dedupe(quotes, func(f types.Fact) string {
		if q, ok := f.(types.Quote); ok {
			return dedupe.NameKey(q.Text)
		}
		return ""
	})
	if len(quotes) == 0 {
		return s
	}
	if len(quotes) > maxQuotes {
		quotes = quotes[:maxQuotes]
	}
	return s.WithFacts(quotes...).WithPayload(withSources(insightPayload(s), used...))
}

// reviewInsights fails the run when no topic produced anything.
func (k *kit) reviewInsights(_ context.Context, s insightState) insightState {
	p := insightPayload(s)
	if p.CampusLife == "" && p.Research == "" && len(s.Facts) == 0 {
		return s.Fail(types.NewStageError("review", types.ErrNoFacts, "no usable content for %s", s.Goal.University))
	}
	return s
}
