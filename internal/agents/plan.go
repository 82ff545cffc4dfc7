// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/exchange-scout/internal/extract"
	"github.com/pdiddy/exchange-scout/internal/workflow"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

type planState = workflow.State[types.PlanGoal]

const detailResults = 8

// Plan builds the application plan pipeline: find the partners of the home
// university (unless one is given), pick the first, then search for and
// extract its application deadline, academic calendar, language and GPA
// requirements.
func Plan(d Deps) *workflow.Engine[types.PlanGoal] {
	k := newKit(d, "plan")
	return workflow.New(UseCasePlan, k.Logger,
		workflow.Stage[types.PlanGoal]{Name: "partners", Run: k.planPartners},
		workflow.Stage[types.PlanGoal]{Name: "select", Run: k.planSelect},
		workflow.Stage[types.PlanGoal]{Name: "details", Run: k.planDetails},
	)
}

// planPartners records the partner universities as facts. The relevant
// partner-list pages stay as candidates for the details fallback.
func (k *kit) planPartners(ctx context.Context, s planState) planState {
	g := s.Goal
	if partner := strings.TrimSpace(g.Partner); partner != "" {
		return s.WithFacts(types.PartnerUniversity{Name: partner})
	}

	results, serr := k.searchPartnerLists(ctx, g.University, g.Major)
	if serr != nil {
		return s.Fail(serr)
	}
	relevant, serr := k.filterPartnerLists(ctx, results, g.University)
	if serr != nil {
		return s.Fail(serr)
	}
	partners, serr := k.extractPartners(ctx, relevant, g.University, g.Major)
	if serr != nil {
		return s.Fail(serr)
	}
	return s.WithCandidates(relevant).WithFacts(types.AsFacts(partners)...)
}

func (k *kit) planSelect(_ context.Context, s planState) planState {
	partners := types.FactsOf[types.PartnerUniversity](s.Facts)
	if len(partners) == 0 {
		return s.Fail(types.NewStageError("select", types.ErrNoFacts, "no partner university to plan for"))
	}
	p := types.PlanPayload{
		Partner:     partners[0].Name,
		DetailQuery: detailQuery(partners[0].Name, s.Goal.Program()),
	}
	for _, other := range partners[1:] {
		p.Alternatives = append(p.Alternatives, other.Name)
	}
	return s.WithPayload(p)
}

func detailQuery(partner, program string) string {
	return nonEmpty(partner, program, "application deadline language requirements academic calendar GPA")
}

// planDetails extracts from detail pages one at a time and stops at the
// first complete set of requirements. The partner-list pages are tried when
// the detail search yields nothing complete. An incomplete set is kept with
// a caveat; no set at all fails the run.
func (k *kit) planDetails(ctx context.Context, s planState) planState {
	p, _ := s.Payload.(types.PlanPayload)
	schema := extract.Application{University: p.Partner, Program: s.Goal.Program()}

	results, err := k.search(ctx, []string{p.DetailQuery}, detailResults)
	if err != nil {
		k.Logger.Warn("detail search failed", zap.String("partner", p.Partner), zap.Error(err))
	}
	relevant := k.classifier.Filter(ctx, results,
		fmt.Sprintf("exchange application requirements of %s", p.Partner))
	if len(relevant) > pagesPerSearch {
		relevant = relevant[:pagesPerSearch]
	}

	best, ok := k.firstComplete(ctx, urlsOf(relevant, 0), schema)
	if !ok {
		k.Logger.Debug("no complete details from detail search; trying partner pages", zap.String("partner", p.Partner))
		fallback, found := k.firstComplete(ctx, urlsOf(s.Candidates, 0), schema)
		if found || best == nil {
			best, ok = fallback, found
		}
	}
	if best == nil {
		if err := ctx.Err(); err != nil {
			return s.Fail(types.NewStageError("details", types.ErrCancelled, "%v", err))
		}
		return s.Fail(types.NewStageError("details", types.ErrNoFacts,
			"no application details found for %s", p.Partner))
	}

	s = s.WithFacts(*best)
	if !ok {
		s = s.WithCaveat(fmt.Sprintf("application details for %s do not state the %s",
			p.Partner, strings.Join(best.Missing(), " or ")))
	}
	return s
}

// firstComplete fetches urls and extracts requirements page by page until a
// complete set is found. Otherwise it returns the first partial set, or nil.
func (k *kit) firstComplete(ctx context.Context, urls []string, schema extract.Application) (*types.ApplicationRequirements, bool) {
	var partial *types.ApplicationRequirements
	for _, d := range k.fetch(ctx, urls) {
		if ctx.Err() != nil {
			break
		}
		for _, req := range types.FactsOf[types.ApplicationRequirements](k.extractor.Extract(ctx, d.Text, d.URL, schema)) {
			if len(req.Missing()) == 0 {
				return &req, true
			}
			if partial == nil {
				partial = &req
			}
		}
	}
	return partial, false
}
