// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/exchange-scout/internal/dedupe"
	"github.com/pdiddy/exchange-scout/internal/extract"
	"github.com/pdiddy/exchange-scout/internal/rank"
	"github.com/pdiddy/exchange-scout/internal/workflow"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

type courseState = workflow.State[types.CourseGoal]

// pagesPerSearch is how many relevant result pages are read per lookup.
const pagesPerSearch = 3

// maxForeignDepartments bounds the departments whose catalogs are read.
const maxForeignDepartments = 2

// Courses builds the course matching pipeline: find the foreign departments
// teaching the subject, collect course lists on both sides, keep the most
// relevant courses, estimate the credit conversion and rank every home and
// foreign pairing.
func Courses(d Deps) *workflow.Engine[types.CourseGoal] {
	k := newKit(d, "courses")
	return workflow.New(UseCaseCourses, k.Logger,
		workflow.Stage[types.CourseGoal]{Name: "find_departments", Run: k.findDepartments},
		workflow.Stage[types.CourseGoal]{Name: "find_courses", Run: k.findCourses},
		workflow.Stage[types.CourseGoal]{Name: "select_courses", Run: k.selectCourses},
		workflow.Stage[types.CourseGoal]{Name: "credit_ratio", Run: k.creditRatio},
		workflow.Stage[types.CourseGoal]{Name: "compare", Run: k.compareCourses},
		workflow.Stage[types.CourseGoal]{Name: "review", Run: k.reviewComparisons},
	)
}

func foreignSubject(g types.CourseGoal) string {
	if g.ForeignSubject != "" {
		return g.ForeignSubject
	}
	return g.HomeSubject
}

// findDepartments never fails the run: without departments the foreign
// courses are searched by subject instead.
func (k *kit) findDepartments(ctx context.Context, s courseState) courseState {
	g := s.Goal
	subject := foreignSubject(g)
	query := nonEmpty(g.ForeignUniversity, subject, "department courses catalog")
	results, err := k.search(ctx, []string{query}, k.Config.Search.MaxResults)
	if len(results) == 0 {
		k.Logger.Warn("no department search results", zap.String("query", query), zap.Error(err))
		return s
	}
	relevant := k.classifier.Filter(ctx, results,
		fmt.Sprintf("pages describing the departments of %s that teach %s", g.ForeignUniversity, subject))
	docs := k.fetch(ctx, urlsOf(relevant, pagesPerSearch))
	facts := k.extractAll(ctx, docs, extract.Departments{University: g.ForeignUniversity, Subject: subject})

	depts := dedupe.Dedupe(types.FactsOf[types.Department](facts), func(d types.Department) string {
		return dedupe.NameKey(d.Name)
	})
	k.Logger.Info("departments found", zap.Int("count", len(depts)))
	return s.WithFacts(types.AsFacts(depts)...)
}

func (k *kit) findCourses(ctx context.Context, s courseState) courseState {
	g := s.Goal
	home := k.homeCourses(ctx, g)
	foreign := k.foreignCourses(ctx, g, types.FactsOf[types.Department](s.Facts))
	k.Logger.Info("courses found", zap.Int("home", len(home)), zap.Int("foreign", len(foreign)))

	switch {
	case len(home) == 0 && len(foreign) == 0:
		return s.Fail(types.NewStageError("find_courses", types.ErrNoFacts, "no courses found at %s or %s", g.HomeUniversity, g.ForeignUniversity))
	case len(home) == 0:
		return s.Fail(types.NewStageError("find_courses", types.ErrNoFacts, "no courses found at %s", g.HomeUniversity))
	case len(foreign) == 0:
		return s.Fail(types.NewStageError("find_courses", types.ErrNoFacts, "no courses found at %s", g.ForeignUniversity))
	}
	return s.WithFacts(types.AsFacts(home)...).WithFacts(types.AsFacts(foreign)...)
}

func (k *kit) homeCourses(ctx context.Context, g types.CourseGoal) []types.Course {
	dept := g.HomeDepartment
	if dept == "" {
		dept = g.HomeSubject
	}
	schema := extract.Courses{University: g.HomeUniversity, Department: dept}
	queries := []string{
		nonEmpty(g.HomeUniversity, dept, "course catalog descriptions"),
		nonEmpty(g.HomeUniversity, "course catalog", dept),
	}
	for _, q := range queries {
		results, _ := k.search(ctx, []string{q}, k.Config.Search.MaxResults)
		docs := k.fetch(ctx, urlsOf(results, pagesPerSearch))
		if courses := uniqueCourses(k.extractAll(ctx, docs, schema)); len(courses) > 0 {
			return courses
		}
	}
	return nil
}

// foreignCourses reads each department's catalog page when one is known and
// searches for the department's courses otherwise.
func (k *kit) foreignCourses(ctx context.Context, g types.CourseGoal, depts []types.Department) []types.Course {
	if len(depts) == 0 {
		depts = []types.Department{{Name: foreignSubject(g)}}
	}
	if len(depts) > maxForeignDepartments {
		depts = depts[:maxForeignDepartments]
	}

	var facts []types.Fact
	for _, d := range depts {
		schema := extract.Courses{University: g.ForeignUniversity, Department: d.Name}
		var urls []string
		if d.CatalogURL != "" {
			urls = []string{d.CatalogURL}
		} else {
			results, _ := k.search(ctx, []string{nonEmpty(g.ForeignUniversity, d.Name, "courses syllabus")}, k.Config.Search.MaxResults)
			urls = urlsOf(results, pagesPerSearch)
		}
		facts = append(facts, k.extractAll(ctx, k.fetch(ctx, urls), schema)...)
	}
	return uniqueCourses(facts)
}

func uniqueCourses(facts []types.Fact) []types.Course {
	return dedupe.Dedupe(types.FactsOf[types.Course](facts), func(c types.Course) string {
		id := c.ID
		if id == "" {
			id = c.Title
		}
		return dedupe.CompositeKey(c.University, id)
	})
}

// splitCourses separates home from foreign courses by university.
func splitCourses(g types.CourseGoal, facts []types.Fact) (home, foreign []types.Course) {
	for _, c := range types.FactsOf[types.Course](facts) {
		if c.University == g.HomeUniversity {
			home = append(home, c)
		} else {
			foreign = append(foreign, c)
		}
	}
	return home, foreign
}

// selectCourses keeps the PreCap most relevant courses on each side.
func (k *kit) selectCourses(ctx context.Context, s courseState) courseState {
	g := s.Goal
	home, foreign := splitCourses(g, s.Facts)
	limit := k.Config.Rank.PreCap
	home = rank.ByRelevance(ctx, k.Model, home, g.HomeSubject, limit, k.Logger)
	foreign = rank.ByRelevance(ctx, k.Model, foreign, foreignSubject(g), limit, k.Logger)

	facts := types.AsFacts(types.FactsOf[types.Department](s.Facts))
	facts = append(facts, types.AsFacts(home)...)
	facts = append(facts, types.AsFacts(foreign)...)
	return s.ReplaceFacts(facts)
}

func (k *kit) creditRatio(ctx context.Context, s courseState) courseState {
	home, foreign := splitCourses(s.Goal, s.Facts)
	ratio := rank.CreditRatio(ctx, k.Model, home, foreign, k.Logger)
	return s.WithPayload(types.CoursePayload{
		CreditRatio:    ratio,
		HomeCourses:    len(home),
		ForeignCourses: len(foreign),
	})
}

func (k *kit) compareCourses(ctx context.Context, s courseState) courseState {
	g := s.Goal
	home, foreign := splitCourses(g, s.Facts)
	ratio := 1.0
	if p, ok := s.Payload.(types.CoursePayload); ok {
		ratio = p.CreditRatio
	}
	cfg := rank.FromConfig(k.Config.Rank)
	if g.TopK > 0 {
		cfg.K = g.TopK
	}
	scorer := rank.NewCourseScorer(k.Model, ratio)
	records, err := rank.Rank(ctx, home, foreign, scorer.Score, cfg, k.Logger)
	if err != nil {
		k.Logger.Warn("ranking interrupted", zap.Error(err))
		return s.Fail(types.NewStageError("compare", types.ErrCancelled, "ranking interrupted"))
	}
	return s.WithComparisons(records)
}

// reviewComparisons flags pairings that could not be scored.
func (k *kit) reviewComparisons(_ context.Context, s courseState) courseState {
	failed := 0
	for _, c := range s.Comparisons {
		if c.Unscored {
			failed++
		}
	}
	if failed > 0 {
		s = s.WithCaveat(fmt.Sprintf("%s could not be scored and rank last with score 0", plural(failed, "returned pairing")))
	}
	return s
}
