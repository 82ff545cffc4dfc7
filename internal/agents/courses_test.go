// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agents

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/exchange-scout/internal/llm/llmtest"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

var courseGoal = types.CourseGoal{
	HomeUniversity:    "TU Munich",
	HomeDepartment:    "Informatics",
	ForeignUniversity: "University of Oslo",
	HomeSubject:       "Computer Science",
	TopK:              3,
}

func courseSearcher() *fakeSearcher {
	return &fakeSearcher{rules: []searchRule{
		{contains: "department courses catalog", results: []types.SearchResult{result("https://uio.example/departments")}},
		{contains: "course catalog descriptions", results: []types.SearchResult{result("https://tum.example/catalog")}},
	}}
}

func courseModel(similarity map[string]string) *llmtest.Model {
	return &llmtest.Model{Respond: func(p string) (string, error) {
		switch {
		case isRelevancePrompt(p):
			return "YES", nil
		case strings.Contains(p, "DEPARTMENT LIST"):
			return `{"departments": [{"name": "Department of Informatics", "catalog_url": "https://uio.example/ifi/courses"}]}`, nil
		case strings.Contains(p, "HOME CATALOG"):
			return `{"courses": [{"id": "IN0001", "title": "Databases", "credits": 6}, {"id": "IN0002", "title": "Algorithms", "credits": "6 ECTS"}, {"id": "IN0001", "title": "Databases (repeat)"}]}`, nil
		case strings.Contains(p, "FOREIGN CATALOG"):
			return `{"courses": [{"id": "IN2090", "title": "Databases and Data Modelling", "credits": 10}, {"id": "IN2010", "title": "Algorithms and Data Structures", "credits": 10}]}`, nil
		case strings.Contains(p, "credit conversion ratio"):
			return "0.6", nil
		case strings.Contains(p, "COURSE 1"):
			for pair, reply := range similarity {
				ids := strings.Split(pair, "/")
				if strings.Contains(p, "ID: "+ids[0]+"\n") && strings.Contains(p, "ID: "+ids[1]+"\n") {
					return reply, nil
				}
			}
			return "cannot compare", nil
		}
		return "", nil
	}}
}

func coursePages() map[string]string {
	return map[string]string{
		"https://uio.example/departments": "DEPARTMENT LIST of the faculty",
		"https://tum.example/catalog":     "HOME CATALOG entries",
		"https://uio.example/ifi/courses": "FOREIGN CATALOG entries",
	}
}

func TestCoursesEndToEnd(t *testing.T) {
	model := courseModel(map[string]string{
		"IN0001/IN2090": `{"similarity_score": 92, "content_overlap": "Relational modelling and SQL", "recommendation": "Recommend"}`,
		"IN0001/IN2010": `{"similarity_score": 15, "content_overlap": "Little overlap", "recommendation": "Do not recommend"}`,
		"IN0002/IN2090": `{"similarity_score": 20, "content_overlap": "Little overlap", "recommendation": "Do not recommend"}`,
		"IN0002/IN2010": `{"similarity_score": "88", "content_overlap": "Sorting and graphs", "recommendation": "Recommend"}`,
	})
	fetcher := &fakeFetcher{pages: coursePages()}

	res := Courses(testDeps(courseSearcher(), fetcher, model)).Run(context.Background(), courseGoal)

	require.Equal(t, types.OutcomeSucceeded, res.Outcome, res.Error)
	assert.Len(t, types.FactsOf[types.Department](res.Facts), 1)
	assert.Len(t, types.FactsOf[types.Course](res.Facts), 4, "duplicate home course dropped")
	assert.Contains(t, fetcher.Fetched(), "https://uio.example/ifi/courses", "department catalog read directly")

	require.Len(t, res.Comparisons, 3)
	var got []string
	for _, c := range res.Comparisons {
		got = append(got, c.Left.(types.Course).ID+"/"+c.Right.(types.Course).ID)
	}
	assert.Equal(t, []string{"IN0001/IN2090", "IN0002/IN2010", "IN0002/IN2090"}, got)
	assert.Equal(t, 92.0, res.Comparisons[0].Score)
	assert.Equal(t, "Recommend", res.Comparisons[0].Recommendation)

	p, ok := res.Payload.(types.CoursePayload)
	require.True(t, ok)
	assert.Equal(t, types.CoursePayload{CreditRatio: 0.6, HomeCourses: 2, ForeignCourses: 2}, p)
}

func TestCoursesUnscoredPairsAreCaveated(t *testing.T) {
	model := courseModel(map[string]string{
		"IN0001/IN2090": `{"similarity_score": 80}`,
	})
	goal := courseGoal
	goal.TopK = 0

	res := Courses(testDeps(courseSearcher(), &fakeFetcher{pages: coursePages()}, model)).Run(context.Background(), goal)

	require.Equal(t, types.OutcomeSucceededWithCaveats, res.Outcome, res.Error)
	assert.Len(t, res.Comparisons, 4)
	assert.Equal(t, "3 returned pairings could not be scored and rank last with score 0", res.Caveats[0])
}

func TestCoursesRationaleWordingIsNotAFailure(t *testing.T) {
	reply := `{"similarity_score": 5, "content_overlap": "scoring failed to reveal shared topics", "recommendation": "Do not recommend"}`
	model := courseModel(map[string]string{
		"IN0001/IN2090": reply,
		"IN0001/IN2010": reply,
		"IN0002/IN2090": reply,
		"IN0002/IN2010": reply,
	})
	goal := courseGoal
	goal.TopK = 0

	res := Courses(testDeps(courseSearcher(), &fakeFetcher{pages: coursePages()}, model)).Run(context.Background(), goal)

	require.Equal(t, types.OutcomeSucceeded, res.Outcome, res.Error)
	assert.Empty(t, res.Caveats)
	for _, c := range res.Comparisons {
		assert.False(t, c.Unscored)
	}
}

func TestCoursesNoForeignCoursesFails(t *testing.T) {
	pages := coursePages()
	delete(pages, "https://uio.example/ifi/courses")
	model := courseModel(nil)

	res := Courses(testDeps(courseSearcher(), &fakeFetcher{pages: pages}, model)).Run(context.Background(), courseGoal)

	assert.Equal(t, types.OutcomeFailed, res.Outcome)
	assert.Equal(t, "find_courses: no facts found: no courses found at University of Oslo", res.Error)
	assert.Empty(t, res.Comparisons)
	for _, p := range model.Prompts() {
		assert.NotContains(t, p, "COURSE 1", "no scoring after failure")
	}
}
