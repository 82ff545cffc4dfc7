// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/exchange-scout/pkg/types"
)

// stubRunner records the goals it receives and answers with a fixed result.
type stubRunner[G any] struct {
	result types.Result

	mu    sync.Mutex
	goals []G
}

func (r *stubRunner[G]) Run(_ context.Context, goal G) types.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.goals = append(r.goals, goal)
	return r.result
}

func succeeded(useCase string, facts ...types.Fact) types.Result {
	return types.Result{RunID: "run-1", UseCase: useCase, Outcome: types.OutcomeSucceeded, Facts: facts}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := do(t, New(Pipelines{}, 0, nil), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestDeadlineSuccess(t *testing.T) {
	runner := &stubRunner[types.DeadlineGoal]{result: succeeded("deadline", types.DeadlineFact{Date: "2025-07-31", SourceURL: "https://uio.example"})}
	srv := New(Pipelines{Deadline: runner}, time.Minute, nil)

	rec := do(t, srv, http.MethodPost, "/deadline", `{"home_university":"TUM","foreign_university":"UiO"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var doc struct {
		Outcome string `json:"outcome"`
		Facts   []struct {
			Kind string `json:"kind"`
		} `json:"facts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "succeeded", doc.Outcome)
	require.Len(t, doc.Facts, 1)
	assert.Equal(t, "deadline", doc.Facts[0].Kind)
	assert.Equal(t, []types.DeadlineGoal{{HomeUniversity: "TUM", ForeignUniversity: "UiO"}}, runner.goals)
}

func TestBadRequests(t *testing.T) {
	runner := &stubRunner[types.CourseGoal]{result: succeeded("courses")}
	srv := New(Pipelines{Courses: runner}, 0, nil)

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"malformed", `{"home_university":`, "invalid goal"},
		{"unknown field", `{"home_university":"TUM","colour":"red"}`, "invalid goal"},
		{"missing fields", `{"home_university":"TUM"}`, "missing required fields: foreign_university, home_subject"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/courses", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body["error"], tt.wantErr)
		})
	}
	assert.Empty(t, runner.goals, "invalid goals never reach the pipeline")
}

func TestFailedRunIsUnprocessable(t *testing.T) {
	runner := &stubRunner[types.PartnerGoal]{result: types.Result{
		RunID:   "run-9",
		Outcome: types.OutcomeFailed,
		Error:   "search: search failure",
	}}
	srv := New(Pipelines{Partners: runner}, 0, nil)

	rec := do(t, srv, http.MethodPost, "/partners", `{"university":"TUM","gpa":1.7}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "search: search failure", body["error"])
	assert.Equal(t, "run-9", body["run_id"])
}

func TestInsightsPathParams(t *testing.T) {
	runner := &stubRunner[types.InsightGoal]{result: succeeded("insights", types.Quote{Text: "Loved it", SourceURL: "https://blog.example"})}
	srv := New(Pipelines{Insights: runner}, 0, nil)

	rec := do(t, srv, http.MethodGet, "/insights/University%20of%20Oslo/Computer%20Science", "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []types.InsightGoal{{University: "University of Oslo", Subject: "Computer Science"}}, runner.goals)
}

func TestApplicationPlan(t *testing.T) {
	runner := &stubRunner[types.PlanGoal]{result: succeeded("application_plan",
		types.PartnerUniversity{Name: "KTH"},
		types.ApplicationRequirements{University: "KTH", Deadline: "15 March", SourceURL: "https://kth.example"})}
	srv := New(Pipelines{Plan: runner}, 0, nil)

	rec := do(t, srv, http.MethodPost, "/application_plan", `{"university":"TUM","partner":"KTH"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var doc struct {
		Facts []struct {
			Kind string `json:"kind"`
		} `json:"facts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Len(t, doc.Facts, 2)
	assert.Equal(t, "application_requirements", doc.Facts[1].Kind)
	assert.Equal(t, []types.PlanGoal{{University: "TUM", Partner: "KTH"}}, runner.goals)

	rec = do(t, srv, http.MethodPost, "/application_plan", `{"partner":"KTH"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnconfiguredPipeline(t *testing.T) {
	rec := do(t, New(Pipelines{}, 0, nil), http.MethodPost, "/deadline", `{}`)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestRequestsAreLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	srv := New(Pipelines{}, 0, zap.New(core))

	do(t, srv, http.MethodGet, "/healthz", "")

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/healthz", fields["path"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
}
