// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
	"time"
)

// Outcome classifies a finished run.
type Outcome string

const (
	OutcomeSucceeded            Outcome = "succeeded"
	OutcomeSucceededWithCaveats Outcome = "succeeded_with_caveats"
	OutcomeFailed               Outcome = "failed"
)

// Stage statuses recorded in a StageTrace.
const (
	StageOK      = "ok"
	StageSkipped = "skipped"
	StageFailed  = "failed"
)

// StageTrace records how one stage of a run went.
type StageTrace struct {
	Name     string        `json:"name" yaml:"name"`
	Status   string        `json:"status" yaml:"status"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Facts    int           `json:"facts" yaml:"facts"`
}

// Result is the final, well-typed outcome of one pipeline run. A failed run
// carries a human-readable Error and may still carry partial facts.
type Result struct {
	RunID       string             `json:"run_id" yaml:"run_id"`
	UseCase     string             `json:"use_case" yaml:"use_case"`
	Outcome     Outcome            `json:"outcome" yaml:"outcome"`
	Error       string             `json:"error,omitempty" yaml:"error,omitempty"`
	Facts       []Fact             `json:"facts" yaml:"facts"`
	Comparisons []ComparisonRecord `json:"comparisons,omitempty" yaml:"comparisons,omitempty"`
	Caveats     []string           `json:"caveats,omitempty" yaml:"caveats,omitempty"`
	Payload     any                `json:"payload,omitempty" yaml:"payload,omitempty"`
	Stages      []StageTrace       `json:"stages" yaml:"stages"`
	StartedAt   time.Time          `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time          `json:"finished_at" yaml:"finished_at"`
}

// Failed reports whether the run failed.
func (r Result) Failed() bool {
	return r.Outcome == OutcomeFailed
}

// Summary renders the outcome in one line, e.g. "succeeded (3 facts)".
func (r Result) Summary() string {
	switch r.Outcome {
	case OutcomeFailed:
		return "failed: " + r.Error
	case OutcomeSucceededWithCaveats:
		return fmt.Sprintf("succeeded with caveats (%d facts): %s", len(r.Facts), strings.Join(r.Caveats, "; "))
	default:
		return fmt.Sprintf("succeeded (%d facts)", len(r.Facts))
	}
}

// CalendarArtifact is an importable reminder for a deadline.
type CalendarArtifact struct {
	Filename   string `json:"filename" yaml:"filename"`
	ICS        string `json:"ics" yaml:"ics"`
	GoogleURL  string `json:"google_url" yaml:"google_url"`
	OutlookURL string `json:"outlook_url" yaml:"outlook_url"`
}

// DeadlinePayload is the use-case payload of a deadline run.
type DeadlinePayload struct {
	Deadline   DeadlineFact      `json:"deadline" yaml:"deadline"`
	Date       string            `json:"date" yaml:"date"`
	YearsAdded int               `json:"years_added" yaml:"years_added"`
	Calendar   *CalendarArtifact `json:"calendar,omitempty" yaml:"calendar,omitempty"`
}

// CoursePayload is the use-case payload of a course-matching run.
type CoursePayload struct {
	// CreditRatio is how many home credits one foreign credit is worth.
	CreditRatio    float64 `json:"credit_ratio" yaml:"credit_ratio"`
	HomeCourses    int     `json:"home_courses" yaml:"home_courses"`
	ForeignCourses int     `json:"foreign_courses" yaml:"foreign_courses"`
}

// InsightPayload is the use-case payload of a campus-insights run.
type InsightPayload struct {
	CampusLife string   `json:"campus_life,omitempty" yaml:"campus_life,omitempty"`
	Research   string   `json:"research,omitempty" yaml:"research,omitempty"`
	Sources    []string `json:"sources" yaml:"sources"`
}

// PlanPayload is the use-case payload of an application-plan run.
type PlanPayload struct {
	// Partner is the university the plan is for.
	Partner string `json:"partner" yaml:"partner"`
	// Alternatives are the other partners found, in discovery order.
	Alternatives []string `json:"alternatives,omitempty" yaml:"alternatives,omitempty"`
	DetailQuery  string   `json:"detail_query" yaml:"detail_query"`
}
