// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders run results for people (text) and programs (JSON,
// YAML). Facts are tagged with their kind so consumers can tell the variants
// apart.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/exchange-scout/pkg/types"
)

// Fact is a fact tagged with its kind.
type Fact struct {
	Kind types.FactKind `json:"kind" yaml:"kind"`
	Fact types.Fact     `json:"fact" yaml:"fact"`
}

// Comparison is a comparison record with tagged sides.
type Comparison struct {
	Left           Fact    `json:"left" yaml:"left"`
	Right          Fact    `json:"right" yaml:"right"`
	Score          float64 `json:"score" yaml:"score"`
	Rationale      string  `json:"rationale" yaml:"rationale"`
	Recommendation string  `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
	Unscored       bool    `json:"unscored,omitempty" yaml:"unscored,omitempty"`
}

// Document is the serializable form of a types.Result.
type Document struct {
	RunID       string             `json:"run_id" yaml:"run_id"`
	UseCase     string             `json:"use_case" yaml:"use_case"`
	Outcome     types.Outcome      `json:"outcome" yaml:"outcome"`
	Error       string             `json:"error,omitempty" yaml:"error,omitempty"`
	Facts       []Fact             `json:"facts" yaml:"facts"`
	Comparisons []Comparison       `json:"comparisons,omitempty" yaml:"comparisons,omitempty"`
	Caveats     []string           `json:"caveats,omitempty" yaml:"caveats,omitempty"`
	Payload     any                `json:"payload,omitempty" yaml:"payload,omitempty"`
	Stages      []types.StageTrace `json:"stages" yaml:"stages"`
}

func tag(f types.Fact) Fact {
	if f == nil {
		return Fact{}
	}
	return Fact{Kind: f.Kind(), Fact: f}
}

// FromResult converts res into a Document.
func FromResult(res types.Result) Document {
	doc := Document{
		RunID:   res.RunID,
		UseCase: res.UseCase,
		Outcome: res.Outcome,
		Error:   res.Error,
		Facts:   make([]Fact, len(res.Facts)),
		Caveats: res.Caveats,
		Payload: res.Payload,
		Stages:  res.Stages,
	}
	for i, f := range res.Facts {
		doc.Facts[i] = tag(f)
	}
	for _, c := range res.Comparisons {
		doc.Comparisons = append(doc.Comparisons, Comparison{
			Left:           tag(c.Left),
			Right:          tag(c.Right),
			Score:          c.Score,
			Rationale:      c.Rationale,
			Recommendation: c.Recommendation,
			Unscored:       c.Unscored,
		})
	}
	return doc
}

// WriteJSON writes res as indented JSON.
func WriteJSON(w io.Writer, res types.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(FromResult(res))
}

// WriteYAML writes res as YAML.
func WriteYAML(w io.Writer, res types.Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(FromResult(res)); err != nil {
		return err
	}
	return enc.Close()
}

// WriteText writes a human-readable summary of res.
func WriteText(w io.Writer, res types.Result) {
	fmt.Fprintf(w, "%s: %s\n", res.UseCase, res.Summary())

	switch p := res.Payload.(type) {
	case types.DeadlinePayload:
		writeDeadline(w, p)
	case types.CoursePayload:
		fmt.Fprintf(w, "\nCredit conversion: 1 foreign credit = %.2f home credits (%d home, %d foreign courses compared)\n",
			p.CreditRatio, p.HomeCourses, p.ForeignCourses)
	case types.InsightPayload:
		writeInsights(w, p)
	case types.PlanPayload:
		writePlan(w, p, types.FactsOf[types.ApplicationRequirements](res.Facts))
	}

	if len(res.Comparisons) > 0 {
		fmt.Fprintf(w, "\nBest matches:\n")
		for i, c := range res.Comparisons {
			fmt.Fprintf(w, "%2d. %5.1f  %s  <->  %s\n", i+1, c.Score, label(c.Left), label(c.Right))
			if c.Recommendation != "" {
				fmt.Fprintf(w, "           %s\n", c.Recommendation)
			}
		}
	}

	if partners := types.FactsOf[types.PartnerUniversity](res.Facts); len(partners) > 0 {
		fmt.Fprintf(w, "\nPartner universities:\n")
		for _, p := range partners {
			fmt.Fprintf(w, "  - %s (language: %s, GPA: %s)\n", p.Name, yesNo(p.LanguageMatch), yesNo(p.GPASufficient))
			if p.Comments != "" {
				fmt.Fprintf(w, "      %s\n", p.Comments)
			}
			if p.Profile != nil {
				writeProfile(w, *p.Profile)
			}
		}
	}

	if quotes := types.FactsOf[types.Quote](res.Facts); len(quotes) > 0 {
		fmt.Fprintf(w, "\nStudent voices:\n")
		for _, q := range quotes {
			fmt.Fprintf(w, "  %q\n      %s\n", q.Text, q.SourceURL)
		}
	}

	if len(res.Caveats) > 0 {
		fmt.Fprintf(w, "\nCaveats:\n")
		for _, c := range res.Caveats {
			fmt.Fprintf(w, "  - %s\n", c)
		}
	}
}

func writeDeadline(w io.Writer, p types.DeadlinePayload) {
	fmt.Fprintf(w, "\nDeadline: %s", p.Date)
	if p.YearsAdded > 0 {
		fmt.Fprintf(w, " (stated as %q)", p.Deadline.Date)
	}
	fmt.Fprintln(w)
	if p.Deadline.Description != "" {
		fmt.Fprintf(w, "Details:  %s\n", p.Deadline.Description)
	}
	if p.Deadline.ExactText != "" {
		fmt.Fprintf(w, "Quote:    %q\n", p.Deadline.ExactText)
	}
	fmt.Fprintf(w, "Source:   %s\n", p.Deadline.SourceURL)
	if p.Calendar != nil {
		fmt.Fprintf(w, "\nCalendar: %s\n", p.Calendar.Filename)
		fmt.Fprintf(w, "Google:   %s\n", p.Calendar.GoogleURL)
		fmt.Fprintf(w, "Outlook:  %s\n", p.Calendar.OutlookURL)
	}
}

func writePlan(w io.Writer, p types.PlanPayload, reqs []types.ApplicationRequirements) {
	fmt.Fprintf(w, "\nPlan for: %s\n", p.Partner)
	for _, r := range reqs {
		fmt.Fprintf(w, "Deadline:           %s\n", orUnstated(r.Deadline))
		fmt.Fprintf(w, "Academic calendar:  %s\n", orUnstated(r.AcademicCalendar))
		fmt.Fprintf(w, "Language:           %s\n", orUnstated(r.LanguageRequirements))
		fmt.Fprintf(w, "GPA:                %s\n", orUnstated(r.GPARequirement))
		fmt.Fprintf(w, "Source:             %s\n", r.SourceURL)
	}
	if len(p.Alternatives) > 0 {
		fmt.Fprintf(w, "Other partners:     %s\n", strings.Join(p.Alternatives, ", "))
	}
}

func writeProfile(w io.Writer, p types.UniversityProfile) {
	var facts []string
	if p.Ranking != "" {
		facts = append(facts, p.Ranking+" ranking")
	}
	if p.StudentCount > 0 {
		facts = append(facts, fmt.Sprintf("~%d students", p.StudentCount))
	}
	if len(p.Languages) > 0 {
		facts = append(facts, "taught in "+strings.Join(p.Languages, ", "))
	}
	if len(facts) > 0 {
		fmt.Fprintf(w, "      %s\n", strings.Join(facts, "; "))
	}
	if p.Description != "" {
		fmt.Fprintf(w, "      %s\n", p.Description)
	}
}

func orUnstated(s string) string {
	if s == "" {
		return "(not stated)"
	}
	return s
}

func writeInsights(w io.Writer, p types.InsightPayload) {
	if p.CampusLife != "" {
		fmt.Fprintf(w, "\nCampus life:\n%s\n", indent(p.CampusLife))
	}
	if p.Research != "" {
		fmt.Fprintf(w, "\nResearch and rankings:\n%s\n", indent(p.Research))
	}
	if len(p.Sources) > 0 {
		fmt.Fprintf(w, "\nSources (%d):\n", len(p.Sources))
		for _, s := range p.Sources {
			fmt.Fprintf(w, "  %s\n", s)
		}
	}
}

func label(f types.Fact) string {
	if c, ok := f.(types.Course); ok {
		return c.Label()
	}
	if f == nil {
		return ""
	}
	return string(f.Kind())
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func indent(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}
