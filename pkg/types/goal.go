// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"
)

// CourseGoal asks which foreign courses best match home courses.
type CourseGoal struct {
	HomeUniversity    string `json:"home_university" yaml:"home_university"`
	HomeDepartment    string `json:"home_department" yaml:"home_department"`
	ForeignUniversity string `json:"foreign_university" yaml:"foreign_university"`
	StudyTerms        string `json:"study_terms,omitempty" yaml:"study_terms,omitempty"`
	HomeSubject       string `json:"home_subject" yaml:"home_subject"`
	ForeignSubject    string `json:"foreign_subject,omitempty" yaml:"foreign_subject,omitempty"`
	// TopK overrides rank.top_k when positive.
	TopK int `json:"top_k,omitempty" yaml:"top_k,omitempty"`
}

// Validate reports missing required fields.
func (g CourseGoal) Validate() error {
	return requireFields(map[string]string{
		"home_university":    g.HomeUniversity,
		"foreign_university": g.ForeignUniversity,
		"home_subject":       g.HomeSubject,
	})
}

// DeadlineGoal asks for the exchange application deadline between two
// universities. The study-period fields are optional.
type DeadlineGoal struct {
	HomeUniversity    string `json:"home_university" yaml:"home_university"`
	ForeignUniversity string `json:"foreign_university" yaml:"foreign_university"`
	ProgramType       string `json:"program_type,omitempty" yaml:"program_type,omitempty"`
	StartMonth        string `json:"start_month,omitempty" yaml:"start_month,omitempty"`
	StartYear         int    `json:"start_year,omitempty" yaml:"start_year,omitempty"`
	EndMonth          string `json:"end_month,omitempty" yaml:"end_month,omitempty"`
	EndYear           int    `json:"end_year,omitempty" yaml:"end_year,omitempty"`
}

// Validate reports missing required fields.
func (g DeadlineGoal) Validate() error {
	return requireFields(map[string]string{
		"home_university":    g.HomeUniversity,
		"foreign_university": g.ForeignUniversity,
	})
}

// Program returns the program type, defaulting to "Erasmus".
func (g DeadlineGoal) Program() string {
	if g.ProgramType == "" {
		return "Erasmus"
	}
	return g.ProgramType
}

// Term describes the intended study period, or "" when none was given.
func (g DeadlineGoal) Term() string {
	var parts []string
	if g.StartMonth != "" || g.StartYear != 0 {
		parts = append(parts, strings.TrimSpace(fmt.Sprintf("%s %s", g.StartMonth, yearString(g.StartYear))))
	}
	if g.EndMonth != "" || g.EndYear != 0 {
		parts = append(parts, strings.TrimSpace(fmt.Sprintf("%s %s", g.EndMonth, yearString(g.EndYear))))
	}
	return strings.Join(parts, " - ")
}

// PartnerGoal asks which partner universities suit a student profile.
type PartnerGoal struct {
	University string   `json:"university" yaml:"university"`
	Major      string   `json:"major,omitempty" yaml:"major,omitempty"`
	Languages  []string `json:"languages,omitempty" yaml:"languages,omitempty"`
	GPA        float64  `json:"gpa,omitempty" yaml:"gpa,omitempty"`
}

// Validate reports missing required fields.
func (g PartnerGoal) Validate() error {
	return requireFields(map[string]string{"university": g.University})
}

// PlanGoal asks for the application requirements of one partner university.
// When Partner is empty the first partner found for University is used.
type PlanGoal struct {
	University  string `json:"university" yaml:"university"`
	Major       string `json:"major,omitempty" yaml:"major,omitempty"`
	ProgramType string `json:"program_type,omitempty" yaml:"program_type,omitempty"`
	Partner     string `json:"partner,omitempty" yaml:"partner,omitempty"`
}

// Validate reports missing required fields.
func (g PlanGoal) Validate() error {
	return requireFields(map[string]string{"university": g.University})
}

// Program returns the program type, defaulting to "Erasmus".
func (g PlanGoal) Program() string {
	if g.ProgramType == "" {
		return "Erasmus"
	}
	return g.ProgramType
}

// InsightGoal asks for campus-life and research summaries of a university.
type InsightGoal struct {
	University string `json:"university" yaml:"university"`
	Subject    string `json:"subject" yaml:"subject"`
}

// Validate reports missing required fields.
func (g InsightGoal) Validate() error {
	return requireFields(map[string]string{
		"university": g.University,
		"subject":    g.Subject,
	})
}

// ReadGoalFile decodes a YAML goal file into goal.
func ReadGoalFile(path string, goal any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading goal file: %w", err)
	}
	if err := yaml.Unmarshal(data, goal); err != nil {
		return fmt.Errorf("parsing goal file %s: %w", path, err)
	}
	return nil
}

func requireFields(fields map[string]string) error {
	var missing []string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
}

func yearString(y int) string {
	if y == 0 {
		return ""
	}
	return fmt.Sprintf("%d", y)
}
