// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/exchange-scout/internal/llm"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

var departmentsTmpl = template.Must(template.New("departments").Parse(`Identify the academic departments or faculties of {{.University}} that teach {{.Subject}}, using only the page text below.

Respond with a JSON object of the form:
{"departments": [{"name": "...", "url": "...", "catalog_url": "...", "relevance": "..."}]}
"url" is the department homepage and "catalog_url" its course catalog, both only if stated in the text; otherwise use "". "relevance" is one short sentence on how the department relates to {{.Subject}}. Return {"departments": []} when none are mentioned. Do not include any text outside the JSON object.

Page text:
{{.Text}}
`))

var coursesTmpl = template.Must(template.New("courses").Parse(`List the courses offered by {{.University}}{{if .Department}} in {{.Department}}{{end}} that appear in the page text below.

Respond with a JSON object of the form:
{"courses": [{"id": "...", "title": "...", "description": "...", "credits": 0, "department": "..."}]}
"id" is the course code as written, "credits" the stated credit value as a number (0 if not stated). Do not invent courses. Return {"courses": []} when the text lists none. Do not include any text outside the JSON object.

Page text:
{{.Text}}
`))

var deadlineTmpl = template.Must(template.New("deadline").Parse(`Find the application deadline for students of {{.Home}} applying to a {{.Program}} exchange at {{.Foreign}}{{if .Term}} for the study period {{.Term}}{{end}}, using only the page text below.

Respond with a JSON object of the form:
{"found": true, "deadline_date": "YYYY-MM-DD", "description": "...", "term_applying_for": "...", "exact_text": "..."}
"exact_text" quotes the sentence stating the deadline. If the text states no such deadline respond {"found": false}. Do not include any text outside the JSON object.

Page text:
{{.Text}}
`))

var partnersTmpl = template.Must(template.New("partners").Parse(`List the exchange partner universities of {{.University}}{{if .Major}} relevant to {{.Major}}{{end}} named in the page text below.

Respond with a JSON object of the form:
{"partners": ["University name", "..."]}
Use the names exactly as written. Return {"partners": []} when none are named. Do not include any text outside the JSON object.

Page text:
{{.Text}}
`))

var quotesTmpl = template.Must(template.New("quotes").Parse(`Extract up to {{.Max}} verbatim quotes from students describing their experience at {{.University}} from the page text below.

Respond with a JSON object of the form:
{"quotes": ["...", "..."]}
Quote only text that appears in the page. Return {"quotes": []} when there are none. Do not include any text outside the JSON object.

Page text:
{{.Text}}
`))

var applicationTmpl = template.Must(template.New("application").Parse(`Extract the {{.Program}} exchange application details of {{.University}} from the page text below:
- the application deadline (concrete dates or periods)
- the academic calendar (semester or term dates)
- language requirements (certificates with minimum scores)
- the minimum GPA or grade requirement

Respond with a JSON object of the form:
{"application_deadline": "...", "academic_calendar": "...", "language_requirements": "...", "gpa_requirement": "..."}
Use "" for anything the text does not state. Do not guess. Do not include any text outside the JSON object.

Page text:
{{.Text}}
`))

// listField returns the elements of field in an object segment, or the
// elements of an array segment. A missing field is an empty list.
func listField(segment []byte, field string) ([]json.RawMessage, error) {
	if len(segment) > 0 && segment[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(segment, &list); err != nil {
			return nil, fmt.Errorf("decoding list: %w", err)
		}
		return list, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(segment, &obj); err != nil {
		return nil, fmt.Errorf("decoding object: %w", err)
	}
	raw, ok := obj[field]
	if !ok || string(raw) == "null" {
		return nil, nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", field, err)
	}
	return list, nil
}

// Departments extracts the departments of a university teaching a subject.
type Departments struct {
	University string
	Subject    string
}

func (Departments) Name() string { return "departments" }

func (s Departments) Prompt(text string) (string, error) {
	return llm.Render(departmentsTmpl, struct{ University, Subject, Text string }{s.University, s.Subject, text})
}

func (s Departments) Decode(segment []byte, source string) ([]types.Fact, error) {
	items, err := listField(segment, "departments")
	if err != nil {
		return nil, err
	}
	var facts []types.Fact
	for _, raw := range items {
		var d struct {
			Name       Text `json:"name"`
			URL        Text `json:"url"`
			CatalogURL Text `json:"catalog_url"`
			Relevance  Text `json:"relevance"`
		}
		if json.Unmarshal(raw, &d) != nil || d.Name == "" {
			continue
		}
		facts = append(facts, types.Department{
			Name:       string(d.Name),
			URL:        string(d.URL),
			CatalogURL: string(d.CatalogURL),
			Relevance:  string(d.Relevance),
			SourceURL:  source,
		})
	}
	return facts, nil
}

// Courses extracts the courses of a university, optionally within a department.
type Courses struct {
	University string
	Department string
}

func (Courses) Name() string { return "courses" }

func (s Courses) Prompt(text string) (string, error) {
	return llm.Render(coursesTmpl, struct{ University, Department, Text string }{s.University, s.Department, text})
}

func (s Courses) Decode(segment []byte, source string) ([]types.Fact, error) {
	items, err := listField(segment, "courses")
	if err != nil {
		return nil, err
	}
	var facts []types.Fact
	for _, raw := range items {
		var c struct {
			ID          Text   `json:"id"`
			Title       Text   `json:"title"`
			Description Text   `json:"description"`
			Credits     Number `json:"credits"`
			Department  Text   `json:"department"`
		}
		if json.Unmarshal(raw, &c) != nil || (c.ID == "" && c.Title == "") {
			continue
		}
		dept := string(c.Department)
		if dept == "" {
			dept = s.Department
		}
		facts = append(facts, types.Course{
			ID:          string(c.ID),
			Title:       string(c.Title),
			Description: string(c.Description),
			Credits:     float64(c.Credits),
			Department:  dept,
			University:  s.University,
			SourceURL:   source,
		})
	}
	return facts, nil
}

// Deadline extracts the exchange application deadline between two universities.
type Deadline struct {
	Home    string
	Foreign string
	Program string
	Term    string
}

func (Deadline) Name() string { return "deadline" }

func (s Deadline) Prompt(text string) (string, error) {
	return llm.Render(deadlineTmpl, struct{ Home, Foreign, Program, Term, Text string }{s.Home, s.Foreign, s.Program, s.Term, text})
}

// Decode yields at most one fact; a reply with found=false or an empty date
// yields none.
func (s Deadline) Decode(segment []byte, source string) ([]types.Fact, error) {
	var d struct {
		Found           Flag `json:"found"`
		Date            Text `json:"deadline_date"`
		Description     Text `json:"description"`
		TermApplyingFor Text `json:"term_applying_for"`
		ExactText       Text `json:"exact_text"`
	}
	if err := json.Unmarshal(segment, &d); err != nil {
		return nil, fmt.Errorf("decoding deadline: %w", err)
	}
	if !d.Found || d.Date == "" {
		return nil, nil
	}
	return []types.Fact{types.DeadlineFact{
		Date:            string(d.Date),
		Description:     string(d.Description),
		TermApplyingFor: string(d.TermApplyingFor),
		ExactText:       string(d.ExactText),
		SourceURL:       source,
	}}, nil
}

// PartnerNames extracts partner university names. Entries may be plain
// strings or objects with a "name" field.
type PartnerNames struct {
	University string
	Major      string
}

func (PartnerNames) Name() string { return "partners" }

func (s PartnerNames) Prompt(text string) (string, error) {
	return llm.Render(partnersTmpl, struct{ University, Major, Text string }{s.University, s.Major, text})
}

func (s PartnerNames) Decode(segment []byte, source string) ([]types.Fact, error) {
	items, err := listField(segment, "partners")
	if err != nil {
		return nil, err
	}
	var facts []types.Fact
	for _, raw := range items {
		name := decodeName(raw)
		if name == "" || strings.EqualFold(name, s.University) {
			continue
		}
		facts = append(facts, types.PartnerUniversity{Name: name, SourceURL: source})
	}
	return facts, nil
}

func decodeName(raw json.RawMessage) string {
	var t Text
	if json.Unmarshal(raw, &t) == nil && t != "" {
		return string(t)
	}
	var obj struct {
		Name Text `json:"name"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		return string(obj.Name)
	}
	return ""
}

// Quotes extracts verbatim student-experience quotes, at most Max of them.
type Quotes struct {
	University string
	Max        int
}

func (Quotes) Name() string { return "quotes" }

func (s Quotes) Prompt(text string) (string, error) {
	return llm.Render(quotesTmpl, struct {
		University string
		Max        int
		Text       string
	}{s.University, s.Max, text})
}

func (s Quotes) Decode(segment []byte, source string) ([]types.Fact, error) {
	items, err := listField(segment, "quotes")
	if err != nil {
		return nil, err
	}
	var facts []types.Fact
	for _, raw := range items {
		if s.Max > 0 && len(facts) >= s.Max {
			break
		}
		if q := decodeName(raw); q != "" {
			facts = append(facts, types.Quote{Text: q, SourceURL: source})
		}
	}
	return facts, nil
}

// Application extracts the exchange application requirements of one
// university.
type Application struct {
	University string
	Program    string
}

func (Application) Name() string { return "application" }

func (s Application) Prompt(text string) (string, error) {
	return llm.Render(applicationTmpl, struct{ University, Program, Text string }{s.University, s.Program, text})
}

// Decode yields at most one fact, and none when every field is empty or a
// placeholder such as "unknown".
func (s Application) Decode(segment []byte, source string) ([]types.Fact, error) {
	var a struct {
		Deadline  Text `json:"application_deadline"`
		Calendar  Text `json:"academic_calendar"`
		Languages Text `json:"language_requirements"`
		GPA       Text `json:"gpa_requirement"`
	}
	if err := json.Unmarshal(segment, &a); err != nil {
		return nil, fmt.Errorf("decoding application details: %w", err)
	}
	req := types.ApplicationRequirements{
		University:           s.University,
		Deadline:             Stated(a.Deadline),
		AcademicCalendar:     Stated(a.Calendar),
		LanguageRequirements: Stated(a.Languages),
		GPARequirement:       Stated(a.GPA),
		SourceURL:            source,
	}
	if req.Deadline == "" && req.AcademicCalendar == "" && req.LanguageRequirements == "" && req.GPARequirement == "" {
		return nil, nil
	}
	return []types.Fact{req}, nil
}

// placeholders are replies that mean the value was not found.
var placeholders = map[string]bool{
	"unknown":       true,
	"unbekannt":     true,
	"n/a":           true,
	"na":            true,
	"none":          true,
	"not stated":    true,
	"not specified": true,
	"not found":     true,
	"-":             true,
}

// Stated returns t trimmed, or "" when t is a placeholder such as "unknown".
func Stated(t Text) string {
	v := strings.TrimSpace(string(t))
	if placeholders[strings.ToLower(strings.Trim(v, ".[]"))] {
		return ""
	}
	return v
}
