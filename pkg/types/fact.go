// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// FactKind names a Fact variant.
type FactKind string

const (
	KindDepartment  FactKind = "department"
	KindCourse      FactKind = "course"
	KindDeadline    FactKind = "deadline"
	KindPartner     FactKind = "partner_university"
	KindQuote       FactKind = "quote"
	KindApplication FactKind = "application_requirements"
)

// Fact is a typed structured fact extracted from one source page. The set of
// variants is closed: only types in this package implement it.
type Fact interface {
	Kind() FactKind
	// Provenance returns the URL of the page the fact was extracted from.
	Provenance() string
	fact()
}

// Department is an academic department or faculty at a university.
type Department struct {
	Name       string `json:"name" yaml:"name"`
	URL        string `json:"url,omitempty" yaml:"url,omitempty"`
	CatalogURL string `json:"catalog_url,omitempty" yaml:"catalog_url,omitempty"`
	Relevance  string `json:"relevance,omitempty" yaml:"relevance,omitempty"`
	SourceURL  string `json:"source_url" yaml:"source_url"`
}

// Course is a single course offering. Credits defaults to 0 when the source
// states no usable number.
type Course struct {
	ID          string  `json:"id" yaml:"id"`
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Credits     float64 `json:"credits" yaml:"credits"`
	Department  string  `json:"department,omitempty" yaml:"department,omitempty"`
	University  string  `json:"university" yaml:"university"`
	SourceURL   string  `json:"source_url" yaml:"source_url"`
}

// Label returns "ID: Title", or just the title when the ID is unknown.
func (c Course) Label() string {
	if c.ID == "" {
		return c.Title
	}
	return fmt.Sprintf("%s: %s", c.ID, c.Title)
}

// DeadlineFact is an application deadline as stated by a source. Date holds
// the extracted text; parsing and normalization happen downstream so an
// unparsable date is reported rather than silently defaulted.
type DeadlineFact struct {
	Date            string `json:"date" yaml:"date"`
	Description     string `json:"description,omitempty" yaml:"description,omitempty"`
	TermApplyingFor string `json:"term_applying_for,omitempty" yaml:"term_applying_for,omitempty"`
	ExactText       string `json:"exact_text,omitempty" yaml:"exact_text,omitempty"`
	SourceURL       string `json:"source_url" yaml:"source_url"`
}

// PartnerUniversity is an exchange partner of the home university. The two
// compatibility flags default to false until assessed.
type PartnerUniversity struct {
	Name          string `json:"name" yaml:"name"`
	LanguageMatch bool   `json:"language_match" yaml:"language_match"`
	GPASufficient bool   `json:"gpa_sufficient" yaml:"gpa_sufficient"`
	Comments      string `json:"comments,omitempty" yaml:"comments,omitempty"`
	SourceURL     string `json:"source_url" yaml:"source_url"`
	// Profile is nil until the university has been profiled.
	Profile *UniversityProfile `json:"profile,omitempty" yaml:"profile,omitempty"`
}

// UniversityProfile is a short model-written overview of a university.
// StudentCount is an estimate and 0 when unknown; Ranking is "high", "mid",
// "low" or empty.
type UniversityProfile struct {
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	StudentCount int      `json:"student_count,omitempty" yaml:"student_count,omitempty"`
	Ranking      string   `json:"ranking,omitempty" yaml:"ranking,omitempty"`
	Languages    []string `json:"languages,omitempty" yaml:"languages,omitempty"`
}

// ApplicationRequirements are the exchange application details of one
// university as stated by a source. Fields the source does not state are
// empty; they are never filled with placeholders.
type ApplicationRequirements struct {
	University           string `json:"university" yaml:"university"`
	Deadline             string `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	AcademicCalendar     string `json:"academic_calendar,omitempty" yaml:"academic_calendar,omitempty"`
	LanguageRequirements string `json:"language_requirements,omitempty" yaml:"language_requirements,omitempty"`
	GPARequirement       string `json:"gpa_requirement,omitempty" yaml:"gpa_requirement,omitempty"`
	SourceURL            string `json:"source_url" yaml:"source_url"`
}

// Missing names the unstated fields among deadline, academic calendar and
// language requirements, the three a plan cannot do without.
func (a ApplicationRequirements) Missing() []string {
	var out []string
	if a.Deadline == "" {
		out = append(out, "deadline")
	}
	if a.AcademicCalendar == "" {
		out = append(out, "academic calendar")
	}
	if a.LanguageRequirements == "" {
		out = append(out, "language requirements")
	}
	return out
}

// Quote is a verbatim student-experience quote.
type Quote struct {
	Text      string `json:"text" yaml:"text"`
	SourceURL string `json:"source_url" yaml:"source_url"`
}

func (Department) Kind() FactKind              { return KindDepartment }
func (Course) Kind() FactKind                  { return KindCourse }
func (DeadlineFact) Kind() FactKind            { return KindDeadline }
func (PartnerUniversity) Kind() FactKind       { return KindPartner }
func (Quote) Kind() FactKind                   { return KindQuote }
func (ApplicationRequirements) Kind() FactKind { return KindApplication }

func (f Department) Provenance() string              { return f.SourceURL }
func (f Course) Provenance() string                  { return f.SourceURL }
func (f DeadlineFact) Provenance() string            { return f.SourceURL }
func (f PartnerUniversity) Provenance() string       { return f.SourceURL }
func (f Quote) Provenance() string                   { return f.SourceURL }
func (f ApplicationRequirements) Provenance() string { return f.SourceURL }

func (Department) fact()              {}
func (Course) fact()                  {}
func (DeadlineFact) fact()            {}
func (PartnerUniversity) fact()       {}
func (Quote) fact()                   {}
func (ApplicationRequirements) fact() {}

// FactsOf returns the facts of concrete type T, in order.
func FactsOf[T Fact](facts []Fact) []T {
	var out []T
	for _, f := range facts {
		if v, ok := f.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// AsFacts converts a typed slice back into facts.
func AsFacts[T Fact](items []T) []Fact {
	out := make([]Fact, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}

// ComparisonRecord is one scored pairing produced by the ranker. Records are
// never mutated after creation.
type ComparisonRecord struct {
	Left           Fact    `json:"left" yaml:"left"`
	Right          Fact    `json:"right" yaml:"right"`
	Score          float64 `json:"score" yaml:"score"`
	Rationale      string  `json:"rationale" yaml:"rationale"`
	Recommendation string  `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
	// Unscored is set when the pair could not be scored; Score is then 0.
	Unscored bool `json:"unscored,omitempty" yaml:"unscored,omitempty"`
}
