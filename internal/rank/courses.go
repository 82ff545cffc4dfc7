// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/exchange-scout/internal/extract"
	"github.com/pdiddy/exchange-scout/internal/llm"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

var similarityTmpl = template.Must(template.New("similarity").Parse(`Compare the following two courses and decide how well course 2 could replace course 1 for credit transfer.

COURSE 1 ({{.Home.University}}):
ID: {{.Home.ID}}
Title: {{.Home.Title}}
Credits: {{.Home.Credits}}
Description: {{.Home.Description}}

COURSE 2 ({{.Foreign.University}}):
ID: {{.Foreign.ID}}
Title: {{.Foreign.Title}}
Credits: {{.Foreign.Credits}} (equivalent to {{printf "%.1f" .Converted}} {{.Home.University}} credits)
Description: {{.Foreign.Description}}

Consider content overlap, learning outcomes, depth, and credit equivalence after conversion.
Respond with a JSON object of the form:
{"similarity_score": 0, "content_overlap": "...", "recommendation": "Recommend or Do not recommend for credit transfer"}
"similarity_score" is a number from 0 to 100. Do not include any text outside the JSON object.
`))

var relevanceTmpl = template.Must(template.New("course-relevance").Parse(`Order the following courses by how relevant they are to the subject "{{.Subject}}", most relevant first.
{{range .Courses}}
- {{.Key}}: {{.Title}}{{if .Description}} ({{.Description}}){{end}}{{end}}

Respond with a JSON array of the course keys exactly as written above, e.g. ["KEY1", "KEY2"]. Do not include any text outside the JSON array.
`))

var creditTmpl = template.Must(template.New("credit-ratio").Parse(`Determine the credit conversion ratio between {{.HomeUniversity}} and {{.ForeignUniversity}} from these courses.

{{.HomeUniversity}} courses:
{{range .Home}}{{.Label}}: {{.Credits}} credits
{{end}}
{{.ForeignUniversity}} courses:
{{range .Foreign}}{{.Label}}: {{.Credits}} credits
{{end}}
Estimate how many {{.HomeUniversity}} credits one {{.ForeignUniversity}} credit is worth. Consider standard systems like ECTS where applicable.
Respond with only the number, e.g. 1.5.
`))

// CourseScorer compares a home course with a foreign course through a model.
type CourseScorer struct {
	model llm.Model
	// Ratio converts foreign credits into home credits.
	ratio float64
}

// NewCourseScorer creates a CourseScorer using ratio for credit conversion.
func NewCourseScorer(model llm.Model, ratio float64) *CourseScorer {
	return &CourseScorer{model: model, ratio: ratio}
}

// Score is a ScoreFunc for home/foreign course pairs.
func (s *CourseScorer) Score(ctx context.Context, home, foreign types.Course) (Score, error) {
	prompt, err := llm.Render(similarityTmpl, struct {
		Home, Foreign types.Course
		Converted     float64
	}{home, foreign, foreign.Credits * s.ratio})
	if err != nil {
		return Score{}, err
	}
	reply, err := s.model.Generate(ctx, prompt)
	if err != nil {
		return Score{}, err
	}
	segment, ok := extract.LeadingJSON(reply)
	if !ok {
		return Score{}, fmt.Errorf("%w: no JSON in similarity reply", types.ErrExtractionParse)
	}
	var out struct {
		Score          extract.Number `json:"similarity_score"`
		Overlap        extract.Text   `json:"content_overlap"`
		Recommendation extract.Text   `json:"recommendation"`
	}
	if err := json.Unmarshal([]byte(segment), &out); err != nil {
		return Score{}, fmt.Errorf("%w: %v", types.ErrExtractionParse, err)
	}
	return Score{
		Value:          float64(out.Score),
		Rationale:      string(out.Overlap),
		Recommendation: string(out.Recommendation),
	}, nil
}

// courseKey identifies a course in relevance prompts. Courses without an ID,
// or whose ID is already taken, get "#<position>" with further "#" prefixes
// until the key is unused.
func courseKey(c types.Course, i int, taken map[string]int) string {
	k := strings.TrimSpace(c.ID)
	if k == "" {
		k = "#" + strconv.Itoa(i+1)
	}
	for {
		if _, dup := taken[k]; !dup {
			return k
		}
		k = "#" + k
	}
}

// ByRelevance returns at most limit courses ordered by relevance to subject,
// using one model call. Keys the model omits follow in input order; unknown
// keys are ignored. When the reply cannot be parsed, or the list already fits
// within limit, the input order is kept.
func ByRelevance(ctx context.Context, model llm.Model, courses []types.Course, subject string, limit int, logger *zap.Logger) []types.Course {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limit <= 0 || len(courses) <= limit {
		return courses
	}

	type entry struct {
		Key, Title, Description string
	}
	entries := make([]entry, len(courses))
	index := make(map[string]int, len(courses))
	for i, c := range courses {
		k := courseKey(c, i, index)
		index[k] = i
		entries[i] = entry{Key: k, Title: c.Title, Description: shorten(c.Description, 200)}
	}

	prompt, err := llm.Render(relevanceTmpl, struct {
		Subject string
		Courses []entry
	}{subject, entries})
	if err != nil {
		return courses[:limit]
	}
	reply, err := model.Generate(ctx, prompt)
	if err != nil {
		logger.Warn("relevance ordering failed; keeping input order", zap.Error(err))
		return courses[:limit]
	}
	order, ok := parseKeys(reply)
	if !ok {
		logger.Warn("unparsable relevance ordering; keeping input order")
		return courses[:limit]
	}

	used := make([]bool, len(courses))
	out := make([]types.Course, 0, limit)
	for _, k := range order {
		i, known := index[k]
		if !known || used[i] {
			continue
		}
		used[i] = true
		out = append(out, courses[i])
	}
	for i, c := range courses {
		if !used[i] {
			out = append(out, c)
		}
	}
	return out[:limit]
}

func parseKeys(reply string) ([]string, bool) {
	segment, ok := extract.LeadingJSON(reply)
	if !ok {
		return nil, false
	}
	var raw []extract.Text
	if err := json.Unmarshal([]byte(segment), &raw); err != nil {
		return nil, false
	}
	keys := make([]string, len(raw))
	for i, k := range raw {
		keys[i] = strings.TrimSpace(string(k))
	}
	return keys, true
}

var ratioPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// CreditRatio estimates how many home credits one foreign credit is worth,
// sampling up to five courses per side. When the model gives no positive
// number the ratio of average stated credits is used, and 1.0 when either
// side states none.
func CreditRatio(ctx context.Context, model llm.Model, home, foreign []types.Course, logger *zap.Logger) float64 {
	if logger == nil {
		logger = zap.NewNop()
	}
	home, foreign = capped(home, 5), capped(foreign, 5)
	if len(home) == 0 || len(foreign) == 0 {
		return 1.0
	}

	r, err := estimateRatio(ctx, model, home, foreign)
	if err == nil {
		return r
	}
	fallback := AverageRatio(home, foreign)
	logger.Info("credit ratio estimate unavailable; using averages", zap.Float64("ratio", fallback), zap.Error(err))
	return fallback
}

func estimateRatio(ctx context.Context, model llm.Model, home, foreign []types.Course) (float64, error) {
	prompt, err := llm.Render(creditTmpl, map[string]any{
		"HomeUniversity":    home[0].University,
		"ForeignUniversity": foreign[0].University,
		"Home":              home,
		"Foreign":           foreign,
	})
	if err != nil {
		return 0, err
	}
	reply, err := model.Generate(ctx, prompt)
	if err != nil {
		return 0, err
	}
	r, err := strconv.ParseFloat(ratioPattern.FindString(reply), 64)
	if err != nil || r <= 0 {
		return 0, fmt.Errorf("%w: no positive ratio in %q", types.ErrExtractionParse, shorten(reply, 40))
	}
	return r, nil
}

// AverageRatio divides the mean positive home credits by the mean positive
// foreign credits, or returns 1.0 when either side has no credits stated.
func AverageRatio(home, foreign []types.Course) float64 {
	h, f := meanCredits(home), meanCredits(foreign)
	if h == 0 || f == 0 {
		return 1.0
	}
	return h / f
}

func meanCredits(courses []types.Course) float64 {
	var sum float64
	var n int
	for _, c := range courses {
		if c.Credits > 0 {
			sum += c.Credits
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
