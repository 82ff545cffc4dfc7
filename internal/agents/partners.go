// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/exchange-scout/internal/dedupe"
	"github.com/pdiddy/exchange-scout/internal/extract"
	"github.com/pdiddy/exchange-scout/internal/llm"
	"github.com/pdiddy/exchange-scout/internal/workflow"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

type partnerState = workflow.State[types.PartnerGoal]

const partnerResults = 6

var assessTmpl = template.Must(template.New("assess").Parse(`For each university in the list below, evaluate:
1. Whether it likely offers programs taught in any of these languages: {{.Languages}}
2. Whether a GPA of {{.GPA}} (on a 4.0 scale) is likely sufficient for exchange admission

Universities:
{{range .Names}}{{.}}
{{end}}
Respond with a JSON array with one object per university:
[{"name": "University Name", "language_match": true, "gpa_sufficient": true, "comments": "Brief explanation"}]
Use the names exactly as listed. Do not include any text outside the JSON array.
`))

var profileTmpl = template.Must(template.New("profile").Parse(`Give a short profile of {{.Name}} for an exchange student who speaks {{.Languages}}.

Respond with a JSON object of the form:
{"description": "...", "student_count": 0, "ranking": "high|mid|low", "languages": ["..."]}
"description" is two or three sentences, "student_count" an estimate of enrolled students, "ranking" a rough international ranking category and "languages" the languages of instruction. Do not include any text outside the JSON object.
`))

// maxProfiles caps how many partners are profiled in one run.
const maxProfiles = 8

// Partners builds the partner university pipeline: search for the home
// university's partner list, read the relevant pages, extract the partner
// names, assess each against the student's languages and GPA, then profile
// the first few.
func Partners(d Deps) *workflow.Engine[types.PartnerGoal] {
	k := newKit(d, "partners")
	return workflow.New(UseCasePartners, k.Logger,
		workflow.Stage[types.PartnerGoal]{Name: "search", Run: k.partnerSearch},
		workflow.Stage[types.PartnerGoal]{Name: "filter", Run: k.partnerFilter},
		workflow.Stage[types.PartnerGoal]{Name: "extract", Run: k.partnerExtract},
		workflow.Stage[types.PartnerGoal]{Name: "assess", Run: k.partnerAssess},
		workflow.Stage[types.PartnerGoal]{Name: "profile", Run: k.partnerProfile},
	)
}

func (k *kit) partnerSearch(ctx context.Context, s partnerState) partnerState {
	results, serr := k.searchPartnerLists(ctx, s.Goal.University, s.Goal.Major)
	if serr != nil {
		return s.Fail(serr)
	}
	return s.WithCandidates(results)
}

func (k *kit) partnerFilter(ctx context.Context, s partnerState) partnerState {
	relevant, serr := k.filterPartnerLists(ctx, s.Candidates, s.Goal.University)
	if serr != nil {
		return s.Fail(serr)
	}
	return s.WithCandidates(relevant)
}

func (k *kit) partnerExtract(ctx context.Context, s partnerState) partnerState {
	partners, serr := k.extractPartners(ctx, s.Candidates, s.Goal.University, s.Goal.Major)
	if serr != nil {
		return s.Fail(serr)
	}
	return s.WithFacts(types.AsFacts(partners)...)
}

// searchPartnerLists looks for pages listing the exchange partners of university.
func (k *kit) searchPartnerLists(ctx context.Context, university, major string) ([]types.SearchResult, *types.StageError) {
	query := nonEmpty(university, major, "Erasmus exchange partner universities")
	results, err := k.search(ctx, []string{query}, partnerResults)
	if len(results) == 0 {
		if err != nil {
			return nil, types.NewStageError("search", types.ErrSearchFailure, "%v", err)
		}
		return nil, types.NewStageError("search", types.ErrNoCandidates, "no results for %q", query)
	}
	return results, nil
}

// filterPartnerLists keeps at most pagesPerSearch relevant candidates.
func (k *kit) filterPartnerLists(ctx context.Context, candidates []types.SearchResult, university string) ([]types.SearchResult, *types.StageError) {
	relevant := k.classifier.Filter(ctx, candidates,
		fmt.Sprintf("a list of exchange partner universities of %s", university))
	if len(relevant) == 0 {
		return nil, types.NewStageError("filter", types.ErrNoCandidates,
			"none of %d results looked relevant", len(candidates))
	}
	if len(relevant) > pagesPerSearch {
		relevant = relevant[:pagesPerSearch]
	}
	return relevant, nil
}

// extractPartners reads the candidate pages and returns the partner
// universities they name, deduplicated by name in first-seen order.
func (k *kit) extractPartners(ctx context.Context, candidates []types.SearchResult, university, major string) ([]types.PartnerUniversity, *types.StageError) {
	docs := k.fetch(ctx, urlsOf(candidates, 0))
	facts := k.extractAll(ctx, docs, extract.PartnerNames{University: university, Major: major})
	partners := dedupe.Dedupe(types.FactsOf[types.PartnerUniversity](facts), func(p types.PartnerUniversity) string {
		return dedupe.NameKey(p.Name)
	})
	if len(partners) == 0 {
		return nil, types.NewStageError("extract", types.ErrNoFacts,
			"no partner universities named in %s", plural(len(docs), "page"))
	}
	return partners, nil
}

type assessment struct {
	Name          extract.Text `json:"name"`
	LanguageMatch extract.Flag `json:"language_match"`
	GPASufficient extract.Flag `json:"gpa_sufficient"`
	Comments      extract.Text `json:"comments"`
}

// partnerAssess sets the compatibility flags with one model call. Entries
// naming universities that were not extracted are ignored. When the reply
// cannot be used the partners are kept unassessed with a caveat.
func (k *kit) partnerAssess(ctx context.Context, s partnerState) partnerState {
	g := s.Goal
	partners := types.FactsOf[types.PartnerUniversity](s.Facts)

	names := make([]string, len(partners))
	for i, p := range partners {
		names[i] = p.Name
	}
	languages := strings.Join(g.Languages, ", ")
	if languages == "" {
		languages = "English"
	}
	gpa := "unknown"
	if g.GPA > 0 {
		gpa = fmt.Sprintf("%.2f", g.GPA)
	}

	byKey, err := k.assess(ctx, names, languages, gpa)
	if err != nil {
		k.Logger.Warn("partner assessment unavailable", zap.Error(err))
		return s.WithCaveat("compatibility could not be assessed; language and GPA flags are unset")
	}

	assessed := make([]types.PartnerUniversity, len(partners))
	for i, p := range partners {
		if a, ok := byKey[dedupe.NameKey(p.Name)]; ok {
			p.LanguageMatch = bool(a.LanguageMatch)
			p.GPASufficient = bool(a.GPASufficient)
			p.Comments = string(a.Comments)
		}
		assessed[i] = p
	}
	return s.ReplaceFacts(types.AsFacts(assessed))
}

func (k *kit) assess(ctx context.Context, names []string, languages, gpa string) (map[string]assessment, error) {
	prompt, err := llm.Render(assessTmpl, map[string]any{"Names": names, "Languages": languages, "GPA": gpa})
	if err != nil {
		return nil, err
	}
	reply, err := k.Model.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	segment, ok := extract.LeadingJSON(reply)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON in assessment", types.ErrExtractionParse)
	}
	var list []assessment
	if strings.HasPrefix(segment, "{") {
		var one assessment
		if err := json.Unmarshal([]byte(segment), &one); err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrExtractionParse, err)
		}
		list = []assessment{one}
	} else if err := json.Unmarshal([]byte(segment), &list); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrExtractionParse, err)
	}

	byKey := make(map[string]assessment, len(list))
	for _, a := range list {
		if key := dedupe.NameKey(string(a.Name)); key != "" {
			if _, dup := byKey[key]; !dup {
				byKey[key] = a
			}
		}
	}
	return byKey, nil
}

type profileReply struct {
	Description  extract.Text    `json:"description"`
	StudentCount extract.Number  `json:"student_count"`
	Ranking      extract.Text    `json:"ranking"`
	Languages    json.RawMessage `json:"languages"`
}

// partnerProfile attaches a profile to each of the first maxProfiles
// partners. Profiles are requested concurrently; a partner whose profile
// cannot be read keeps a nil Profile and is named in a caveat.
func (k *kit) partnerProfile(ctx context.Context, s partnerState) partnerState {
	partners := types.FactsOf[types.PartnerUniversity](s.Facts)
	n := min(len(partners), maxProfiles)
	languages := strings.Join(s.Goal.Languages, ", ")
	if languages == "" {
		languages = "English"
	}

	profiles := make([]*types.UniversityProfile, n)
	var g errgroup.Group
	g.SetLimit(max(k.Config.Fetch.Workers, 1))
	for i := range n {
		g.Go(func() error {
			p, err := k.profile(ctx, partners[i].Name, languages)
			if err != nil {
				k.Logger.Debug("profile unavailable", zap.String("university", partners[i].Name), zap.Error(err))
				return nil
			}
			profiles[i] = p
			return nil
		})
	}
	_ = g.Wait()

	var missing []string
	out := make([]types.PartnerUniversity, len(partners))
	copy(out, partners)
	for i, p := range profiles {
		if p == nil {
			missing = append(missing, partners[i].Name)
			continue
		}
		out[i].Profile = p
	}

	s = s.ReplaceFacts(types.AsFacts(out))
	if len(missing) > 0 {
		s = s.WithCaveat(fmt.Sprintf("no profile for %s", strings.Join(missing, ", ")))
	}
	if len(partners) > n {
		s = s.WithCaveat(fmt.Sprintf("profiled the first %d of %d partners", n, len(partners)))
	}
	return s
}

// profile asks the model for a short overview of university.
func (k *kit) profile(ctx context.Context, university, languages string) (*types.UniversityProfile, error) {
	prompt, err := llm.Render(profileTmpl, map[string]any{"Name": university, "Languages": languages})
	if err != nil {
		return nil, err
	}
	reply, err := k.Model.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	segment, ok := extract.LeadingJSON(reply)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON in profile", types.ErrExtractionParse)
	}
	var r profileReply
	if err := json.Unmarshal([]byte(segment), &r); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrExtractionParse, err)
	}

	p := &types.UniversityProfile{
		Description:  extract.Stated(r.Description),
		StudentCount: int(max(float64(r.StudentCount), 0)),
		Ranking:      rankingCategory(string(r.Ranking)),
		Languages:    textList(r.Languages),
	}
	if p.Description == "" && p.StudentCount == 0 && len(p.Languages) == 0 {
		return nil, fmt.Errorf("%w: empty profile", types.ErrExtractionParse)
	}
	return p, nil
}

// rankingCategory keeps "high", "mid" and "low" and drops anything else.
func rankingCategory(s string) string {
	switch c := strings.ToLower(strings.TrimSpace(s)); c {
	case "high", "mid", "low":
		return c
	default:
		return ""
	}
}

// textList decodes a JSON array of strings, or a single comma-separated
// string, into trimmed values, dropping placeholders.
func textList(raw json.RawMessage) []string {
	var items []extract.Text
	if err := json.Unmarshal(raw, &items); err != nil {
		var one extract.Text
		if json.Unmarshal(raw, &one) != nil {
			return nil
		}
		for _, part := range strings.Split(string(one), ",") {
			items = append(items, extract.Text(part))
		}
	}
	var out []string
	for _, it := range items {
		if v := extract.Stated(it); v != "" {
			out = append(out, v)
		}
	}
	return out
}
