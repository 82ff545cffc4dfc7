// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify decides whether a search candidate is relevant to a goal
// with one yes/no model call per candidate.
package classify

import (
	"context"
	"strings"
	"text/template"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/exchange-scout/internal/llm"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

var relevanceTmpl = template.Must(template.New("relevance").Parse(`Decide whether the following search result is likely to contain information for this goal:
{{.Goal}}

Title: {{.Title}}
URL: {{.URL}}
Snippet: {{.Snippet}}

Answer with a single word, YES or NO.
`))

// Classifier runs relevance checks against a model.
type Classifier struct {
	model   llm.Model
	workers int
	logger  *zap.Logger
}

// New creates a Classifier that checks at most workers candidates at once.
func New(model llm.Model, workers int, logger *zap.Logger) *Classifier {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{model: model, workers: workers, logger: logger}
}

// IsRelevant reports whether candidate serves goal. Only a reply whose first
// word is "yes" counts as relevant; "no", any other reply, and model errors
// all resolve to false.
func (c *Classifier) IsRelevant(ctx context.Context, candidate types.SearchResult, goal string) bool {
	prompt, err := llm.Render(relevanceTmpl, struct {
		Goal, Title, URL, Snippet string
	}{goal, candidate.Title, candidate.URL, candidate.Snippet})
	if err != nil {
		c.logger.Error("rendering relevance prompt", zap.Error(err))
		return false
	}

	reply, err := c.model.Generate(ctx, prompt)
	if err != nil {
		c.logger.Debug("relevance check failed", zap.String("url", candidate.URL), zap.Error(err))
		return false
	}

	verdict, ok := ParseVerdict(reply)
	if !ok {
		c.logger.Debug("unrecognized relevance reply", zap.String("url", candidate.URL), zap.String("reply", truncate(reply, 80)))
	}
	return verdict
}

// ParseVerdict reads the first word of reply, ignoring case and surrounding
// punctuation. ok is false when that word is neither yes nor no.
func ParseVerdict(reply string) (relevant, ok bool) {
	fields := strings.Fields(reply)
	if len(fields) == 0 {
		return false, false
	}
	word := strings.ToLower(strings.TrimFunc(fields[0], func(r rune) bool {
		return !unicode.IsLetter(r)
	}))
	switch word {
	case "yes":
		return true, true
	case "no":
		return false, true
	default:
		return false, false
	}
}

// Filter returns the relevant candidates in input order. Checks run
// concurrently, bounded by the worker count, and are independent of each
// other.
func (c *Classifier) Filter(ctx context.Context, candidates []types.SearchResult, goal string) []types.SearchResult {
	keep := make([]bool, len(candidates))

	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, cand := range candidates {
		g.Go(func() error {
			keep[i] = c.IsRelevant(ctx, cand, goal)
			return nil
		})
	}
	g.Wait()

	var out []types.SearchResult
	for i, cand := range candidates {
		if keep[i] {
			out = append(out, cand)
		}
	}
	c.logger.Debug("filtered candidates", zap.Int("in", len(candidates)), zap.Int("relevant", len(out)))
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
