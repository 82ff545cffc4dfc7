// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agents assembles the use-case pipelines (course matching,
// deadline discovery, partner universities, application plans and campus
// insights) from the search, fetch, classify, extract, summarize, rank and
// temporal components. Every pipeline is a workflow.Engine; capabilities
// arrive through Deps.
package agents

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/exchange-scout/internal/classify"
	"github.com/pdiddy/exchange-scout/internal/dedupe"
	"github.com/pdiddy/exchange-scout/internal/extract"
	"github.com/pdiddy/exchange-scout/internal/llm"
	"github.com/pdiddy/exchange-scout/internal/summarize"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

// Searcher issues one web search.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]types.SearchResult, error)
}

// Fetcher retrieves page text. Failures come back as empty documents.
type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration, maxChars int) types.FetchedDocument
	FetchAll(ctx context.Context, urls []string, timeout time.Duration, maxChars, workers int) []types.FetchedDocument
}

// Deps are the capabilities shared by all pipelines. They are read-only and
// safe to share between concurrent runs.
type Deps struct {
	Searcher Searcher
	Fetcher  Fetcher
	Model    llm.Model
	Config   types.Config
	Logger   *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// kit bundles the model-backed components built from Deps.
type kit struct {
	Deps
	classifier *classify.Classifier
	extractor  *extract.Extractor
	summarizer *summarize.Summarizer
}

func newKit(d Deps, useCase string) *kit {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	d.Logger = d.Logger.Named(useCase)
	if d.Now == nil {
		d.Now = time.Now
	}
	workers := d.Config.Fetch.Workers
	return &kit{
		Deps:       d,
		classifier: classify.New(d.Model, workers, d.Logger),
		extractor:  extract.New(d.Model, d.Logger),
		summarizer: summarize.New(d.Model, d.Logger),
	}
}

// search runs queries in order and merges their results, dropping repeated
// URLs. It returns the last provider error when nothing was found.
func (k *kit) search(ctx context.Context, queries []string, perQuery int) ([]types.SearchResult, error) {
	var all []types.SearchResult
	var lastErr error
	for _, q := range queries {
		if ctx.Err() != nil {
			break
		}
		res, err := k.Searcher.Search(ctx, q, perQuery)
		if err != nil {
			k.Logger.Warn("search failed", zap.String("query", q), zap.Error(err))
			lastErr = err
			continue
		}
		all = append(all, res...)
	}
	all = dedupe.Dedupe(all, func(r types.SearchResult) string { return dedupe.URLKey(r.URL) })
	if len(all) > 0 {
		return all, nil
	}
	return nil, lastErr
}

// fetch retrieves urls concurrently and drops the documents that came back
// empty.
func (k *kit) fetch(ctx context.Context, urls []string) []types.FetchedDocument {
	cfg := k.Config.Fetch
	docs := k.Fetcher.FetchAll(ctx, urls, cfg.Timeout, cfg.MaxChars, cfg.Workers)
	var out []types.FetchedDocument
	for _, d := range docs {
		if !d.Empty() {
			out = append(out, d)
		}
	}
	return out
}

// extractAll runs schema over every document and concatenates the facts.
func (k *kit) extractAll(ctx context.Context, docs []types.FetchedDocument, schema extract.Schema) []types.Fact {
	var facts []types.Fact
	for _, d := range docs {
		if ctx.Err() != nil {
			break
		}
		facts = append(facts, k.extractor.Extract(ctx, d.Text, d.URL, schema)...)
	}
	return facts
}

func urlsOf(results []types.SearchResult, limit int) []string {
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	urls := make([]string, len(results))
	for i, r := range results {
		urls[i] = r.URL
	}
	return urls
}

// nonEmpty joins the non-blank parts with single spaces.
func nonEmpty(parts ...string) string {
	var keep []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keep = append(keep, p)
		}
	}
	return strings.Join(keep, " ")
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}

// Use-case names reported in results and logs.
const (
	UseCaseCourses  = "courses"
	UseCaseDeadline = "deadline"
	UseCasePartners = "partners"
	UseCaseInsights = "insights"
	UseCasePlan     = "application_plan"
)
