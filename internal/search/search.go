// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search issues web search queries through a pluggable provider and
// returns candidate sources in the provider's relevance order.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/exchange-scout/internal/dedupe"
	"github.com/pdiddy/exchange-scout/internal/retry"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

// Backend queries a single web search provider. Implementations return
// results in the provider's relevance order and must not retry on their own.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]types.SearchResult, error)
}

// NewBackend builds the backend selected by cfg.
func NewBackend(cfg types.SearchConfig, client *http.Client) (Backend, error) {
	switch cfg.Backend {
	case types.SearchDuckDuckGo, "":
		return &DuckDuckGoBackend{Client: client, UserAgent: cfg.UserAgent}, nil
	case types.SearchGoogle:
		if cfg.GoogleAPIKey == "" || cfg.GoogleCX == "" {
			return nil, fmt.Errorf("google search requires search.google_api_key and search.google_cx")
		}
		return &GoogleBackend{Client: client, APIKey: cfg.GoogleAPIKey, CX: cfg.GoogleCX}, nil
	default:
		return nil, fmt.Errorf("unknown search backend %q", cfg.Backend)
	}
}

// Gateway wraps a Backend with a per-call deadline, the retry policy, result
// clamping and URL deduplication.
type Gateway struct {
	backend Backend
	timeout time.Duration
	policy  retry.Policy
	logger  *zap.Logger
}

// NewGateway creates a Gateway. A nil logger discards output.
func NewGateway(b Backend, timeout time.Duration, policy retry.Policy, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{backend: b, timeout: timeout, policy: policy, logger: logger}
}

// ClampResults bounds a requested result count to [1, types.MaxSearchResults].
func ClampResults(n int) int {
	switch {
	case n < 1:
		return 1
	case n > types.MaxSearchResults:
		return types.MaxSearchResults
	default:
		return n
	}
}

// Search returns at most maxResults results for query (maxResults is clamped
// to 1..15). On provider failure it returns an empty list together with an
// error wrapping types.ErrSearchFailure; callers decide whether an empty list
// fails their pipeline.
func (g *Gateway) Search(ctx context.Context, query string, maxResults int) ([]types.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", types.ErrSearchFailure)
	}
	n := ClampResults(maxResults)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	results, err := retry.Do(ctx, g.policy, func(ctx context.Context) ([]types.SearchResult, error) {
		return g.backend.Search(ctx, query, n)
	})
	if err != nil {
		g.logger.Warn("search failed",
			zap.String("backend", g.backend.Name()),
			zap.String("query", query),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %v", types.ErrSearchFailure, g.backend.Name(), err)
	}

	cleaned := make([]types.SearchResult, 0, len(results))
	for _, r := range results {
		if strings.TrimSpace(r.URL) == "" {
			continue
		}
		if r.Source == "" {
			r.Source = g.backend.Name()
		}
		cleaned = append(cleaned, r)
	}
	cleaned = dedupe.Dedupe(cleaned, func(r types.SearchResult) string { return dedupe.URLKey(r.URL) })
	if len(cleaned) > n {
		cleaned = cleaned[:n]
	}

	g.logger.Debug("search completed",
		zap.String("backend", g.backend.Name()),
		zap.String("query", query),
		zap.Int("results", len(cleaned)))
	return cleaned, nil
}

// SearchAll runs queries with at most workers provider calls in flight and
// merges their results in query order, dropping URLs already returned for an
// earlier query. Failed queries contribute nothing; their errors are
// returned for reporting.
func (g *Gateway) SearchAll(ctx context.Context, queries []string, perQuery, workers int) ([]types.SearchResult, []error) {
	perQueryResults := make([][]types.SearchResult, len(queries))
	errs := make([]error, len(queries))
	if workers < 1 {
		workers = 1
	}

	var eg errgroup.Group
	eg.SetLimit(workers)
	for i, q := range queries {
		eg.Go(func() error {
			perQueryResults[i], errs[i] = g.Search(ctx, q, perQuery)
			return nil
		})
	}
	eg.Wait()

	var all []types.SearchResult
	var failures []error
	for i := range queries {
		if errs[i] != nil {
			failures = append(failures, errs[i])
			continue
		}
		all = append(all, perQueryResults[i]...)
	}
	return dedupe.Dedupe(all, func(r types.SearchResult) string { return dedupe.URLKey(r.URL) }), failures
}

// FormatTable writes results as a human-readable table to w.
func FormatTable(results []types.SearchResult, w io.Writer) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-50s  %s\n", "Rank", "Title", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for i, r := range results {
		fmt.Fprintf(w, "%-4d  %-50s  %s\n", i+1, truncate(r.Title, 50), r.URL)
	}
	fmt.Fprintf(w, "\n%d results\n", len(results))
}

// FormatJSON writes results as indented JSON to w.
func FormatJSON(results []types.SearchResult, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
