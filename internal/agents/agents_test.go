// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agents

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/pdiddy/exchange-scout/internal/llm"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// searchRule answers queries containing a marker.
type searchRule struct {
	contains string
	results  []types.SearchResult
}

type fakeSearcher struct {
	rules []searchRule
	err   error

	mu      sync.Mutex
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string, maxResults int) ([]types.SearchResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.rules {
		if strings.Contains(query, r.contains) {
			res := r.results
			if len(res) > maxResults {
				res = res[:maxResults]
			}
			return res, nil
		}
	}
	return nil, nil
}

type fakeFetcher struct {
	pages map[string]string

	mu      sync.Mutex
	fetched []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string, _ time.Duration, _ int) types.FetchedDocument {
	f.mu.Lock()
	f.fetched = append(f.fetched, url)
	f.mu.Unlock()
	text, ok := f.pages[url]
	if !ok {
		return types.FetchedDocument{URL: url}
	}
	return types.FetchedDocument{URL: url, Text: text}
}

func (f *fakeFetcher) FetchAll(ctx context.Context, urls []string, timeout time.Duration, maxChars, _ int) []types.FetchedDocument {
	docs := make([]types.FetchedDocument, len(urls))
	for i, u := range urls {
		docs[i] = f.Fetch(ctx, u, timeout, maxChars)
	}
	return docs
}

func (f *fakeFetcher) Fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}

func result(url string) types.SearchResult {
	return types.SearchResult{Title: "Result", URL: url, Snippet: "snippet", Source: "fake"}
}

func testDeps(s Searcher, f Fetcher, m llm.Model) Deps {
	cfg := types.DefaultConfig()
	cfg.Fetch.Workers = 2
	return Deps{Searcher: s, Fetcher: f, Model: m, Config: cfg}
}

// isRelevancePrompt matches the classifier's yes/no prompt.
func isRelevancePrompt(p string) bool {
	return strings.Contains(p, "Answer with a single word")
}
