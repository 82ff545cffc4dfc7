// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/exchange-scout/internal/retry"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

// googleSearchURL is the Programmable Search JSON API endpoint. Declared as a
// var so tests can substitute an httptest server.
var googleSearchURL = "https://www.googleapis.com/customsearch/v1"

// googlePageSize is the API's maximum "num" per request.
const googlePageSize = 10

// GoogleBackend queries the Google Programmable Search JSON API.
type GoogleBackend struct {
	Client *http.Client
	APIKey string
	CX     string
}

type googleResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

func (b *GoogleBackend) Name() string { return string(types.SearchGoogle) }

// Search pages through the API until maxResults results are collected or a
// page comes back short.
func (b *GoogleBackend) Search(ctx context.Context, query string, maxResults int) ([]types.SearchResult, error) {
	var results []types.SearchResult
	for start := 1; len(results) < maxResults; start += googlePageSize {
		num := min(googlePageSize, maxResults-len(results))
		page, err := b.page(ctx, query, start, num)
		if err != nil {
			return nil, err
		}
		results = append(results, page...)
		if len(page) < num {
			break
		}
	}
	return results, nil
}

func (b *GoogleBackend) page(ctx context.Context, query string, start, num int) ([]types.SearchResult, error) {
	params := url.Values{
		"key":   {b.APIKey},
		"cx":    {b.CX},
		"q":     {query},
		"num":   {strconv.Itoa(num)},
		"start": {strconv.Itoa(start)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleSearchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Google search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("Google search returned HTTP %d", resp.StatusCode)
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}

	var gr googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("parsing Google search response: %w", err)
	}

	results := make([]types.SearchResult, 0, len(gr.Items))
	for _, it := range gr.Items {
		results = append(results, types.SearchResult{
			Title:   it.Title,
			URL:     it.Link,
			Snippet: it.Snippet,
			Source:  string(types.SearchGoogle),
		})
	}
	return results, nil
}
