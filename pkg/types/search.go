// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the exchange-scout pipeline:
// search results, fetched documents, typed facts, comparison records, goals,
// run results, and configuration.
package types

// SearchResult is one candidate source returned by a web search provider.
// Results keep the provider's relevance order; the gateway never re-sorts them.
type SearchResult struct {
	// Title is the page title as returned by the provider.
	Title string `json:"title" yaml:"title"`

	// URL is the candidate page address.
	URL string `json:"url" yaml:"url"`

	// Snippet is the provider's short excerpt, possibly empty.
	Snippet string `json:"snippet" yaml:"snippet"`

	// Source identifies which backend found this result (e.g. "duckduckgo", "google").
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// FetchedDocument is the bounded visible text of one fetched page. An empty
// Text means the fetch failed or the page held no usable content.
type FetchedDocument struct {
	URL string `json:"url" yaml:"url"`

	// Text is whitespace-normalized visible text, at most the configured
	// number of characters long.
	Text string `json:"text" yaml:"text"`

	// Truncated reports whether Text was cut at the character limit.
	Truncated bool `json:"truncated" yaml:"truncated"`
}

// Empty reports whether the document carries no usable text.
func (d FetchedDocument) Empty() bool {
	return d.Text == ""
}
