// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout bounds one whole call, retries included.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "exchange-scout/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchBackendName selects the web search provider.
type SearchBackendName string

const (
	SearchDuckDuckGo SearchBackendName = "duckduckgo"
	SearchGoogle     SearchBackendName = "google"
)

// MaxSearchResults is the hard cap on results requested per query.
const MaxSearchResults = 15

// SearchConfig holds settings for the search gateway.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	Backend SearchBackendName `json:"backend" yaml:"backend" mapstructure:"backend"`

	// MaxResults is the default number of results per query (clamped to 1..15).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// Workers caps concurrent provider calls when several queries run at once.
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// GoogleAPIKey and GoogleCX configure the Programmable Search JSON API.
	GoogleAPIKey string `json:"google_api_key,omitempty" yaml:"google_api_key,omitempty" mapstructure:"google_api_key"`
	GoogleCX     string `json:"google_cx,omitempty" yaml:"google_cx,omitempty" mapstructure:"google_cx"`
}

// FetchConfig holds settings for the content fetcher.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxChars is the character limit applied to page text.
	MaxChars int `json:"max_chars" yaml:"max_chars" mapstructure:"max_chars"`

	// Workers caps concurrent fetches and relevance checks.
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// CachePath enables the SQLite page cache when non-empty.
	CachePath string        `json:"cache_path,omitempty" yaml:"cache_path,omitempty" mapstructure:"cache_path"`
	CacheTTL  time.Duration `json:"cache_ttl" yaml:"cache_ttl" mapstructure:"cache_ttl"`

	// PDF enables container-based PDF conversion.
	PDF bool `json:"pdf" yaml:"pdf" mapstructure:"pdf"`
}

// AIProvider selects the text-understanding backend.
type AIProvider string

const (
	ProviderAnthropic AIProvider = "anthropic"
	ProviderGemini    AIProvider = "gemini"
)

// AIConfig holds settings for calls to a Generative AI API.
type AIConfig struct {
	Provider AIProvider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Timeout bounds a single model call.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// RetryConfig is the one retry policy applied to every external call.
type RetryConfig struct {
	MaxAttempts int           `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`
	Delay       time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`
}

// RankConfig holds comparison ranker limits.
type RankConfig struct {
	// PreCap limits each input set before the cross product is scored.
	PreCap int `json:"pre_cap" yaml:"pre_cap" mapstructure:"pre_cap"`

	// TopK is the number of comparison records returned.
	TopK int `json:"top_k" yaml:"top_k" mapstructure:"top_k"`
}

// SummarizeConfig holds chunked summarizer limits.
type SummarizeConfig struct {
	ChunkSize int `json:"chunk_size" yaml:"chunk_size" mapstructure:"chunk_size"`

	// MaxInput caps the combined text handed to the summarizer.
	MaxInput int `json:"max_input" yaml:"max_input" mapstructure:"max_input"`
}

// LogConfig selects the logger level and encoding.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// ServerConfig holds the HTTP trigger settings.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// Config groups all component configurations. It is read-only once loaded
// and safe to share between runs.
type Config struct {
	Search    SearchConfig    `json:"search" yaml:"search" mapstructure:"search"`
	Fetch     FetchConfig     `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	AI        AIConfig        `json:"ai" yaml:"ai" mapstructure:"ai"`
	Retry     RetryConfig     `json:"retry" yaml:"retry" mapstructure:"retry"`
	Rank      RankConfig      `json:"rank" yaml:"rank" mapstructure:"rank"`
	Summarize SummarizeConfig `json:"summarize" yaml:"summarize" mapstructure:"summarize"`
	Log       LogConfig       `json:"log" yaml:"log" mapstructure:"log"`
	Server    ServerConfig    `json:"server" yaml:"server" mapstructure:"server"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Search: SearchConfig{
			HTTPConfig: HTTPConfig{Timeout: 20 * time.Second, UserAgent: "exchange-scout/0.1"},
			Backend:    SearchDuckDuckGo,
			MaxResults: 10,
			Workers:    3,
		},
		Fetch: FetchConfig{
			HTTPConfig: HTTPConfig{Timeout: 10 * time.Second, UserAgent: "exchange-scout/0.1"},
			MaxChars:   8000,
			Workers:    4,
			CacheTTL:   24 * time.Hour,
		},
		AI: AIConfig{
			Provider: ProviderAnthropic,
			Model:    "claude-sonnet-4-5-20250929",
			Timeout:  60 * time.Second,
		},
		Retry:     RetryConfig{MaxAttempts: 2, Delay: 2 * time.Second},
		Rank:      RankConfig{PreCap: 5, TopK: 12},
		Summarize: SummarizeConfig{ChunkSize: 20000, MaxInput: 100000},
		Log:       LogConfig{Level: "info", Format: "console"},
		Server:    ServerConfig{Addr: ":8080"},
	}
}

// Validate checks value ranges that would otherwise surface as confusing
// runtime behavior.
func (c Config) Validate() error {
	switch c.Search.Backend {
	case SearchDuckDuckGo, SearchGoogle:
	default:
		return fmt.Errorf("search.backend: unknown backend %q", c.Search.Backend)
	}
	switch c.AI.Provider {
	case ProviderAnthropic, ProviderGemini:
	default:
		return fmt.Errorf("ai.provider: unknown provider %q", c.AI.Provider)
	}
	if c.Search.Workers < 1 || c.Fetch.Workers < 1 {
		return fmt.Errorf("search.workers and fetch.workers must be at least 1")
	}
	if c.Fetch.MaxChars <= 0 {
		return fmt.Errorf("fetch.max_chars must be positive, got %d", c.Fetch.MaxChars)
	}
	if c.Summarize.ChunkSize <= 0 {
		return fmt.Errorf("summarize.chunk_size must be positive, got %d", c.Summarize.ChunkSize)
	}
	if c.Rank.PreCap <= 0 || c.Rank.TopK <= 0 {
		return fmt.Errorf("rank.pre_cap and rank.top_k must be positive")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}
