// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm abstracts the text-understanding capability behind a single
// prompt-in, text-out interface. Providers: the Anthropic Messages API and
// Google Gemini. Guard adds the per-call deadline and retry policy.
package llm

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/exchange-scout/internal/retry"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

// Model generates a free-text completion for a prompt. Implementations must
// be safe for concurrent use.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ModelFunc adapts a function to Model.
type ModelFunc func(ctx context.Context, prompt string) (string, error)

func (f ModelFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// New builds the configured provider wrapped in a Guard.
func New(ctx context.Context, cfg types.AIConfig, policy retry.Policy, logger *zap.Logger) (Model, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ai.api_key is not set for provider %s", cfg.Provider)
	}

	var m Model
	switch cfg.Provider {
	case types.ProviderAnthropic, "":
		m = &ClaudeBackend{APIKey: cfg.APIKey, Model: cfg.Model, Client: &http.Client{}}
	case types.ProviderGemini:
		g, err := NewGeminiBackend(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		m = g
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
	return NewGuard(m, cfg.Timeout, policy, logger), nil
}

// Render executes a prompt template with data.
func Render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering prompt %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
