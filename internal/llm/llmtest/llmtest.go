// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llmtest provides a scripted llm.Model for tests.
package llmtest

import (
	"context"
	"strings"
	"sync"
)

// Model answers prompts through Respond and records every prompt it receives.
type Model struct {
	// Respond computes the reply for a prompt. It may be called concurrently.
	Respond func(prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

// Generate records prompt and delegates to Respond. A done context fails the
// call without invoking Respond.
func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	return m.Respond(prompt)
}

// Calls returns the number of Generate calls so far.
func (m *Model) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns a copy of the recorded prompts in call order.
func (m *Model) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// Reply returns a Model answering every prompt with text.
func Reply(text string) *Model {
	return &Model{Respond: func(string) (string, error) { return text, nil }}
}

// Fail returns a Model failing every prompt with err.
func Fail(err error) *Model {
	return &Model{Respond: func(string) (string, error) { return "", err }}
}

// Rule maps prompts containing a marker to a reply or an error.
type Rule struct {
	Contains string
	Reply    string
	Err      error
}

// Route returns a Model answering with the first rule whose marker occurs in
// the prompt, or fallback when none does.
func Route(fallback string, rules ...Rule) *Model {
	return &Model{Respond: func(prompt string) (string, error) {
		for _, r := range rules {
			if strings.Contains(prompt, r.Contains) {
				return r.Reply, r.Err
			}
		}
		return fallback, nil
	}}
}
