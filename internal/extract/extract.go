// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns unstructured page text into typed facts. The model
// reply is never trusted as a whole: only the leading balanced JSON segment
// is decoded, fields are coerced with documented fallbacks, and any failure
// yields an empty fact list.
package extract

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/exchange-scout/internal/llm"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

// Schema describes one kind of extraction: how to ask for it and how to
// decode the reply into facts.
type Schema interface {
	// Name identifies the schema in logs (e.g. "courses").
	Name() string

	// Prompt renders the extraction prompt for text.
	Prompt(text string) (string, error)

	// Decode converts a JSON segment into facts attributed to source.
	Decode(segment []byte, source string) ([]types.Fact, error)
}

// Extractor runs schemas against a model.
type Extractor struct {
	model  llm.Model
	logger *zap.Logger
}

// New creates an Extractor. A nil logger discards output.
func New(model llm.Model, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{model: model, logger: logger}
}

// Extract asks the model for schema facts found in text and returns them in
// reply order. Empty text returns nil without calling the model. Model
// errors and unparsable replies are logged and yield nil.
func (e *Extractor) Extract(ctx context.Context, text, source string, schema Schema) []types.Fact {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	facts, err := e.extract(ctx, text, source, schema)
	if err != nil {
		e.logger.Warn("extraction failed",
			zap.String("schema", schema.Name()),
			zap.String("source", source),
			zap.Error(err))
		return nil
	}
	e.logger.Debug("extracted facts",
		zap.String("schema", schema.Name()),
		zap.String("source", source),
		zap.Int("facts", len(facts)))
	return facts
}

func (e *Extractor) extract(ctx context.Context, text, source string, schema Schema) ([]types.Fact, error) {
	prompt, err := schema.Prompt(text)
	if err != nil {
		return nil, err
	}
	reply, err := e.model.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: model call: %v", types.ErrExtractionParse, err)
	}
	segment, ok := LeadingJSON(reply)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON segment in reply", types.ErrExtractionParse)
	}
	facts, err := schema.Decode([]byte(segment), source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrExtractionParse, err)
	}
	return facts, nil
}
