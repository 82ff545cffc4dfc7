// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize condenses long text with a bounded number of model calls.
// Text longer than the chunk size is split into contiguous chunks that are
// summarized independently and then integrated by exactly one more call.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/exchange-scout/internal/llm"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

// ErrAllChunksFailed is returned when no chunk produced a summary.
var ErrAllChunksFailed = errors.New("every chunk failed to summarize")

var chunkTmpl = template.Must(template.New("chunk").Parse(`{{.Instruction}}
{{if .Total}}
This is part {{.Part}} of {{.Total}} of a longer text. Summarize only this part.
{{end}}
Text:
{{.Text}}
`))

var integrateTmpl = template.Must(template.New("integrate").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`{{.Instruction}}

The following are summaries of consecutive parts of one text. Combine them
into a single coherent summary without repeating points.
{{range $i, $s := .Summaries}}
Part {{inc $i}}:
{{$s}}
{{end}}`))

// Summarizer calls a model over chunks of text.
type Summarizer struct {
	model  llm.Model
	logger *zap.Logger
}

// New creates a Summarizer. A nil logger discards output.
func New(model llm.Model, logger *zap.Logger) *Summarizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{model: model, logger: logger}
}

// Summarize condenses text following instruction. Text of at most chunkSize
// runes takes one call. Longer text takes one call per chunk plus one
// integration call. A failed chunk is skipped; cancellation is checked
// before every chunk.
func (s *Summarizer) Summarize(ctx context.Context, text string, chunkSize int, instruction string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("nothing to summarize: %w", types.ErrNoFacts)
	}
	chunks := Chunks(text, chunkSize)
	if len(chunks) == 1 {
		return s.call(ctx, chunkTmpl, map[string]any{"Instruction": instruction, "Text": chunks[0]})
	}

	var summaries []string
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %v", types.ErrCancelled, err)
		}
		out, err := s.call(ctx, chunkTmpl, map[string]any{
			"Instruction": instruction,
			"Text":        chunk,
			"Part":        i + 1,
			"Total":       len(chunks),
		})
		if err != nil {
			s.logger.Warn("chunk summary failed", zap.Int("chunk", i+1), zap.Int("chunks", len(chunks)), zap.Error(err))
			continue
		}
		summaries = append(summaries, out)
	}
	if len(summaries) == 0 {
		return "", ErrAllChunksFailed
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrCancelled, err)
	}

	s.logger.Debug("integrating chunk summaries", zap.Int("summaries", len(summaries)))
	return s.call(ctx, integrateTmpl, map[string]any{"Instruction": instruction, "Summaries": summaries})
}

func (s *Summarizer) call(ctx context.Context, tmpl *template.Template, data any) (string, error) {
	prompt, err := llm.Render(tmpl, data)
	if err != nil {
		return "", err
	}
	out, err := s.model.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Chunks splits text into contiguous, non-overlapping pieces of at most size
// runes. A size below 1 yields the whole text as one chunk.
func Chunks(text string, size int) []string {
	runes := []rune(text)
	if size < 1 || len(runes) <= size {
		return []string{text}
	}
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
