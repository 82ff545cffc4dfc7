// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/exchange-scout/internal/container"
)

const imageMarkitdown = "markitdown:latest"

// PDFConverter converts PDF bodies by piping them through the markitdown
// container image on an injected runtime.
type PDFConverter struct {
	runtime container.Runtime
}

// NewPDFConverter verifies that the markitdown image exists locally.
func NewPDFConverter(ctx context.Context, rt container.Runtime) (*PDFConverter, error) {
	if err := rt.ImageExists(ctx, imageMarkitdown); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &PDFConverter{runtime: rt}, nil
}

// Convert pipes the PDF read from r through markitdown and returns the
// normalized text.
func (p *PDFConverter) Convert(ctx context.Context, r io.Reader) (string, error) {
	var out bytes.Buffer
	if err := p.runtime.Run(ctx, imageMarkitdown, r, &out); err != nil {
		return "", fmt.Errorf("converting PDF with markitdown: %w", err)
	}
	text := NormalizeSpace(out.String())
	if text == "" {
		return "", fmt.Errorf("markitdown produced empty output")
	}
	return text, nil
}
