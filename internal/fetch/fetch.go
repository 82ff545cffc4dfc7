// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves candidate pages and reduces them to bounded plain
// text. A fetch never fails loudly: timeouts, network errors, non-2xx
// statuses and unsupported content all yield an empty document.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/exchange-scout/internal/convert"
	"github.com/pdiddy/exchange-scout/internal/httputil"
	"github.com/pdiddy/exchange-scout/internal/retry"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

// Cache stores converted page text by URL.
type Cache interface {
	Get(ctx context.Context, url string) (string, bool)
	Put(ctx context.Context, url, text string) error
}

// PDFConverter converts a PDF body to text.
type PDFConverter interface {
	Convert(ctx context.Context, r io.Reader) (string, error)
}

// Fetcher fetches pages over HTTP. It is safe for concurrent use.
type Fetcher struct {
	client    *http.Client
	userAgent string
	policy    retry.Policy
	cache     Cache
	pdf       PDFConverter
	logger    *zap.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient replaces the default HTTP client.
func WithClient(c *http.Client) Option { return func(f *Fetcher) { f.client = c } }

// WithCache enables a page cache.
func WithCache(c Cache) Option { return func(f *Fetcher) { f.cache = c } }

// WithPDF enables PDF conversion.
func WithPDF(p PDFConverter) Option { return func(f *Fetcher) { f.pdf = p } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(f *Fetcher) { f.logger = l } }

// New creates a Fetcher sending userAgent and retrying under policy.
func New(userAgent string, policy retry.Policy, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{},
		userAgent: userAgent,
		policy:    policy,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the visible text of url, cut to at most maxChars characters.
// timeout bounds the whole fetch including retries; a non-positive timeout
// leaves it bounded by ctx alone. A non-positive maxChars disables the limit.
// On any failure the returned document has empty Text.
func (f *Fetcher) Fetch(ctx context.Context, url string, timeout time.Duration, maxChars int) types.FetchedDocument {
	doc := types.FetchedDocument{URL: url}

	if f.cache != nil {
		if text, ok := f.cache.Get(ctx, url); ok {
			doc.Text, doc.Truncated = Truncate(text, maxChars)
			return doc
		}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	text, err := f.fetchText(ctx, url)
	if err != nil {
		f.logger.Debug("fetch failed", zap.String("url", url), zap.Error(fmt.Errorf("%w: %v", types.ErrFetchFailure, err)))
		return doc
	}

	if f.cache != nil {
		if err := f.cache.Put(context.WithoutCancel(ctx), url, text); err != nil {
			f.logger.Warn("page cache write failed", zap.String("url", url), zap.Error(err))
		}
	}

	doc.Text, doc.Truncated = Truncate(text, maxChars)
	return doc
}

func (f *Fetcher) fetchText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,application/pdf;q=0.8,*/*;q=0.5")

	resp, err := httputil.DoWithRetry(ctx, f.client, req, f.policy)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}

	text, err := f.toText(ctx, contentType(resp.Header.Get("Content-Type"), body), body)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", errors.New("no visible text")
	}
	return text, nil
}

func (f *Fetcher) toText(ctx context.Context, mediaType string, body []byte) (string, error) {
	switch {
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		return convert.HTMLText(strings.NewReader(string(body)))
	case strings.HasPrefix(mediaType, "text/"):
		return convert.NormalizeSpace(string(body)), nil
	case mediaType == "application/pdf":
		if f.pdf == nil {
			return "", errors.New("PDF conversion disabled")
		}
		return f.pdf.Convert(ctx, strings.NewReader(string(body)))
	default:
		return "", fmt.Errorf("unsupported content type %q", mediaType)
	}
}

// contentType returns the media type from the header, sniffing the body when
// the header is missing or unparsable.
func contentType(header string, body []byte) string {
	if mt, _, err := mime.ParseMediaType(header); err == nil && mt != "" {
		return strings.ToLower(mt)
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(body))
	return mt
}

// FetchAll fetches urls with at most workers concurrent requests and returns
// the documents in input order.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string, timeout time.Duration, maxChars, workers int) []types.FetchedDocument {
	docs := make([]types.FetchedDocument, len(urls))
	if workers < 1 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, u := range urls {
		g.Go(func() error {
			docs[i] = f.Fetch(ctx, u, timeout, maxChars)
			return nil
		})
	}
	g.Wait()
	return docs
}

// Truncate cuts text to at most maxChars characters (runes, not bytes), so a
// multi-byte character is never split. The cut is not word-aware. truncated
// reports whether anything was removed. A non-positive maxChars keeps all text.
func Truncate(text string, maxChars int) (out string, truncated bool) {
	if maxChars <= 0 || len(text) <= maxChars {
		return text, false
	}
	n := 0
	for i := range text {
		if n == maxChars {
			return text[:i], true
		}
		n++
	}
	return text, false
}
