// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across components.
package httputil

import (
	"context"
	"io"
	"net/http"

	"github.com/pdiddy/exchange-scout/internal/retry"
)

// Retryable reports whether a response status is worth another attempt:
// 429 Too Many Requests and any 5xx.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// DoWithRetry executes an HTTP request under the retry policy. Transport
// errors and retryable statuses (see Retryable) consume an attempt; every
// other response is returned immediately.
//
// Between attempts the response body is drained and closed. If the context
// ends during a wait the function returns ctx.Err(). After exhausting the
// policy the last retryable response is returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, p retry.Policy) (*http.Response, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		last := attempt >= attempts
		if err != nil {
			if last || ctx.Err() != nil {
				return nil, err
			}
		} else {
			if !Retryable(resp.StatusCode) || last {
				return resp, nil
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		if werr := retry.Wait(ctx, p.Delay); werr != nil {
			return nil, werr
		}
	}
}
