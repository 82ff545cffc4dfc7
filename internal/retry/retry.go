// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retry applies one bounded retry policy to external calls.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/pdiddy/exchange-scout/pkg/types"
)

// Policy bounds attempts and sets the fixed delay between them.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

// FromConfig builds a Policy from configuration.
func FromConfig(cfg types.RetryConfig) Policy {
	return Policy{MaxAttempts: cfg.MaxAttempts, Delay: cfg.Delay}
}

// DelayScale multiplies every policy delay. Tests set it to 0 to avoid real sleeps.
var DelayScale = 1.0

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// Do calls fn until it succeeds, returns a permanent error, the context ends,
// or the policy runs out of attempts. The last error is returned unwrapped
// from any Permanent marker.
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 1; attempt <= p.attempts(); attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return zero, lastErr
			}
			return zero, err
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		var perm permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}
		lastErr = err

		if attempt < p.attempts() {
			if werr := Wait(ctx, p.Delay); werr != nil {
				return zero, lastErr
			}
		}
	}
	return zero, lastErr
}

// Wait sleeps for d scaled by DelayScale, returning early with ctx.Err()
// if the context ends first.
func Wait(ctx context.Context, d time.Duration) error {
	d = time.Duration(float64(d) * DelayScale)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
