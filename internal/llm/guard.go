// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/exchange-scout/internal/retry"
)

// Guard bounds every attempt of a wrapped Model with a deadline and retries
// failed attempts under the shared policy.
type Guard struct {
	model   Model
	timeout time.Duration
	policy  retry.Policy
	logger  *zap.Logger
}

// NewGuard wraps m. A zero timeout leaves attempts bounded only by the
// caller's context.
func NewGuard(m Model, timeout time.Duration, policy retry.Policy, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{model: m, timeout: timeout, policy: policy, logger: logger}
}

func (g *Guard) Generate(ctx context.Context, prompt string) (string, error) {
	attempt := 0
	return retry.Do(ctx, g.policy, func(ctx context.Context) (string, error) {
		attempt++
		callCtx := ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}
		out, err := g.model.Generate(callCtx, prompt)
		if err != nil {
			g.logger.Debug("model call failed", zap.Int("attempt", attempt), zap.Error(err))
		}
		return out, err
	})
}
