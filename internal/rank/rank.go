// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank scores pairings of facts and orders them. It also provides
// the course-specific helpers the matcher needs: relevance ordering within
// one list and a credit conversion estimate between two universities.
package rank

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/pdiddy/exchange-scout/pkg/types"
)

// Config caps the inputs and the output of Rank.
type Config struct {
	// PreCap limits each side before the cross product is scored.
	PreCap int
	// K is the number of records returned.
	K int
}

// FromConfig builds a Config from configuration.
func FromConfig(cfg types.RankConfig) Config {
	return Config{PreCap: cfg.PreCap, K: cfg.TopK}
}

// Score is the outcome of comparing one pair.
type Score struct {
	Value          float64
	Rationale      string
	Recommendation string
}

// ScoreFunc compares left with right.
type ScoreFunc[L, R types.Fact] func(ctx context.Context, left L, right R) (Score, error)

// Rank scores every pairing of the first PreCap items of left with the first
// PreCap items of right and returns the K best, highest score first. Ties
// keep the order in which pairs were scored (left-major). A pair whose
// scoring fails is kept with score 0, marked Unscored, and the failure as
// its rationale.
// Cancellation is checked before every pair.
func Rank[L, R types.Fact](ctx context.Context, left []L, right []R, score ScoreFunc[L, R], cfg Config, logger *zap.Logger) ([]types.ComparisonRecord, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	left = capped(left, cfg.PreCap)
	right = capped(right, cfg.PreCap)

	records := make([]types.ComparisonRecord, 0, len(left)*len(right))
	for _, l := range left {
		for _, r := range right {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%w: ranking interrupted after %d pairs: %v", types.ErrCancelled, len(records), err)
			}
			s, err := score(ctx, l, r)
			unscored := err != nil
			if unscored {
				logger.Warn("scoring failed",
					zap.String("left", l.Provenance()),
					zap.String("right", r.Provenance()),
					zap.Error(err))
				s = Score{Rationale: fmt.Sprintf("scoring failed: %v", err)}
			}
			records = append(records, types.ComparisonRecord{
				Left:           l,
				Right:          r,
				Score:          Clamp(s.Value),
				Rationale:      s.Rationale,
				Recommendation: s.Recommendation,
				Unscored:       unscored,
			})
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Score > records[j].Score
	})
	if cfg.K >= 0 && len(records) > cfg.K {
		records = records[:cfg.K]
	}
	return records, nil
}

// Clamp bounds a score to [0, 100].
func Clamp(v float64) float64 {
	switch {
	case v != v, v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

func capped[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
