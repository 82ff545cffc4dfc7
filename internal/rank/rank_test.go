// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/exchange-scout/internal/llm/llmtest"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

func courses(prefix string, n int) []types.Course {
	out := make([]types.Course, n)
	for i := range out {
		out[i] = types.Course{
			ID:         fmt.Sprintf("%s%d", prefix, i+1),
			Title:      fmt.Sprintf("Course %s%d", prefix, i+1),
			University: prefix + " University",
			SourceURL:  "https://" + strings.ToLower(prefix) + ".example/catalog",
		}
	}
	return out
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-5))
	assert.Equal(t, 100.0, Clamp(140))
	assert.Equal(t, 42.5, Clamp(42.5))
	assert.Equal(t, 0.0, Clamp(math.NaN()))
}

func TestRankScoresCrossProductAndTruncates(t *testing.T) {
	tests := []struct {
		name        string
		m, n        int
		cfg         Config
		wantCalls   int
		wantRecords int
	}{
		{"small", 2, 2, Config{PreCap: 5, K: 3}, 4, 3},
		{"k larger than product", 2, 3, Config{PreCap: 5, K: 12}, 6, 6},
		{"precap", 8, 7, Config{PreCap: 5, K: 12}, 25, 12},
		{"empty side", 3, 0, Config{PreCap: 5, K: 3}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			score := func(_ context.Context, l, r types.Course) (Score, error) {
				calls++
				return Score{Value: float64((calls * 37) % 101)}, nil
			}
			got, err := Rank(context.Background(), courses("H", tt.m), courses("F", tt.n), score, tt.cfg, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCalls, calls)
			assert.Len(t, got, tt.wantRecords)
			for i := 1; i < len(got); i++ {
				assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
			}
		})
	}
}

func TestRankTiesKeepFirstSeenOrder(t *testing.T) {
	score := func(_ context.Context, l, r types.Course) (Score, error) {
		if l.ID == "H2" && r.ID == "F1" {
			return Score{Value: 90}, nil
		}
		return Score{Value: 50}, nil
	}
	got, err := Rank(context.Background(), courses("H", 2), courses("F", 2), score, Config{PreCap: 5, K: 4}, nil)
	require.NoError(t, err)

	var pairs []string
	for _, r := range got {
		pairs = append(pairs, r.Left.(types.Course).ID+"-"+r.Right.(types.Course).ID)
	}
	assert.Equal(t, []string{"H2-F1", "H1-F1", "H1-F2", "H2-F2"}, pairs)
}

func TestRankFailedPairScoresZero(t *testing.T) {
	score := func(_ context.Context, l, r types.Course) (Score, error) {
		if r.ID == "F2" {
			return Score{}, errors.New("model timeout")
		}
		return Score{Value: 250, Rationale: "same syllabus"}, nil
	}
	got, err := Rank(context.Background(), courses("H", 1), courses("F", 2), score, Config{PreCap: 5, K: 5}, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 100.0, got[0].Score)
	assert.Equal(t, 0.0, got[1].Score)
	assert.Contains(t, got[1].Rationale, "model timeout")
	assert.False(t, got[0].Unscored)
	assert.True(t, got[1].Unscored)
}

func TestRankRationaleDoesNotMarkUnscored(t *testing.T) {
	score := func(_ context.Context, l, r types.Course) (Score, error) {
		return Score{Value: 0, Rationale: "scoring failed to find any overlap"}, nil
	}
	got, err := Rank(context.Background(), courses("H", 1), courses("F", 1), score, Config{PreCap: 5, K: 5}, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].Unscored)
}

func TestRankCancelledBetweenPairs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	score := func(_ context.Context, l, r types.Course) (Score, error) {
		calls++
		cancel()
		return Score{Value: 1}, nil
	}
	_, err := Rank(ctx, courses("H", 2), courses("F", 2), score, Config{PreCap: 5, K: 5}, nil)
	assert.ErrorIs(t, err, types.ErrCancelled)
	assert.Equal(t, 1, calls)
}

func TestCourseScorer(t *testing.T) {
	model := llmtest.Reply(`Here you go: {"similarity_score": "85", "content_overlap": "Both cover graphs.", "recommendation": "Recommend"} trailing`)
	s := NewCourseScorer(model, 1.5)
	home := types.Course{ID: "CS101", Title: "Algorithms", Credits: 6, University: "TUM"}
	foreign := types.Course{ID: "INF2", Title: "Algorithms II", Credits: 4, University: "UiO"}

	got, err := s.Score(context.Background(), home, foreign)
	require.NoError(t, err)
	assert.Equal(t, Score{Value: 85, Rationale: "Both cover graphs.", Recommendation: "Recommend"}, got)
	assert.Contains(t, model.Prompts()[0], "equivalent to 6.0 TUM credits")
}

func TestCourseScorerUnparsable(t *testing.T) {
	_, err := NewCourseScorer(llmtest.Reply("no idea"), 1).Score(context.Background(), types.Course{}, types.Course{})
	assert.ErrorIs(t, err, types.ErrExtractionParse)
}

func TestByRelevance(t *testing.T) {
	in := courses("H", 4)

	t.Run("model order then remainder", func(t *testing.T) {
		model := llmtest.Reply(`["H3", "H9", "H1"]`)
		got := ByRelevance(context.Background(), model, in, "databases", 3, nil)
		assert.Equal(t, []string{"H3", "H1", "H2"}, ids(got))
	})
	t.Run("unparsable keeps input order", func(t *testing.T) {
		got := ByRelevance(context.Background(), llmtest.Reply("H3 is best"), in, "databases", 2, nil)
		assert.Equal(t, []string{"H1", "H2"}, ids(got))
	})
	t.Run("model error keeps input order", func(t *testing.T) {
		got := ByRelevance(context.Background(), llmtest.Fail(errors.New("down")), in, "databases", 2, nil)
		assert.Equal(t, []string{"H1", "H2"}, ids(got))
	})
	t.Run("duplicate ids get unique keys", func(t *testing.T) {
		dup := []types.Course{
			{ID: "C2", Title: "first"},
			{ID: "C2", Title: "second"},
			{ID: "#C2", Title: "third"},
			{Title: "fourth"},
		}
		model := llmtest.Reply(`["##C2", "#4", "#C2"]`)
		got := ByRelevance(context.Background(), model, dup, "databases", 3, nil)
		assert.Equal(t, []string{"third", "fourth", "second"}, titles(got))
		prompt := model.Prompts()[0]
		for _, key := range []string{"- C2: first", "- #C2: second", "- ##C2: third", "- #4: fourth"} {
			assert.Contains(t, prompt, key)
		}
	})
	t.Run("fits without a call", func(t *testing.T) {
		model := llmtest.Reply(`[]`)
		got := ByRelevance(context.Background(), model, in, "databases", 5, nil)
		assert.Equal(t, ids(in), ids(got))
		assert.Zero(t, model.Calls())
	})
}

func TestCreditRatio(t *testing.T) {
	home := []types.Course{{Title: "A", Credits: 6, University: "TUM"}, {Title: "B", Credits: 6, University: "TUM"}}
	foreign := []types.Course{{Title: "C", Credits: 4, University: "UiO"}, {Title: "D", Credits: 0, University: "UiO"}}

	assert.Equal(t, 1.5, CreditRatio(context.Background(), llmtest.Reply("Roughly 1.5"), home, foreign, nil))
	assert.Equal(t, 1.5, CreditRatio(context.Background(), llmtest.Reply("unknown"), home, foreign, nil))
	assert.Equal(t, 1.5, CreditRatio(context.Background(), llmtest.Fail(errors.New("x")), home, foreign, nil))
	assert.Equal(t, 1.0, CreditRatio(context.Background(), llmtest.Reply("0"), home, nil, nil))
}

func TestAverageRatio(t *testing.T) {
	assert.Equal(t, 1.0, AverageRatio(nil, nil))
	assert.Equal(t, 1.0, AverageRatio([]types.Course{{Credits: 5}}, []types.Course{{Credits: 0}}))
	assert.Equal(t, 2.0, AverageRatio([]types.Course{{Credits: 10}, {Credits: 6}}, []types.Course{{Credits: 4}}))
}

func titles(cs []types.Course) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Title
	}
	return out
}

func ids(cs []types.Course) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}
