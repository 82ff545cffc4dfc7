// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo(t *testing.T) {
	errFlaky := errors.New("flaky")

	tests := []struct {
		name      string
		policy    Policy
		failFirst int
		wantCalls int
		wantErr   bool
	}{
		{name: "immediate success", policy: Policy{MaxAttempts: 2}, failFirst: 0, wantCalls: 1},
		{name: "succeeds on second attempt", policy: Policy{MaxAttempts: 2}, failFirst: 1, wantCalls: 2},
		{name: "exhausts attempts", policy: Policy{MaxAttempts: 2}, failFirst: 5, wantCalls: 2, wantErr: true},
		{name: "zero attempts means one", policy: Policy{}, failFirst: 5, wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			got, err := Do(context.Background(), tt.policy, func(context.Context) (string, error) {
				calls++
				if calls <= tt.failFirst {
					return "", errFlaky
				}
				return "ok", nil
			})
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				require.ErrorIs(t, err, errFlaky)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ok", got)
		})
	}
}

func TestDoPermanentStopsRetrying(t *testing.T) {
	errBad := errors.New("bad request")
	calls := 0
	_, err := Do(context.Background(), Policy{MaxAttempts: 5}, func(context.Context) (int, error) {
		calls++
		return 0, Permanent(errBad)
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, errBad, err)
}

func TestDoStopsWhenContextEnds(t *testing.T) {
	old := DelayScale
	DelayScale = 1
	defer func() { DelayScale = old }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	errFlaky := errors.New("flaky")
	calls := 0
	start := time.Now()
	_, err := Do(ctx, Policy{MaxAttempts: 3, Delay: time.Second}, func(context.Context) (int, error) {
		calls++
		return 0, errFlaky
	})
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestWaitHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
}
