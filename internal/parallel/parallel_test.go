package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForVisitsEveryIndex(t *testing.T) {
	for _, cfg := range []Config{Sequential(), {Workers: 3}, DefaultConfig()} {
		seen := make([]int32, 50)
		err := For(context.Background(), len(seen), cfg, func(_ context.Context, i int) error {
			atomic.AddInt32(&seen[i], 1)
			return nil
		})
		require.NoError(t, err)
		for i, n := range seen {
			assert.Equal(t, int32(1), n, "workers %d, index %d", cfg.Workers, i)
		}
	}
}

func TestForBoundsConcurrency(t *testing.T) {
	var running, peak int32
	err := For(context.Background(), 20, Config{Workers: 2}, func(_ context.Context, _ int) error {
		now := atomic.AddInt32(&running, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if now <= old || atomic.CompareAndSwapInt32(&peak, old, now) {
				break
			}
		}
		atomic.AddInt32(&running, -1)
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak, int32(2))
}

func TestForReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")

	for _, cfg := range []Config{Sequential(), {Workers: 4}} {
		err := For(context.Background(), 10, cfg, func(_ context.Context, i int) error {
			if i == 3 {
				return boom
			}
			return nil
		})
		assert.ErrorIs(t, err, boom, "workers %d", cfg.Workers)
	}
}

func TestForSequentialStopsAtError(t *testing.T) {
	var calls int
	err := For(context.Background(), 10, Sequential(), func(_ context.Context, i int) error {
		calls++
		if i == 2 {
			return errors.New("stop")
		}
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestForCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	err := For(ctx, 5, Config{Workers: 2}, func(_ context.Context, _ int) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), calls)
}
