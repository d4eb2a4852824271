package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(5, 50*time.Millisecond)

	for i := 0; i < 5; i++ {
		assert.True(t, tb.Allow(), "token %d", i+1)
	}
	assert.False(t, tb.Allow())
	assert.Equal(t, 0, tb.Remaining())

	time.Sleep(60 * time.Millisecond)
	assert.True(t, tb.Allow())

	tb.Reset()
	assert.Equal(t, 5, tb.Remaining())
}

func TestTokenBucketWait(t *testing.T) {
	tb := NewTokenBucket(1, 20*time.Millisecond)
	require.True(t, tb.Allow())

	start := time.Now()
	require.NoError(t, tb.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestTokenBucketWaitCancelled(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, tb.Wait(ctx), context.DeadlineExceeded)
}

func TestPerMinute(t *testing.T) {
	assert.Nil(t, PerMinute(0))
	tb := PerMinute(30)
	require.NotNil(t, tb)
	assert.Equal(t, 30, tb.Remaining())
}

func TestRandomIntervalBounds(t *testing.T) {
	var mu sync.Mutex
	var slept []time.Duration
	sleep := func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		slept = append(slept, d)
		mu.Unlock()
		return nil
	}

	ri := NewRandomIntervalWithSleep(15*time.Second, 25*time.Second, sleep)
	var announced int
	ri.OnWait = func(time.Duration) { announced++ }

	for i := 0; i < 100; i++ {
		require.NoError(t, ri.Wait(context.Background()))
	}

	require.Len(t, slept, 100)
	for _, d := range slept {
		assert.GreaterOrEqual(t, d, 15*time.Second)
		assert.LessOrEqual(t, d, 25*time.Second)
	}
	assert.Equal(t, 100, announced)
	assert.True(t, ri.Allow())
}

func TestRandomIntervalZero(t *testing.T) {
	ri := NewRandomInterval(0, 0)
	assert.Zero(t, ri.Next())
	assert.NoError(t, ri.Wait(context.Background()))

	// Inverted bounds collapse to the minimum
	inv := NewRandomInterval(2*time.Second, time.Second)
	assert.Equal(t, 2*time.Second, inv.Next())
}

func TestRandomIntervalCancelled(t *testing.T) {
	ri := NewRandomInterval(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, ri.Wait(ctx), context.Canceled)
}
