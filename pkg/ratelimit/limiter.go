package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow checks if a request is allowed under the current rate limit
	Allow() bool
	// Wait blocks until the rate limit allows another request or ctx is done
	Wait(ctx context.Context) error
	// Reset resets the rate limiter state
	Reset()
}

// SleepFunc pauses for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc backed by a timer
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	capacity     int           // Maximum number of tokens
	tokens       int           // Current number of tokens
	refillPeriod time.Duration // Period after which bucket is refilled
	lastRefill   time.Time     // Last time the bucket was refilled
	mu           sync.Mutex
}

// NewTokenBucket creates a new token bucket rate limiter
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:     capacity,
		tokens:       capacity,
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
	}
}

// PerMinute returns a bucket allowing n requests per minute, or nil when
// n is not positive (no limit).
func PerMinute(n int) *TokenBucket {
	if n <= 0 {
		return nil
	}
	return NewTokenBucket(n, time.Minute)
}

// Allow checks if a request can proceed
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for !tb.Allow() {
		tb.mu.Lock()
		timeUntilRefill := tb.refillPeriod - time.Since(tb.lastRefill)
		tb.mu.Unlock()

		if timeUntilRefill <= 0 {
			timeUntilRefill = 10 * time.Millisecond
		}
		if err := Sleep(ctx, timeUntilRefill); err != nil {
			return err
		}
	}
	return nil
}

// Reset resets the token bucket to full capacity
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = time.Now()
}

// Remaining returns the tokens left in the current period
func (tb *TokenBucket) Remaining() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	return tb.tokens
}

// refill adds tokens based on elapsed time
func (tb *TokenBucket) refill() {
	now := time.Now()
	if now.Sub(tb.lastRefill) >= tb.refillPeriod {
		tb.tokens = tb.capacity
		tb.lastRefill = now
	}
}

// RandomInterval pauses for a uniformly random duration in [Min, Max] each
// time Wait is called. It spaces out file downloads and albums.
type RandomInterval struct {
	Min time.Duration
	Max time.Duration

	// OnWait, when set, is told about each pause before it starts
	OnWait func(d time.Duration)

	sleep SleepFunc
	mu    sync.Mutex
	rng   *rand.Rand
}

// NewRandomInterval creates a RandomInterval using real timers
func NewRandomInterval(min, max time.Duration) *RandomInterval {
	return NewRandomIntervalWithSleep(min, max, Sleep)
}

// NewRandomIntervalWithSleep creates a RandomInterval that pauses through
// sleep instead of a timer
func NewRandomIntervalWithSleep(min, max time.Duration, sleep SleepFunc) *RandomInterval {
	if max < min {
		max = min
	}
	return &RandomInterval{
		Min:   min,
		Max:   max,
		sleep: sleep,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next draws the next pause length
func (ri *RandomInterval) Next() time.Duration {
	if ri.Max <= ri.Min {
		return ri.Min
	}
	ri.mu.Lock()
	defer ri.mu.Unlock()
	return ri.Min + time.Duration(ri.rng.Int63n(int64(ri.Max-ri.Min)+1))
}

// Allow always reports true; the interval only ever delays
func (ri *RandomInterval) Allow() bool { return true }

// Wait pauses for a random duration within the bounds
func (ri *RandomInterval) Wait(ctx context.Context) error {
	d := ri.Next()
	if ri.OnWait != nil && d > 0 {
		ri.OnWait(d)
	}
	return ri.sleep(ctx, d)
}

// Reset is a no-op
func (ri *RandomInterval) Reset() {}
