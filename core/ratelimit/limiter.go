package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// timeNow is swapped in tests to drive the bucket clock.
var timeNow = time.Now

// Config holds the token bucket parameters.
type Config struct {
	// CallsPerMinute is the sustained request budget against the
	// remote API, expressed the way NetBox operators think about it.
	CallsPerMinute int `mapstructure:"calls_per_minute" default:"100"`
	// Burst is the bucket capacity: how many tokens may be consumed
	// instantaneously before the sustained rate applies.
	Burst int `mapstructure:"burst" default:"20"`
}

// Validate rejects configurations that would stall or overrun the
// remote API. Called before any I/O happens.
func (c Config) Validate() error {
	if c.CallsPerMinute <= 0 {
		return fmt.Errorf("ratelimit: calls_per_minute must be positive, got %d", c.CallsPerMinute)
	}
	if c.Burst <= 0 {
		return fmt.Errorf("ratelimit: burst must be positive, got %d", c.Burst)
	}
	return nil
}

// Limiter is a token bucket shared by all sync workers. One token
// corresponds to one remote-visible record, so a bulk call of N
// records consumes N tokens even though it is a single HTTP request.
//
// The bucket refills continuously at the configured rate with elapsed
// time accounting; acquisition is atomic across goroutines and the
// bucket is never overdrawn.
type Limiter struct {
	bucket *rate.Limiter
	burst  int
}

// New creates a limiter from the config. Callers must Validate the
// config first; New trusts its input.
func New(cfg Config) *Limiter {
	perSecond := rate.Limit(float64(cfg.CallsPerMinute) / 60.0)
	return &Limiter{
		bucket: rate.NewLimiter(perSecond, cfg.Burst),
		burst:  cfg.Burst,
	}
}

// Acquire blocks until the requested tokens are available or the
// context is done. Requests larger than the burst capacity are
// acquired in burst-sized chunks, so a large bulk call spreads out
// over the sustained rate instead of failing outright.
//
// A context deadline surfaces as the context error; the caller treats
// it as a retryable per-item failure, not a fatal engine error.
func (l *Limiter) Acquire(ctx context.Context, tokens int) error {
	if tokens <= 0 {
		return nil
	}
	for tokens > 0 {
		n := tokens
		if n > l.burst {
			n = l.burst
		}
		if err := l.bucket.WaitN(ctx, n); err != nil {
			return fmt.Errorf("ratelimit: acquire %d tokens: %w", n, err)
		}
		tokens -= n
	}
	return nil
}

// TryAcquire attempts to take the tokens without blocking. Requests
// above the burst capacity can never succeed immediately and return
// false.
func (l *Limiter) TryAcquire(tokens int) bool {
	if tokens <= 0 {
		return true
	}
	if tokens > l.burst {
		return false
	}
	return l.bucket.AllowN(timeNow(), tokens)
}

// Burst returns the bucket capacity.
func (l *Limiter) Burst() int { return l.burst }
