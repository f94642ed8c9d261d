package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid", cfg: Config{CallsPerMinute: 100, Burst: 20}},
		{name: "zero rate", cfg: Config{CallsPerMinute: 0, Burst: 20}, wantErr: true},
		{name: "negative rate", cfg: Config{CallsPerMinute: -5, Burst: 20}, wantErr: true},
		{name: "zero burst", cfg: Config{CallsPerMinute: 100, Burst: 0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTryAcquire_BurstThenDeny(t *testing.T) {
	l := New(Config{CallsPerMinute: 60, Burst: 5})

	// The full burst is available immediately.
	assert.True(t, l.TryAcquire(5))

	// The bucket is now empty; refill is 1 token/sec so an immediate
	// retry must fail.
	assert.False(t, l.TryAcquire(1))
}

func TestTryAcquire_AboveBurstNeverSucceeds(t *testing.T) {
	l := New(Config{CallsPerMinute: 6000, Burst: 3})

	assert.False(t, l.TryAcquire(4))
	// The failed attempt must not have consumed anything.
	assert.True(t, l.TryAcquire(3))
}

func TestTryAcquire_ZeroTokens(t *testing.T) {
	l := New(Config{CallsPerMinute: 60, Burst: 1})
	assert.True(t, l.TryAcquire(0))
}

func TestAcquire_BlocksUntilRefill(t *testing.T) {
	// 600 calls/minute = 10 tokens/sec, so refilling one token takes
	// ~100ms after the burst is drained.
	l := New(Config{CallsPerMinute: 600, Burst: 1})
	assert.True(t, l.TryAcquire(1))

	start := time.Now()
	err := l.Acquire(context.Background(), 1)
	elapsed := time.Since(start)

	assert.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
}

func TestAcquire_TimeoutSurfacesContextError(t *testing.T) {
	// 1 call/minute: after the burst is gone the next token is a
	// minute away, far beyond the context deadline.
	l := New(Config{CallsPerMinute: 1, Burst: 1})
	assert.True(t, l.TryAcquire(1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Acquire(ctx, 1)
	assert.Error(t, err)
}

func TestAcquire_ChunksLargeRequests(t *testing.T) {
	// A request above burst is split into burst-sized chunks rather
	// than rejected.
	l := New(Config{CallsPerMinute: 60000, Burst: 10})

	err := l.Acquire(context.Background(), 25)
	assert.NoError(t, err)
}

func TestAcquire_ConcurrentNoOverdraw(t *testing.T) {
	// 20 goroutines race for a burst of 10 with a very slow refill;
	// within the test window at most burst + a couple of refilled
	// tokens may be granted.
	l := New(Config{CallsPerMinute: 60, Burst: 10})

	var granted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryAcquire(1) {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, granted.Load(), int64(11))
	assert.GreaterOrEqual(t, granted.Load(), int64(10))
}
