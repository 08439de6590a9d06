package resilience

import (
	"context"
	"sync"
	"time"
)

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// Rate is the sustained number of calls per second. The free weather
	// API tier allows 60 calls a minute.
	// Default: 1
	Rate float64

	// Burst is the bucket size.
	// Default: 5
	Burst int

	// WaitOnLimit makes Execute wait for a token instead of failing fast.
	WaitOnLimit bool

	// MaxWait caps how long Execute waits for a token.
	// Default: 2 seconds
	MaxWait time.Duration

	// Now replaces time.Now.
	Now func() time.Time
}

// RateLimiter is a token bucket.
type RateLimiter struct {
	config RateLimiterConfig

	mu       sync.Mutex
	tokens   float64
	refilled time.Time
}

// NewRateLimiter creates a new rate limiter with a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 1
	}
	if config.Burst <= 0 {
		config.Burst = 5
	}
	if config.MaxWait <= 0 {
		config.MaxWait = 2 * time.Second
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &RateLimiter{
		config:   config,
		tokens:   float64(config.Burst),
		refilled: config.Now(),
	}
}

// Allow takes one token if available.
func (rl *RateLimiter) Allow() bool {
	ok, _ := rl.reserve(1)
	return ok
}

// AllowN takes n tokens if all are available.
func (rl *RateLimiter) AllowN(n int) bool {
	ok, _ := rl.reserve(n)
	return ok
}

// reserve takes n tokens, or reports how long until they would be available.
func (rl *RateLimiter) reserve(n int) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillLocked()
	need := float64(n)
	if rl.tokens >= need {
		rl.tokens -= need
		return true, 0
	}
	missing := need - rl.tokens
	return false, time.Duration(missing / rl.config.Rate * float64(time.Second))
}

// Wait blocks until a token is available, MaxWait elapses, or ctx ends.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline := rl.config.Now().Add(rl.config.MaxWait)

	for {
		ok, wait := rl.reserve(1)
		if ok {
			return nil
		}
		remaining := deadline.Sub(rl.config.Now())
		if remaining <= 0 {
			return ErrRateLimitExceeded
		}
		if wait > remaining {
			wait = remaining
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Execute runs op if the limiter admits it.
func (rl *RateLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if rl.config.WaitOnLimit {
		if err := rl.Wait(ctx); err != nil {
			return err
		}
	} else if !rl.Allow() {
		return ErrRateLimitExceeded
	}
	return op(ctx)
}

func (rl *RateLimiter) refillLocked() {
	now := rl.config.Now()
	elapsed := now.Sub(rl.refilled)
	if elapsed <= 0 {
		return
	}
	rl.refilled = now
	rl.tokens += elapsed.Seconds() * rl.config.Rate
	if burst := float64(rl.config.Burst); rl.tokens > burst {
		rl.tokens = burst
	}
}

// Tokens returns the number of available tokens.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillLocked()
	return rl.tokens
}

// Reset refills the bucket.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.tokens = float64(rl.config.Burst)
	rl.refilled = rl.config.Now()
}
