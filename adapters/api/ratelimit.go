package api

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements token bucket rate limiting with a per-minute refill
type RateLimiter struct {
	rate     int // requests per minute
	tokens   chan struct{}
	interval time.Duration

	mu         sync.Mutex
	resetTimer *time.Timer
	stopped    bool
}

// NewRateLimiter creates a full bucket of requestsPerMinute tokens
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	return newRateLimiter(requestsPerMinute, time.Minute)
}

func newRateLimiter(rate int, interval time.Duration) *RateLimiter {
	if rate <= 0 {
		rate = 1
	}
	rl := &RateLimiter{
		rate:     rate,
		tokens:   make(chan struct{}, rate),
		interval: interval,
	}
	rl.fill()
	rl.resetTimer = time.AfterFunc(interval, rl.resetTokens)
	return rl
}

// Wait takes a token, blocking until one is available or ctx is done
func (rl *RateLimiter) Wait(ctx context.Context) error {
	select {
	case <-rl.tokens:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop halts the refill timer
func (rl *RateLimiter) Stop() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.stopped = true
	rl.resetTimer.Stop()
}

func (rl *RateLimiter) fill() {
	for i := 0; i < rl.rate; i++ {
		select {
		case rl.tokens <- struct{}{}:
		default:
			return
		}
	}
}

func (rl *RateLimiter) resetTokens() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.stopped {
		return
	}
	rl.fill()
	rl.resetTimer.Reset(rl.interval)
}
