package common

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RateLimiter tracks the venue's advertised request budget from response
// headers (x-ratelimit-limit, x-ratelimit-remaining, x-ratelimit-reset).
type RateLimiter struct {
	mu        sync.RWMutex
	limit     int
	remaining int
	resetAt   time.Time
	known     bool
	now       func() time.Time
	log       *zap.Logger
}

// NewRateLimiter creates a tracker with no budget information yet.
func NewRateLimiter(log *zap.Logger) *RateLimiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &RateLimiter{now: time.Now, log: log}
}

// UpdateFromHeaders records the budget advertised by a venue response.
func (rl *RateLimiter) UpdateFromHeaders(h http.Header) {
	remaining, err := strconv.Atoi(h.Get("x-ratelimit-remaining"))
	if err != nil {
		return
	}
	limit, _ := strconv.Atoi(h.Get("x-ratelimit-limit"))
	var resetAt time.Time
	if reset, err := strconv.ParseInt(h.Get("x-ratelimit-reset"), 10, 64); err == nil {
		resetAt = time.Unix(reset, 0)
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.remaining = remaining
	rl.limit = limit
	rl.resetAt = resetAt
	rl.known = true

	if limit <= 0 {
		return
	}
	used := float64(limit-remaining) / float64(limit) * 100
	if used >= 95 {
		rl.log.Warn("venue rate limit critical", zap.Int("remaining", remaining), zap.Int("limit", limit))
	} else if used >= 80 {
		rl.log.Info("venue rate limit warning", zap.Int("remaining", remaining), zap.Int("limit", limit))
	}
}

// Blocked reports whether the budget is exhausted, and for how long.
func (rl *RateLimiter) Blocked() (bool, time.Duration) {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	if !rl.known || rl.remaining > 0 {
		return false, 0
	}
	wait := rl.resetAt.Sub(rl.now())
	if wait <= 0 {
		return false, 0
	}
	return true, wait
}

// Usage returns the last advertised remaining and limit.
func (rl *RateLimiter) Usage() (remaining, limit int) {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return rl.remaining, rl.limit
}
