package auth

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SlidingWindowLimiter implements sliding window rate limiting. Idle windows
// are swept lazily from Allow, at most once per window size.
type SlidingWindowLimiter struct {
	mu         sync.Mutex
	windows    map[string][]time.Time
	limit      int
	windowSize time.Duration
	lastSweep  time.Time
	now        func() time.Time
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter
func NewSlidingWindowLimiter(limit int, windowSize time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		windows:    make(map[string][]time.Time),
		limit:      limit,
		windowSize: windowSize,
		lastSweep:  time.Now(),
		now:        time.Now,
	}
}

// Allow records a request for key and reports whether it fits the limit.
// Pruning, counting and recording happen under one lock with the sweep.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := l.now()
	windowStart := now.Add(-l.windowSize)

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.windowSize {
		l.sweep(windowStart)
		l.lastSweep = now
	}

	requests := prune(l.windows[key], windowStart)
	if len(requests) >= l.limit {
		l.windows[key] = requests
		return false, nil
	}
	l.windows[key] = append(requests, now)
	return true, nil
}

// Len returns the number of keys currently tracked
func (l *SlidingWindowLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// sweep drops keys with no request after windowStart. Callers hold l.mu.
func (l *SlidingWindowLimiter) sweep(windowStart time.Time) {
	for key, requests := range l.windows {
		if requests = prune(requests, windowStart); len(requests) == 0 {
			delete(l.windows, key)
		} else {
			l.windows[key] = requests
		}
	}
}

// prune returns the requests newer than windowStart, reusing the backing array
func prune(requests []time.Time, windowStart time.Time) []time.Time {
	valid := requests[:0]
	for _, reqTime := range requests {
		if reqTime.After(windowStart) {
			valid = append(valid, reqTime)
		}
	}
	return valid
}

// IPRateLimiter wraps a rate limiter for IP-based limiting
type IPRateLimiter struct {
	limiter *SlidingWindowLimiter
	limit   int
}

// NewIPRateLimiter creates a limiter allowing requestsPerMinute per client IP
func NewIPRateLimiter(requestsPerMinute int) *IPRateLimiter {
	return &IPRateLimiter{
		limiter: NewSlidingWindowLimiter(requestsPerMinute, time.Minute),
		limit:   requestsPerMinute,
	}
}

// Allow checks if a request from an IP is allowed
func (l *IPRateLimiter) Allow(ctx context.Context, ip string) (bool, error) {
	return l.limiter.Allow(ctx, fmt.Sprintf("ip:%s", ip))
}

// Limit returns the configured requests per minute
func (l *IPRateLimiter) Limit() int {
	return l.limit
}
