package middleware

import (
	"sync"
	"time"
)

// RateLimiter is a fixed-window in-memory limiter keyed by user id and by
// client IP.
type RateLimiter struct {
	userLimits map[string]*window
	ipLimits   map[string]*window
	mu         sync.Mutex

	userMaxRequests int
	ipMaxRequests   int
	window          time.Duration
	now             func() time.Time
	stop            chan struct{}
	stopOnce        sync.Once
}

type window struct {
	requests  int
	resetTime time.Time
}

// NewRateLimiter creates a new rate limiter and starts its cleanup loop.
// Call Stop to end it.
func NewRateLimiter(userMaxRequests, ipMaxRequests int, windowSize time.Duration) *RateLimiter {
	rl := &RateLimiter{
		userLimits:      make(map[string]*window),
		ipLimits:        make(map[string]*window),
		userMaxRequests: userMaxRequests,
		ipMaxRequests:   ipMaxRequests,
		window:          windowSize,
		now:             time.Now,
		stop:            make(chan struct{}),
	}

	go rl.cleanup(5 * time.Minute)

	return rl
}

// CheckUserLimit records a request for userID and reports whether it is allowed
func (rl *RateLimiter) CheckUserLimit(userID string) bool {
	return rl.check(rl.userLimits, userID, rl.userMaxRequests)
}

// CheckIPLimit records a request for ip and reports whether it is allowed
func (rl *RateLimiter) CheckIPLimit(ip string) bool {
	return rl.check(rl.ipLimits, ip, rl.ipMaxRequests)
}

func (rl *RateLimiter) check(limits map[string]*window, key string, max int) bool {
	if max <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	limit, exists := limits[key]
	if !exists || now.After(limit.resetTime) {
		limits[key] = &window{
			requests:  1,
			resetTime: now.Add(rl.window),
		}
		return true
	}

	if limit.requests >= max {
		return false
	}

	limit.requests++
	return true
}

// GetUserRemaining returns remaining requests for user
func (rl *RateLimiter) GetUserRemaining(userID string) int {
	return rl.remaining(rl.userLimits, userID, rl.userMaxRequests)
}

// GetIPRemaining returns remaining requests for IP
func (rl *RateLimiter) GetIPRemaining(ip string) int {
	return rl.remaining(rl.ipLimits, ip, rl.ipMaxRequests)
}

func (rl *RateLimiter) remaining(limits map[string]*window, key string, max int) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limit, exists := limits[key]
	if !exists || rl.now().After(limit.resetTime) {
		return max
	}

	remaining := max - limit.requests
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (rl *RateLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evictExpired()
		}
	}
}

func (rl *RateLimiter) evictExpired() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, limit := range rl.userLimits {
		if now.After(limit.resetTime) {
			delete(rl.userLimits, key)
		}
	}
	for key, limit := range rl.ipLimits {
		if now.After(limit.resetTime) {
			delete(rl.ipLimits, key)
		}
	}
}

// Stop ends the cleanup loop
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Reset clears all rate limits (useful for testing)
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.userLimits = make(map[string]*window)
	rl.ipLimits = make(map[string]*window)
}
