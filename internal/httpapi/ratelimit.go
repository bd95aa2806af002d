package httpapi

import (
	"sync"
	"time"
)

const (
	// windowDuration is the fixed rate-limit window.
	windowDuration = 60 * time.Second
	// cleanupInterval is how often idle client entries are dropped.
	cleanupInterval = 10 * time.Minute
	// idleTimeout is how long before an idle client entry is removed.
	idleTimeout = 10 * time.Minute
)

// RateLimiter provides per-client sliding-window rate limiting keyed by
// client IP.
type RateLimiter struct {
	limitPerMinute int
	entries        map[string]*clientEntry
	mutex          sync.Mutex
	stopCleanup    chan struct{}
}

type clientEntry struct {
	timestamps []time.Time
	lastSeen   time.Time
}

// NewRateLimiter creates a limiter allowing limitPerMinute requests per
// client per minute. A limit of zero disables limiting.
func NewRateLimiter(limitPerMinute int) *RateLimiter {
	rl := &RateLimiter{
		limitPerMinute: limitPerMinute,
		entries:        make(map[string]*clientEntry),
		stopCleanup:    make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// Stop stops the background cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopCleanup)
}

// Allow reports whether a request from the client should be processed.
func (rl *RateLimiter) Allow(clientIP string) bool {
	if rl.limitPerMinute <= 0 {
		return true
	}

	now := time.Now()

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	entry, exists := rl.entries[clientIP]
	if !exists {
		entry = &clientEntry{
			timestamps: make([]time.Time, 0, rl.limitPerMinute+1),
		}
		rl.entries[clientIP] = entry
	}

	entry.lastSeen = now

	// Drop timestamps outside the window, reusing the slice capacity.
	windowStart := now.Add(-windowDuration)
	valid := entry.timestamps[:0]
	for _, ts := range entry.timestamps {
		if ts.After(windowStart) {
			valid = append(valid, ts)
		}
	}
	entry.timestamps = valid

	if len(entry.timestamps) >= rl.limitPerMinute {
		return false
	}

	entry.timestamps = append(entry.timestamps, now)
	return true
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCleanup:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-idleTimeout)
			rl.mutex.Lock()
			for ip, entry := range rl.entries {
				if entry.lastSeen.Before(cutoff) {
					delete(rl.entries, ip)
				}
			}
			rl.mutex.Unlock()
		}
	}
}
