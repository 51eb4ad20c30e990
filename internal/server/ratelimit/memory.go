package ratelimit

import (
	"sync"
	"time"
)

// memoryLimiter is an in-memory token bucket limiter. Each key costs
// O(1) space: a token count and the time it was last refilled.
type memoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*tokenBucket
	config  Config

	cleanupT *time.Ticker
	stopCh   chan struct{}
}

type tokenBucket struct {
	tokens     float64
	lastUpdate time.Time
}

// NewMemoryLimiter creates an in-memory token bucket limiter. Tokens
// refill at a constant rate of Requests per Window.
func NewMemoryLimiter(cfg Config) Limiter {
	l := &memoryLimiter{
		buckets: make(map[string]*tokenBucket),
		config:  cfg,
		stopCh:  make(chan struct{}),
	}

	// Stale buckets are tiny but unbounded in count; sweep them.
	l.cleanupT = time.NewTicker(cfg.Window * 2)
	go l.cleanup()

	return l
}

// Allow checks if a request from the given key should be allowed.
func (l *memoryLimiter) Allow(key string) bool {
	if !l.config.Enabled {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	capacity := float64(l.config.Requests)
	fillRate := capacity / l.config.Window.Seconds()

	b, exists := l.buckets[key]
	if !exists {
		l.buckets[key] = &tokenBucket{
			tokens:     capacity - 1,
			lastUpdate: now,
		}
		return true
	}

	elapsed := now.Sub(b.lastUpdate).Seconds()
	b.tokens = min(capacity, b.tokens+elapsed*fillRate)
	b.lastUpdate = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}

	return false
}

// Reset clears the rate limit counter for the given key.
func (l *memoryLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

func (l *memoryLimiter) cleanup() {
	for {
		select {
		case <-l.cleanupT.C:
			l.cleanupStale()
		case <-l.stopCh:
			l.cleanupT.Stop()
			return
		}
	}
}

func (l *memoryLimiter) cleanupStale() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	staleThreshold := l.config.Window * 2

	for key, b := range l.buckets {
		if now.Sub(b.lastUpdate) > staleThreshold {
			delete(l.buckets, key)
		}
	}
}

// Stop stops the cleanup goroutine.
func (l *memoryLimiter) Stop() {
	close(l.stopCh)
}

var _ Stoppable = (*memoryLimiter)(nil)
