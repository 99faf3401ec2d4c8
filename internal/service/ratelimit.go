package service

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterIdleTimeout     = 10 * time.Minute
)

// KeyedLimiter is an in-memory per-key rate limiter, typically keyed by
// client IP. It is safe for concurrent use. Idle keys are dropped
// periodically until Close is called.
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	done     chan struct{}
	once     sync.Once
}

type limiterEntry struct {
	limiter *rate.Limiter
	last    time.Time
}

// NewKeyedLimiter allows burst events per key immediately, refilling at
// perMinute events per minute. A perMinute of zero never refills.
func NewKeyedLimiter(perMinute float64, burst int) *KeyedLimiter {
	kl := &KeyedLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(perMinute / 60),
		burst:    burst,
		done:     make(chan struct{}),
	}
	go kl.cleanup()
	return kl
}

// Allow reports whether key may proceed now, consuming one event if so.
func (kl *KeyedLimiter) Allow(key string) bool {
	kl.mu.Lock()
	e, ok := kl.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(kl.limit, kl.burst)}
		kl.limiters[key] = e
	}
	e.last = time.Now()
	kl.mu.Unlock()

	return e.limiter.Allow()
}

// Len returns the number of tracked keys.
func (kl *KeyedLimiter) Len() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.limiters)
}

// Close stops the cleanup goroutine.
func (kl *KeyedLimiter) Close() {
	kl.once.Do(func() { close(kl.done) })
}

func (kl *KeyedLimiter) cleanup() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-kl.done:
			return
		case now := <-ticker.C:
			kl.prune(now.Add(-limiterIdleTimeout))
		}
	}
}

func (kl *KeyedLimiter) prune(cutoff time.Time) {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	for key, e := range kl.limiters {
		if e.last.Before(cutoff) {
			delete(kl.limiters, key)
		}
	}
}
