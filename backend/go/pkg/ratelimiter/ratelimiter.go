package ratelimiter

import (
	"sync"
	"time"
)

// RateLimiter is the interface for rate limiting.
// Allow returns true if a request identified by key may proceed.
type RateLimiter interface {
	Allow(key string) bool
}

// Keyed keeps one token bucket per key, so one user's burst never
// consumes another user's budget.
type Keyed struct {
	rate     float64
	capacity int
	idleTTL  time.Duration

	mu       sync.Mutex
	buckets  map[string]*TokenBucket
	lastSeen map[string]time.Time
	now      func() time.Time
}

// NewKeyed creates a Keyed limiter. Buckets unused for idleTTL are dropped on the next sweep.
func NewKeyed(rate float64, capacity int, idleTTL time.Duration) *Keyed {
	return &Keyed{
		rate:     rate,
		capacity: capacity,
		idleTTL:  idleTTL,
		buckets:  make(map[string]*TokenBucket),
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Allow consumes one token from the bucket of key.
func (k *Keyed) Allow(key string) bool {
	k.mu.Lock()
	now := k.now()
	b, ok := k.buckets[key]
	if !ok {
		k.sweep(now)
		b = newTokenBucketAt(k.rate, k.capacity, now)
		k.buckets[key] = b
	}
	k.lastSeen[key] = now
	k.mu.Unlock()

	return b.allowAt(now)
}

// Len reports how many buckets are currently tracked.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}

// sweep drops idle buckets. Caller holds mu.
func (k *Keyed) sweep(now time.Time) {
	if k.idleTTL <= 0 {
		return
	}
	for key, seen := range k.lastSeen {
		if now.Sub(seen) > k.idleTTL {
			delete(k.lastSeen, key)
			delete(k.buckets, key)
		}
	}
}
