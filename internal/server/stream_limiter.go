package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleEviction = 10 * time.Minute

// streamRateLimiter throttles how fast a single IP may open push
// streams. A reconnect loop or scripted flood burns through its burst
// and then gets rejected instead of churning registry slots.
type streamRateLimiter struct {
	mu        sync.Mutex
	perIP     map[string]*limiterEntry
	rate      rate.Limit
	burst     int
	cleanupAt time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newStreamRateLimiter(opensPerSecond float64, burst int) *streamRateLimiter {
	return &streamRateLimiter{
		perIP:     make(map[string]*limiterEntry),
		rate:      rate.Limit(opensPerSecond),
		burst:     burst,
		cleanupAt: time.Now().Add(limiterIdleEviction),
	}
}

func (l *streamRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.After(l.cleanupAt) {
		l.evictIdle(now)
		l.cleanupAt = now.Add(limiterIdleEviction)
	}

	entry, ok := l.perIP[ip]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.perIP[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.Allow()
}

// evictIdle drops buckets idle for a full eviction interval so the map
// does not grow with the set of ever-seen IPs. Caller holds mu.
func (l *streamRateLimiter) evictIdle(now time.Time) {
	cutoff := now.Add(-limiterIdleEviction)
	for ip, entry := range l.perIP {
		if entry.lastSeen.Before(cutoff) {
			delete(l.perIP, ip)
		}
	}
}
