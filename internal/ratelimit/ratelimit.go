// Package ratelimit admits or rejects requests per client over a sliding
// time window.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter allows at most maxRequests per client within the trailing window.
// Timestamps outside the window are pruned on each check, so a client that
// bursts to the limit regains capacity as its oldest requests age out.
type Limiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	clients     map[string][]time.Time
	now         func() time.Time
}

// New creates a limiter. Non-positive arguments fall back to 60 requests
// per 60 seconds.
func New(maxRequests int, window time.Duration) *Limiter {
	if maxRequests <= 0 {
		maxRequests = 60
	}
	if window <= 0 {
		window = 60 * time.Second
	}
	return &Limiter{
		maxRequests: maxRequests,
		window:      window,
		clients:     make(map[string][]time.Time),
		now:         time.Now,
	}
}

// Allow records an attempt for the client and reports whether it is within
// the limit. Rejected attempts are not recorded.
func (l *Limiter) Allow(clientID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	stamps := l.clients[clientID]
	kept := stamps[:0]
	for _, t := range stamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.maxRequests {
		l.clients[clientID] = kept
		return false
	}

	l.clients[clientID] = append(kept, now)
	return true
}

// Len reports how many clients currently have recorded activity.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
