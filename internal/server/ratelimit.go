package server

import (
	"sync"
	"time"
)

// rateLimiter allows at most limit requests per client within a sliding
// window.
type rateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[string][]time.Time
	now    func() time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:  limit,
		window: window,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow records a request from client and reports whether it is within the
// limit. Rejected requests are not recorded. A non-positive limit allows
// everything.
func (l *rateLimiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.prune(client, now)
	if l.limit > 0 && len(recent) >= l.limit {
		return false
	}
	l.hits[client] = append(recent, now)
	return true
}

// prune drops hits older than the window. Caller holds mu.
func (l *rateLimiter) prune(client string, now time.Time) []time.Time {
	hits := l.hits[client]
	i := 0
	for i < len(hits) && now.Sub(hits[i]) >= l.window {
		i++
	}
	hits = hits[i:]
	if len(hits) == 0 {
		delete(l.hits, client)
		return nil
	}
	l.hits[client] = hits
	return hits
}

// Stats returns the number of requests inside the window and the number of
// clients that made them.
func (l *rateLimiter) Stats() (requests, clients int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for client := range l.hits {
		if n := len(l.prune(client, now)); n > 0 {
			requests += n
			clients++
		}
	}
	return requests, clients
}
