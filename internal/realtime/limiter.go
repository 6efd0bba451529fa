package realtime

import (
	"sync"

	"golang.org/x/time/rate"
)

// limiterSet hands out one token bucket per chat user, shared by all of their connections.
type limiterSet struct {
	mu     sync.Mutex
	limits map[int64]*rate.Limiter
	every  rate.Limit
	burst  int
}

func newLimiterSet(perSecond float64, burst int) *limiterSet {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst <= 0 {
		burst = 1
	}
	return &limiterSet{limits: make(map[int64]*rate.Limiter), every: limit, burst: burst}
}

func (l *limiterSet) get(userID int64) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, ok := l.limits[userID]; ok {
		return limiter
	}
	limiter := rate.NewLimiter(l.every, l.burst)
	l.limits[userID] = limiter
	return limiter
}

// Allow reports whether userID may send another frame now.
func (l *limiterSet) Allow(userID int64) bool {
	return l.get(userID).Allow()
}

func (l *limiterSet) forget(userID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.limits, userID)
}
