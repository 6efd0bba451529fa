package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apperrors "github.com/SVan22447/SSD-squad-Hak-remind/pkg/errors"
	"github.com/SVan22447/SSD-squad-Hak-remind/pkg/response"
)

// idleLimiterTTL bounds how long an unused client bucket is retained.
const idleLimiterTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit returns a middleware that allows maxRequests per window for each client IP,
// refilling continuously. It is an in-memory limiter suitable for single-instance deployments.
func RateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	if maxRequests <= 0 || window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	var (
		mu      sync.Mutex
		clients = make(map[string]*clientLimiter)
		every   = rate.Every(window / time.Duration(maxRequests))
	)

	sweep := func(now time.Time) {
		for key, entry := range clients {
			if now.Sub(entry.lastSeen) > idleLimiterTTL {
				delete(clients, key)
			}
		}
	}

	return func(c *gin.Context) {
		now := time.Now()
		key := c.ClientIP()

		mu.Lock()
		entry, ok := clients[key]
		if !ok {
			if len(clients) > 1024 {
				sweep(now)
			}
			entry = &clientLimiter{limiter: rate.NewLimiter(every, maxRequests)}
			clients[key] = entry
		}
		entry.lastSeen = now
		allowed := entry.limiter.AllowN(now, 1)
		remaining := int(math.Max(0, math.Floor(entry.limiter.TokensAt(now))))
		mu.Unlock()

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			response.Error(c, apperrors.ErrRateLimit)
			c.Abort()
			return
		}

		c.Next()
	}
}
