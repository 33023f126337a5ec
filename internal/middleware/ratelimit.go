package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"taskflow/internal/metrics"
)

const limiterIdle = 10 * time.Minute

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter keeps one token bucket per key.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	calls    int
}

func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

// Allow takes a token for key.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := time.Now()
	rl.calls++
	if rl.calls%1000 == 0 {
		for k, e := range rl.limiters {
			if now.Sub(e.seen) > limiterIdle {
				delete(rl.limiters, k)
			}
		}
	}
	e, ok := rl.limiters[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = e
	}
	e.seen = now
	return e.lim.AllowN(now, 1)
}

// Middleware limits by caller, falling back to client IP before auth.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := UserID(c)
		if key == "" {
			key = c.ClientIP()
		}
		if !rl.Allow(key) {
			metrics.StreamRejected.WithLabelValues("rate_limited").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many connection attempts"})
			return
		}
		c.Next()
	}
}
