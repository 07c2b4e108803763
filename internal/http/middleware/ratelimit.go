package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-link-tracker/internal/utils"
)

const (
	// Buckets idle this long are dropped on the next sweep.
	bucketIdleTTL = 10 * time.Minute
	// A sweep runs once every sweepEvery lookups.
	sweepEvery = 5000
)

// KeyFunc maps a request to the identity whose bucket it spends.
type KeyFunc func(*gin.Context) string

// KeyByVisitorIP keys on the visitor address as the click record resolves
// it: X-Forwarded-For, then X-Real-IP, then the peer.
func KeyByVisitorIP() KeyFunc {
	return func(c *gin.Context) string {
		return "ip:" + utils.ClientIP(c.Request.Header, c.Request.RemoteAddr)
	}
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter is a process-local token bucket per key. It only guards the
// write endpoints (link creation and the page callback) and only when
// RATE_RPS is set; the tracking page itself is never limited.
type RateLimiter struct {
	limit rate.Limit
	burst int
	key   KeyFunc
	ttl   time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
	lookups int
}

// NewRateLimiter allows rps tokens per second per key with the given burst,
// coerced to at least 1.
func NewRateLimiter(rps float64, burst int, key KeyFunc) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   max(burst, 1),
		key:     key,
		ttl:     bucketIdleTTL,
		buckets: make(map[string]*bucket),
	}
}

// allow spends one token from k's bucket.
func (rl *RateLimiter) allow(k string) bool {
	return rl.bucketFor(k, time.Now()).Allow()
}

func (rl *RateLimiter) bucketFor(k string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Sweep first so a stale bucket for k is replaced, not revived.
	if rl.lookups++; rl.lookups >= sweepEvery {
		rl.lookups = 0
		for id, b := range rl.buckets {
			if now.Sub(b.seen) >= rl.ttl {
				delete(rl.buckets, id)
			}
		}
	}

	b, ok := rl.buckets[k]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[k] = b
	}
	b.seen = now
	return b.lim
}

// Handler rejects with 429, Retry-After: 1 and the API error envelope.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return rl.HandlerWith(func(c *gin.Context) {
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody{
			RequestID: c.Writer.Header().Get(HeaderRequestID),
			Code:      "too_many_requests",
			Message:   "rate limit exceeded",
		})
	})
}

// HandlerWith rejects through reject, which must abort c. The click-update
// callback uses it to keep answering {"ok": false}.
func (rl *RateLimiter) HandlerWith(reject gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.allow(rl.key(c)) {
			c.Next()
			return
		}
		LoggerFrom(c).Debug().Str("route", c.FullPath()).Msg("rate limited")
		reject(c)
	}
}
