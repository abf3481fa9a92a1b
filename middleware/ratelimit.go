package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// bucket tracks the token balance for one client.
type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// RateLimiter is a per-client-IP token bucket.
type RateLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	rate       float64 // tokens per second
	bucketSize float64
	lastSweep  time.Time
}

// NewRateLimiter allows rate requests per second with bursts up to
// bucketSize per client IP.
func NewRateLimiter(rate, bucketSize float64) *RateLimiter {
	return &RateLimiter{
		buckets:    make(map[string]*bucket),
		rate:       rate,
		bucketSize: bucketSize,
		lastSweep:  time.Now(),
	}
}

// RateLimit returns the Gin middleware enforcing the limit.
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		rl.mu.Lock()
		rl.sweep(now)

		b, ok := rl.buckets[ip]
		if !ok {
			b = &bucket{tokens: rl.bucketSize, lastRefill: now}
			rl.buckets[ip] = b
		}

		elapsed := now.Sub(b.lastRefill).Seconds()
		b.tokens += elapsed * rl.rate
		if b.tokens > rl.bucketSize {
			b.tokens = rl.bucketSize
		}
		b.lastRefill = now

		if b.tokens < 1 {
			rl.mu.Unlock()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}
		b.tokens--
		rl.mu.Unlock()

		c.Next()
	}
}

// sweep drops buckets idle long enough to have fully refilled. Called with
// the mutex held.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < 10*time.Minute {
		return
	}
	idle := time.Duration(rl.bucketSize/rl.rate)*time.Second + 10*time.Minute
	for ip, b := range rl.buckets {
		if now.Sub(b.lastRefill) > idle {
			delete(rl.buckets, ip)
		}
	}
	rl.lastSweep = now
}
