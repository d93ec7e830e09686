package mw

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// IPRateLimiter hands out one token bucket per client IP. A bucket unused for
// longer than idle is evicted; a returning client starts with a full burst.
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters *cache.Cache
	r        rate.Limit
	b        int
}

// NewIPRateLimiter creates an IPRateLimiter allowing r requests per second
// with burst b.
func NewIPRateLimiter(r rate.Limit, b int, idle time.Duration) *IPRateLimiter {
	return &IPRateLimiter{
		limiters: cache.New(idle, idle),
		r:        r,
		b:        b,
	}
}

// Limiter returns ip's bucket and pushes its expiry back by idle.
func (i *IPRateLimiter) Limiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	l, ok := i.lookup(ip)
	if !ok {
		l = rate.NewLimiter(i.r, i.b)
	}
	i.limiters.SetDefault(ip, l)
	return l
}

func (i *IPRateLimiter) lookup(ip string) (*rate.Limiter, bool) {
	v, ok := i.limiters.Get(ip)
	if !ok {
		return nil, false
	}
	return v.(*rate.Limiter), true
}

// Tracked is the number of IPs currently holding a bucket.
func (i *IPRateLimiter) Tracked() int {
	i.limiters.DeleteExpired()
	return i.limiters.ItemCount()
}

// RateLimiter rejects requests over the per-IP budget with 429.
func RateLimiter(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Limiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests",
				"code":  "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}
