package api

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"queryjam/internal/auth"
	redisc "queryjam/internal/redis"
)

// RateLimiter enforces fixed-window request limits keyed by authenticated
// user, falling back to client IP for anonymous routes. Counters live in
// redis when a client is available so limits hold across instances, with an
// in-process map as fallback.
type RateLimiter struct {
	cache *redisc.Client

	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	count   int
	resetAt time.Time
}

// NewRateLimiter builds a limiter. cache may be nil.
func NewRateLimiter(cache *redisc.Client) *RateLimiter {
	return &RateLimiter{
		cache:   cache,
		windows: make(map[string]*window),
	}
}

// Limit returns middleware allowing max requests per windowDur under the
// given name. Responses carry X-RateLimit headers; over-limit requests get
// 429 with a retry hint.
func (rl *RateLimiter) Limit(name string, max int, windowDur time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rl.key(name, c)
		count, resetAt, err := rl.hit(c, key, windowDur)
		if err != nil {
			// Counting failures never block traffic.
			c.Next()
			return
		}
		remaining := max - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
		if count > max {
			retryAfter := int(time.Until(resetAt).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded, please slow down",
				"retry_after": retryAfter,
			})
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) key(name string, c *gin.Context) string {
	if userID, ok := auth.UserIDFromContext(c); ok && userID > 0 {
		return fmt.Sprintf("ratelimit:%s:user:%d", name, userID)
	}
	return fmt.Sprintf("ratelimit:%s:ip:%s", name, c.ClientIP())
}

func (rl *RateLimiter) hit(c *gin.Context, key string, windowDur time.Duration) (int, time.Time, error) {
	ctx := c.Request.Context()
	if rl.cache != nil {
		count, err := rl.cache.Incr(ctx, key)
		if err == nil {
			if count == 1 {
				_ = rl.cache.Expire(ctx, key, windowDur)
			}
			ttl, terr := rl.cache.TTL(ctx, key)
			if terr != nil || ttl <= 0 {
				ttl = windowDur
			}
			return int(count), time.Now().Add(ttl), nil
		}
		// fall through to the local map on redis errors
	}

	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	w, ok := rl.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(windowDur)}
		rl.windows[key] = w
		rl.pruneLocked(now)
	}
	w.count++
	return w.count, w.resetAt, nil
}

// pruneLocked drops expired windows so the map does not grow without bound.
// Called with mu held, only when a new window starts.
func (rl *RateLimiter) pruneLocked(now time.Time) {
	if len(rl.windows) < 1024 {
		return
	}
	for key, w := range rl.windows {
		if now.After(w.resetAt) {
			delete(rl.windows, key)
		}
	}
}
