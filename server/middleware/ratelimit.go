package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apperrors "github.com/kbukum/authkit/errors"
)

// RateLimitConfig configures the rate limiting middleware.
type RateLimitConfig struct {
	// RequestsPerMinute is the sustained rate allowed per key.
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	// Burst is the number of requests allowed at once. Defaults to RequestsPerMinute.
	Burst int `yaml:"burst" mapstructure:"burst"`
	// KeyFunc extracts the rate limit key from a request. Defaults to client IP.
	KeyFunc func(*gin.Context) string `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills unset fields.
func (c *RateLimitConfig) ApplyDefaults() {
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = 60
	}
	if c.Burst <= 0 {
		c.Burst = c.RequestsPerMinute
	}
	if c.KeyFunc == nil {
		c.KeyFunc = IPBasedKey
	}
}

// RateLimit returns a Gin middleware applying a token bucket per key.
// Rejected requests get RATE_LIMITED and a Retry-After header.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	cfg.ApplyDefaults()
	rl := newRateLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60), cfg.Burst)

	return func(c *gin.Context) {
		r := rl.reserve(cfg.KeyFunc(c), time.Now())
		if r > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(r.Seconds()))))
			Abort(c, apperrors.RateLimited())
			return
		}
		c.Next()
	}
}

// IPBasedKey extracts the client IP for use as a rate limit key.
func IPBasedKey(c *gin.Context) string {
	return c.ClientIP()
}

const idleLimiterTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	lastSweep time.Time
}

func newRateLimiter(limit rate.Limit, burst int) *rateLimiter {
	return &rateLimiter{
		limiters:  make(map[string]*limiterEntry),
		limit:     limit,
		burst:     burst,
		lastSweep: time.Now(),
	}
}

// reserve consumes a token for key. It returns zero when the request may
// proceed, otherwise how long the caller should wait.
func (rl *rateLimiter) reserve(key string, now time.Time) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) > idleLimiterTTL {
		for k, e := range rl.limiters {
			if now.Sub(e.lastSeen) > idleLimiterTTL {
				delete(rl.limiters, k)
			}
		}
		rl.lastSweep = now
	}

	e, ok := rl.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = e
	}
	e.lastSeen = now

	if e.limiter.AllowN(now, 1) {
		return 0
	}
	r := e.limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	if delay <= 0 {
		delay = time.Second
	}
	return delay
}

func (rl *rateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}
