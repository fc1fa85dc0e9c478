package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
	// IdleTTL is how long an idle client's limiter is kept
	IdleTTL time.Duration
}

// DefaultRateLimitConfig returns production-ready rate limit configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		Burst:             200,
		IdleTTL:           10 * time.Minute,
	}
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clients tracks one limiter per IP and evicts idle ones lazily
type clients struct {
	cfg       RateLimitConfig
	now       func() time.Time
	mu        sync.Mutex
	byIP      map[string]*client
	lastSweep time.Time
}

func newClients(cfg RateLimitConfig, now func() time.Time) *clients {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultRateLimitConfig().IdleTTL
	}
	return &clients{
		cfg:       cfg,
		now:       now,
		byIP:      make(map[string]*client),
		lastSweep: now(),
	}
}

func (cs *clients) allow(ip string) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	now := cs.now()
	if now.Sub(cs.lastSweep) >= cs.cfg.IdleTTL {
		for key, c := range cs.byIP {
			if now.Sub(c.lastSeen) >= cs.cfg.IdleTTL {
				delete(cs.byIP, key)
			}
		}
		cs.lastSweep = now
	}

	c, exists := cs.byIP[ip]
	if !exists {
		c = &client{limiter: rate.NewLimiter(rate.Limit(cs.cfg.RequestsPerSecond), cs.cfg.Burst)}
		cs.byIP[ip] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

func (cs *clients) size() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.byIP)
}

// RateLimit creates a per-IP rate limiting middleware.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	return rateLimit(newClients(cfg, time.Now))
}

func rateLimit(cs *clients) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cs.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

// GlobalRateLimit creates a global rate limiting middleware.
func GlobalRateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
