package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc selects the identity used to key a rate-limit bucket.
type keyFunc func(*gin.Context) string

// KeyByClientIP keys buckets by Gin's resolved client IP, prefixed "ip:".
func KeyByClientIP() keyFunc {
	return func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}
}

const (
	visitorTTL  = 10 * time.Minute
	sweepEveryN = 5000
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a process-local, per-key token bucket. Routes cost one token
// unless Cost says otherwise; routes that call the text or image providers are
// expected to be priced higher so one client cannot burn the upstream quota.
// Idle buckets are swept every sweepEveryN lookups.
//
// Safe for concurrent use; configure Exempt and Cost before calling Handler.
type RateLimiter struct {
	rps    rate.Limit
	burst  int
	keyFn  keyFunc
	exempt map[string]struct{}
	costs  map[string]int

	mu       sync.Mutex
	visitors map[string]*visitor
	lookups  uint64
	ttl      time.Duration
	now      func() time.Time
}

// NewRateLimiter builds a limiter refilling rps tokens per second up to burst
// (coerced to at least 1).
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		exempt:   map[string]struct{}{},
		costs:    map[string]int{},
		visitors: make(map[string]*visitor),
		ttl:      visitorTTL,
		now:      time.Now,
	}
}

// Exempt lets the given registered routes (e.g. "/health") bypass limiting.
func (rl *RateLimiter) Exempt(routes ...string) *RateLimiter {
	for _, p := range routes {
		rl.exempt[p] = struct{}{}
	}
	return rl
}

// Cost charges n tokens for each of the given registered routes. n is capped
// at the burst size so a costly route can always succeed on a full bucket.
func (rl *RateLimiter) Cost(n int, routes ...string) *RateLimiter {
	if n < 1 {
		n = 1
	}
	if n > rl.burst {
		n = rl.burst
	}
	for _, p := range routes {
		rl.costs[p] = n
	}
	return rl
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Sweep before touching key so a stale bucket for key is dropped too.
	rl.lookups++
	if rl.lookups >= sweepEveryN {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.lookups = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

func routeOf(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}

// retryAfter reports how long until n tokens are available, without
// consuming them. Zero means the bucket can never hold n.
func retryAfter(lim *rate.Limiter, now time.Time, n int) time.Duration {
	r := lim.ReserveN(now, n)
	if !r.OK() {
		return 0
	}
	d := r.DelayFrom(now)
	r.CancelAt(now)
	return d
}

// Handler returns the limiting middleware. Denied requests get
//
//	HTTP/1.1 429 Too Many Requests
//	Retry-After: <whole seconds, at least 1>
//	{ "request_id": "...", "code": "rate_limited", "message": "rate limit exceeded" }
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := routeOf(c)
		if _, ok := rl.exempt[route]; ok {
			c.Next()
			return
		}

		cost := 1
		if n, ok := rl.costs[route]; ok {
			cost = n
		}

		lim := rl.limiter(rl.keyFn(c))
		now := rl.now()
		if lim.AllowN(now, cost) {
			c.Next()
			return
		}

		secs := int(math.Ceil(retryAfter(lim, now, cost).Seconds()))
		if secs < 1 {
			secs = 1
		}
		c.Header("Retry-After", strconv.Itoa(secs))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": RequestIDFrom(c),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}
