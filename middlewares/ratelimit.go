package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	sweepInterval = time.Minute
	idleTTL       = 3 * time.Minute
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiterStore keeps one token bucket per client IP. Idle entries are
// swept inline from get, so the store needs no background goroutine.
type rateLimiterStore struct {
	mu        sync.Mutex
	limiters  map[string]*ipLimiter
	r         rate.Limit
	b         int
	lastSweep time.Time
}

func newRateLimiterStore(r float64, b int) *rateLimiterStore {
	return &rateLimiterStore{
		limiters:  make(map[string]*ipLimiter),
		r:         rate.Limit(r),
		b:         b,
		lastSweep: time.Now(),
	}
}

func (rl *rateLimiterStore) get(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastSweep) > sweepInterval {
		for key, v := range rl.limiters {
			if time.Since(v.lastSeen) > idleTTL {
				delete(rl.limiters, key)
			}
		}
		rl.lastSweep = time.Now()
	}

	if v, ok := rl.limiters[ip]; ok {
		v.lastSeen = time.Now()
		return v.limiter
	}
	l := rate.NewLimiter(rl.r, rl.b)
	rl.limiters[ip] = &ipLimiter{limiter: l, lastSeen: time.Now()}
	return l
}

// RateLimit limits each client IP to rps requests per second with the given
// burst. Scan traffic fans out to upstream food databases, so this guards
// them as much as us.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	store := newRateLimiterStore(rps, burst)
	return func(c *gin.Context) {
		if !store.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
