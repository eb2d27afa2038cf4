// internal/middleware/rate_limit.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/printlane/printlane-backend/internal/config"
)

// ipLimiter hands out one token bucket per client IP and reaps buckets that
// have gone quiet.
type ipLimiter struct {
	mtx     sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const bucketIdleTTL = 5 * time.Minute

func newIPLimiter(limit rate.Limit, burst int) *ipLimiter {
	l := &ipLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		burst:   burst,
	}
	go l.reap()
	return l
}

func (l *ipLimiter) reap() {
	ticker := time.NewTicker(time.Minute)
	for range ticker.C {
		l.mtx.Lock()
		for ip, b := range l.buckets {
			if time.Since(b.lastSeen) > bucketIdleTTL {
				delete(l.buckets, ip)
			}
		}
		l.mtx.Unlock()
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mtx.Lock()
	b, exists := l.buckets[ip]
	if !exists {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[ip] = b
	}
	b.lastSeen = time.Now()
	l.mtx.Unlock()

	return b.limiter.Allow()
}

func (l *ipLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GeneralRateLimit caps overall API traffic per client. Queue pagination and
// listing reads are cheap, so the ceiling is generous.
func GeneralRateLimit() gin.HandlerFunc {
	return newIPLimiter(rate.Every(time.Second/20), 40).middleware()
}

// AuthRateLimit keeps credential stuffing slow: a handful of login or
// registration attempts per minute per client.
func AuthRateLimit() gin.HandlerFunc {
	return newIPLimiter(rate.Every(12*time.Second), 5).middleware()
}

// uploadBudgetMB is the worst-case artwork volume one client may push per
// minute. The submission allowance is derived from it and the configured
// size cap, so raising UPLOAD_MAX_ARTWORK_MB automatically tightens how
// often a client may submit.
const uploadBudgetMB = 120

// UploadRateLimit throttles artwork submission, the expensive path: every
// accepted request is a full read, hash, and store of the uploaded bytes.
func UploadRateLimit(cfg config.UploadConfig) gin.HandlerFunc {
	perMinute := uploadAllowancePerMinute(cfg)
	return newIPLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute).middleware()
}

func uploadAllowancePerMinute(cfg config.UploadConfig) int {
	if cfg.MaxArtworkSizeMB <= 0 {
		return 10
	}

	allowance := uploadBudgetMB / cfg.MaxArtworkSizeMB
	if allowance < 1 {
		allowance = 1
	}
	if allowance > 30 {
		allowance = 30
	}
	return allowance
}
