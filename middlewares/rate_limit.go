package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type userBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// UserRateLimiter hands out one token bucket per authenticated user. Buckets
// idle for longer than a full refill are dropped, so the map only holds users
// seen within the last idleTTL.
type UserRateLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	buckets   map[uint]*userBucket
	now       func() time.Time
}

// NewUserRateLimiter allows perMinute requests per user per minute, with
// bursts of up to perMinute.
func NewUserRateLimiter(perMinute int) *UserRateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &UserRateLimiter{
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute,
		idleTTL: time.Minute,
		buckets: make(map[uint]*userBucket),
		now:     time.Now,
	}
}

func (l *UserRateLimiter) allow(userID uint) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}
	b, ok := l.buckets[userID]
	if !ok {
		b = &userBucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[userID] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1)
}

// sweep drops buckets that have refilled completely. Caller holds mu.
func (l *UserRateLimiter) sweep(now time.Time) {
	for id, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.idleTTL {
			delete(l.buckets, id)
		}
	}
	l.lastSweep = now
}

// Len reports how many users currently hold a bucket.
func (l *UserRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Middleware must run after AuthMiddleware.
func (l *UserRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetUint("userID")
		if !l.allow(uid) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many evaluation requests, try again later"})
			return
		}
		c.Next()
	}
}
