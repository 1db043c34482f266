package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"golang.org/x/time/rate"
)

// ResendLimiter throttles verification-email resends per address so a stuck
// client cannot hammer the SMTP relay. Keys are lowercased emails; entries
// idle longer than twice the cleanup interval are dropped.
type ResendLimiter struct {
	mu       sync.Mutex
	limiters map[string]*emailLimiter

	r     rate.Limit
	burst int

	cleanupInterval time.Duration
	stopCh          chan struct{}
}

type emailLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewResendLimiter allows `perHour` resends per email with a burst of `burst`.
func NewResendLimiter(perHour int, burst int) *ResendLimiter {
	rl := &ResendLimiter{
		limiters:        make(map[string]*emailLimiter),
		r:               rate.Limit(float64(perHour) / 3600.0),
		burst:           burst,
		cleanupInterval: 10 * time.Minute,
		stopCh:          make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *ResendLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *ResendLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Email string `json:"email"`
		}
		// ShouldBindBodyWith caches the body so the handler can re-bind it.
		if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil || body.Email == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid email"})
			return
		}

		if !rl.allow(strings.ToLower(body.Email)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many verification emails requested. Please try again later.",
				"code":  "rate_limit_exceeded",
			})
			return
		}

		c.Next()
	}
}

func (rl *ResendLimiter) allow(email string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	el, ok := rl.limiters[email]
	if !ok {
		el = &emailLimiter{limiter: rate.NewLimiter(rl.r, rl.burst)}
		rl.limiters[email] = el
	}
	el.lastAccess = time.Now()
	return el.limiter.Allow()
}

func (rl *ResendLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *ResendLimiter) cleanup() {
	ttl := rl.cleanupInterval * 2
	now := time.Now()

	rl.mu.Lock()
	for email, el := range rl.limiters {
		if now.Sub(el.lastAccess) > ttl {
			delete(rl.limiters, email)
		}
	}
	rl.mu.Unlock()
}
