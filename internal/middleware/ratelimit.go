package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	svcerrors "github.com/SolMeet-Labs/access_layer/internal/errors"
	"github.com/SolMeet-Labs/access_layer/internal/logging"
)

// RateLimiter applies a per-key token bucket. Payment endpoints use it
// keyed by identity session so one client cannot hammer the ledger.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
	logger   *logging.Logger
}

// NewRateLimiter creates a limiter allowing requestsPerSecond with the
// given burst per key.
func NewRateLimiter(requestsPerSecond, burst int, logger *logging.Logger) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	if burst <= 0 {
		burst = requestsPerSecond
	}
	if logger == nil {
		logger = logging.NewDefault("ratelimit")
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		logger:   logger,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = limiter
	}
	return limiter
}

// Handler returns the gin middleware. Authenticated requests are keyed by
// session ID, anonymous requests by client IP.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if session, ok := SessionFromContext(c); ok {
			key = session.ID()
		}

		if !rl.getLimiter(key).Allow() {
			rl.logger.WithField("key", key).Warn("rate limit exceeded")
			svcErr := svcerrors.NotAllowed("rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": svcErr})
			return
		}
		c.Next()
	}
}
