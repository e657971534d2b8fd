package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit applies a per-caller token bucket: the bucket fills at rps
// tokens per second up to burst, and each request consumes one token.
// Requests are bucketed by the authenticated API key when present, falling
// back to client IP for unauthenticated deployments.
//
// Analysis requests are expensive (one or more LLM calls each), so this
// limit sits in front of the outbound limiter inside the service.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	return func(c *gin.Context) {
		bucket := c.ClientIP()
		if key, exists := c.Get("api_key"); exists {
			bucket = key.(string)
		}

		mu.Lock()
		limiter, exists := limiters[bucket]
		if !exists {
			limiter = rate.NewLimiter(rate.Limit(rps), burst)
			limiters[bucket] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}
