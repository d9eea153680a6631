package httpmiddleware

import (
	"net/http"

	"github.com/VarshithKumarK/AgriPredAI/backend/go/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

// KeyFunc extracts the rate limiting key from a request.
type KeyFunc func(c *gin.Context) string

// ClientIP keys requests by the client address.
func ClientIP(c *gin.Context) string {
	return c.ClientIP()
}

// ContextKey keys requests by a string value stored in the gin context,
// falling back to the client address when it is absent.
func ContextKey(name string) KeyFunc {
	return func(c *gin.Context) string {
		if v, ok := c.Get(name); ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
		return c.ClientIP()
	}
}

// RateLimit is a gin middleware that rejects requests over the limit with 429.
func RateLimit(limiter ratelimiter.RateLimiter, key KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(key(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too Many Requests"})
			return
		}
		c.Next()
	}
}
