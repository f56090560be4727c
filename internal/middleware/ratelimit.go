package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/wellness-api/internal/ratelimit"
)

// RateLimit rejects requests over the limiter's quota with 429. A nil limiter
// lets everything through.
func RateLimit(limiter *ratelimit.FixedWindowLimiter, key func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		if !limiter.Allow(c.Request.Context(), key(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests, please try again later"})
			return
		}
		c.Next()
	}
}

func ByClientIP(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// ByUser keys on the authenticated user and falls back to the client IP.
func ByUser(c *gin.Context) string {
	if user := CurrentUser(c); user != nil {
		return "user:" + user.ID
	}
	return ByClientIP(c)
}
