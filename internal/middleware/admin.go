package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const AdminKeyHeader = "X-Admin-Key"

// AdminOnly guards operator endpoints with a shared key. With no key configured
// the endpoints behave as if they did not exist.
func AdminOnly(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Not found"})
			return
		}
		got := c.GetHeader(AdminKeyHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(adminKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid admin key"})
			return
		}
		c.Next()
	}
}
