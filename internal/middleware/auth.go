package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/harentsoaR/wellness-api/internal/models"
	"github.com/harentsoaR/wellness-api/internal/services"
)

const currentUserKey = "currentUser"

// AuthMiddleware resolves the bearer token to a user and stores it on the context.
func AuthMiddleware(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Access token required"})
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		switch {
		case errors.Is(err, services.ErrForbidden):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Invalid or expired token"})
			return
		case errors.Is(err, services.ErrUnauthenticated):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "User not found"})
			return
		case err != nil:
			log.WithError(err).Error("auth: failed to load user")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user attached by AuthMiddleware, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// bearerToken returns the second space-separated word of the header. The scheme
// word is not checked, so "Token x" yields a token that then fails verification.
func bearerToken(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
