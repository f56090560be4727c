package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/harentsoaR/wellness-api/internal/services"
	"github.com/harentsoaR/wellness-api/internal/store"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"message": message} with the status matching err.
// Server-side failures are logged; the client only sees message.
func respondError(c *gin.Context, err error, message string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.FullPath()).Error(message)
		c.JSON(status, gin.H{"message": message})
		return
	}

	body := gin.H{"message": message}
	if errors.Is(err, services.ErrInvalidInput) {
		body["error"] = strings.TrimPrefix(err.Error(), services.ErrInvalidInput.Error()+": ")
	}
	c.JSON(status, body)
}
