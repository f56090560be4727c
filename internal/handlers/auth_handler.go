package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/wellness-api/internal/middleware"
	"github.com/harentsoaR/wellness-api/internal/services"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Name     string `json:"name" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

func (h *Handler) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "Invalid user data")
		return
	}

	user, token, err := h.Auth.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if errors.Is(err, services.ErrConflict) {
		respondError(c, err, "User already exists")
		return
	}
	if errors.Is(err, services.ErrInvalidInput) {
		respondError(c, err, "Invalid user data")
		return
	}
	if err != nil {
		respondError(c, err, "Failed to create user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"token":   token,
		"user":    user.Public(),
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "Invalid login data")
		return
	}

	user, token, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, services.ErrUnauthenticated) {
		respondError(c, err, "Invalid credentials")
		return
	}
	if err != nil {
		respondError(c, err, "Login failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user.Public(),
	})
}

// GetCurrentUser returns the profile of the authenticated user.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	user := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{"user": user.Public()})
}
