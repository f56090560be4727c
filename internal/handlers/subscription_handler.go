package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/wellness-api/internal/middleware"
)

type createSubscriptionRequest struct {
	Amount   *float64 `json:"amount"`
	Currency string   `json:"currency"`
}

func (h *Handler) CreateSubscription(c *gin.Context) {
	var req createSubscriptionRequest
	// An empty body selects the default plan.
	if c.Request.ContentLength != 0 {
		if err := bindJSON(c, &req); err != nil {
			respondError(c, err, "Invalid subscription data")
			return
		}
	}

	user := middleware.CurrentUser(c)
	sub, checkoutURL, err := h.Subscriptions.Create(c.Request.Context(), user, req.Amount, req.Currency)
	if err != nil {
		if statusFor(err) == http.StatusBadRequest {
			respondError(c, err, "Invalid subscription data")
			return
		}
		respondError(c, err, "Failed to create subscription")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Payment checkout created successfully",
		"subscription": sub,
		"checkoutUrl":  checkoutURL,
		"paymentId":    sub.ExternalID,
	})
}

func (h *Handler) GetSubscriptionStatus(c *gin.Context) {
	user := middleware.CurrentUser(c)
	sub, active, err := h.Subscriptions.Status(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err, "Failed to get subscription status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": sub, "isActive": active})
}
