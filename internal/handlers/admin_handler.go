package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type setSubscriptionRequest struct {
	IsSubscribed *bool `json:"isSubscribed" binding:"required"`
}

type updateConsultationRequest struct {
	Status      string     `json:"status" binding:"required,oneof=pending scheduled completed cancelled"`
	ScheduledAt *time.Time `json:"scheduledAt"`
}

// SetUserSubscription lets an operator grant or revoke the subscription flag.
func (h *Handler) SetUserSubscription(c *gin.Context) {
	var req setSubscriptionRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "Invalid request body")
		return
	}

	user, err := h.Auth.SetSubscription(c.Request.Context(), c.Param("id"), *req.IsSubscribed)
	if err != nil {
		if statusFor(err) == http.StatusNotFound {
			respondError(c, err, "User not found")
			return
		}
		respondError(c, err, "Failed to update user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.Public()})
}

// UpdateConsultation moves a booking through its lifecycle.
func (h *Handler) UpdateConsultation(c *gin.Context) {
	var req updateConsultationRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err, "Invalid request body")
		return
	}

	id := c.Param("id")
	if err := h.Consultations.UpdateStatus(c.Request.Context(), id, req.Status, req.ScheduledAt); err != nil {
		if statusFor(err) == http.StatusNotFound {
			respondError(c, err, "Consultation not found")
			return
		}
		respondError(c, err, "Failed to update consultation")
		return
	}

	log.WithFields(log.Fields{"consultation_id": id, "status": req.Status}).Info("consultation updated by admin")
	c.JSON(http.StatusOK, gin.H{"message": "Consultation updated successfully"})
}
