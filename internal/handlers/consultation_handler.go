package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/wellness-api/internal/middleware"
	"github.com/harentsoaR/wellness-api/internal/services"
)

// Field presence is checked by the service, after the subscription check.
type createConsultationRequest struct {
	PatientToken string          `json:"patientToken"`
	Location     string          `json:"location"`
	ConsultURL   *string         `json:"consultUrl"`
	ProviderID   *string         `json:"providerId"`
	Metadata     json.RawMessage `json:"metadata"`
}

func (h *Handler) CreateConsultation(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req createConsultationRequest
	if err := bindJSON(c, &req); err != nil && user.IsSubscribed {
		respondError(c, err, "Invalid consultation data")
		return
	}

	consultation, err := h.Consultations.Create(c.Request.Context(), user, services.ConsultationInput{
		PatientToken: req.PatientToken,
		Location:     req.Location,
		ConsultURL:   req.ConsultURL,
		ProviderID:   req.ProviderID,
		Metadata:     metadataText(req.Metadata),
	})
	if err != nil {
		switch statusFor(err) {
		case http.StatusForbidden:
			respondError(c, err, "Subscription required for consultations")
		case http.StatusBadRequest:
			respondError(c, err, "Invalid consultation data")
		default:
			respondError(c, err, "Failed to create consultation")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Consultation request created successfully",
		"consultation": consultation,
	})
}

// GetConsultations lists the caller's bookings, newest first.
func (h *Handler) GetConsultations(c *gin.Context) {
	user := middleware.CurrentUser(c)
	consultations, err := h.Consultations.List(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err, "Failed to fetch consultations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"consultations": consultations})
}

// metadataText stores metadata as text: JSON strings are unquoted, any other
// JSON value is kept in compact form.
func metadataText(raw json.RawMessage) *string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		text := string(raw)
		return &text
	}
	text := buf.String()
	return &text
}
