package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/harentsoaR/wellness-api/internal/models"
	"github.com/harentsoaR/wellness-api/internal/store"
)

// ConsultationInput carries a booking request. Optional fields are nil when absent.
type ConsultationInput struct {
	PatientToken string
	Location     string
	ConsultURL   *string
	ProviderID   *string
	Metadata     *string
}

type ConsultationService struct {
	store store.Store
}

func NewConsultationService(s store.Store) *ConsultationService {
	return &ConsultationService{store: s}
}

// Create books a consultation for a subscribed user. The subscription flag is
// read from user as loaded for this request.
func (s *ConsultationService) Create(ctx context.Context, user *models.User, in ConsultationInput) (*models.Consultation, error) {
	if !user.IsSubscribed {
		return nil, fmt.Errorf("%w: subscription required", ErrForbidden)
	}
	patientToken := strings.TrimSpace(in.PatientToken)
	location := strings.TrimSpace(in.Location)
	if patientToken == "" {
		return nil, fmt.Errorf("%w: patientToken is required", ErrInvalidInput)
	}
	if location == "" {
		return nil, fmt.Errorf("%w: location is required", ErrInvalidInput)
	}
	in.ConsultURL = optional(in.ConsultURL)
	in.ProviderID = optional(in.ProviderID)
	if in.ConsultURL != nil && !isWebURL(*in.ConsultURL) {
		return nil, fmt.Errorf("%w: consultUrl must be a valid URL", ErrInvalidInput)
	}

	c := &models.Consultation{
		UserID:       user.ID,
		PatientToken: patientToken,
		ConsultURL:   in.ConsultURL,
		Location:     location,
		ProviderID:   in.ProviderID,
		Metadata:     in.Metadata,
		Status:       models.ConsultationPending,
	}
	if err := s.store.CreateConsultation(ctx, c); err != nil {
		return nil, fmt.Errorf("save consultation: %w", err)
	}
	return c, nil
}

func (s *ConsultationService) List(ctx context.Context, userID string) ([]models.Consultation, error) {
	return s.store.ListConsultations(ctx, userID)
}

// UpdateStatus moves a consultation to status, optionally recording when it is scheduled.
func (s *ConsultationService) UpdateStatus(ctx context.Context, id, status string, scheduledAt *time.Time) error {
	if !models.IsConsultationStatus(status) {
		return fmt.Errorf("%w: unknown consultation status %q", ErrInvalidInput, status)
	}
	err := s.store.UpdateConsultationStatus(ctx, id, status, scheduledAt)
	if errors.Is(err, store.ErrNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("update consultation: %w", err)
	}
	return nil
}

// optional treats blank strings as absent.
func optional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
