package handlers

import (
	"github.com/harentsoaR/wellness-api/internal/services"
	"github.com/harentsoaR/wellness-api/internal/store"
)

// Handler holds everything the HTTP endpoints need.
type Handler struct {
	Store         store.Store
	Auth          *services.AuthService
	Chat          *services.ChatService
	Subscriptions *services.SubscriptionService
	Consultations *services.ConsultationService

	// WebhookHash, when set, must match the verif-hash header of payment webhooks.
	WebhookHash string
}

func NewHandler(
	s store.Store,
	auth *services.AuthService,
	chat *services.ChatService,
	subscriptions *services.SubscriptionService,
	consultations *services.ConsultationService,
	webhookHash string,
) *Handler {
	return &Handler{
		Store:         s,
		Auth:          auth,
		Chat:          chat,
		Subscriptions: subscriptions,
		Consultations: consultations,
		WebhookHash:   webhookHash,
	}
}
