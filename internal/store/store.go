package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/harentsoaR/wellness-api/internal/models"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrEmailTaken = errors.New("email already registered")

	// ErrDuplicateReference is returned when a subscription reuses a provider reference.
	ErrDuplicateReference = errors.New("payment reference already recorded")
)

// Store is the persistence surface used by the services. Every method touches a
// single entity family and is one atomic statement against the backend.
type Store interface {
	// users
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUserSubscription(ctx context.Context, userID string, isSubscribed bool) error

	// subscriptions
	CreateSubscription(ctx context.Context, sub *models.Subscription) error
	GetLatestSubscription(ctx context.Context, userID string) (*models.Subscription, error)
	UpdateSubscriptionStatus(ctx context.Context, id, status string) error

	// consultations
	CreateConsultation(ctx context.Context, c *models.Consultation) error
	ListConsultations(ctx context.Context, userID string) ([]models.Consultation, error)
	UpdateConsultationStatus(ctx context.Context, id, status string, scheduledAt *time.Time) error

	// chat
	CreateChatMessage(ctx context.Context, msg *models.ChatMessage) error
	ListChatMessages(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// prepare fills the id and creation time when the caller left them empty.
func prepare(id *string, createdAt *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now().UTC()
	}
}
