package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/harentsoaR/wellness-api/internal/metrics"
	"github.com/harentsoaR/wellness-api/internal/models"
	"github.com/harentsoaR/wellness-api/internal/store"
)

const (
	DefaultSubscriptionAmount   = 9.99
	DefaultSubscriptionCurrency = "USD"
	SubscriptionPeriod          = 30 * 24 * time.Hour

	txRefPrefix = "subscription"
)

// Webhook payment statuses reported by the provider.
const (
	PaymentSuccessful = "successful"
	PaymentFailed     = "failed"
	PaymentCancelled  = "cancelled"
)

// WebhookOutcome says what a webhook delivery did to local state.
type WebhookOutcome string

const (
	WebhookActivated WebhookOutcome = "activated"
	WebhookFailed    WebhookOutcome = "failed"
	WebhookIgnored   WebhookOutcome = "ignored"
)

// WebhookEvent is the provider-neutral part of a payment notification.
type WebhookEvent struct {
	Status        string
	TxRef         string
	TransactionID string
	Amount        float64
	Currency      string
}

// SubscriptionService opens checkouts and reconciles payment notifications.
type SubscriptionService struct {
	store       store.Store
	gateway     PaymentGateway
	metrics     metrics.Client
	redirectURL string
	now         func() time.Time
}

func NewSubscriptionService(s store.Store, gateway PaymentGateway, m metrics.Client, publicBaseURL string) *SubscriptionService {
	if m == nil {
		m = metrics.Noop()
	}
	return &SubscriptionService{
		store:       s,
		gateway:     gateway,
		metrics:     m,
		redirectURL: strings.TrimRight(publicBaseURL, "/") + "/subscription/success",
		now:         time.Now,
	}
}

// SetClock replaces the time source. Only meant for tests.
func (s *SubscriptionService) SetClock(now func() time.Time) {
	s.now = now
}

// BuildTxRef encodes userID into the provider reference so the webhook can find
// the owner again.
func BuildTxRef(userID string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%d", txRefPrefix, userID, at.UnixMilli())
}

// ParseTxRef extracts the user id from a reference built by BuildTxRef.
func ParseTxRef(txRef string) (string, bool) {
	parts := strings.Split(txRef, "_")
	if len(parts) < 2 || parts[0] != txRefPrefix || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Create opens a hosted checkout for user and records a pending subscription.
// amount nil and currency "" select the defaults.
func (s *SubscriptionService) Create(ctx context.Context, user *models.User, amount *float64, currency string) (*models.Subscription, string, error) {
	value := DefaultSubscriptionAmount
	if amount != nil {
		value = *amount
	}
	if value <= 0 {
		return nil, "", fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultSubscriptionCurrency
	}
	if !isCurrencyCode(currency) {
		return nil, "", fmt.Errorf("%w: currency must be a 3-letter code", ErrInvalidInput)
	}

	now := s.now()
	txRef := BuildTxRef(user.ID, now)
	name := user.Name
	if name == "" {
		name = "Customer"
	}

	link, err := s.gateway.CreatePayment(ctx, PaymentRequest{
		TxRef:         txRef,
		Amount:        value,
		Currency:      currency,
		RedirectURL:   s.redirectURL,
		CustomerEmail: user.Email,
		CustomerName:  name,
	})
	if err != nil {
		_ = s.metrics.Incr("subscription.checkout", []string{"result:error"}, 1)
		return nil, "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	externalID := link.TxRef
	if externalID == "" {
		externalID = txRef
	}
	sub := &models.Subscription{
		UserID:          user.ID,
		Status:          models.SubscriptionPending,
		Amount:          value,
		Currency:        currency,
		PaymentProvider: models.ProviderFlutterwave,
		ExternalID:      externalID,
		CreatedAt:       now.UTC(),
		ExpiresAt:       now.Add(SubscriptionPeriod).UTC(),
	}
	if err := s.store.CreateSubscription(ctx, sub); err != nil {
		return nil, "", fmt.Errorf("save subscription: %w", err)
	}
	_ = s.metrics.Incr("subscription.checkout", []string{"result:created"}, 1)
	log.WithFields(log.Fields{"user_id": user.ID, "tx_ref": externalID}).Info("subscription checkout created")
	return sub, link.Link, nil
}

// Status returns the user's latest subscription (nil when none) and whether it is active.
func (s *SubscriptionService) Status(ctx context.Context, userID string) (*models.Subscription, bool, error) {
	sub, err := s.store.GetLatestSubscription(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return sub, sub.IsActive(s.now()), nil
}

// HandleWebhook applies a payment notification. Business mismatches (unknown
// reference, stale subscription, unhandled status) are ignored without error so
// the provider does not retry; only storage failures are returned.
func (s *SubscriptionService) HandleWebhook(ctx context.Context, ev WebhookEvent) (WebhookOutcome, error) {
	entry := log.WithFields(log.Fields{
		"status":         ev.Status,
		"tx_ref":         ev.TxRef,
		"transaction_id": ev.TransactionID,
	})
	entry.Info("flutterwave webhook received")

	outcome, err := s.applyWebhook(ctx, ev)
	if err != nil {
		entry.WithError(err).Error("flutterwave webhook processing failed")
		_ = s.metrics.Incr("webhook.processed", []string{"outcome:error"}, 1)
		return "", err
	}
	entry.WithField("outcome", string(outcome)).Info("flutterwave webhook processed")
	_ = s.metrics.Incr("webhook.processed", []string{"outcome:" + string(outcome)}, 1)
	return outcome, nil
}

func (s *SubscriptionService) applyWebhook(ctx context.Context, ev WebhookEvent) (WebhookOutcome, error) {
	var target string
	switch ev.Status {
	case PaymentSuccessful:
		target = models.SubscriptionActive
	case PaymentFailed, PaymentCancelled:
		target = models.SubscriptionFailed
	default:
		return WebhookIgnored, nil
	}

	userID, ok := ParseTxRef(ev.TxRef)
	if !ok {
		return WebhookIgnored, nil
	}
	sub, err := s.store.GetLatestSubscription(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return WebhookIgnored, nil
	}
	if err != nil {
		return "", fmt.Errorf("load subscription: %w", err)
	}
	// Only the user's most recent checkout may be transitioned.
	if sub.ExternalID != ev.TxRef {
		return WebhookIgnored, nil
	}

	if target == models.SubscriptionFailed {
		if sub.Status != models.SubscriptionPending {
			return WebhookIgnored, nil
		}
		err := s.store.UpdateSubscriptionStatus(ctx, sub.ID, models.SubscriptionFailed)
		if errors.Is(err, store.ErrNotFound) {
			return WebhookIgnored, nil
		}
		if err != nil {
			return "", fmt.Errorf("mark subscription failed: %w", err)
		}
		return WebhookFailed, nil
	}

	if sub.Status != models.SubscriptionPending && sub.Status != models.SubscriptionActive {
		return WebhookIgnored, nil
	}
	if sub.Status != models.SubscriptionActive {
		err := s.store.UpdateSubscriptionStatus(ctx, sub.ID, models.SubscriptionActive)
		// The row can disappear between the lookup and the update.
		if errors.Is(err, store.ErrNotFound) {
			return WebhookIgnored, nil
		}
		if err != nil {
			return "", fmt.Errorf("activate subscription: %w", err)
		}
	}
	if err := s.store.UpdateUserSubscription(ctx, userID, true); err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("flag user subscribed: %w", err)
	}
	return WebhookActivated, nil
}

func isCurrencyCode(v string) bool {
	if len(v) != 3 {
		return false
	}
	for _, r := range v {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
