package models

import "time"

const (
	SubscriptionPending   = "pending"
	SubscriptionActive    = "active"
	SubscriptionFailed    = "failed"
	SubscriptionCancelled = "cancelled"
	SubscriptionExpired   = "expired"

	ProviderFlutterwave = "flutterwave"
)

type Subscription struct {
	ID              string    `bson:"_id" json:"id"`
	UserID          string    `bson:"userId" json:"userId"`
	Status          string    `bson:"status" json:"status"`
	Amount          float64   `bson:"amount" json:"amount"`
	Currency        string    `bson:"currency" json:"currency"`
	PaymentProvider string    `bson:"paymentProvider" json:"paymentProvider"`
	ExternalID      string    `bson:"externalId" json:"externalId"` // tx_ref shared with the payment provider
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	ExpiresAt       time.Time `bson:"expiresAt" json:"expiresAt"`
}

// IsActive reports whether the subscription is paid for and not yet past its expiry.
func (s *Subscription) IsActive(now time.Time) bool {
	return s != nil && s.Status == SubscriptionActive && now.Before(s.ExpiresAt)
}
