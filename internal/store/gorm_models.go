package store

import (
	"time"

	"github.com/harentsoaR/wellness-api/internal/models"
)

// GORM models used for persistence. They mirror the relational schema of the
// Postgres deployment.
type UserModel struct {
	ID           string    `gorm:"primaryKey"`
	Email        string    `gorm:"uniqueIndex;not null"`
	Password     string    `gorm:"not null"`
	Name         string    `gorm:"not null"`
	IsSubscribed bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (UserModel) TableName() string { return "users" }

type SubscriptionModel struct {
	ID              string    `gorm:"primaryKey"`
	UserID          string    `gorm:"not null;index:idx_subscriptions_user_created,priority:1"`
	Status          string    `gorm:"not null"`
	Amount          float64   `gorm:"type:numeric(10,2);not null"`
	Currency        string    `gorm:"not null;default:USD"`
	PaymentProvider string    `gorm:"not null"`
	ExternalID      string    `gorm:"uniqueIndex;not null"`
	CreatedAt       time.Time `gorm:"not null;index:idx_subscriptions_user_created,priority:2"`
	ExpiresAt       time.Time `gorm:"not null"`
}

func (SubscriptionModel) TableName() string { return "subscriptions" }

type ConsultationModel struct {
	ID           string `gorm:"primaryKey"`
	UserID       string `gorm:"not null;index"`
	PatientToken string `gorm:"not null"`
	ConsultURL   *string
	Location     string `gorm:"not null"`
	ProviderID   *string
	Metadata     *string
	Status       string    `gorm:"not null;default:pending"`
	CreatedAt    time.Time `gorm:"not null;index"`
	ScheduledAt  *time.Time
}

func (ConsultationModel) TableName() string { return "consultations" }

type ChatMessageModel struct {
	ID        string    `gorm:"primaryKey"`
	UserID    *string   `gorm:"index"`
	Message   string    `gorm:"not null"`
	Response  string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

func (ChatMessageModel) TableName() string { return "chat_messages" }

func userToModel(u *models.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Email:        u.Email,
		Password:     u.Password,
		Name:         u.Name,
		IsSubscribed: u.IsSubscribed,
		CreatedAt:    u.CreatedAt,
	}
}

func userFromModel(m UserModel) *models.User {
	return &models.User{
		ID:           m.ID,
		Email:        m.Email,
		Password:     m.Password,
		Name:         m.Name,
		IsSubscribed: m.IsSubscribed,
		CreatedAt:    m.CreatedAt,
	}
}

func subscriptionToModel(s *models.Subscription) SubscriptionModel {
	return SubscriptionModel{
		ID:              s.ID,
		UserID:          s.UserID,
		Status:          s.Status,
		Amount:          s.Amount,
		Currency:        s.Currency,
		PaymentProvider: s.PaymentProvider,
		ExternalID:      s.ExternalID,
		CreatedAt:       s.CreatedAt,
		ExpiresAt:       s.ExpiresAt,
	}
}

func subscriptionFromModel(m SubscriptionModel) *models.Subscription {
	return &models.Subscription{
		ID:              m.ID,
		UserID:          m.UserID,
		Status:          m.Status,
		Amount:          m.Amount,
		Currency:        m.Currency,
		PaymentProvider: m.PaymentProvider,
		ExternalID:      m.ExternalID,
		CreatedAt:       m.CreatedAt,
		ExpiresAt:       m.ExpiresAt,
	}
}

func consultationToModel(c *models.Consultation) ConsultationModel {
	return ConsultationModel{
		ID:           c.ID,
		UserID:       c.UserID,
		PatientToken: c.PatientToken,
		ConsultURL:   c.ConsultURL,
		Location:     c.Location,
		ProviderID:   c.ProviderID,
		Metadata:     c.Metadata,
		Status:       c.Status,
		CreatedAt:    c.CreatedAt,
		ScheduledAt:  c.ScheduledAt,
	}
}

func consultationFromModel(m ConsultationModel) models.Consultation {
	return models.Consultation{
		ID:           m.ID,
		UserID:       m.UserID,
		PatientToken: m.PatientToken,
		ConsultURL:   m.ConsultURL,
		Location:     m.Location,
		ProviderID:   m.ProviderID,
		Metadata:     m.Metadata,
		Status:       m.Status,
		CreatedAt:    m.CreatedAt,
		ScheduledAt:  m.ScheduledAt,
	}
}

func chatMessageToModel(msg *models.ChatMessage) ChatMessageModel {
	m := ChatMessageModel{
		ID:        msg.ID,
		Message:   msg.Message,
		Response:  msg.Response,
		CreatedAt: msg.CreatedAt,
	}
	if msg.UserID != "" {
		uid := msg.UserID
		m.UserID = &uid
	}
	return m
}

func chatMessageFromModel(m ChatMessageModel) models.ChatMessage {
	msg := models.ChatMessage{
		ID:        m.ID,
		Message:   m.Message,
		Response:  m.Response,
		CreatedAt: m.CreatedAt,
	}
	if m.UserID != nil {
		msg.UserID = *m.UserID
	}
	return msg
}
