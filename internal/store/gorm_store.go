package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/harentsoaR/wellness-api/internal/models"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return newGormStore(db)
}

func newGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&UserModel{}, &SubscriptionModel{}, &ConsultationModel{}, &ChatMessageModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return userFromModel(model), nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return userFromModel(model), nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	prepare(&user.ID, &user.CreatedAt)
	model := userToModel(user)
	err := s.db.WithContext(ctx).Create(&model).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrEmailTaken
	}
	return err
}

func (s *GormStore) UpdateUserSubscription(ctx context.Context, userID string, isSubscribed bool) error {
	return s.updateColumns(ctx, &UserModel{}, userID, map[string]any{"is_subscribed": isSubscribed})
}

func (s *GormStore) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	prepare(&sub.ID, &sub.CreatedAt)
	model := subscriptionToModel(sub)
	err := s.db.WithContext(ctx).Create(&model).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateReference
	}
	return err
}

func (s *GormStore) GetLatestSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	var model SubscriptionModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(1).
		Take(&model).Error
	if err != nil {
		return nil, notFound(err)
	}
	return subscriptionFromModel(model), nil
}

func (s *GormStore) UpdateSubscriptionStatus(ctx context.Context, id, status string) error {
	return s.updateColumns(ctx, &SubscriptionModel{}, id, map[string]any{"status": status})
}

func (s *GormStore) CreateConsultation(ctx context.Context, c *models.Consultation) error {
	prepare(&c.ID, &c.CreatedAt)
	model := consultationToModel(c)
	return s.db.WithContext(ctx).Create(&model).Error
}

func (s *GormStore) ListConsultations(ctx context.Context, userID string) ([]models.Consultation, error) {
	var rows []ConsultationModel
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	res := make([]models.Consultation, 0, len(rows))
	for _, m := range rows {
		res = append(res, consultationFromModel(m))
	}
	return res, nil
}

func (s *GormStore) UpdateConsultationStatus(ctx context.Context, id, status string, scheduledAt *time.Time) error {
	fields := map[string]any{"status": status}
	if scheduledAt != nil {
		fields["scheduled_at"] = *scheduledAt
	}
	return s.updateColumns(ctx, &ConsultationModel{}, id, fields)
}

func (s *GormStore) CreateChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	prepare(&msg.ID, &msg.CreatedAt)
	model := chatMessageToModel(msg)
	return s.db.WithContext(ctx).Create(&model).Error
}

func (s *GormStore) ListChatMessages(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error) {
	var rows []ChatMessageModel
	tx := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	res := make([]models.ChatMessage, 0, len(rows))
	for _, m := range rows {
		res = append(res, chatMessageFromModel(m))
	}
	return res, nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) updateColumns(ctx context.Context, model any, id string, fields map[string]any) error {
	res := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
