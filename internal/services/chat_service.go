package services

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/harentsoaR/wellness-api/internal/metrics"
	"github.com/harentsoaR/wellness-api/internal/models"
	"github.com/harentsoaR/wellness-api/internal/store"
)

const (
	// FallbackChatResponse is returned whenever the text-generation service cannot answer.
	FallbackChatResponse = "I'm here to help with nutrition questions for children under 5. Please ask me about feeding schedules, healthy recipes, age-appropriate foods, or any nutrition concerns."

	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

const nutritionPrompt = `You are a helpful nutrition assistant specializing in food and nutrition advice for pregnant mothers and children under 5 years old. Please provide evidence-based, safe, and practical advice. Always remind users to consult healthcare professionals for medical concerns.

Question: %s

Answer:`

// ChatService relays questions to the text generator. It always answers: upstream
// failures are replaced with FallbackChatResponse.
type ChatService struct {
	store     store.Store
	generator TextGenerator
	metrics   metrics.Client
}

func NewChatService(s store.Store, generator TextGenerator, m metrics.Client) *ChatService {
	if m == nil {
		m = metrics.Noop()
	}
	return &ChatService{store: s, generator: generator, metrics: m}
}

// Send answers message for userID and records the exchange.
func (s *ChatService) Send(ctx context.Context, userID, message string) (*models.ChatMessage, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}

	answer := FallbackChatResponse
	source := "fallback"
	if s.generator != nil {
		text, err := s.generator.GenerateText(ctx, fmt.Sprintf(nutritionPrompt, message))
		if err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("chat: text generation failed, using fallback")
		} else {
			answer = text
			source = "model"
		}
	}
	_ = s.metrics.Incr("chat.answered", []string{"source:" + source}, 1)

	msg := &models.ChatMessage{
		UserID:   userID,
		Message:  message,
		Response: answer,
	}
	if err := s.store.CreateChatMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("save chat message: %w", err)
	}
	return msg, nil
}

// History returns the newest messages of userID. limit is clamped to [1, MaxHistoryLimit]
// with non-positive values meaning DefaultHistoryLimit.
func (s *ChatService) History(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return s.store.ListChatMessages(ctx, userID, limit)
}
