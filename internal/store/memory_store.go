package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/harentsoaR/wellness-api/internal/models"
)

// MemoryStore keeps everything in-process. Used by tests and local development.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[string]models.User
	emails        map[string]string // email -> user ID
	subscriptions []models.Subscription
	consultations []models.Consultation
	messages      []models.ChatMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[string]models.User),
		emails: make(map[string]string),
	}
}

func (m *MemoryStore) GetUser(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.emails[email]
	if !ok {
		return nil, ErrNotFound
	}
	u := m.users[id]
	return &u, nil
}

func (m *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.emails[user.Email]; exists {
		return ErrEmailTaken
	}
	prepare(&user.ID, &user.CreatedAt)
	m.users[user.ID] = *user
	m.emails[user.Email] = user.ID
	return nil
}

func (m *MemoryStore) UpdateUserSubscription(_ context.Context, userID string, isSubscribed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.IsSubscribed = isSubscribed
	m.users[userID] = u
	return nil
}

func (m *MemoryStore) CreateSubscription(_ context.Context, sub *models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.subscriptions {
		if existing.ExternalID == sub.ExternalID {
			return ErrDuplicateReference
		}
	}
	prepare(&sub.ID, &sub.CreatedAt)
	m.subscriptions = append(m.subscriptions, *sub)
	return nil
}

func (m *MemoryStore) GetLatestSubscription(_ context.Context, userID string) (*models.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *models.Subscription
	for i := range m.subscriptions {
		s := &m.subscriptions[i]
		if s.UserID != userID {
			continue
		}
		// later inserts win ties
		if latest == nil || !s.CreatedAt.Before(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	out := *latest
	return &out, nil
}

func (m *MemoryStore) UpdateSubscriptionStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.subscriptions {
		if m.subscriptions[i].ID == id {
			m.subscriptions[i].Status = status
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) CreateConsultation(_ context.Context, c *models.Consultation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prepare(&c.ID, &c.CreatedAt)
	m.consultations = append(m.consultations, *c)
	return nil
}

func (m *MemoryStore) ListConsultations(_ context.Context, userID string) ([]models.Consultation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]models.Consultation, 0)
	for i := len(m.consultations) - 1; i >= 0; i-- {
		if m.consultations[i].UserID == userID {
			res = append(res, m.consultations[i])
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (m *MemoryStore) UpdateConsultationStatus(_ context.Context, id, status string, scheduledAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.consultations {
		if m.consultations[i].ID != id {
			continue
		}
		m.consultations[i].Status = status
		if scheduledAt != nil {
			t := *scheduledAt
			m.consultations[i].ScheduledAt = &t
		}
		return nil
	}
	return ErrNotFound
}

func (m *MemoryStore) CreateChatMessage(_ context.Context, msg *models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prepare(&msg.ID, &msg.CreatedAt)
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *MemoryStore) ListChatMessages(_ context.Context, userID string, limit int) ([]models.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]models.ChatMessage, 0)
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].UserID == userID {
			res = append(res, m.messages[i])
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (m *MemoryStore) Ping(context.Context) error  { return nil }
func (m *MemoryStore) Close(context.Context) error { return nil }
