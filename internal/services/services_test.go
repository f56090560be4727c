package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/harentsoaR/wellness-api/internal/models"
	"github.com/harentsoaR/wellness-api/internal/store"
)

type fakeGenerator struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

type fakeGateway struct {
	link     *PaymentLink
	err      error
	requests []PaymentRequest
}

func (f *fakeGateway) CreatePayment(_ context.Context, req PaymentRequest) (*PaymentLink, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.link != nil {
		return f.link, nil
	}
	return &PaymentLink{Link: "https://checkout.example.com/pay/abc", TxRef: req.TxRef}, nil
}

// failingStore makes every subscription write fail.
type failingStore struct {
	*store.MemoryStore
}

func (failingStore) UpdateSubscriptionStatus(context.Context, string, string) error {
	return errors.New("db down")
}

// vanishingStore loses subscription rows right after they are read.
type vanishingStore struct {
	*store.MemoryStore
}

func (vanishingStore) UpdateSubscriptionStatus(context.Context, string, string) error {
	return store.ErrNotFound
}

func newUser(t *testing.T, s store.Store, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Password: "hash", Name: "Amina"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
