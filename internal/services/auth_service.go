package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/harentsoaR/wellness-api/internal/models"
	"github.com/harentsoaR/wellness-api/internal/store"
	"github.com/harentsoaR/wellness-api/internal/utils"
)

// AuthService registers and authenticates users.
type AuthService struct {
	store      store.Store
	tokens     *utils.TokenIssuer
	bcryptCost int
}

func NewAuthService(s store.Store, tokens *utils.TokenIssuer, bcryptCost int) *AuthService {
	return &AuthService{store: s, tokens: tokens, bcryptCost: bcryptCost}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user and returns it with a fresh session token.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*models.User, string, error) {
	email = normalizeEmail(email)
	_, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, "", fmt.Errorf("%w: user already exists", ErrConflict)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}

	hash, err := utils.HashPassword(password, s.bcryptCost)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return nil, "", fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, utils.MaxPasswordBytes)
	}
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Email:    email,
		Password: hash,
		Name:     strings.TrimSpace(name),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return nil, "", fmt.Errorf("%w: user already exists", ErrConflict)
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	log.WithField("user_id", user.ID).Info("user registered")
	return user, token, nil
}

// Login checks credentials. Unknown email and wrong password return the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, "", ErrUnauthenticated
	}
	if err != nil {
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, "", ErrUnauthenticated
	}

	token, err := s.tokens.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// Authenticate resolves a bearer token to its user. It returns ErrForbidden for
// tokens that fail verification and ErrUnauthenticated when the user is gone.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.tokens.ValidateJWT(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrForbidden, err)
	}
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// SetSubscription is the administrative override of a user's subscription flag.
func (s *AuthService) SetSubscription(ctx context.Context, userID string, isSubscribed bool) (*models.User, error) {
	if err := s.store.UpdateUserSubscription(ctx, userID, isSubscribed); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"user_id": userID, "is_subscribed": isSubscribed}).Info("subscription flag set by admin")
	return s.store.GetUser(ctx, userID)
}
