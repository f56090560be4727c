package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T, now *time.Time) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer("test-secret", 24*time.Hour)
	require.NoError(t, err)
	issuer.now = func() time.Time { return *now }
	return issuer
}

func TestTokenValidUntilExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := newTestIssuer(t, &now)

	token, err := issuer.GenerateJWT("user-1")
	require.NoError(t, err)

	now = now.Add(24*time.Hour - time.Second)
	userID, err := issuer.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	now = now.Add(2 * time.Second)
	_, err = issuer.ValidateJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRejectsOtherKey(t *testing.T) {
	now := time.Now()
	issuer := newTestIssuer(t, &now)
	other, err := NewTokenIssuer("another-secret", time.Hour)
	require.NoError(t, err)

	token, err := other.GenerateJWT("user-1")
	require.NoError(t, err)

	_, err = issuer.ValidateJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRejectsMalformedAndUnsigned(t *testing.T) {
	now := time.Now()
	issuer := newTestIssuer(t, &now)

	_, err := issuer.ValidateJWT("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.ValidateJWT(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenIssuerRequiresSecret(t *testing.T) {
	_, err := NewTokenIssuer("", time.Hour)
	assert.Error(t, err)
}
