package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", MinBcryptCost)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, CheckPasswordHash("s3cret-pass", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestHashPasswordRejectsOverlongInput(t *testing.T) {
	_, err := HashPassword(strings.Repeat("a", MaxPasswordBytes+1), MinBcryptCost)
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = HashPassword(strings.Repeat("a", MaxPasswordBytes), MinBcryptCost)
	assert.NoError(t, err)
}

func TestHashPasswordEnforcesMinimumCost(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", bcrypt.MinCost)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, MinBcryptCost, cost)
}
