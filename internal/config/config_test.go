package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, "https://api.flutterwave.com", cfg.FlutterwaveBaseURL)
	assert.Len(t, cfg.JWTSecret, 64, "a random secret is generated outside production")
	assert.False(t, cfg.RateLimitEnabled())
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadRejectsWeakBcryptCost(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("BCRYPT_COST", "4")

	_, err := Load()
	assert.ErrorContains(t, err, "BCRYPT_COST")
}

func TestLoadStoreDriverValidation(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("STORE_DRIVER", "cassandra")
	_, err = Load()
	assert.ErrorContains(t, err, "unknown STORE_DRIVER")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, splitList(" https://a.example, ,https://b.example "))
	assert.Nil(t, splitList(""))
}
