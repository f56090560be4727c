package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvProduction = "production"

	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config is built once at startup and shared read-only by every component.
type Config struct {
	Environment    string
	Port           string
	LogLevel       string
	AllowedOrigins []string
	PublicBaseURL  string

	StoreDriver   string
	MongoURI      string
	MongoDatabase string
	PostgresDSN   string

	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	HuggingFaceAPIKey   string
	HuggingFaceModelURL string

	FlutterwaveSecretKey   string
	FlutterwaveBaseURL     string
	FlutterwaveWebhookHash string

	AdminAPIKey string

	RedisAddr              string
	RedisPassword          string
	AuthRateLimitPerMinute int
	ChatRateLimitPerMinute int

	StatsdAddr string
}

// Load reads the process environment. Call godotenv.Load before it to pick up a .env file.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:    env("APP_ENV", "development"),
		Port:           env("API_PORT", "8080"),
		LogLevel:       env("LOG_LEVEL", "info"),
		AllowedOrigins: splitList(env("CORS_ALLOWED_ORIGINS", "http://localhost:5000")),
		PublicBaseURL:  strings.TrimRight(env("PUBLIC_BASE_URL", "http://localhost:5000"), "/"),

		StoreDriver:   strings.ToLower(env("STORE_DRIVER", StoreMongo)),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: env("MONGO_DATABASE", "wellness"),
		PostgresDSN:   os.Getenv("DATABASE_URL"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		TokenTTL:  24 * time.Hour,

		HuggingFaceAPIKey:   os.Getenv("HUGGINGFACE_API_KEY"),
		HuggingFaceModelURL: env("HUGGINGFACE_MODEL_URL", "https://api-inference.huggingface.co/models/microsoft/DialoGPT-medium"),

		FlutterwaveSecretKey:   os.Getenv("FLUTTERWAVE_SECRET_KEY"),
		FlutterwaveBaseURL:     strings.TrimRight(env("FLUTTERWAVE_BASE_URL", "https://api.flutterwave.com"), "/"),
		FlutterwaveWebhookHash: os.Getenv("FLUTTERWAVE_WEBHOOK_HASH"),

		AdminAPIKey: os.Getenv("ADMIN_API_KEY"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		StatsdAddr: os.Getenv("STATSD_ADDR"),
	}

	var err error
	if cfg.BcryptCost, err = envInt("BCRYPT_COST", 12); err != nil {
		return nil, err
	}
	if cfg.BcryptCost < 10 {
		return nil, fmt.Errorf("BCRYPT_COST must be at least 10, got %d", cfg.BcryptCost)
	}
	if cfg.AuthRateLimitPerMinute, err = envInt("AUTH_RATE_LIMIT_PER_MINUTE", 20); err != nil {
		return nil, err
	}
	if cfg.ChatRateLimitPerMinute, err = envInt("CHAT_RATE_LIMIT_PER_MINUTE", 30); err != nil {
		return nil, err
	}

	switch cfg.StoreDriver {
	case StoreMongo:
		if cfg.MongoURI == "" {
			return nil, errors.New("MONGO_URI environment variable not set")
		}
	case StorePostgres:
		if cfg.PostgresDSN == "" {
			return nil, errors.New("DATABASE_URL environment variable not set")
		}
	case StoreMemory:
		if cfg.IsProduction() {
			return nil, errors.New("memory store is not allowed in production")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("JWT_SECRET is required in production")
		}
		// Tokens will not survive a restart.
		cfg.JWTSecret = randomSecret()
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// RateLimitEnabled reports whether a Redis backend is configured for rate limiting.
func (c *Config) RateLimitEnabled() bool {
	return c.RedisAddr != ""
}

func env(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("generate jwt secret: %v", err))
	}
	return hex.EncodeToString(buf)
}
