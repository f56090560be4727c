package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/harentsoaR/wellness-api/internal/config"
	"github.com/harentsoaR/wellness-api/internal/handlers"
	"github.com/harentsoaR/wellness-api/internal/metrics"
	"github.com/harentsoaR/wellness-api/internal/ratelimit"
	"github.com/harentsoaR/wellness-api/internal/server"
	"github.com/harentsoaR/wellness-api/internal/services"
	"github.com/harentsoaR/wellness-api/internal/store"
	"github.com/harentsoaR/wellness-api/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, relying on environment variables.")
	}
	jwtSecretSet := os.Getenv("JWT_SECRET") != ""

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	setupLogging(cfg)
	if !jwtSecretSet {
		log.Warn("JWT_SECRET is not set, using a random key: sessions will not survive a restart")
	}

	// --- Storage ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := openStore(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.StoreDriver, err)
	}
	log.WithField("driver", cfg.StoreDriver).Info("store connected")

	// --- Metrics ---
	m, err := metrics.New(cfg.StatsdAddr, cfg.Environment)
	if err != nil {
		log.WithError(err).Warn("statsd unavailable, metrics disabled")
		m = metrics.Noop()
	}
	_ = m.Incr("main.start", nil, 1)

	// --- Rate limiting ---
	var authLimiter, chatLimiter *ratelimit.FixedWindowLimiter
	var redisClient *redis.Client
	if cfg.RateLimitEnabled() {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if authLimiter, err = ratelimit.NewFixedWindowLimiter(redisClient, "wellness:ratelimit:auth", cfg.AuthRateLimitPerMinute, time.Minute); err != nil {
			log.Fatalf("auth rate limiter: %v", err)
		}
		if chatLimiter, err = ratelimit.NewFixedWindowLimiter(redisClient, "wellness:ratelimit:chat", cfg.ChatRateLimitPerMinute, time.Minute); err != nil {
			log.Fatalf("chat rate limiter: %v", err)
		}
		log.WithField("redis", cfg.RedisAddr).Info("rate limiting enabled")
	}

	// --- Services ---
	tokens, err := utils.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}
	var generator services.TextGenerator
	if cfg.HuggingFaceAPIKey != "" {
		generator = services.NewHuggingFaceClient(cfg.HuggingFaceModelURL, cfg.HuggingFaceAPIKey)
	} else {
		log.Warn("HUGGINGFACE_API_KEY is not set, chat will answer with the fallback message")
	}
	if cfg.FlutterwaveSecretKey == "" {
		log.Warn("FLUTTERWAVE_SECRET_KEY is not set, subscription checkout will fail")
	}

	h := handlers.NewHandler(
		db,
		services.NewAuthService(db, tokens, cfg.BcryptCost),
		services.NewChatService(db, generator, m),
		services.NewSubscriptionService(db, services.NewFlutterwaveClient(cfg.FlutterwaveBaseURL, cfg.FlutterwaveSecretKey), m, cfg.PublicBaseURL),
		services.NewConsultationService(db),
		cfg.FlutterwaveWebhookHash,
	)

	// --- Router ---
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := server.NewRouter(h, server.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AdminAPIKey:    cfg.AdminAPIKey,
		AuthLimiter:    authLimiter,
		ChatLimiter:    chatLimiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	log.WithField("signal", sig.String()).Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	if err := db.Close(shutdownCtx); err != nil {
		log.WithError(err).Error("closing store")
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	_ = m.Close()
	log.Info("server stopped")
}

func setupLogging(cfg *config.Config) {
	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		return store.NewGormStore(cfg.PostgresDSN)
	case config.StoreMemory:
		log.Warn("using in-memory store, data is lost on restart")
		return store.NewMemoryStore(), nil
	default:
		return store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	}
}
