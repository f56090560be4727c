package server

import (
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/harentsoaR/wellness-api/internal/handlers"
	"github.com/harentsoaR/wellness-api/internal/middleware"
	"github.com/harentsoaR/wellness-api/internal/ratelimit"
)

// Options carries what NewRouter needs beyond the handler itself.
type Options struct {
	AllowedOrigins []string
	AdminAPIKey    string

	// Nil limiters disable rate limiting for their routes.
	AuthLimiter *ratelimit.FixedWindowLimiter
	ChatLimiter *ratelimit.FixedWindowLimiter
}

var strictDecoding sync.Once

// NewRouter wires every route of the API.
//
// The first call switches gin's process-wide JSON binding to reject unknown
// fields (binding.EnableDecoderDisallowUnknownFields). The webhook reads its raw
// body and is not affected.
func NewRouter(h *handlers.Handler, opts Options) *gin.Engine {
	strictDecoding.Do(func() {
		binding.EnableDecoderDisallowUnknownFields = true
	})

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	corsConfig := cors.Config{
		AllowOrigins:     opts.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(opts.AllowedOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	r.Use(cors.New(corsConfig))

	r.GET("/health", h.Health)

	requireAuth := middleware.AuthMiddleware(h.Auth)

	authRoutes := r.Group("/api/auth")
	{
		limited := middleware.RateLimit(opts.AuthLimiter, middleware.ByClientIP)
		authRoutes.POST("/register", limited, h.RegisterUser)
		authRoutes.POST("/login", limited, h.Login)
		authRoutes.GET("/me", requireAuth, h.GetCurrentUser)
	}

	// Called by Flutterwave, never by users.
	r.POST("/api/webhooks/flutterwave", h.FlutterwaveWebhook)

	apiRoutes := r.Group("/api")
	apiRoutes.Use(requireAuth)
	{
		apiRoutes.POST("/chat", middleware.RateLimit(opts.ChatLimiter, middleware.ByUser), h.HandleChat)
		apiRoutes.GET("/chat/history", h.GetChatHistory)

		apiRoutes.POST("/subscription/create", h.CreateSubscription)
		apiRoutes.GET("/subscription/status", h.GetSubscriptionStatus)

		apiRoutes.POST("/consultations", h.CreateConsultation)
		apiRoutes.GET("/consultations", h.GetConsultations)
	}

	adminRoutes := r.Group("/api/admin")
	adminRoutes.Use(middleware.AdminOnly(opts.AdminAPIKey))
	{
		adminRoutes.PUT("/users/:id/subscription", h.SetUserSubscription)
		adminRoutes.PATCH("/consultations/:id", h.UpdateConsultation)
	}

	return r
}
