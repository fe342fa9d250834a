package http

import (
	"healthloop/internal/config"
	"healthloop/internal/http/handlers"
	"healthloop/internal/http/middleware"
	"healthloop/internal/service"
	"healthloop/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
)

// Deps is everything the router needs. Redis may be nil.
type Deps struct {
	Config  *config.Config
	Handler *handlers.Handler
	Health  *handlers.HealthHandler
	Tokens  *service.TokenService
	Hub     *ws.Hub
	Redis   *redis.Client
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	cfg := d.Config

	r.Use(middleware.RequestID(), middleware.Metrics())

	// Health checks (no rate limiting)
	r.GET("/health", d.Health.Health)
	r.GET("/healthz", d.Health.Liveness)
	r.GET("/readyz", d.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(d.Redis, "api", cfg.APIRateLimit, cfg.APIRateWindow))
	registerAPIRoutes(v1, d)

	// Legacy /api routes kept for older clients
	api := r.Group("/api")
	api.Use(middleware.RedisRateLimit(d.Redis, "api", cfg.APIRateLimit, cfg.APIRateWindow))
	api.GET("/health", d.Health.Health)
	registerAPIRoutes(api, d)

	// Per-user loyalty event stream
	r.GET("/ws", ws.HandleWS(d.Hub, d.Tokens, cfg.AllowedOrigin))
}

func registerAPIRoutes(api *gin.RouterGroup, d Deps) {
	cfg := d.Config
	h := d.Handler
	authRL := middleware.RedisRateLimit(d.Redis, "auth", cfg.AuthRateLimit, cfg.AuthRateWindow)
	jwt := middleware.JWT(d.Tokens)

	// Auth
	api.POST("/auth/register", authRL, h.Register)
	api.POST("/auth/login", authRL, h.Login)

	// User
	api.GET("/me", jwt, h.Me)
	api.GET("/me/activity", jwt, h.Activity)

	// Points
	points := api.Group("/points")
	{
		points.POST("/add",
			jwt,
			middleware.UserRateLimit(d.Redis, "points", cfg.PointsRateLimit, cfg.PointsRateWindow),
			middleware.Idempotency(d.Redis, cfg.IdempotencyTTL),
			h.AddPoints,
		)
		points.GET("/history", jwt, h.History)
		points.GET("/levels", h.Levels)
	}

	api.GET("/badges", jwt, h.ListBadges)

	// Membership
	membership := api.Group("/membership")
	{
		membership.GET("/plans", h.Plans)
		membership.POST("/upgrade", jwt, h.Upgrade)
	}

	api.GET("/dashboard/client", jwt, h.ClientDashboard)
	api.GET("/dashboard/professional", jwt, h.ProfessionalDashboard)
}
