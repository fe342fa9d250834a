package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"healthloop/internal/config"
	"healthloop/internal/db"
	httpServer "healthloop/internal/http"
	"healthloop/internal/http/handlers"
	"healthloop/internal/http/middleware"
	"healthloop/internal/logger"
	"healthloop/internal/loyalty"
	"healthloop/internal/repository"
	"healthloop/internal/repository/memory"
	"healthloop/internal/service"
	"healthloop/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	rules, err := loyalty.LoadRules(cfg.LoyaltyRulesFile)
	if err != nil {
		logger.Fatal("failed to load loyalty rules", "error", err, "file", cfg.LoyaltyRulesFile)
	}

	var store repository.Store
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		store = memory.New()
	default:
		dbPool := db.Connect(cfg.DatabaseURL)
		defer dbPool.Close()
		store = repository.NewPgStore(dbPool, cfg.DBBreakerFailures)
	}

	rdb := middleware.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if rdb != nil {
		defer rdb.Close()
	}

	hub := ws.NewHub()
	tokens := service.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	audit := service.NewAuditService(store)
	points := service.NewPointsService(store, rules, hub)
	badges := service.NewBadgeService(store)
	membership := service.NewMembershipService(store, rules, points, hub)
	auth := service.NewAuthService(store, points, tokens, audit, 0)

	h := &handlers.Handler{
		Auth:       auth,
		Points:     points,
		Badges:     badges,
		Membership: membership,
		Dashboard:  service.NewDashboardService(auth, points, badges, membership),
		Audit:      audit,
		Stats:      service.NewStatsService(store),
	}

	scheduler := cron.New()
	if cfg.MonthlyGrantEnabled {
		grants := service.NewMonthlyGrantService(store, membership, points)
		if _, err := grants.Schedule(scheduler, cfg.MonthlyGrantSchedule); err != nil {
			logger.Fatal("invalid monthly grant schedule", "schedule", cfg.MonthlyGrantSchedule, "error", err)
		}
		scheduler.Start()
		logger.Info("monthly grant scheduled", "schedule", cfg.MonthlyGrantSchedule)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	// CORS for production (frontend on different domain)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (cfg.AllowedOrigin == "" || origin == cfg.AllowedOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Idempotency-Key, X-Request-ID")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	httpServer.RegisterRoutes(r, httpServer.Deps{
		Config:  cfg,
		Handler: h,
		Health:  handlers.NewHealthHandler(store, rdb, version),
		Tokens:  tokens,
		Hub:     hub,
		Redis:   rdb,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "store", cfg.StoreDriver, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// wait for a running grant to finish its current user
	<-scheduler.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
