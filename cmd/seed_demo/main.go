package main

import (
	"context"
	"errors"
	"fmt"

	"healthloop/internal/config"
	"healthloop/internal/db"
	"healthloop/internal/domain"
	"healthloop/internal/logger"
	"healthloop/internal/loyalty"
	"healthloop/internal/repository"
	"healthloop/internal/service"
)

const demoPassword = "demo123"

type demoAccount struct {
	email   string
	name    string
	role    domain.Role
	actions []service.AwardRequest
}

var demoAccounts = []demoAccount{
	{
		email: "cliente@healthloop.com",
		name:  "Cliente Demo",
		role:  domain.RoleClient,
		actions: []service.AwardRequest{
			{Action: domain.ActionCompleteProfile, Description: "Completed health profile"},
			{Action: domain.ActionScheduleConsultation, Description: "First consultation booked"},
			{Action: domain.ActionFirstPurchase, Description: "Starter supplement pack"},
			{Action: domain.ActionPurchase, Description: "Protein bundle", AmountSpent: 45.5},
		},
	},
	{
		email: "nutricionista@healthloop.com",
		name:  "Nutricionista Demo",
		role:  domain.RoleProfessional,
	},
}

// seed_demo creates the demo accounts used by the web client. Accounts that
// already exist are left untouched.
func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	if cfg.StoreDriver != config.StorePostgres {
		logger.Fatal("seed_demo needs STORE_DRIVER=postgres")
	}

	rules, err := loyalty.LoadRules(cfg.LoyaltyRulesFile)
	if err != nil {
		logger.Fatal("failed to load loyalty rules", "error", err)
	}

	pool := db.Connect(cfg.DatabaseURL)
	defer pool.Close()

	store := repository.NewPgStore(pool, cfg.DBBreakerFailures)
	points := service.NewPointsService(store, rules, nil)
	tokens := service.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	auth := service.NewAuthService(store, points, tokens, service.NewAuditService(store), 0)

	ctx := context.Background()
	meta := service.RequestMeta{IP: "127.0.0.1", UserAgent: "seed_demo"}

	for _, acc := range demoAccounts {
		res, err := auth.Register(ctx, service.RegisterRequest{
			Email:    acc.email,
			Name:     acc.name,
			Password: demoPassword,
			Role:     acc.role,
		}, meta)
		if errors.Is(err, service.ErrEmailTaken) {
			logger.Info("demo account exists", "email", acc.email)
			continue
		}
		if err != nil {
			logger.Fatal("register demo account", "email", acc.email, "error", err)
		}

		for _, a := range acc.actions {
			a.UserID = res.User.ID
			if _, err := points.AwardPoints(ctx, a); err != nil {
				logger.Fatal("award demo points", "email", acc.email, "action", a.Action, "error", err)
			}
		}

		u, err := auth.User(ctx, res.User.ID)
		if err != nil {
			logger.Fatal("reload demo account", "email", acc.email, "error", err)
		}
		fmt.Printf("%s (%s) id=%d points=%d level=%s\n  token: %s\n", u.Email, u.Role, u.ID, u.Points, u.Level, res.Token)
	}
}
