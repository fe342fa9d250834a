package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"healthloop/internal/domain"
	"healthloop/internal/logger"
	"healthloop/internal/metrics"
	"healthloop/internal/repository"

	"github.com/robfig/cron/v3"
)

const grantPageSize = 200

// GrantSummary reports one pass of the monthly grant.
type GrantSummary struct {
	Period  string `json:"period"`
	Granted int    `json:"granted"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

// MonthlyGrantService credits each plan's monthly_points once per user per
// calendar month (UTC).
type MonthlyGrantService struct {
	store      repository.Store
	membership *MembershipService
	points     *PointsService
	now        func() time.Time
}

func NewMonthlyGrantService(store repository.Store, membership *MembershipService, points *PointsService) *MonthlyGrantService {
	return &MonthlyGrantService{
		store:      store,
		membership: membership,
		points:     points,
		now:        time.Now,
	}
}

// Period formats t as the grant period key, e.g. "2026-03".
func Period(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// Run grants the current period to every user on a plan with monthly points.
// Per-user failures are counted and logged; the pass continues.
func (s *MonthlyGrantService) Run(ctx context.Context) (GrantSummary, error) {
	summary := GrantSummary{Period: Period(s.now())}

	var levels []domain.MembershipLevel
	for _, p := range s.membership.Plans() {
		if p.MonthlyPoints > 0 {
			levels = append(levels, p.Name)
		}
	}
	if len(levels) == 0 {
		return summary, nil
	}

	var afterID int64
	for {
		users, err := s.store.ListUsersByMembership(ctx, levels, afterID, grantPageSize)
		if err != nil {
			return summary, storeErr("list members", err)
		}
		for _, u := range users {
			granted, err := s.GrantUser(ctx, u.ID, summary.Period)
			switch {
			case err != nil:
				summary.Failed++
				logger.Error("monthly grant failed", "user_id", u.ID, "period", summary.Period, "error", err)
				if errors.Is(err, ErrStoreUnavailable) {
					return summary, err
				}
			case granted:
				summary.Granted++
			default:
				summary.Skipped++
			}
		}
		if len(users) < grantPageSize {
			break
		}
		afterID = users[len(users)-1].ID
	}

	logger.Info("monthly grant finished", "period", summary.Period,
		"granted", summary.Granted, "skipped", summary.Skipped, "failed", summary.Failed)
	return summary, nil
}

// GrantUser credits the user's plan points for period unless already done.
// It reports whether points were credited.
func (s *MonthlyGrantService) GrantUser(ctx context.Context, userID int64, period string) (bool, error) {
	var out awardOutcome
	err := s.store.WithinTx(ctx, func(ctx context.Context, q repository.LoyaltyQueries) error {
		user, err := q.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		plan, ok := s.membership.Plan(user.MembershipLevel)
		if !ok || plan.MonthlyPoints <= 0 {
			return nil
		}

		claimed, err := q.ClaimMonthlyGrant(ctx, userID, period)
		if err != nil || !claimed {
			return err
		}

		desc := fmt.Sprintf("Monthly %s membership points for %s", plan.Name, period)
		out, err = s.points.grant(ctx, q, userID, domain.ActionMonthlyMembershipPoints, plan.MonthlyPoints, desc)
		if err != nil {
			return err
		}

		return q.CreateAuditLog(ctx, &domain.AuditLog{
			UserID:   userID,
			Action:   domain.AuditActionMonthlyGrant,
			Category: domain.AuditCategoryMembership,
			Details: map[string]interface{}{
				"period":           period,
				"membership_level": plan.Name,
				"points":           plan.MonthlyPoints,
			},
		})
	})
	if err != nil {
		metrics.MonthlyGrants.WithLabelValues("error").Inc()
		return false, storeErr("monthly grant", err)
	}
	if out.points == 0 {
		metrics.MonthlyGrants.WithLabelValues("skipped").Inc()
		return false, nil
	}

	metrics.MonthlyGrants.WithLabelValues("granted").Inc()
	s.points.committed(ctx, out)
	return true, nil
}

// Schedule registers Run on c with a standard five-field cron spec.
func (s *MonthlyGrantService) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if _, err := s.Run(ctx); err != nil {
			logger.Error("monthly grant run aborted", "error", err)
		}
	})
}
