package service

import (
	"context"
	"fmt"

	"healthloop/internal/domain"
	"healthloop/internal/logger"
	"healthloop/internal/loyalty"
	"healthloop/internal/metrics"
	"healthloop/internal/repository"
)

// UpgradeResult is returned by a successful membership upgrade.
type UpgradeResult struct {
	MembershipLevel domain.MembershipLevel `json:"membership_level"`
	Benefits        domain.MembershipPlan  `json:"benefits"`
	BonusPoints     int64                  `json:"bonus_points"`
}

type MembershipService struct {
	store  repository.Store
	rules  loyalty.Rules
	plans  *loyalty.PlanRegistry
	points *PointsService
	events EventPublisher
}

func NewMembershipService(store repository.Store, rules loyalty.Rules, points *PointsService, events EventPublisher) *MembershipService {
	if events == nil {
		events = noopPublisher{}
	}
	return &MembershipService{
		store:  store,
		rules:  rules,
		plans:  loyalty.NewPlanRegistry(rules),
		points: points,
		events: events,
	}
}

// Plans lists the catalog from the lowest tier up.
func (s *MembershipService) Plans() []domain.MembershipPlan {
	return s.plans.Ordered()
}

func (s *MembershipService) Plan(level domain.MembershipLevel) (domain.MembershipPlan, bool) {
	return s.plans.Plan(level)
}

func (s *MembershipService) Promotions() []string {
	return s.plans.Promotions()
}

// Upgrade moves the user to a higher tier and credits the tier bonus in the
// same unit of work. Moving to the current tier or a lower one is refused.
func (s *MembershipService) Upgrade(ctx context.Context, userID int64, newLevel domain.MembershipLevel) (UpgradeResult, error) {
	plan, ok := s.plans.Plan(newLevel)
	if !ok {
		return UpgradeResult{}, ErrUnknownPlan
	}
	bonus := s.rules.UpgradeBonusFor(newLevel)

	var (
		from domain.MembershipLevel
		out  awardOutcome
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, q repository.LoyaltyQueries) error {
		user, err := q.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		from = user.MembershipLevel

		if from == newLevel {
			return ErrSameLevel
		}
		if newLevel.Rank() < from.Rank() {
			return ErrDowngradeNotSupported
		}

		if err := q.SetMembershipLevel(ctx, userID, newLevel); err != nil {
			return err
		}
		if bonus > 0 {
			desc := fmt.Sprintf("Bonus for upgrading to %s membership", newLevel)
			out, err = s.points.grant(ctx, q, userID, domain.ActionMembershipUpgrade, bonus, desc)
			if err != nil {
				return err
			}
		}

		return q.CreateAuditLog(ctx, &domain.AuditLog{
			UserID:   userID,
			Action:   domain.AuditActionMembershipUpgrade,
			Category: domain.AuditCategoryMembership,
			Details: map[string]interface{}{
				"from":         from,
				"to":           newLevel,
				"bonus_points": bonus,
			},
		})
	})
	if err != nil {
		return UpgradeResult{}, storeErr("upgrade membership", err)
	}

	metrics.MembershipUpgrades.WithLabelValues(string(newLevel)).Inc()
	logger.WithContext(ctx).Info("membership upgraded", "user_id", userID, "from", from, "to", newLevel, "bonus", bonus)
	s.points.committed(ctx, out)
	s.events.Publish(userID, Event{
		Type:   EventMembershipUpgraded,
		UserID: userID,
		Payload: map[string]any{
			"from":         from,
			"to":           newLevel,
			"bonus_points": bonus,
		},
	})

	return UpgradeResult{
		MembershipLevel: newLevel,
		Benefits:        plan,
		BonusPoints:     bonus,
	}, nil
}
