package service

import (
	"context"

	"healthloop/internal/domain"
	"healthloop/internal/metrics"
	"healthloop/internal/repository"
)

type BadgeService struct {
	store repository.Store
}

func NewBadgeService(store repository.Store) *BadgeService {
	return &BadgeService{store: store}
}

// AwardIfEligible issues the badge for level unless the user already has it.
// It reports whether a badge was created; Beginner never earns one.
func (s *BadgeService) AwardIfEligible(ctx context.Context, userID int64, level domain.PointsLevel) (bool, error) {
	var badge *domain.Badge
	err := s.store.WithinTx(ctx, func(ctx context.Context, q repository.LoyaltyQueries) error {
		var err error
		badge, err = awardBadge(ctx, q, userID, level)
		return err
	})
	if err != nil {
		return false, storeErr("award badge", err)
	}
	if badge != nil {
		metrics.BadgesAwarded.WithLabelValues(string(badge.BadgeType)).Inc()
	}
	return badge != nil, nil
}

func (s *BadgeService) List(ctx context.Context, userID int64) ([]*domain.Badge, error) {
	badges, err := s.store.ListBadges(ctx, userID)
	if err != nil {
		return nil, storeErr("list badges", err)
	}
	if badges == nil {
		badges = []*domain.Badge{}
	}
	return badges, nil
}

// awardBadge returns the created badge, or nil when there is none to give or
// the user already holds it.
func awardBadge(ctx context.Context, q repository.LoyaltyQueries, userID int64, level domain.PointsLevel) (*domain.Badge, error) {
	badgeType, ok := domain.BadgeForLevel(level)
	if !ok {
		return nil, nil
	}
	badge := &domain.Badge{UserID: userID, BadgeType: badgeType}
	created, err := q.InsertBadge(ctx, badge)
	if err != nil || !created {
		return nil, err
	}
	return badge, nil
}
