package service

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"healthloop/internal/domain"
	"healthloop/internal/logger"
	"healthloop/internal/loyalty"
	"healthloop/internal/metrics"
	"healthloop/internal/repository"
)

const (
	defaultHistoryLimit = 50
	historyPageSize     = 100
)

// AwardRequest describes one business event worth points.
// AmountSpent is only read for purchases.
type AwardRequest struct {
	UserID      int64
	Action      domain.Action
	Description string
	AmountSpent float64
}

// LevelProgress is the user's position on the level ladder.
type LevelProgress struct {
	Points             int64              `json:"points"`
	TotalPoints        int64              `json:"total_points"`
	CurrentLevel       domain.PointsLevel `json:"current_level"`
	ProgressPercentage float64            `json:"progress_percentage"`
	NextLevelPoints    int64              `json:"next_level_points"`
}

// PointsService is the only writer of points, levels and badges.
type PointsService struct {
	store  repository.Store
	rules  loyalty.Rules
	levels *loyalty.LevelCalculator
	events EventPublisher
}

func NewPointsService(store repository.Store, rules loyalty.Rules, events EventPublisher) *PointsService {
	if events == nil {
		events = noopPublisher{}
	}
	return &PointsService{
		store:  store,
		rules:  rules,
		levels: loyalty.NewLevelCalculator(rules),
		events: events,
	}
}

// AwardPoints resolves the action's value and credits it. A zero value is
// not an error: nothing is recorded and 0 is returned.
func (s *PointsService) AwardPoints(ctx context.Context, req AwardRequest) (int64, error) {
	points, err := s.rules.ResolvePoints(req.Action, req.AmountSpent)
	if errors.Is(err, ErrInvalidAmount) {
		metrics.Awards.WithLabelValues(string(req.Action), "invalid_amount").Inc()
		return 0, err
	}
	if err != nil {
		logger.WithContext(ctx).Error("no point value configured for action", "action", req.Action, "user_id", req.UserID)
		metrics.Awards.WithLabelValues(string(req.Action), "unknown_action").Inc()
		return 0, err
	}
	if points <= 0 {
		metrics.Awards.WithLabelValues(string(req.Action), "zero").Inc()
		return 0, nil
	}

	var out awardOutcome
	err = s.store.WithinTx(ctx, func(ctx context.Context, q repository.LoyaltyQueries) error {
		var err error
		out, err = s.grant(ctx, q, req.UserID, req.Action, points, req.Description)
		return err
	})
	if err != nil {
		metrics.Awards.WithLabelValues(string(req.Action), "error").Inc()
		return 0, storeErr("award points", err)
	}

	s.committed(ctx, out)
	return points, nil
}

// grant credits points inside an open unit of work: balance, ledger entry,
// then level and badge if the lifetime total crossed a tier.
func (s *PointsService) grant(ctx context.Context, q repository.LoyaltyQueries, userID int64, action domain.Action, points int64, description string) (awardOutcome, error) {
	if points <= 0 {
		return awardOutcome{}, ErrInvalidAmount
	}
	if description == "" {
		description = loyalty.DefaultDescription(action)
	}

	user, err := q.CreditPoints(ctx, userID, points)
	if err != nil {
		return awardOutcome{}, err
	}

	entry := &domain.PointsTransaction{
		UserID:      userID,
		Action:      action,
		Points:      points,
		Description: description,
	}
	if err := q.AppendTransaction(ctx, entry); err != nil {
		return awardOutcome{}, fmt.Errorf("append ledger entry: %w", err)
	}

	out := awardOutcome{
		userID:   userID,
		action:   action,
		points:   points,
		user:     *user,
		oldLevel: user.Level,
	}

	newLevel := s.levels.LevelFor(user.TotalPointsEarned)
	if newLevel == user.Level {
		return out, nil
	}

	if err := q.SetLevel(ctx, userID, newLevel); err != nil {
		return awardOutcome{}, fmt.Errorf("set level: %w", err)
	}
	out.user.Level = newLevel
	out.levelUp = true

	badge, err := awardBadge(ctx, q, userID, newLevel)
	if err != nil {
		return awardOutcome{}, fmt.Errorf("award badge: %w", err)
	}
	out.badge = badge

	err = q.CreateAuditLog(ctx, &domain.AuditLog{
		UserID:   userID,
		Action:   domain.AuditActionLevelUp,
		Category: domain.AuditCategoryPoints,
		Details: map[string]interface{}{
			"from":                out.oldLevel,
			"to":                  newLevel,
			"total_points_earned": user.TotalPointsEarned,
		},
	})
	if err != nil {
		return awardOutcome{}, fmt.Errorf("audit level up: %w", err)
	}
	if badge != nil {
		err = q.CreateAuditLog(ctx, &domain.AuditLog{
			UserID:   userID,
			Action:   domain.AuditActionBadgeAward,
			Category: domain.AuditCategoryPoints,
			Details:  map[string]interface{}{"badge_type": badge.BadgeType},
		})
		if err != nil {
			return awardOutcome{}, fmt.Errorf("audit badge: %w", err)
		}
	}

	return out, nil
}

// committed runs the side effects of an award once its transaction is durable.
func (s *PointsService) committed(ctx context.Context, out awardOutcome) {
	if out.points <= 0 {
		return
	}
	action := string(out.action)
	metrics.Awards.WithLabelValues(action, "ok").Inc()
	metrics.PointsAwarded.WithLabelValues(action).Add(float64(out.points))

	log := logger.WithContext(ctx)
	log.Info("points awarded", "user_id", out.userID, "action", action, "points", out.points, "total", out.user.TotalPointsEarned)
	if out.levelUp {
		metrics.LevelUps.WithLabelValues(string(out.user.Level)).Inc()
		log.Info("level changed", "user_id", out.userID, "from", out.oldLevel, "to", out.user.Level)
	}
	if out.badge != nil {
		metrics.BadgesAwarded.WithLabelValues(string(out.badge.BadgeType)).Inc()
	}

	for _, ev := range out.events() {
		s.events.Publish(out.userID, ev)
	}
}

// History yields the user's ledger newest first, at most limit entries.
// The sequence is lazy and can be ranged over again; each pass starts from
// the most recent entry.
func (s *PointsService) History(ctx context.Context, userID int64, limit int) iter.Seq2[*domain.PointsTransaction, error] {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return func(yield func(*domain.PointsTransaction, error) bool) {
		remaining := limit
		var cursor repository.Cursor
		for remaining > 0 {
			page := min(remaining, historyPageSize)
			txs, err := s.store.ListTransactions(ctx, userID, cursor, page)
			if err != nil {
				yield(nil, storeErr("list transactions", err))
				return
			}
			for _, tx := range txs {
				if !yield(tx, nil) {
					return
				}
			}
			remaining -= len(txs)
			if len(txs) < page {
				return
			}
			last := txs[len(txs)-1]
			cursor = repository.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
		}
	}
}

// RecentTransactions collects History into a slice.
func (s *PointsService) RecentTransactions(ctx context.Context, userID int64, limit int) ([]*domain.PointsTransaction, error) {
	txs := make([]*domain.PointsTransaction, 0)
	for tx, err := range s.History(ctx, userID, limit) {
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// Progress derives the level summary from the user's lifetime total.
func (s *PointsService) Progress(u *domain.User) LevelProgress {
	level := s.levels.LevelFor(u.TotalPointsEarned)
	return LevelProgress{
		Points:             u.Points,
		TotalPoints:        u.TotalPointsEarned,
		CurrentLevel:       level,
		ProgressPercentage: s.levels.ProgressPercentage(level, u.TotalPointsEarned),
		NextLevelPoints:    s.levels.NextThreshold(level),
	}
}

// Tiers is the level ladder, lowest first.
func (s *PointsService) Tiers() []loyalty.Tier {
	return s.levels.Tiers()
}
