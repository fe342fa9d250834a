package service

import (
	"context"
	"time"

	"healthloop/internal/domain"
	"healthloop/internal/repository"

	"golang.org/x/sync/errgroup"
)

const topEarnersLimit = 10

// LeaderboardEntry is a client as shown to professionals. Email is omitted.
type LeaderboardEntry struct {
	Rank              int                    `json:"rank"`
	UserID            int64                  `json:"user_id"`
	Name              string                 `json:"name"`
	Level             domain.PointsLevel     `json:"level"`
	MembershipLevel   domain.MembershipLevel `json:"membership_level"`
	TotalPointsEarned int64                  `json:"total_points_earned"`
}

type ProfessionalDashboard struct {
	Stats      *domain.ProgramStats `json:"stats"`
	TopEarners []LeaderboardEntry   `json:"top_earners"`
}

// StatsService reports on the program as a whole.
type StatsService struct {
	store repository.Store
	now   func() time.Time
}

func NewStatsService(store repository.Store) *StatsService {
	return &StatsService{store: store, now: time.Now}
}

// Professional returns program statistics and the top earners. "Today"
// starts at UTC midnight.
func (s *StatsService) Professional(ctx context.Context) (ProfessionalDashboard, error) {
	today := s.now().UTC().Truncate(24 * time.Hour)
	weekAgo := today.Add(-7 * 24 * time.Hour)

	var (
		d     ProfessionalDashboard
		users []*domain.User
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Stats, err = s.store.ProgramStats(gCtx, today, weekAgo)
		return err
	})
	g.Go(func() (err error) {
		users, err = s.store.TopEarners(gCtx, topEarnersLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return ProfessionalDashboard{}, storeErr("program stats", err)
	}

	d.TopEarners = make([]LeaderboardEntry, len(users))
	for i, u := range users {
		d.TopEarners[i] = LeaderboardEntry{
			Rank:              i + 1,
			UserID:            u.ID,
			Name:              u.Name,
			Level:             u.Level,
			MembershipLevel:   u.MembershipLevel,
			TotalPointsEarned: u.TotalPointsEarned,
		}
	}
	return d, nil
}
