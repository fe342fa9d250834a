package service

import (
	"context"

	"healthloop/internal/domain"

	"golang.org/x/sync/errgroup"
)

const dashboardRecentLimit = 5

// ClientDashboard is everything the client home screen shows in one payload.
type ClientDashboard struct {
	User               *domain.User                `json:"user"`
	Progress           LevelProgress               `json:"progress"`
	RecentTransactions []*domain.PointsTransaction `json:"recent_transactions"`
	Badges             []*domain.Badge             `json:"badges"`
	MembershipPlan     domain.MembershipPlan       `json:"membership_plan"`
	Promotions         []string                    `json:"promotions"`
}

type DashboardService struct {
	auth       *AuthService
	points     *PointsService
	badges     *BadgeService
	membership *MembershipService
}

func NewDashboardService(auth *AuthService, points *PointsService, badges *BadgeService, membership *MembershipService) *DashboardService {
	return &DashboardService{auth: auth, points: points, badges: badges, membership: membership}
}

// Client loads the user, recent ledger and badges concurrently. Any failed
// read fails the whole dashboard.
func (s *DashboardService) Client(ctx context.Context, userID int64) (ClientDashboard, error) {
	var d ClientDashboard

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.auth.User(gCtx, userID)
		d.User = u
		return err
	})
	g.Go(func() error {
		txs, err := s.points.RecentTransactions(gCtx, userID, dashboardRecentLimit)
		d.RecentTransactions = txs
		return err
	})
	g.Go(func() error {
		badges, err := s.badges.List(gCtx, userID)
		d.Badges = badges
		return err
	})
	if err := g.Wait(); err != nil {
		return ClientDashboard{}, err
	}

	d.Progress = s.points.Progress(d.User)
	d.MembershipPlan, _ = s.membership.Plan(d.User.MembershipLevel)
	d.Promotions = s.membership.Promotions()
	return d, nil
}
