package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"healthloop/internal/domain"
	"healthloop/internal/loyalty"
	"healthloop/internal/repository"
	"healthloop/internal/repository/memory"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(_ int64, ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type testEnv struct {
	store      *memory.Store
	events     *recordingPublisher
	points     *PointsService
	badges     *BadgeService
	membership *MembershipService
	audit      *AuditService
	tokens     *TokenService
	auth       *AuthService
	grants     *MonthlyGrantService
	dashboard  *DashboardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, memory.New())
}

func newTestEnvWithStore(t *testing.T, store *memory.Store) *testEnv {
	t.Helper()
	rules := loyalty.DefaultRules()
	events := &recordingPublisher{}

	e := &testEnv{store: store, events: events}
	e.points = NewPointsService(store, rules, events)
	e.badges = NewBadgeService(store)
	e.membership = NewMembershipService(store, rules, e.points, events)
	e.audit = NewAuditService(store)
	e.tokens = NewTokenService("test-secret", time.Hour)
	e.auth = NewAuthService(store, e.points, e.tokens, e.audit, bcrypt.MinCost)
	e.grants = NewMonthlyGrantService(store, e.membership, e.points)
	e.dashboard = NewDashboardService(e.auth, e.points, e.badges, e.membership)
	return e
}

// newUser creates a user directly, without the registration bonus.
func (e *testEnv) newUser(t *testing.T, email string) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Name: "Test"}
	err := e.store.WithinTx(context.Background(), func(ctx context.Context, q repository.LoyaltyQueries) error {
		return q.CreateUser(ctx, u)
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) award(t *testing.T, userID int64, action domain.Action) int64 {
	t.Helper()
	pts, err := e.points.AwardPoints(context.Background(), AwardRequest{UserID: userID, Action: action})
	require.NoError(t, err)
	return pts
}

func (e *testEnv) user(t *testing.T, userID int64) *domain.User {
	t.Helper()
	u, err := e.store.GetUser(context.Background(), userID)
	require.NoError(t, err)
	return u
}

func (e *testEnv) ledger(t *testing.T, userID int64) []*domain.PointsTransaction {
	t.Helper()
	txs, err := e.points.RecentTransactions(context.Background(), userID, 1000)
	require.NoError(t, err)
	return txs
}
