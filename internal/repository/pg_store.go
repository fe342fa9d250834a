package repository

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"healthloop/internal/db"
	"healthloop/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sony/gobreaker/v2"
)

// PgStore is the Postgres Store. Every call goes through a circuit breaker
// that only counts connectivity failures; once open, calls fail fast with
// ErrUnavailable.
type PgStore struct {
	pool    *pgxpool.Pool
	breaker *gobreaker.CircuitBreaker[struct{}]

	users  *UserRepository
	points *PointsRepository
	badges *BadgeRepository
	audit  *AuditRepository
	stats  *StatsRepository
}

var _ Store = (*PgStore)(nil)

func NewPgStore(pool *pgxpool.Pool, maxFailures uint32) *PgStore {
	if maxFailures == 0 {
		maxFailures = 5
	}
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "postgres",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return !isConnectivityError(err)
		},
	})

	return &PgStore{
		pool:    pool,
		breaker: cb,
		users:   NewUserRepository(pool),
		points:  NewPointsRepository(pool),
		badges:  NewBadgeRepository(pool),
		audit:   NewAuditRepository(pool),
		stats:   NewStatsRepository(pool),
	}
}

func (s *PgStore) WithinTx(ctx context.Context, fn func(ctx context.Context, q LoyaltyQueries) error) error {
	return s.guard(func() error {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if err := fn(ctx, newPgQueries(tx)); err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
}

func (s *PgStore) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	var u *domain.User
	err := s.guard(func() (err error) {
		u, err = s.users.GetByID(ctx, userID)
		return err
	})
	return u, err
}

func (s *PgStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u *domain.User
	err := s.guard(func() (err error) {
		u, err = s.users.GetByEmail(ctx, email)
		return err
	})
	return u, err
}

func (s *PgStore) ListUsersByMembership(ctx context.Context, levels []domain.MembershipLevel, afterID int64, limit int) ([]*domain.User, error) {
	var res []*domain.User
	err := s.guard(func() (err error) {
		res, err = s.users.ListByMembership(ctx, levels, afterID, limit)
		return err
	})
	return res, err
}

func (s *PgStore) ListTransactions(ctx context.Context, userID int64, before Cursor, limit int) ([]*domain.PointsTransaction, error) {
	var res []*domain.PointsTransaction
	err := s.guard(func() (err error) {
		res, err = s.points.ListByUser(ctx, userID, before, limit)
		return err
	})
	return res, err
}

func (s *PgStore) ListBadges(ctx context.Context, userID int64) ([]*domain.Badge, error) {
	var res []*domain.Badge
	err := s.guard(func() (err error) {
		res, err = s.badges.ListByUser(ctx, userID)
		return err
	})
	return res, err
}

func (s *PgStore) ProgramStats(ctx context.Context, today, weekAgo time.Time) (*domain.ProgramStats, error) {
	var res *domain.ProgramStats
	err := s.guard(func() (err error) {
		res, err = s.stats.Program(ctx, today, weekAgo)
		return err
	})
	return res, err
}

func (s *PgStore) TopEarners(ctx context.Context, limit int) ([]*domain.User, error) {
	var res []*domain.User
	err := s.guard(func() (err error) {
		res, err = s.users.TopEarners(ctx, limit)
		return err
	})
	return res, err
}

func (s *PgStore) CreateAuditLog(ctx context.Context, log *domain.AuditLog) error {
	return s.guard(func() error {
		return s.audit.Create(ctx, log)
	})
}

func (s *PgStore) ListAuditLogs(ctx context.Context, userID int64, limit int) ([]*domain.AuditLog, error) {
	var res []*domain.AuditLog
	err := s.guard(func() (err error) {
		res, err = s.audit.ListByUser(ctx, userID, limit)
		return err
	})
	return res, err
}

func (s *PgStore) Ping(ctx context.Context) error {
	return s.guard(func() error {
		return s.pool.Ping(ctx)
	})
}

// BreakerState reports the circuit breaker state for readiness probes.
func (s *PgStore) BreakerState() gobreaker.State {
	return s.breaker.State()
}

func (s *PgStore) guard(fn func() error) error {
	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if isConnectivityError(err) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

// isConnectivityError separates "the database is unreachable" from query
// and domain errors, which must not trip the breaker.
func isConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return pgconn.SafeToRetry(err)
}

// pgQueries binds the repositories to one pgx transaction.
type pgQueries struct {
	users  *UserRepository
	points *PointsRepository
	badges *BadgeRepository
	grants *GrantRepository
	audit  *AuditRepository
}

func newPgQueries(tx db.DBTX) *pgQueries {
	return &pgQueries{
		users:  NewUserRepository(tx),
		points: NewPointsRepository(tx),
		badges: NewBadgeRepository(tx),
		grants: NewGrantRepository(tx),
		audit:  NewAuditRepository(tx),
	}
}

func (q *pgQueries) CreateUser(ctx context.Context, u *domain.User) error {
	return q.users.Create(ctx, u)
}

func (q *pgQueries) LockUser(ctx context.Context, userID int64) (*domain.User, error) {
	return q.users.LockByID(ctx, userID)
}

func (q *pgQueries) CreditPoints(ctx context.Context, userID int64, amount int64) (*domain.User, error) {
	return q.users.CreditPoints(ctx, userID, amount)
}

func (q *pgQueries) SetLevel(ctx context.Context, userID int64, level domain.PointsLevel) error {
	return q.users.SetLevel(ctx, userID, level)
}

func (q *pgQueries) SetMembershipLevel(ctx context.Context, userID int64, level domain.MembershipLevel) error {
	return q.users.SetMembershipLevel(ctx, userID, level)
}

func (q *pgQueries) AppendTransaction(ctx context.Context, tx *domain.PointsTransaction) error {
	return q.points.Append(ctx, tx)
}

func (q *pgQueries) InsertBadge(ctx context.Context, badge *domain.Badge) (bool, error) {
	return q.badges.Insert(ctx, badge)
}

func (q *pgQueries) ClaimMonthlyGrant(ctx context.Context, userID int64, period string) (bool, error) {
	return q.grants.Claim(ctx, userID, period)
}

func (q *pgQueries) CreateAuditLog(ctx context.Context, log *domain.AuditLog) error {
	return q.audit.Create(ctx, log)
}
