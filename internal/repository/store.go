package repository

import (
	"context"
	"errors"
	"time"

	"healthloop/internal/domain"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrDuplicate   = errors.New("duplicate record")
	ErrUnavailable = errors.New("store unavailable")
	// ErrOutOfRange means a write would push a counter past its column range.
	ErrOutOfRange = errors.New("value out of range")
)

// Cursor marks a position in a user's ledger, newest first. The zero value
// means "start from the most recent entry".
type Cursor struct {
	CreatedAt time.Time
	ID        int64
}

func (c Cursor) IsZero() bool { return c.ID == 0 && c.CreatedAt.IsZero() }

// LoyaltyQueries are the reads and writes performed inside one loyalty unit of work.
type LoyaltyQueries interface {
	CreateUser(ctx context.Context, u *domain.User) error
	// LockUser reads the user and holds its row until the unit of work ends.
	LockUser(ctx context.Context, userID int64) (*domain.User, error)
	// CreditPoints adds amount to points and total_points_earned and returns the updated user.
	CreditPoints(ctx context.Context, userID int64, amount int64) (*domain.User, error)
	SetLevel(ctx context.Context, userID int64, level domain.PointsLevel) error
	SetMembershipLevel(ctx context.Context, userID int64, level domain.MembershipLevel) error
	AppendTransaction(ctx context.Context, tx *domain.PointsTransaction) error
	// InsertBadge reports false when the user already holds a badge of that type.
	InsertBadge(ctx context.Context, badge *domain.Badge) (bool, error)
	// ClaimMonthlyGrant reports false when the period was already granted.
	ClaimMonthlyGrant(ctx context.Context, userID int64, period string) (bool, error)
	CreateAuditLog(ctx context.Context, log *domain.AuditLog) error
}

// Store is the persistence boundary of the loyalty engine.
type Store interface {
	// WithinTx runs fn as a single atomic unit of work. Any error rolls back every write.
	WithinTx(ctx context.Context, fn func(ctx context.Context, q LoyaltyQueries) error) error

	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	// ListUsersByMembership pages through users on the given tiers ordered by id.
	ListUsersByMembership(ctx context.Context, levels []domain.MembershipLevel, afterID int64, limit int) ([]*domain.User, error)

	// ListTransactions returns up to limit entries older than before, newest first.
	ListTransactions(ctx context.Context, userID int64, before Cursor, limit int) ([]*domain.PointsTransaction, error)
	ListBadges(ctx context.Context, userID int64) ([]*domain.Badge, error)

	// ProgramStats aggregates client accounts; today and weekAgo start the reporting windows.
	ProgramStats(ctx context.Context, today, weekAgo time.Time) (*domain.ProgramStats, error)
	TopEarners(ctx context.Context, limit int) ([]*domain.User, error)

	CreateAuditLog(ctx context.Context, log *domain.AuditLog) error
	ListAuditLogs(ctx context.Context, userID int64, limit int) ([]*domain.AuditLog, error)

	Ping(ctx context.Context) error
}
