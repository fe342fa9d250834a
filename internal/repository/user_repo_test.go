package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"healthloop/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func userRow(id int64, total int64, level domain.PointsLevel) *mockRow {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &mockRow{
		scanFn: func(dest ...any) error {
			*dest[0].(*int64) = id
			*dest[1].(*string) = "ana@example.com"
			*dest[2].(*string) = "Ana"
			*dest[3].(*string) = "$2a$10$hash"
			*dest[4].(*domain.Role) = domain.RoleClient
			*dest[5].(*int64) = total
			*dest[6].(*int64) = total
			*dest[7].(*domain.PointsLevel) = level
			*dest[8].(*domain.MembershipLevel) = domain.MembershipBasic
			*dest[9].(*time.Time) = created
			return nil
		},
	}
}

func TestUserRepository_Create_Defaults(t *testing.T) {
	db := new(mockDBTX)
	repo := NewUserRepository(db)
	ctx := context.Background()

	now := time.Now()
	row := &mockRow{
		scanFn: func(dest ...any) error {
			*dest[0].(*int64) = 7
			*dest[1].(*int64) = 0
			*dest[2].(*int64) = 0
			*dest[3].(*time.Time) = now
			return nil
		},
	}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"),
		[]any{"ana@example.com", "Ana", "hash", domain.RoleClient, domain.LevelBeginner, domain.MembershipBasic},
	).Return(row)

	u := &domain.User{Email: "ana@example.com", Name: "Ana", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, u))
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, domain.LevelBeginner, u.Level)
	assert.Equal(t, domain.MembershipBasic, u.MembershipLevel)

	db.AssertExpectations(t)
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	db := new(mockDBTX)
	repo := NewUserRepository(db)

	row := &mockRow{scanErr: &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}}
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(row)

	err := repo.Create(context.Background(), &domain.User{Email: "ana@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	db := new(mockDBTX)
	repo := NewUserRepository(db)

	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), []any{int64(99)}).
		Return(&mockRow{scanErr: pgx.ErrNoRows})

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
	db.AssertExpectations(t)
}

func TestUserRepository_CreditPoints(t *testing.T) {
	db := new(mockDBTX)
	repo := NewUserRepository(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "RETURNING")
	}), []any{int64(150), int64(1)}).Return(userRow(1, 600, domain.LevelBeginner))

	u, err := repo.CreditPoints(ctx, 1, 150)
	require.NoError(t, err)
	assert.Equal(t, int64(600), u.TotalPointsEarned)
	assert.Equal(t, domain.LevelBeginner, u.Level)
	db.AssertExpectations(t)
}

func TestUserRepository_CreditPoints_UnknownUser(t *testing.T) {
	db := new(mockDBTX)
	repo := NewUserRepository(db)

	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanErr: pgx.ErrNoRows})

	_, err := repo.CreditPoints(context.Background(), 42, 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_CreditPoints_OutOfRange(t *testing.T) {
	db := new(mockDBTX)
	repo := NewUserRepository(db)

	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanErr: &pgconn.PgError{Code: "22003", Message: "bigint out of range"}})

	_, err := repo.CreditPoints(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestUserRepository_SetLevel(t *testing.T) {
	db := new(mockDBTX)
	repo := NewUserRepository(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), []any{domain.LevelActive, int64(1)}).
		Return(pgconn.NewCommandTag("UPDATE 1"), nil).Once()
	db.On("Exec", ctx, mock.AnythingOfType("string"), []any{domain.LevelActive, int64(2)}).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil).Once()

	require.NoError(t, repo.SetLevel(ctx, 1, domain.LevelActive))
	assert.ErrorIs(t, repo.SetLevel(ctx, 2, domain.LevelActive), ErrNotFound)
	db.AssertExpectations(t)
}

func TestUserRepository_SetMembershipLevel_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewUserRepository(db)

	dbErr := errors.New("connection refused")
	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, dbErr)

	err := repo.SetMembershipLevel(context.Background(), 1, domain.MembershipElite)
	assert.ErrorIs(t, err, dbErr)
}
