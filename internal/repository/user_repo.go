package repository

import (
	"context"
	"errors"

	"healthloop/internal/db"
	"healthloop/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const userColumns = `id, email, name, password_hash, role, points, total_points_earned, level, membership_level, created_at`

// Postgres SQLSTATE codes.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	numericOutOfRange   = "22003"
)

type UserRepository struct {
	db db.DBTX
}

func NewUserRepository(db db.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	if u.Role == "" {
		u.Role = domain.RoleClient
	}
	if u.Level == "" {
		u.Level = domain.LevelBeginner
	}
	if u.MembershipLevel == "" {
		u.MembershipLevel = domain.MembershipBasic
	}

	err := r.db.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash, role, level, membership_level)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, points, total_points_earned, created_at`,
		u.Email, u.Name, u.PasswordHash, u.Role, u.Level, u.MembershipLevel,
	).Scan(&u.ID, &u.Points, &u.TotalPointsEarned, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.scanOne(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanOne(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

// LockByID reads the user with FOR UPDATE; only meaningful inside a transaction.
func (r *UserRepository) LockByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.scanOne(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

// CreditPoints increments both balances in one statement and returns the new row.
// The UPDATE takes the row lock, serializing concurrent awards for the same user.
func (r *UserRepository) CreditPoints(ctx context.Context, userID int64, amount int64) (*domain.User, error) {
	u, err := r.scanOne(r.db.QueryRow(ctx,
		`UPDATE users
		 SET points = points + $1, total_points_earned = total_points_earned + $1
		 WHERE id = $2
		 RETURNING `+userColumns,
		amount, userID,
	))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == numericOutOfRange {
		return nil, ErrOutOfRange
	}
	return u, err
}

func (r *UserRepository) SetLevel(ctx context.Context, userID int64, level domain.PointsLevel) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET level = $1 WHERE id = $2`, level, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetMembershipLevel(ctx context.Context, userID int64, level domain.MembershipLevel) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET membership_level = $1 WHERE id = $2`, level, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByMembership returns users on the given tiers with id > afterID, ordered by id.
func (r *UserRepository) ListByMembership(ctx context.Context, levels []domain.MembershipLevel, afterID int64, limit int) ([]*domain.User, error) {
	if limit <= 0 {
		limit = 100
	}
	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = string(l)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+`
		 FROM users
		 WHERE membership_level = ANY($1) AND id > $2
		 ORDER BY id
		 LIMIT $3`,
		names, afterID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

// TopEarners ranks client accounts by lifetime points.
func (r *UserRepository) TopEarners(ctx context.Context, limit int) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+`
		 FROM users
		 WHERE role = 'client'
		 ORDER BY total_points_earned DESC, id
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func (r *UserRepository) scanOne(row pgx.Row) (*domain.User, error) {
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.PasswordHash,
		&u.Role,
		&u.Points,
		&u.TotalPointsEarned,
		&u.Level,
		&u.MembershipLevel,
		&u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}
