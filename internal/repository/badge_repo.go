package repository

import (
	"context"
	"errors"

	"healthloop/internal/db"
	"healthloop/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type BadgeRepository struct {
	db db.DBTX
}

func NewBadgeRepository(db db.DBTX) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// Insert creates the badge unless (user_id, badge_type) already exists.
// The conflict case returns false and no error.
func (r *BadgeRepository) Insert(ctx context.Context, b *domain.Badge) (bool, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO badges (user_id, badge_type)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, badge_type) DO NOTHING
		 RETURNING id, earned_at`,
		b.UserID, b.BadgeType,
	).Scan(&b.ID, &b.EarnedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *BadgeRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Badge, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, badge_type, earned_at
		 FROM badges
		 WHERE user_id = $1
		 ORDER BY earned_at, id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var badges []*domain.Badge
	for rows.Next() {
		var b domain.Badge
		if err := rows.Scan(&b.ID, &b.UserID, &b.BadgeType, &b.EarnedAt); err != nil {
			return nil, err
		}
		badges = append(badges, &b)
	}
	return badges, rows.Err()
}
