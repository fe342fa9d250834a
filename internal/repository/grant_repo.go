package repository

import (
	"context"

	"healthloop/internal/db"
)

// GrantRepository remembers which monthly membership grants were paid out.
type GrantRepository struct {
	db db.DBTX
}

func NewGrantRepository(db db.DBTX) *GrantRepository {
	return &GrantRepository{db: db}
}

// Claim records the (user, period) pair. It reports false if it was already recorded.
func (r *GrantRepository) Claim(ctx context.Context, userID int64, period string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO monthly_grants (user_id, period, granted_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (user_id, period) DO NOTHING`,
		userID, period,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
