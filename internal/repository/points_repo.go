package repository

import (
	"context"

	"healthloop/internal/db"
	"healthloop/internal/domain"

	"github.com/jackc/pgx/v5"
)

// PointsRepository is the append-only points ledger.
type PointsRepository struct {
	db db.DBTX
}

func NewPointsRepository(db db.DBTX) *PointsRepository {
	return &PointsRepository{db: db}
}

// Append inserts a new ledger entry and fills in its id and timestamp.
func (r *PointsRepository) Append(ctx context.Context, tx *domain.PointsTransaction) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO points_transactions (user_id, action, points, description)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		tx.UserID, tx.Action, tx.Points, tx.Description,
	).Scan(&tx.ID, &tx.CreatedAt)
}

// ListByUser returns entries strictly older than before, newest first.
func (r *PointsRepository) ListByUser(ctx context.Context, userID int64, before Cursor, limit int) ([]*domain.PointsTransaction, error) {
	if limit <= 0 {
		limit = 100
	}

	var (
		rows pgx.Rows
		err  error
	)
	if before.IsZero() {
		rows, err = r.db.Query(ctx,
			`SELECT id, user_id, action, points, description, created_at
			 FROM points_transactions
			 WHERE user_id = $1
			 ORDER BY created_at DESC, id DESC
			 LIMIT $2`,
			userID, limit,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT id, user_id, action, points, description, created_at
			 FROM points_transactions
			 WHERE user_id = $1 AND (created_at, id) < ($2, $3)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $4`,
			userID, before.CreatedAt, before.ID, limit,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanRows(rows)
}

func (r *PointsRepository) scanRows(rows pgx.Rows) ([]*domain.PointsTransaction, error) {
	var result []*domain.PointsTransaction

	for rows.Next() {
		var tx domain.PointsTransaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Action, &tx.Points, &tx.Description, &tx.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &tx)
	}

	return result, rows.Err()
}
