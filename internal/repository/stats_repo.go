package repository

import (
	"context"
	"fmt"
	"time"

	"healthloop/internal/db"
	"healthloop/internal/domain"
)

// StatsRepository runs the aggregate queries behind the professional dashboard.
type StatsRepository struct {
	db db.DBTX
}

func NewStatsRepository(db db.DBTX) *StatsRepository {
	return &StatsRepository{db: db}
}

// Program counts client accounts only. today and weekAgo bound the
// "today" and "this week" windows.
func (r *StatsRepository) Program(ctx context.Context, today, weekAgo time.Time) (*domain.ProgramStats, error) {
	s := &domain.ProgramStats{
		MembersByLevel:      make(map[domain.PointsLevel]int64),
		MembersByMembership: make(map[domain.MembershipLevel]int64),
	}

	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE role = 'client'`,
	).Scan(&s.TotalMembers); err != nil {
		return nil, fmt.Errorf("count members: %w", err)
	}

	// Active members this week (earned at least once)
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(DISTINCT t.user_id)
		FROM points_transactions t JOIN users u ON u.id = t.user_id
		WHERE u.role = 'client' AND t.created_at >= $1
	`, weekAgo).Scan(&s.ActiveMembersWeek); err != nil {
		return nil, fmt.Errorf("count active members: %w", err)
	}

	if err := r.db.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(points) FILTER (WHERE created_at >= $1), 0)::bigint,
			COALESCE(SUM(points) FILTER (WHERE created_at >= $2), 0)::bigint,
			COALESCE(SUM(points), 0)::bigint
		FROM points_transactions
	`, today, weekAgo).Scan(&s.PointsAwardedToday, &s.PointsAwardedWeek, &s.PointsAwardedTotal); err != nil {
		return nil, fmt.Errorf("sum points: %w", err)
	}

	levels, err := r.countBy(ctx, "level")
	if err != nil {
		return nil, err
	}
	for k, n := range levels {
		s.MembersByLevel[domain.PointsLevel(k)] = n
	}

	tiers, err := r.countBy(ctx, "membership_level")
	if err != nil {
		return nil, err
	}
	for k, n := range tiers {
		s.MembersByMembership[domain.MembershipLevel(k)] = n
	}

	return s, nil
}

// countBy groups client accounts by a users column. column is never user input.
func (r *StatsRepository) countBy(ctx context.Context, column string) (map[string]int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+column+`, COUNT(*) FROM users WHERE role = 'client' GROUP BY `+column)
	if err != nil {
		return nil, fmt.Errorf("count by %s: %w", column, err)
	}
	defer rows.Close()

	res := make(map[string]int64)
	for rows.Next() {
		var (
			key string
			n   int64
		)
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		res[key] = n
	}
	return res, rows.Err()
}
