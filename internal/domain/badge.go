package domain

import "time"

type BadgeType string

const (
	BadgeLevelActive  BadgeType = "level_active"
	BadgeLevelPremium BadgeType = "level_premium"
	BadgeLevelElite   BadgeType = "level_elite"
)

// BadgeForLevel maps a points level to the badge earned on reaching it.
// Beginner has no badge.
func BadgeForLevel(level PointsLevel) (BadgeType, bool) {
	switch level {
	case LevelActive:
		return BadgeLevelActive, true
	case LevelPremium:
		return BadgeLevelPremium, true
	case LevelElite:
		return BadgeLevelElite, true
	}
	return "", false
}

// Badge is issued at most once per (UserID, BadgeType).
type Badge struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	BadgeType BadgeType `db:"badge_type" json:"badge_type"`
	EarnedAt  time.Time `db:"earned_at" json:"earned_at"`
}
