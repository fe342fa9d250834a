package domain

import "time"

// MembershipLevel is the paid subscription tier. It is independent of PointsLevel.
type MembershipLevel string

const (
	MembershipBasic   MembershipLevel = "basic"
	MembershipPremium MembershipLevel = "premium"
	MembershipElite   MembershipLevel = "elite"
)

// Rank orders membership tiers; unknown tiers rank below basic.
func (m MembershipLevel) Rank() int {
	switch m {
	case MembershipBasic:
		return 1
	case MembershipPremium:
		return 2
	case MembershipElite:
		return 3
	}
	return 0
}

// MembershipPlan describes the benefits attached to a membership tier.
type MembershipPlan struct {
	Name                  MembershipLevel `json:"name" yaml:"name"`
	Price                 float64         `json:"price" yaml:"price"`
	DurationDays          int             `json:"duration_days" yaml:"duration_days"`
	ConsultationsPerMonth int             `json:"consultations_per_month" yaml:"consultations_per_month"`
	MonthlyPoints         int64           `json:"monthly_points" yaml:"monthly_points"`
}

// MonthlyGrant records that a member received the plan's monthly points for a period.
type MonthlyGrant struct {
	UserID    int64     `db:"user_id" json:"user_id"`
	Period    string    `db:"period" json:"period"`
	GrantedAt time.Time `db:"granted_at" json:"granted_at"`
}
