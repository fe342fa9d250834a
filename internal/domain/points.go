package domain

import "time"

// Action identifies the business event a points transaction was earned for.
type Action string

const (
	ActionRegistration         Action = "registration"
	ActionFirstPurchase        Action = "first_purchase"
	ActionPurchase             Action = "purchase"
	ActionScheduleConsultation Action = "schedule_consultation"
	ActionCompleteProfile      Action = "complete_profile"
	ActionReferFriend          Action = "refer_friend"
	ActionCompleteConsultation Action = "complete_consultation"
	ActionVideoCompletion      Action = "video_completion"

	// Internal actions, never accepted from clients directly.
	ActionMembershipUpgrade       Action = "membership_upgrade"
	ActionMonthlyMembershipPoints Action = "monthly_membership_points"
)

// PublicActions are the actions a client may report through the API.
var PublicActions = []Action{
	ActionRegistration,
	ActionFirstPurchase,
	ActionPurchase,
	ActionScheduleConsultation,
	ActionCompleteProfile,
	ActionReferFriend,
	ActionCompleteConsultation,
	ActionVideoCompletion,
}

// PointsTransaction is an immutable ledger entry. Points are always positive.
type PointsTransaction struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Action      Action    `db:"action" json:"action"`
	Points      int64     `db:"points" json:"points"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
