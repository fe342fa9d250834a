package domain

// ProgramStats summarizes the loyalty program across client accounts.
type ProgramStats struct {
	TotalMembers        int64                     `json:"total_members"`
	ActiveMembersWeek   int64                     `json:"active_members_week"`
	MembersByLevel      map[PointsLevel]int64     `json:"members_by_level"`
	MembersByMembership map[MembershipLevel]int64 `json:"members_by_membership"`
	PointsAwardedToday  int64                     `json:"points_awarded_today"`
	PointsAwardedWeek   int64                     `json:"points_awarded_week"`
	PointsAwardedTotal  int64                     `json:"points_awarded_total"`
}
