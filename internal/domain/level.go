package domain

// PointsLevel is the loyalty status derived from lifetime points earned.
// It is unrelated to MembershipLevel.
type PointsLevel string

const (
	LevelBeginner PointsLevel = "Beginner"
	LevelActive   PointsLevel = "Active"
	LevelPremium  PointsLevel = "Premium"
	LevelElite    PointsLevel = "Elite"
)
