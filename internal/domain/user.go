package domain

import "time"

// Role separates clients from the professionals coaching them.
type Role string

const (
	RoleClient       Role = "client"
	RoleProfessional Role = "professional"
)

type User struct {
	ID                int64           `db:"id" json:"id"`
	Email             string          `db:"email" json:"email"`
	Name              string          `db:"name" json:"name"`
	PasswordHash      string          `db:"password_hash" json:"-"`
	Role              Role            `db:"role" json:"role"`
	Points            int64           `db:"points" json:"points"`
	TotalPointsEarned int64           `db:"total_points_earned" json:"total_points_earned"`
	Level             PointsLevel     `db:"level" json:"level"`
	MembershipLevel   MembershipLevel `db:"membership_level" json:"membership_level"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}
