package service

import "healthloop/internal/domain"

const (
	EventPointsAwarded      = "points_awarded"
	EventLevelUp            = "level_up"
	EventBadgeEarned        = "badge_earned"
	EventMembershipUpgraded = "membership_upgraded"
)

// Event is a loyalty change pushed to the user's live connections.
type Event struct {
	Type    string         `json:"type"`
	UserID  int64          `json:"user_id"`
	Payload map[string]any `json:"payload"`
}

// EventPublisher delivers events after their unit of work has committed.
// Implementations must not block.
type EventPublisher interface {
	Publish(userID int64, event Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(int64, Event) {}

// awardOutcome collects what one award changed so events and metrics can be
// emitted after commit.
type awardOutcome struct {
	userID   int64
	action   domain.Action
	points   int64
	user     domain.User
	levelUp  bool
	oldLevel domain.PointsLevel
	badge    *domain.Badge
}

func (o awardOutcome) events() []Event {
	if o.points <= 0 {
		return nil
	}
	evs := []Event{{
		Type:   EventPointsAwarded,
		UserID: o.userID,
		Payload: map[string]any{
			"action":              o.action,
			"points":              o.points,
			"balance":             o.user.Points,
			"total_points_earned": o.user.TotalPointsEarned,
		},
	}}
	if o.levelUp {
		evs = append(evs, Event{
			Type:    EventLevelUp,
			UserID:  o.userID,
			Payload: map[string]any{"from": o.oldLevel, "to": o.user.Level},
		})
	}
	if o.badge != nil {
		evs = append(evs, Event{
			Type:    EventBadgeEarned,
			UserID:  o.userID,
			Payload: map[string]any{"badge_type": o.badge.BadgeType},
		})
	}
	return evs
}
