// Package metrics holds the loyalty engine's Prometheus collectors. They are
// registered on the default registry, which /metrics serves.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "healthloop"

var (
	PointsAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "points",
			Name:      "awarded_total",
			Help:      "Points credited, by action.",
		},
		[]string{"action"},
	)

	Awards = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "points",
			Name:      "awards_total",
			Help:      "Award attempts, by action and outcome.",
		},
		[]string{"action", "outcome"},
	)

	LevelUps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "points",
			Name:      "level_ups_total",
			Help:      "Level transitions, by new level.",
		},
		[]string{"level"},
	)

	BadgesAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "badges",
			Name:      "awarded_total",
			Help:      "Badges created, by type.",
		},
		[]string{"badge_type"},
	)

	MembershipUpgrades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "membership",
			Name:      "upgrades_total",
			Help:      "Membership upgrades, by target tier.",
		},
		[]string{"membership_level"},
	)

	MonthlyGrants = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "membership",
			Name:      "monthly_grants_total",
			Help:      "Monthly plan point grants, by outcome.",
		},
		[]string{"outcome"},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "connections",
			Help:      "Open loyalty event stream connections.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		PointsAwarded,
		Awards,
		LevelUps,
		BadgesAwarded,
		MembershipUpgrades,
		MonthlyGrants,
		HTTPRequests,
		HTTPDuration,
		WSConnections,
	)
}
