package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GradedAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exercise_graded_attempts_total",
			Help: "Total number of graded attempts",
		},
		[]string{"type", "tier"},
	)

	GradePercentage = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exercise_grade_percentage",
			Help:    "Distribution of attempt percentages",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{"type"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exercise_validation_failures_total",
			Help: "Total number of rejected publishes by validation kind",
		},
		[]string{"kind"},
	)

	PublishedExercises = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exercise_published_total",
			Help: "Total number of exercises saved from drafts",
		},
		[]string{"type", "status"}, // status: success/failure
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "exercise_runner_sessions_current",
			Help: "Current number of live runner sessions",
		},
	)

	XPAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exercise_xp_awarded_total",
			Help: "Total XP credited to learners",
		},
		[]string{"lang"},
	)
)
