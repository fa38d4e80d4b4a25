package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LeaveTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leavehub_leave_transitions_total",
		Help: "Total leave request transitions by action and outcome.",
	}, []string{"action", "outcome"})

	VersionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leavehub_version_conflicts_total",
		Help: "Optimistic concurrency conflicts rejected by the store.",
	})

	EffectAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leavehub_side_effect_attempts_total",
		Help: "Side effect execution attempts by kind and result.",
	}, []string{"kind", "result"})

	EffectDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "leavehub_side_effect_duration_seconds",
		Help:    "Adapter call duration per side effect kind.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	NotificationsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leavehub_notifications_delivered_total",
		Help: "Notification messages handed to the messaging gateway.",
	}, []string{"result"})
)
