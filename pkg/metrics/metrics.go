package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records login attempts by result (success|failure|locked).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posadmin_auth_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"},
	)

	// GatekeeperDecisions counts gatekeeper outcomes per request.
	GatekeeperDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posadmin_gatekeeper_decisions_total",
			Help: "Total number of gatekeeper decisions by outcome",
		},
		[]string{"outcome"},
	)

	// NotificationsDelivered counts notification inserts by result (delivered|failed).
	NotificationsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posadmin_notifications_delivered_total",
			Help: "Total number of notification rows written",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "posadmin_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
