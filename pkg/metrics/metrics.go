package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RoleChecks counts role gate evaluations by required role and outcome (allowed|denied|error).
	RoleChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apartment_role_checks_total",
			Help: "Total number of role gate evaluations",
		},
		[]string{"role", "result"},
	)

	// NotificationReads counts mark-read attempts by outcome (read|already_read|denied|not_found|error).
	NotificationReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apartment_notification_reads_total",
			Help: "Total number of notification mark-read attempts",
		},
		[]string{"result"},
	)

	// FilterRejections counts history filter parameters that failed to parse.
	FilterRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apartment_notification_filter_rejections_total",
			Help: "History filter parameters rejected as malformed",
		},
		[]string{"parameter"},
	)

	// UnreadNotifications tracks unread notifications across all users.
	UnreadNotifications = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "apartment_notifications_unread",
			Help: "Number of unread notifications",
		},
	)

	// PurgedNotifications counts notifications removed by retention cleanup.
	PurgedNotifications = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "apartment_notifications_purged_total",
			Help: "Read notifications removed by retention cleanup",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "apartment_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
