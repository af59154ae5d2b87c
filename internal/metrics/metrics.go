package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProofsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "club_proofs_submitted_total",
		Help: "Payment proofs submitted by members",
	})

	ProofsReviewed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "club_proofs_reviewed_total",
			Help: "Payment proofs reviewed by admins",
		},
		[]string{"decision"},
	)

	TicketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "club_tickets_issued_total",
			Help: "Ticket upserts, split by outcome",
		},
		[]string{"outcome"},
	)

	GroupSyncs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "club_group_syncs_total",
			Help: "Group charge reconciliations",
		},
		[]string{"result"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "club_notifications_total",
			Help: "Notifications created, by delivery path",
		},
		[]string{"path"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)
)
