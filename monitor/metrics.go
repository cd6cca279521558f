package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nika",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPResponseTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nika",
			Name:      "http_response_time_seconds",
			Help:      "Histogram of response times",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "nika",
			Name:      "http_requests_in_flight",
			Help:      "Requests currently being served",
		},
		[]string{},
	)

	TradesSettled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nika",
			Name:      "trades_settled_total",
			Help:      "Trade webhooks processed by outcome",
		},
		[]string{"status"},
	)

	CommissionsGranted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nika",
			Name:      "commissions_granted_total",
			Help:      "Commission rows written by level and token",
		},
		[]string{"level", "token"},
	)

	CommissionAmount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nika",
			Name:      "commission_amount_total",
			Help:      "Sum of commission amounts granted by token",
		},
		[]string{"token"},
	)

	TreasuryRetained = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nika",
			Name:      "treasury_retained_total",
			Help:      "Fee share kept by the treasury by token",
		},
		[]string{"token"},
	)

	ClaimsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nika",
			Name:      "claims_total",
			Help:      "Commission claims by token and outcome",
		},
		[]string{"token", "status"},
	)

	ReferralsRegistered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nika",
			Name:      "referrals_registered_total",
			Help:      "Referral registrations by level",
		},
		[]string{"level"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nika",
			Name:      "events_published_total",
			Help:      "Events sent to the broker by type and outcome",
		},
		[]string{"type", "status"},
	)
)
