// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestCounter counts HTTP requests by status code, method, and route
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hogis_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"status", "method", "path"},
	)

	// RequestDuration measures HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hogis_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status", "method", "path"},
	)

	// RequestInProgress requests currently being served
	RequestInProgress = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hogis_http_requests_in_progress",
			Help: "Number of HTTP requests currently being processed",
		},
		[]string{"method", "path"},
	)

	// RateLimiterRejections requests refused by the submission rate limiter
	RateLimiterRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hogis_rate_limiter_rejections_total",
			Help: "Total number of requests rejected by rate limiter",
		},
	)

	// Submissions public registrations by outcome
	// (accepted, validation, encoding, persistence)
	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hogis_submissions_total",
			Help: "Registration submissions by result",
		},
		[]string{"result"},
	)

	// WriteAttempts persistence attempts by result (ok, error)
	WriteAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hogis_submission_write_attempts_total",
			Help: "Registration write attempts by result",
		},
		[]string{"result"},
	)

	// PhotoBytes encoded photo size
	PhotoBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hogis_photo_encoded_bytes",
			Help:    "Size of encoded passport photos in bytes",
			Buckets: []float64{25 << 10, 50 << 10, 100 << 10, 200 << 10, 350 << 10, 500 << 10, 650 << 10},
		},
	)

	// Transitions admin status changes by target and result
	Transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hogis_transitions_total",
			Help: "Registration status transitions by target status and result",
		},
		[]string{"target", "result"},
	)

	// Notifications emails by kind and result
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hogis_notifications_total",
			Help: "Notification emails by kind and result",
		},
		[]string{"kind", "result"},
	)

	// RosterSyncs accepted-roster appends by result
	RosterSyncs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hogis_roster_syncs_total",
			Help: "Accepted roster sheet appends by result",
		},
		[]string{"result"},
	)

	// Registrations current records per status, refreshed on each admin read
	Registrations = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hogis_registrations",
			Help: "Registrations per status as of the last admin refresh",
		},
		[]string{"status"},
	)
)

// Result label for an error
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
