// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeimages_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codeimages_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeimages_rate_limited_total",
			Help: "Requests rejected by the login limiter",
		},
		[]string{"endpoint"},
	)

	// Account Metrics
	AccountsRegisteredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codeimages_accounts_registered_total",
			Help: "Total number of registered accounts",
		},
	)

	AccountsActivatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codeimages_accounts_activated_total",
			Help: "Total number of activated accounts",
		},
	)

	// Snippet Metrics
	SnippetsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codeimages_snippets_created_total",
			Help: "Total number of snippets created",
		},
	)

	QuotaRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codeimages_quota_rejections_total",
			Help: "Snippet submissions rejected by the daily quota",
		},
	)

	RenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codeimages_render_duration_seconds",
			Help:    "Snippet render duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~50s
		},
		[]string{"status"},
	)

	UploadFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codeimages_upload_failures_total",
			Help: "Snippet image uploads that failed",
		},
	)
)
