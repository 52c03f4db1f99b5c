// Package metrics registers and exposes the application's Prometheus
// metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   prometheus.CounterVec
	HTTPRequestDuration prometheus.HistogramVec

	// Feed metrics
	FeedLoadDuration prometheus.HistogramVec
	FeedPageSize     prometheus.HistogramVec

	// Engagement metrics
	EngagementTogglesTotal prometheus.CounterVec
	PostsCreatedTotal      prometheus.CounterVec
	RegistrationsTotal     prometheus.CounterVec

	// Moderation metrics
	ModerationChecksTotal prometheus.CounterVec

	// Error metrics
	ErrorsTotal prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics.
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			FeedLoadDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "feed_load_duration_seconds",
					Help:    "Time to query, enrich, and rank a feed page",
					Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
				},
				[]string{"tab"},
			),
			FeedPageSize: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "feed_page_size",
					Help:    "Number of posts returned per feed page",
					Buckets: []float64{0, 5, 10, 15, 20, 25, 30},
				},
				[]string{"tab"},
			),
			EngagementTogglesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "engagement_toggles_total",
					Help: "Total number of engagement toggles",
				},
				[]string{"kind", "state"},
			),
			PostsCreatedTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "posts_created_total",
					Help: "Total number of posts created",
				},
				[]string{"kind"},
			),
			RegistrationsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "event_registrations_total",
					Help: "Total number of event registration attempts",
				},
				[]string{"outcome"},
			),
			ModerationChecksTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "moderation_checks_total",
					Help: "Total number of moderation checks",
				},
				[]string{"verdict"},
			),
			ErrorsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "errors_total",
					Help: "Total number of application errors",
				},
				[]string{"component"},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing it if needed.
func Get() *Metrics {
	return Initialize()
}
