package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	apiRequestsTotal   *prometheus.CounterVec
	apiLatencySeconds  *prometheus.HistogramVec
	apiErrorsTotal     *prometheus.CounterVec
	uploadLatency      prometheus.Histogram
	uploadRejected     *prometheus.CounterVec
	statusTransitions  *prometheus.CounterVec
	dashboardCacheHits *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		uploadLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "avatar_upload_seconds",
			Help:    "Latency of avatar uploads including validation.",
			Buckets: prometheus.DefBuckets,
		})

		uploadRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "avatar_upload_rejected_total",
			Help: "Avatar uploads rejected before reaching storage.",
		}, []string{"reason"})

		statusTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "session_status_transitions_total",
			Help: "Session status changes caused by attendance marking.",
		}, []string{"source", "to"})

		dashboardCacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_cache_lookups_total",
			Help: "Admin dashboard cache lookups by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(apiRequestsTotal, apiLatencySeconds, apiErrorsTotal, uploadLatency, uploadRejected, statusTransitions, dashboardCacheHits)
	})
}

// ObserveRequest records one served API request.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	RegisterMetrics()
	code := strconv.Itoa(status)
	apiRequestsTotal.WithLabelValues(method, route, code).Inc()
	apiLatencySeconds.WithLabelValues(method, route).Observe(elapsed.Seconds())
	if status >= 400 {
		apiErrorsTotal.WithLabelValues(method, route, code).Inc()
	}
}

// UploadLatency exposes the avatar upload latency histogram.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatency
}

// UploadRejected exposes the counter of rejected avatar uploads.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejected
}

// StatusTransitions exposes the counter of attendance-driven status changes.
func StatusTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return statusTransitions
}

// DashboardCacheLookups exposes the dashboard cache hit/miss counter.
func DashboardCacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return dashboardCacheHits
}
