package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	functionRequestsTotal *prometheus.CounterVec
	functionLatency       *prometheus.HistogramVec
	functionErrorsTotal   *prometheus.CounterVec
	auditEntriesTotal     *prometheus.CounterVec
	auditPublishFailures  prometheus.Counter
	settingsCacheRequests *prometheus.CounterVec
	logoUploadsTotal      *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		functionRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "function_requests_total",
			Help: "Total number of function requests served.",
		}, []string{"method", "route", "status"})

		functionLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "function_latency_seconds",
			Help:    "Latency distribution for function requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		functionErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "function_errors_total",
			Help: "Total number of error responses returned by functions.",
		}, []string{"method", "route", "status"})

		auditEntriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_entries_total",
			Help: "Audit log entries written, by origin.",
		}, []string{"origin"})

		auditPublishFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "audit_publish_failures_total",
			Help: "Audit events that could not be published to the message bus.",
		})

		settingsCacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "settings_cache_requests_total",
			Help: "Visual settings cache lookups by result.",
		}, []string{"result"})

		logoUploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logo_uploads_total",
			Help: "Logo uploads by result.",
		}, []string{"result"})

		prometheus.MustRegister(
			functionRequestsTotal,
			functionLatency,
			functionErrorsTotal,
			auditEntriesTotal,
			auditPublishFailures,
			settingsCacheRequests,
			logoUploadsTotal,
		)
	})
}

// FunctionRequests exposes the counter for function requests.
func FunctionRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return functionRequestsTotal
}

// FunctionLatency exposes the latency histogram for function requests.
func FunctionLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return functionLatency
}

// FunctionErrors exposes the counter for function error responses.
func FunctionErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return functionErrorsTotal
}

// AuditEntries counts persisted audit entries.
func AuditEntries() *prometheus.CounterVec {
	RegisterMetrics()
	return auditEntriesTotal
}

// AuditPublishFailures counts audit events dropped by the publisher.
func AuditPublishFailures() prometheus.Counter {
	RegisterMetrics()
	return auditPublishFailures
}

// SettingsCacheRequests counts visual settings cache hits and misses.
func SettingsCacheRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return settingsCacheRequests
}

// LogoUploads counts logo upload outcomes.
func LogoUploads() *prometheus.CounterVec {
	RegisterMetrics()
	return logoUploadsTotal
}
