package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	// audit-api HTTP metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "adminaudit_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"route", "method", "code"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "adminaudit_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	ActiveRequests = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "adminaudit_active_requests",
		Help: "Current in-flight requests",
	})

	// capture pipeline metrics
	AuditRecordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "adminaudit_records_total",
		Help: "Audit records handed to the sink, by outcome",
	}, []string{"action", "resource_type", "outcome"})

	AuditCaptureFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "adminaudit_capture_failures_total",
		Help: "Non-fatal capture pipeline failures, by stage",
	}, []string{"stage"})

	AuditQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "adminaudit_queue_depth",
		Help: "Records waiting in the dispatch queue",
	})

	AuditQueueDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "adminaudit_queue_dropped_total",
		Help: "Records dropped before reaching the sink",
	}, []string{"reason"})

	// sink metrics
	SinkWriteDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "adminaudit_sink_write_duration_seconds",
		Help:    "Sink write latency",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"kind"})
)

func RegisterAll(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, ActiveRequests,
		AuditRecordsTotal, AuditCaptureFailures,
		AuditQueueDepth, AuditQueueDropped, SinkWriteDuration,
	)
}
