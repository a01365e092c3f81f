// Package metrics exposes Prometheus instrumentation for the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "engagelens_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"route", "status"})

	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "engagelens_http_request_duration_seconds",
		Help:    "HTTP request duration by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	ProviderCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "engagelens_provider_calls_total",
		Help: "Content provider operations by name and outcome",
	}, []string{"operation", "outcome"})

	ArtifactUploads = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "engagelens_artifact_uploads_total",
		Help: "Artifacts written to object storage",
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal, RequestDuration, ProviderCalls, ArtifactUploads)
}

// ObserveRequest records one completed HTTP request.
func ObserveRequest(route, status string, start time.Time) {
	RequestsTotal.WithLabelValues(route, status).Inc()
	RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
}

// ObserveProviderCall records one provider operation outcome.
func ObserveProviderCall(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ProviderCalls.WithLabelValues(operation, outcome).Inc()
}
