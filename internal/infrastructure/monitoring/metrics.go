// Package monitoring wires the gateway's logging, Prometheus metrics and
// OpenTelemetry tracing.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/backupgw/internal/domain/service"
)

var _ service.Metrics = (*Metrics)(nil)

// Metrics manages the Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	AuthFailures         *prometheus.CounterVec
	AuthorizationDenials *prometheus.CounterVec
	DispatchTotal        *prometheus.CounterVec
	DispatchLatency      *prometheus.HistogramVec
	CredentialOperations *prometheus.CounterVec
}

// NewMetrics creates the gateway metrics on a dedicated registry, which also
// carries the Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_auth_failures_total",
				Help: "Total number of rejected credentials.",
			},
			[]string{"reason"},
		),
		AuthorizationDenials: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_authorization_denied_total",
				Help: "Total number of requests denied for missing roles.",
			},
			[]string{"route"},
		),
		DispatchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_dispatch_total",
				Help: "Total number of dispatched requests by outcome.",
			},
			[]string{"method", "route", "status"},
		),
		DispatchLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_dispatch_duration_seconds",
				Help:    "Latency of dispatched requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		CredentialOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_credential_operations_total",
				Help: "Total number of credential protection operations.",
			},
			[]string{"operation", "result"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAuthFailure counts a rejected credential.
func (m *Metrics) RecordAuthFailure(reason string) {
	m.AuthFailures.WithLabelValues(reason).Inc()
}

// RecordAuthorizationDenied counts a role check failure.
func (m *Metrics) RecordAuthorizationDenied(route string) {
	m.AuthorizationDenials.WithLabelValues(route).Inc()
}

// RecordDispatch records the outcome of one dispatched request. route is the
// route pattern, or "unmatched".
func (m *Metrics) RecordDispatch(method, route string, status int, duration time.Duration) {
	m.DispatchTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.DispatchLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordCredentialOperation counts a credential service call.
func (m *Metrics) RecordCredentialOperation(operation string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.CredentialOperations.WithLabelValues(operation, result).Inc()
}
