package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for script generation. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal      *prometheus.CounterVec
	RequestErrorsTotal *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	ToolCallsTotal     *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics on a private registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cadscript_requests_total",
				Help: "Total number of script generation requests",
			},
			[]string{"transport", "status"},
		),
		RequestErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cadscript_request_errors_total",
				Help: "Total number of failed script generation requests by error kind",
			},
			[]string{"transport", "kind"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cadscript_request_duration_seconds",
				Help:    "Duration of script generation requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"transport"},
		),
		ToolCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cadscript_tool_calls_total",
				Help: "Total number of tool calls in successful requests",
			},
			[]string{"tool"},
		),
	}

	registry.MustRegister(m.RequestsTotal, m.RequestErrorsTotal, m.RequestDuration, m.ToolCallsTotal)
	return m
}

// ObserveRequest records one generation request. kind is empty on success.
func (m *Metrics) ObserveRequest(transport string, tools []string, kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(transport).Observe(elapsed.Seconds())
	if kind != "" {
		m.RequestsTotal.WithLabelValues(transport, "error").Inc()
		m.RequestErrorsTotal.WithLabelValues(transport, kind).Inc()
		return
	}
	m.RequestsTotal.WithLabelValues(transport, "ok").Inc()
	for _, tool := range tools {
		m.ToolCallsTotal.WithLabelValues(tool).Inc()
	}
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
