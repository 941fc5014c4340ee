// Package metrics exposes Prometheus instrumentation for the replay
// service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the replay service.
type Metrics struct {
	registry *prometheus.Registry

	ActiveSessions  prometheus.Gauge
	SessionsTotal   prometheus.Counter
	CandlesEmitted  prometheus.Counter
	SessionErrors   prometheus.Counter
	FetchDuration   prometheus.Histogram
	ControlMessages *prometheus.CounterVec
}

// New registers and returns all replay metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "candlestream_active_sessions",
			Help: "Currently connected replay sessions",
		}),
		SessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "candlestream_sessions_total",
			Help: "Total replay sessions accepted",
		}),
		CandlesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "candlestream_candles_emitted_total",
			Help: "Total candles emitted across all sessions",
		}),
		SessionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "candlestream_session_errors_total",
			Help: "Total sessions ended by a fatal error",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "candlestream_fetch_duration_seconds",
			Help:    "Candle page fetch latency",
			Buckets: prometheus.DefBuckets,
		}),
		ControlMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "candlestream_control_messages_total",
			Help: "Control messages received, by type",
		}, []string{"type"}),
	}

	m.registry.MustRegister(
		m.ActiveSessions,
		m.SessionsTotal,
		m.CandlesEmitted,
		m.SessionErrors,
		m.FetchDuration,
		m.ControlMessages,
	)
	return m
}

// Handler serves the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
