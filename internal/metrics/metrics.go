// Package metrics exposes Prometheus collectors for co-pilot sessions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "velovoice"

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	activeSessions  prometheus.Gauge
	inbound         *prometheus.CounterVec
	outbound        *prometheus.CounterVec
	malformedFrames prometheus.Counter
	llmRequests     *prometheus.CounterVec
	llmLatency      prometheus.Histogram
	healthAlerts    *prometheus.CounterVec
	navigationRuns  prometheus.Counter
}

// New registers the collectors on reg.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Live co-pilot WebSocket sessions.",
		}),
		inbound: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_messages_total",
			Help:      "Client frames received, by message type.",
		}, []string{"type"}),
		outbound: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbound_messages_total",
			Help:      "Frames written to clients, by message type.",
		}, []string{"type"}),
		malformedFrames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_frames_total",
			Help:      "Client frames that could not be decoded.",
		}),
		llmRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Voice commands sent to the language model, by provider and outcome.",
		}, []string{"provider", "outcome"}),
		llmLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Latency of language model round trips.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 8),
		}),
		healthAlerts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "health_alerts_total",
			Help:      "Proactive vehicle health alerts, by kind.",
		}, []string{"kind"}),
		navigationRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "navigation_runs_total",
			Help:      "Simulated navigation runs started.",
		}),
	}
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) SessionOpened() {
	if m != nil {
		m.activeSessions.Inc()
	}
}

func (m *Metrics) SessionClosed() {
	if m != nil {
		m.activeSessions.Dec()
	}
}

func (m *Metrics) Inbound(msgType string) {
	if m != nil {
		m.inbound.WithLabelValues(msgType).Inc()
	}
}

func (m *Metrics) Outbound(msgType string) {
	if m != nil {
		m.outbound.WithLabelValues(msgType).Inc()
	}
}

func (m *Metrics) MalformedFrame() {
	if m != nil {
		m.malformedFrames.Inc()
	}
}

// LLMRequest records one model round trip. outcome is "ok", "error" or
// "disabled".
func (m *Metrics) LLMRequest(provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.llmRequests.WithLabelValues(provider, outcome).Inc()
	if outcome != "disabled" {
		m.llmLatency.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) HealthAlert(kind string) {
	if m != nil {
		m.healthAlerts.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) NavigationStarted() {
	if m != nil {
		m.navigationRuns.Inc()
	}
}
