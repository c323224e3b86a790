// Package metrics provides Prometheus metrics for the podium leaderboard server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Manager manages all Prometheus metrics for the podium service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Transport metrics
	connectionsTotal  prometheus.Counter
	connectionsActive prometheus.Gauge
	handshakeFailures prometheus.Counter

	// Protocol metrics
	requestsTotal     *prometheus.CounterVec
	requestLatency    prometheus.Histogram
	malformedRequests prometheus.Counter

	// Leaderboard metrics
	updatesAccepted prometheus.Counter
	updatesRejected prometheus.Counter
	playersTotal    prometheus.Gauge

	// Live feed metrics
	broadcastsTotal prometheus.Counter
	liveClients     prometheus.Gauge

	// Ops HTTP metrics
	opsRequests *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// GetRegistry returns the registry backing the global manager, for use
// with promhttp handlers.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "podium",
		subsystem:        "leaderboard",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto{registry: m.registry}

	m.connectionsTotal = auto.newCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "connections_total",
		Help:      "Total number of accepted client connections",
	})

	m.connectionsActive = auto.newGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "connections_active",
		Help:      "Number of currently open client sessions",
	})

	m.handshakeFailures = auto.newCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "handshake_failures_total",
		Help:      "Total number of TLS handshake failures",
	})

	m.requestsTotal = auto.newCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "requests_total",
		Help:      "Total number of protocol requests by command",
	}, []string{"command"})

	m.requestLatency = auto.newHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "request_latency_milliseconds",
		Help:      "Dispatch latency per request in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.malformedRequests = auto.newCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "malformed_requests_total",
		Help:      "Total number of malformed protocol records",
	})

	m.updatesAccepted = auto.newCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "updates_accepted_total",
		Help:      "Total number of score updates accepted by the engine",
	})

	m.updatesRejected = auto.newCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "updates_rejected_total",
		Help:      "Total number of score updates rejected by last-write-wins",
	})

	m.playersTotal = auto.newGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "players_total",
		Help:      "Number of players tracked by the leaderboard",
	})

	m.broadcastsTotal = auto.newCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "live_broadcasts_total",
		Help:      "Total number of leaderboard snapshots pushed to live clients",
	})

	m.liveClients = auto.newGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "live_clients",
		Help:      "Number of connected live feed websocket clients",
	})

	m.opsRequests = auto.newCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ops_http_requests_total",
		Help:      "Total number of ops HTTP requests",
	}, []string{"endpoint", "method", "status"})
}

// promauto registers metrics on a configurable registerer.
type promauto struct {
	registry prometheus.Registerer
}

func (p promauto) newCounter(opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	p.registry.MustRegister(c)
	return c
}

func (p promauto) newCounterVec(opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(opts, labels)
	p.registry.MustRegister(c)
	return c
}

func (p promauto) newGauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	g := prometheus.NewGauge(opts)
	p.registry.MustRegister(g)
	return g
}

func (p promauto) newHistogram(opts prometheus.HistogramOpts) prometheus.Histogram {
	h := prometheus.NewHistogram(opts)
	p.registry.MustRegister(h)
	return h
}

// RecordConnectionOpened tracks a newly accepted session.
func RecordConnectionOpened() {
	globalManager.connectionsTotal.Inc()
	globalManager.connectionsActive.Inc()
}

// RecordConnectionClosed tracks a finished session.
func RecordConnectionClosed() {
	globalManager.connectionsActive.Dec()
}

// RecordHandshakeFailure increments the TLS handshake failure counter.
func RecordHandshakeFailure() {
	globalManager.handshakeFailures.Inc()
}

// RecordRequest counts one dispatched request for the given command.
func RecordRequest(command string) {
	globalManager.requestsTotal.WithLabelValues(command).Inc()
}

// RecordRequestLatency records dispatch latency in milliseconds.
func RecordRequestLatency(latencyMs float64) {
	globalManager.requestLatency.Observe(latencyMs)
}

// RecordMalformedRequest increments the malformed record counter.
func RecordMalformedRequest() {
	globalManager.malformedRequests.Inc()
}

// RecordUpdateAccepted increments the accepted updates counter.
func RecordUpdateAccepted() {
	globalManager.updatesAccepted.Inc()
}

// RecordUpdateRejected increments the rejected updates counter.
func RecordUpdateRejected() {
	globalManager.updatesRejected.Inc()
}

// UpdatePlayersTotal sets the tracked player count gauge.
func UpdatePlayersTotal(count int) {
	globalManager.playersTotal.Set(float64(count))
}

// RecordBroadcast counts one live leaderboard broadcast.
func RecordBroadcast() {
	globalManager.broadcastsTotal.Inc()
}

// UpdateLiveClients sets the live feed client gauge.
func UpdateLiveClients(count int) {
	globalManager.liveClients.Set(float64(count))
}

// RecordOpsRequest counts one ops HTTP request.
func RecordOpsRequest(endpoint, method, status string) {
	globalManager.opsRequests.WithLabelValues(endpoint, method, status).Inc()
}
