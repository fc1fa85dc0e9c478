package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. Each instance owns its registry so
// several servers (and tests) can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Playground metrics
	Compositions     *prometheus.CounterVec
	Runs             prometheus.Counter
	SandboxDuration  prometheus.Histogram
	SandboxTimeouts  prometheus.Counter
	Diagnostics      *prometheus.CounterVec
	BridgeDrops      *prometheus.CounterVec
	PersistErrors    *prometheus.CounterVec
	StorageDuration  *prometheus.HistogramVec
	BreakerStateInfo *prometheus.GaugeVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for the health endpoint
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values for JSON responses
type Snapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	ActiveConnections int64   `json:"active_connections"`
	Runs              int64   `json:"runs"`
	Diagnostics       int64   `json:"diagnostics"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playground_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playground_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		Compositions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_compositions_total",
				Help: "Composed documents by variant",
			},
			[]string{"variant"},
		),
		Runs: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "playground_runs_total",
				Help: "Explicit run triggers",
			},
		),
		SandboxDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "playground_sandbox_duration_seconds",
				Help:    "Headless sandbox execution time per document",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),
		SandboxTimeouts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "playground_sandbox_interrupted_total",
				Help: "Sandbox executions stopped by timeout or replacement",
			},
		),
		Diagnostics: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_diagnostics_total",
				Help: "Console messages received from sandboxes",
			},
			[]string{"outcome"},
		),
		BridgeDrops: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_bridge_dropped_total",
				Help: "Bridge messages dropped or ignored",
			},
			[]string{"reason"},
		),
		PersistErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_persistence_errors_total",
				Help: "Failed fragment loads and saves",
			},
			[]string{"op"},
		),
		StorageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playground_storage_duration_seconds",
				Help:    "Fragment storage call duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"op", "status"},
		),
		BreakerStateInfo: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "playground_storage_breaker_state",
				Help: "1 for the current storage circuit breaker state",
			},
			[]string{"state"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "playground_ws_connections",
				Help: "Number of active bridge WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "playground_uptime_seconds",
			Help: "Server uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry returns the registry all metrics are registered with
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// Composition counts a composed document
func (m *Metrics) Composition(variant string) {
	m.Compositions.WithLabelValues(variant).Inc()
}

// Run counts a run trigger
func (m *Metrics) Run() {
	m.Runs.Inc()
	m.mu.Lock()
	m.snapshot.Runs++
	m.mu.Unlock()
}

// Sandbox records one headless execution
func (m *Metrics) Sandbox(d time.Duration, interrupted bool) {
	m.SandboxDuration.Observe(d.Seconds())
	if interrupted {
		m.SandboxTimeouts.Inc()
	}
}

// Diagnostic counts a console message; stale ones are not accepted
func (m *Metrics) Diagnostic(accepted bool) {
	outcome := "accepted"
	if !accepted {
		outcome = "stale"
	}
	m.Diagnostics.WithLabelValues(outcome).Inc()
	if accepted {
		m.mu.Lock()
		m.snapshot.Diagnostics++
		m.mu.Unlock()
	}
}

// BridgeDrop counts a message the bridge discarded
func (m *Metrics) BridgeDrop(reason string) {
	m.BridgeDrops.WithLabelValues(reason).Inc()
}

// PersistenceError counts a failed load or save
func (m *Metrics) PersistenceError(op string) {
	m.PersistErrors.WithLabelValues(op).Inc()
}

// SetBreakerState marks state as the current storage breaker state
func (m *Metrics) SetBreakerState(state string) {
	m.BreakerStateInfo.Reset()
	m.BreakerStateInfo.WithLabelValues(state).Set(1)
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns the current values for JSON responses
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
