package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "codepad"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Project model metrics
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	OperationErrors   *prometheus.CounterVec
	Nodes             prometheus.Gauge
	OpenFiles         prometheus.Gauge

	// Autosave metrics
	SlotWrites     *prometheus.CounterVec
	SlotWriteBytes *prometheus.HistogramVec
	SlotWriteTime  *prometheus.HistogramVec
	GuardState     prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for the status API
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current counter values for the JSON status API
type Snapshot struct {
	TotalRequests int64   `json:"totalRequests"`
	TotalErrors   int64   `json:"totalErrors"`
	SlotWrites    int64   `json:"slotWrites"`
	SlotFailures  int64   `json:"slotFailures"`
	AvgLatencyMs  float64 `json:"avgLatencyMs"`
	UptimeSeconds float64 `json:"uptimeSeconds"`

	totalDuration float64
}

// NewMetrics registers the collectors with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		RequestSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_size_bytes",
				Help:      "HTTP request size in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "route"},
		),
		ResponseSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "route"},
		),

		// Project model metrics
		Operations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Project and session operations by outcome",
			},
			[]string{"op", "status"},
		),
		OperationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Project and session operation duration in seconds",
				Buckets:   []float64{.00001, .0001, .001, .01, .1, 1},
			},
			[]string{"op"},
		),
		OperationErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operation_errors_total",
				Help:      "Failed operations by error kind",
			},
			[]string{"op", "kind"},
		),
		Nodes: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "project_nodes",
				Help:      "Nodes in the project tree, root included",
			},
		),
		OpenFiles: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "session_open_files",
				Help:      "Files open in the editor",
			},
		),

		// Autosave metrics
		SlotWrites: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "autosave_writes_total",
				Help:      "Slot writes by outcome",
			},
			[]string{"slot", "status"},
		),
		SlotWriteBytes: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "autosave_write_bytes",
				Help:      "Encoded slot size in bytes",
				Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
			},
			[]string{"slot"},
		),
		SlotWriteTime: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "autosave_write_duration_seconds",
				Help:      "Slot encode and store write duration in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"slot"},
		),
		GuardState: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "store_guard_state",
				Help:      "Store write guard state (0 closed, 1 half-open, 2 open)",
			},
		),

		// WebSocket metrics
		WSConnections: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ws_connections",
				Help:      "Number of active change stream connections",
			},
		),
		WSMessages: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ws_messages_total",
				Help:      "Change stream messages by type",
			},
			[]string{"type"},
		),
	}

	f.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Server uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, route).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, route).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.totalDuration += duration.Seconds()
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordOperation records a completed project or session operation. kind is
// the error kind, or "" on success.
func (m *Metrics) RecordOperation(op, kind string, duration time.Duration) {
	status := "success"
	if kind != "" {
		status = "error"
		m.OperationErrors.WithLabelValues(op, kind).Inc()
	}
	m.Operations.WithLabelValues(op, status).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// SetModelSize updates the node and open file gauges
func (m *Metrics) SetModelSize(nodes, openFiles int) {
	m.Nodes.Set(float64(nodes))
	m.OpenFiles.Set(float64(openFiles))
}

// RecordSlotWrite records a successful autosave write
func (m *Metrics) RecordSlotWrite(slot string, size int, duration time.Duration) {
	m.SlotWrites.WithLabelValues(slot, "success").Inc()
	m.SlotWriteBytes.WithLabelValues(slot).Observe(float64(size))
	m.SlotWriteTime.WithLabelValues(slot).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.SlotWrites++
	m.mu.Unlock()
}

// RecordSlotFailure records a failed autosave write
func (m *Metrics) RecordSlotFailure(slot string) {
	m.SlotWrites.WithLabelValues(slot, "error").Inc()

	m.mu.Lock()
	m.snapshot.SlotFailures++
	m.mu.Unlock()
}

// SetGuardState records the store guard state
func (m *Metrics) SetGuardState(state int) {
	m.GuardState.Set(float64(state))
}

// RecordWSMessage records a change stream message
func (m *Metrics) RecordWSMessage(msgType string) {
	m.WSMessages.WithLabelValues(msgType).Inc()
}

// IncWSConnections increments change stream connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements change stream connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// GetSnapshot returns current counter values
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	if s.TotalRequests > 0 {
		s.AvgLatencyMs = s.totalDuration / float64(s.TotalRequests) * 1000
	}
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
