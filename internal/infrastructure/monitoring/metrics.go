package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vitomein/loadintel/exportbridge/internal/writer"
)

// Methods the channel recognizes; anything else is labelled "unknown"
// so callers cannot grow label cardinality.
var knownMethods = map[string]struct{}{
	"pickDirectory": {},
	"writeFile":     {},
}

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Channel metrics
	ChannelCalls    *prometheus.CounterVec
	ChannelDuration *prometheus.HistogramVec
	ChannelErrors   *prometheus.CounterVec

	// Export metrics
	PickerOutcomes *prometheus.CounterVec
	Resolutions    *prometheus.CounterVec
	BytesWritten   prometheus.Counter
	FilesWritten   prometheus.Counter

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests int64   `json:"total_requests"`
	TotalErrors   int64   `json:"total_errors"`
	ChannelCalls  int64   `json:"channel_calls"`
	FilesWritten  int64   `json:"files_written"`
	BytesWritten  int64   `json:"bytes_written"`
	AvgLatencyMs  float64 `json:"avg_latency_ms"`
	UptimeSeconds float64 `json:"uptime_seconds"`

	totalDuration float64
}

// NewMetrics creates a metrics collector backed by its own registry.
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

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exportbridge_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "exportbridge_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "exportbridge_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "exportbridge_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Channel metrics
		ChannelCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exportbridge_channel_calls_total",
				Help: "Total number of method channel calls by outcome",
			},
			[]string{"method", "outcome"},
		),
		ChannelDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "exportbridge_channel_duration_seconds",
				Help:    "Time from method call to reply in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 30, 120},
			},
			[]string{"method"},
		),
		ChannelErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exportbridge_channel_errors_total",
				Help: "Total number of error replies by code",
			},
			[]string{"method", "code"},
		),

		// Export metrics
		PickerOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exportbridge_picker_outcomes_total",
				Help: "Directory picker outcomes",
			},
			[]string{"outcome"},
		),
		Resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exportbridge_subdir_resolutions_total",
				Help: "How write targets were resolved",
			},
			[]string{"resolution"},
		),
		BytesWritten: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "exportbridge_bytes_written_total",
				Help: "Total bytes written to exported documents",
			},
		),
		FilesWritten: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "exportbridge_files_written_total",
				Help: "Total number of exported documents",
			},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "exportbridge_uptime_seconds",
			Help: "Bridge uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry exposes the underlying registry for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.totalDuration += duration.Seconds()
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordChannelCall records a completed method call. Outcome is "success",
// "not_implemented" or an error code.
func (m *Metrics) RecordChannelCall(method, outcome string, duration time.Duration) {
	if _, ok := knownMethods[method]; !ok {
		method = "unknown"
	}
	m.ChannelCalls.WithLabelValues(method, outcome).Inc()
	m.ChannelDuration.WithLabelValues(method).Observe(duration.Seconds())
	if outcome != "success" && outcome != "not_implemented" {
		m.ChannelErrors.WithLabelValues(method, outcome).Inc()
	}

	m.mu.Lock()
	m.snapshot.ChannelCalls++
	m.mu.Unlock()
}

// ObservePickerOutcome counts a terminal picker outcome.
func (m *Metrics) ObservePickerOutcome(outcome string) {
	m.PickerOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveResolution counts how a write target was chosen.
func (m *Metrics) ObserveResolution(r writer.Resolution) {
	m.Resolutions.WithLabelValues(string(r)).Inc()
}

// ObserveBytesWritten counts one finished document of n bytes.
func (m *Metrics) ObserveBytesWritten(n int) {
	m.BytesWritten.Add(float64(n))
	m.FilesWritten.Inc()

	m.mu.Lock()
	m.snapshot.FilesWritten++
	m.snapshot.BytesWritten += int64(n)
	m.mu.Unlock()
}

// Snapshot returns current values for the JSON API.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.snapshot
	if snap.TotalRequests > 0 {
		snap.AvgLatencyMs = snap.totalDuration / float64(snap.TotalRequests) * 1000
	}
	snap.UptimeSeconds = time.Since(m.startTime).Seconds()
	return snap
}
