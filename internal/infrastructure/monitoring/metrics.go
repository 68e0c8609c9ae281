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

const namespace = "theta"

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Tab metrics
	TabsOpen    prometheus.Gauge
	TabsCreated prometheus.Counter

	// Extraction metrics
	Extractions     *prometheus.CounterVec
	ExtractedWords  prometheus.Histogram
	FetchDuration   *prometheus.HistogramVec
	FetchFailures   *prometheus.CounterVec
	BreakerOpen     *prometheus.GaugeVec
	OperationErrors *prometheus.CounterVec

	// Event stream metrics
	StreamClients  prometheus.Gauge
	StreamMessages *prometheus.CounterVec

	startTime time.Time

	mu       sync.RWMutex
	snapshot Snapshot
}

// Snapshot holds current values for the JSON health endpoint
type Snapshot struct {
	TotalRequests int64   `json:"total_requests"`
	TotalErrors   int64   `json:"total_errors"`
	OpenTabs      int64   `json:"open_tabs"`
	Extractions   int64   `json:"extractions"`
	FetchFailures int64   `json:"fetch_failures"`
	StreamClients int64   `json:"stream_clients"`
	AvgLatencyMS  float64 `json:"avg_latency_ms"`
	UptimeSeconds float64 `json:"uptime_seconds"`

	totalDuration float64
}

// NewMetrics creates a metrics collector backed by a fresh registry
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
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_size_bytes",
				Help:      "HTTP request size in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),

		TabsOpen: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tabs_open",
			Help:      "Number of open tabs",
		}),
		TabsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tabs_created_total",
			Help:      "Total number of tabs created",
		}),

		Extractions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "extractions_total",
				Help:      "Content extractions by source and outcome",
			},
			[]string{"source", "status"},
		),
		ExtractedWords: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extracted_words",
			Help:      "Word count of extracted documents",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 7),
		}),
		FetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Outbound page fetch duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"status"},
		),
		FetchFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_failures_total",
				Help:      "Outbound fetch failures by kind",
			},
			[]string{"kind"},
		),
		BreakerOpen: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "breaker_open",
				Help:      "1 while the named circuit breaker is open",
			},
			[]string{"name"},
		),
		OperationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operation_errors_total",
				Help:      "Errors by operation",
			},
			[]string{"operation", "error_type"},
		),

		StreamClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_clients",
			Help:      "Connected event-stream clients",
		}),
		StreamMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stream_messages_total",
				Help:      "Event-stream messages by direction and type",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "uptime_seconds",
		Help:      "Backend uptime in seconds",
	}, func() float64 {
		return time.Since(m.startTime).Seconds()
	})

	return m
}

// Registry returns the registry the collectors are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
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
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// SetTabsOpen sets the number of open tabs
func (m *Metrics) SetTabsOpen(count int) {
	m.TabsOpen.Set(float64(count))
	m.mu.Lock()
	m.snapshot.OpenTabs = int64(count)
	m.mu.Unlock()
}

// IncTabsCreated increments the tabs created counter
func (m *Metrics) IncTabsCreated() {
	m.TabsCreated.Inc()
}

// RecordExtraction records an extraction outcome. wordCount is ignored for
// failures.
func (m *Metrics) RecordExtraction(source, status string, wordCount int) {
	m.Extractions.WithLabelValues(source, status).Inc()
	if status == "success" {
		m.ExtractedWords.Observe(float64(wordCount))
	}

	m.mu.Lock()
	m.snapshot.Extractions++
	m.mu.Unlock()
}

// RecordFetch records one outbound fetch
func (m *Metrics) RecordFetch(status string, duration time.Duration) {
	m.FetchDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordFetchFailure records a failed fetch by kind (transport, decode, breaker)
func (m *Metrics) RecordFetchFailure(kind string) {
	m.FetchFailures.WithLabelValues(kind).Inc()

	m.mu.Lock()
	m.snapshot.FetchFailures++
	m.mu.Unlock()
}

// SetBreakerOpen publishes a breaker's open state
func (m *Metrics) SetBreakerOpen(name string, open bool) {
	v := 0.0
	if open {
		v = 1
	}
	m.BreakerOpen.WithLabelValues(name).Set(v)
}

// RecordError records a failed operation
func (m *Metrics) RecordError(operation, errorType string) {
	m.OperationErrors.WithLabelValues(operation, errorType).Inc()
}

// RecordStreamMessage records an event-stream message
func (m *Metrics) RecordStreamMessage(direction, msgType string) {
	m.StreamMessages.WithLabelValues(direction, msgType).Inc()
}

// IncStreamClients increments connected stream clients
func (m *Metrics) IncStreamClients() {
	m.StreamClients.Inc()
	m.mu.Lock()
	m.snapshot.StreamClients++
	m.mu.Unlock()
}

// DecStreamClients decrements connected stream clients
func (m *Metrics) DecStreamClients() {
	m.StreamClients.Dec()
	m.mu.Lock()
	m.snapshot.StreamClients--
	m.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the headline values
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	s := m.snapshot
	m.mu.RUnlock()

	if s.TotalRequests > 0 {
		s.AvgLatencyMS = s.totalDuration / float64(s.TotalRequests) * 1000
	}
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
