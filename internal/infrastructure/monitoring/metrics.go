package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the island pipeline
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Ingestion metrics
	EventsIngested  *prometheus.CounterVec
	EventsMalformed prometheus.Counter

	// Suppression metrics
	Suppressions *prometheus.CounterVec

	// Island lifecycle metrics
	IslandsCreated   prometheus.Counter
	IslandsUpdated   prometheus.Counter
	IslandsCompleted prometheus.Counter
	UpdatesDeduped   prometheus.Counter
	Preemptions      prometheus.Counter
	IslandActive     prometheus.Gauge

	// Route metrics
	RouteDispatches *prometheus.CounterVec
	ActionErrors    *prometheus.CounterVec

	// Priority engine metrics
	ThrottleTrips prometheus.Counter
	BurstDrops    prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot Snapshot

	mu sync.RWMutex
}

// Snapshot holds current metric values for the JSON health endpoint
type Snapshot struct {
	EventsIngested   int64
	EventsSuppressed int64
	IslandsCreated   int64
	IslandsCompleted int64
	ActionErrors     int64
}

// NewMetrics creates a metrics collector on the default registry
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates a metrics collector on a custom registerer.
// Tests use a fresh registry to avoid duplicate registration panics.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engine_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "engine_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		EventsIngested: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engine_events_ingested_total",
				Help: "Total number of notification events ingested",
			},
			[]string{"origin", "category"},
		),
		EventsMalformed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "engine_events_malformed_total",
				Help: "Total number of events with degraded fields",
			},
		),

		Suppressions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engine_suppressions_total",
				Help: "Total number of suppressed events by reason code",
			},
			[]string{"reason"},
		),

		IslandsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "engine_islands_created_total",
				Help: "Total number of CREATED island transitions",
			},
		),
		IslandsUpdated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "engine_islands_updated_total",
				Help: "Total number of UPDATED island transitions",
			},
		),
		IslandsCompleted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "engine_islands_completed_total",
				Help: "Total number of COMPLETED island transitions",
			},
		),
		UpdatesDeduped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "engine_updates_deduped_total",
				Help: "Total number of same-content updates swallowed",
			},
		),
		Preemptions: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "engine_preemptions_total",
				Help: "Total number of higher-priority preemptions",
			},
		),
		IslandActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "engine_island_active",
				Help: "1 when an island is currently rendered, else 0",
			},
		),

		RouteDispatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engine_route_dispatches_total",
				Help: "Total number of route dispatches by target",
			},
			[]string{"route"},
		),
		ActionErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engine_action_errors_total",
				Help: "Total number of failed action dispatches",
			},
			[]string{"kind"},
		),

		ThrottleTrips: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "engine_throttle_trips_total",
				Help: "Total number of learned-throttle suppressions",
			},
		),
		BurstDrops: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "engine_burst_drops_total",
				Help: "Total number of burst-control suppressions",
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "engine_ws_connections",
				Help: "Number of active overlay WebSocket connections",
			},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "engine_uptime_seconds",
				Help: "Engine uptime in seconds",
			},
		),
	}

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordIngested records one ingested event
func (m *Metrics) RecordIngested(origin, category string) {
	m.EventsIngested.WithLabelValues(origin, category).Inc()
	m.mu.Lock()
	m.snapshot.EventsIngested++
	m.mu.Unlock()
}

// RecordSuppression records one reason-coded suppression
func (m *Metrics) RecordSuppression(reason string) {
	m.Suppressions.WithLabelValues(reason).Inc()
	m.mu.Lock()
	m.snapshot.EventsSuppressed++
	m.mu.Unlock()
}

// RecordTransition records an island lifecycle transition
func (m *Metrics) RecordTransition(phase string) {
	switch phase {
	case "CREATED":
		m.IslandsCreated.Inc()
		m.IslandActive.Set(1)
		m.mu.Lock()
		m.snapshot.IslandsCreated++
		m.mu.Unlock()
	case "UPDATED":
		m.IslandsUpdated.Inc()
	case "COMPLETED":
		m.IslandsCompleted.Inc()
		m.IslandActive.Set(0)
		m.mu.Lock()
		m.snapshot.IslandsCompleted++
		m.mu.Unlock()
	}
}

// RecordRouteDispatch records one dispatch to a render target
func (m *Metrics) RecordRouteDispatch(route string) {
	m.RouteDispatches.WithLabelValues(route).Inc()
}

// RecordActionError records one failed user action dispatch
func (m *Metrics) RecordActionError(kind string) {
	m.ActionErrors.WithLabelValues(kind).Inc()
	m.mu.Lock()
	m.snapshot.ActionErrors++
	m.mu.Unlock()
}

// UpdateUptime refreshes the uptime gauge
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}

// GetSnapshot returns current metric values for the JSON API
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}
