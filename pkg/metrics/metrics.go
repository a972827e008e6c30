// Package metrics exposes Prometheus collectors for router and live session
// activity.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Navigation outcomes recorded by the router.
const (
	OutcomeDirect   = "direct"
	OutcomeFallback = "fallback"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "pushroute").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for HTTP request duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "pushroute",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the collectors. A nil *Metrics is valid and records nothing,
// so callers never need to guard their Record calls.
type Metrics struct {
	navigations    *prometheus.CounterVec
	replays        *prometheus.CounterVec
	triggers       *prometheus.CounterVec
	activeSessions prometheus.Gauge
	wsErrors       *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New registers the collectors with the configured registry.
// Registering twice against the same registry panics, as promauto does.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		navigations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "Total number of navigations by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		replays: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "history_replays_total",
			Help:        "Total number of back/forward history replays by status",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		triggers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "trigger_dispatches_total",
			Help:        "Total number of trigger dispatches by status",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of active live sessions",
			ConstLabels: config.ConstLabels,
		}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_errors_total",
			Help:        "Total WebSocket errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),

		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds by route pattern and status code",
			Buckets:     config.Buckets,
			ConstLabels: config.ConstLabels,
		}, []string{"route", "code"}),
	}
}

// RecordNavigation records a navigation outcome.
func (m *Metrics) RecordNavigation(outcome string) {
	if m != nil {
		m.navigations.WithLabelValues(outcome).Inc()
	}
}

// RecordReplay records a history replay.
func (m *Metrics) RecordReplay(err error) {
	if m != nil {
		m.replays.WithLabelValues(status(err)).Inc()
	}
}

// RecordTrigger records a trigger dispatch.
func (m *Metrics) RecordTrigger(err error) {
	if m != nil {
		m.triggers.WithLabelValues(status(err)).Inc()
	}
}

// RecordSessionOpen records a new live session.
func (m *Metrics) RecordSessionOpen() {
	if m != nil {
		m.activeSessions.Inc()
	}
}

// RecordSessionClose records a closed live session.
func (m *Metrics) RecordSessionClose() {
	if m != nil {
		m.activeSessions.Dec()
	}
}

// RecordWebSocketError records a WebSocket error.
func (m *Metrics) RecordWebSocketError(errorType string) {
	if m != nil {
		m.wsErrors.WithLabelValues(errorType).Inc()
	}
}

// RecordHTTPRequest records a served HTTP request. route is the matched
// route pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) RecordHTTPRequest(route string, code int, d time.Duration) {
	if m != nil {
		m.httpDuration.WithLabelValues(route, strconv.Itoa(code)).Observe(d.Seconds())
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
