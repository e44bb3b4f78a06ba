package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Kryostatic94/lsx-signal-workshop/pkg/reactive"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "workshop").
	Namespace string

	// Subsystem is the metrics subsystem (default: "reactive").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for effect and computed durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "workshop",
		Subsystem: "reactive",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a reactive.Observer that records Prometheus metrics.
//
// Metrics collected (with the default namespace and subsystem):
//   - workshop_reactive_signal_writes_total: writes by changed=true|false
//   - workshop_reactive_computed_evaluations_total: computed re-derivations
//   - workshop_reactive_computed_duration_seconds: derivation duration
//   - workshop_reactive_effect_runs_total: effect runs by effect name
//   - workshop_reactive_effect_errors_total: failed effect runs by effect name
//   - workshop_reactive_effect_duration_seconds: effect run duration by name
//   - workshop_reactive_effects_disposed_total: disposed effects
//   - workshop_reactive_flushes_total: completed flushes
//   - workshop_reactive_flush_errors_total: flushes that returned an error
//   - workshop_reactive_flush_effect_runs: effect runs per flush
type Metrics struct {
	signalWrites      *prometheus.CounterVec
	computedEvals     prometheus.Counter
	computedDuration  prometheus.Histogram
	effectRuns        *prometheus.CounterVec
	effectErrors      *prometheus.CounterVec
	effectDuration    *prometheus.HistogramVec
	effectsDisposed   prometheus.Counter
	flushes           prometheus.Counter
	flushErrors       prometheus.Counter
	flushRunsPerFlush prometheus.Histogram
}

var _ reactive.Observer = (*Metrics)(nil)

// NewMetrics registers the runtime metrics with the configured registry.
// Registering twice with the same registry panics, as with promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		signalWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "signal_writes_total",
			Help:        "Total number of signal writes",
			ConstLabels: config.ConstLabels,
		}, []string{"changed"}),

		computedEvals: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "computed_evaluations_total",
			Help:        "Total number of computed value derivations",
			ConstLabels: config.ConstLabels,
		}),

		computedDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "computed_duration_seconds",
			Help:        "Computed value derivation duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		effectRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_runs_total",
			Help:        "Total number of effect runs",
			ConstLabels: config.ConstLabels,
		}, []string{"effect"}),

		effectErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_errors_total",
			Help:        "Total number of failed effect runs",
			ConstLabels: config.ConstLabels,
		}, []string{"effect"}),

		effectDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_duration_seconds",
			Help:        "Effect run duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"effect"}),

		effectsDisposed: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effects_disposed_total",
			Help:        "Total number of disposed effects",
			ConstLabels: config.ConstLabels,
		}),

		flushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_total",
			Help:        "Total number of completed effect flushes",
			ConstLabels: config.ConstLabels,
		}),

		flushErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_errors_total",
			Help:        "Total number of flushes with at least one failed effect",
			ConstLabels: config.ConstLabels,
		}),

		flushRunsPerFlush: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_effect_runs",
			Help:        "Number of effect runs per flush",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 2, 5, 10, 50, 100, 1000},
		}),
	}
}

// SignalWritten implements reactive.Observer.
func (m *Metrics) SignalWritten(_ reactive.NodeID, changed bool) {
	m.signalWrites.WithLabelValues(strconv.FormatBool(changed)).Inc()
}

// ComputedEvaluated implements reactive.Observer.
func (m *Metrics) ComputedEvaluated(_ reactive.NodeID, d time.Duration) {
	m.computedEvals.Inc()
	m.computedDuration.Observe(d.Seconds())
}

// EffectRan implements reactive.Observer.
func (m *Metrics) EffectRan(_ reactive.NodeID, name string, d time.Duration, err error) {
	name = effectLabel(name)
	m.effectRuns.WithLabelValues(name).Inc()
	m.effectDuration.WithLabelValues(name).Observe(d.Seconds())
	if err != nil {
		m.effectErrors.WithLabelValues(name).Inc()
	}
}

// EffectDisposed implements reactive.Observer.
func (m *Metrics) EffectDisposed(reactive.NodeID, string) {
	m.effectsDisposed.Inc()
}

// FlushCompleted implements reactive.Observer.
func (m *Metrics) FlushCompleted(runs int, _ time.Duration, err error) {
	m.flushes.Inc()
	m.flushRunsPerFlush.Observe(float64(runs))
	if err != nil {
		m.flushErrors.Inc()
	}
}

// effectLabel keeps label cardinality bounded: unnamed effects share one
// label value.
func effectLabel(name string) string {
	if name == "" {
		return "anonymous"
	}
	return name
}
