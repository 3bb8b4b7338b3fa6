package build

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the build pass metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "elemtree").
	Namespace string

	// Subsystem is the metrics subsystem (default: "build").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for pass duration.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the build pass metrics.
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
		Namespace: "elemtree",
		Subsystem: "build",
		// Build passes are in-memory; most finish well under a millisecond.
		Buckets:  []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
		Registry: prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors for build passes.
type Metrics struct {
	passesTotal      *prometheus.CounterVec
	passDuration     prometheus.Histogram
	elementsInserted prometheus.Counter
	violations       *prometheus.CounterVec
	snapshotElements prometheus.Gauge
	snapshotRoots    prometheus.Gauge
	missingDebug     prometheus.Gauge
}

// NewMetrics creates and registers the build pass collectors.
//
// Metrics collected:
//   - elemtree_build_passes_total: Counter of passes by status (ok, aborted, error)
//   - elemtree_build_pass_duration_seconds: Histogram of pass duration
//   - elemtree_build_elements_inserted_total: Counter of elements inserted by successful passes
//   - elemtree_build_stack_violations_total: Counter of stack-discipline violations by code
//   - elemtree_build_snapshot_elements: Gauge of elements in the last finished snapshot
//   - elemtree_build_snapshot_roots: Gauge of roots in the last finished snapshot
//   - elemtree_build_missing_debug_elements: Gauge of elements without a debug formatter
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		passesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "passes_total",
			Help:        "Total number of build passes by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		passDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pass_duration_seconds",
			Help:        "Build pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		elementsInserted: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "elements_inserted_total",
			Help:        "Total number of elements inserted by successful build passes",
			ConstLabels: config.ConstLabels,
		}),

		violations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stack_violations_total",
			Help:        "Total number of stack-discipline violations by error code",
			ConstLabels: config.ConstLabels,
		}, []string{"code"}),

		snapshotElements: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "snapshot_elements",
			Help:        "Number of elements in the last finished snapshot",
			ConstLabels: config.ConstLabels,
		}),

		snapshotRoots: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "snapshot_roots",
			Help:        "Number of roots in the last finished snapshot",
			ConstLabels: config.ConstLabels,
		}),

		missingDebug: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "missing_debug_elements",
			Help:        "Elements in the last finished snapshot whose type has no debug formatter",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) record(stats Stats, status, code string) {
	if m == nil {
		return
	}
	m.passesTotal.WithLabelValues(status).Inc()
	m.passDuration.Observe(stats.Duration.Seconds())
	if code != "" {
		m.violations.WithLabelValues(code).Inc()
	}
	if status != statusOK {
		return
	}
	m.elementsInserted.Add(float64(stats.Elements))
	m.snapshotElements.Set(float64(stats.Elements))
	m.snapshotRoots.Set(float64(stats.Roots))
	m.missingDebug.Set(float64(stats.MissingDebug))
}
