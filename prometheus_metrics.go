package guidestore

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const promNamespace = "guidestore"

// PrometheusMetrics implements the Metrics interface using Prometheus
type PrometheusMetrics struct {
	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
	registry   *prometheus.Registry
}

// NewPrometheusMetrics creates a new Prometheus metrics instance.
// If registry is nil a fresh registry is created; expose it with Registry().
func NewPrometheusMetrics(registry *prometheus.Registry) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	pm := &PrometheusMetrics{
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		registry:   registry,
	}

	pm.registerDefaultMetrics()
	return pm
}

func (p *PrometheusMetrics) registerDefaultMetrics() {
	factory := promauto.With(p.registry)
	storeLabels := []string{"operation", "backend"}

	p.counters[MetricStoreOps] = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: promNamespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Total number of store operations",
		},
		storeLabels,
	)

	p.counters[MetricStoreErrors] = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: promNamespace,
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Total number of failed store operations",
		},
		storeLabels,
	)

	p.histograms[MetricStoreDuration] = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: promNamespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Store operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		storeLabels,
	)

	p.histograms[MetricQueryResults] = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: promNamespace,
			Subsystem: "query",
			Name:      "results",
			Help:      "Number of tutorials returned by list queries",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"backend"},
	)

	p.counters[MetricMigrationAdded] = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: promNamespace,
			Subsystem: "migration",
			Name:      "added_total",
			Help:      "Legacy public categories converted into unified categories",
		},
		[]string{},
	)

	p.counters[MetricMigrationSkipped] = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: promNamespace,
			Subsystem: "migration",
			Name:      "skipped_total",
			Help:      "Legacy public categories already covered by a unified category",
		},
		[]string{},
	)

	p.counters[MetricBackendFallback] = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: promNamespace,
			Subsystem: "backend",
			Name:      "fallback_total",
			Help:      "Startups that fell back from the managed backend to the flat-file store",
		},
		[]string{},
	)
}

// Increment increments a Prometheus counter
func (p *PrometheusMetrics) Increment(name string, tags ...string) {
	p.mu.Lock()
	counter, ok := p.counters[name]
	if !ok {
		counter = promauto.With(p.registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: promNamespace,
				Name:      promName(name),
				Help:      "Dynamic counter: " + name,
			},
			extractLabels(tags),
		)
		p.counters[name] = counter
	}
	p.mu.Unlock()

	counter.With(extractLabelValues(tags)).Inc()
}

// Gauge sets a Prometheus gauge value
func (p *PrometheusMetrics) Gauge(name string, value float64, tags ...string) {
	p.mu.Lock()
	gauge, ok := p.gauges[name]
	if !ok {
		gauge = promauto.With(p.registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: promNamespace,
				Name:      promName(name),
				Help:      "Dynamic gauge: " + name,
			},
			extractLabels(tags),
		)
		p.gauges[name] = gauge
	}
	p.mu.Unlock()

	gauge.With(extractLabelValues(tags)).Set(value)
}

// Histogram records a value in a Prometheus histogram
func (p *PrometheusMetrics) Histogram(name string, value float64, tags ...string) {
	p.mu.Lock()
	histogram, ok := p.histograms[name]
	if !ok {
		histogram = promauto.With(p.registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: promNamespace,
				Name:      promName(name),
				Help:      "Dynamic histogram: " + name,
				Buckets:   prometheus.DefBuckets,
			},
			extractLabels(tags),
		)
		p.histograms[name] = histogram
	}
	p.mu.Unlock()

	histogram.With(extractLabelValues(tags)).Observe(value)
}

// Timing records a duration in a Prometheus histogram
func (p *PrometheusMetrics) Timing(name string, duration time.Duration, tags ...string) {
	p.Histogram(name, duration.Seconds(), tags...)
}

// Registry returns the underlying Prometheus registry
func (p *PrometheusMetrics) Registry() *prometheus.Registry {
	return p.registry
}

// promName turns a dotted metric name into a valid Prometheus name.
func promName(name string) string {
	out := []byte(name)
	for i, c := range out {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_') {
			out[i] = '_'
		}
	}
	return string(out)
}

// extractLabels extracts label names from tags (every even index)
func extractLabels(tags []string) []string {
	labels := make([]string, 0, len(tags)/2)
	for i := 0; i+1 < len(tags); i += 2 {
		labels = append(labels, tags[i])
	}
	return labels
}

// extractLabelValues creates a label map from tags (key-value pairs)
func extractLabelValues(tags []string) prometheus.Labels {
	labels := make(prometheus.Labels, len(tags)/2)
	for i := 0; i+1 < len(tags); i += 2 {
		labels[tags[i]] = tags[i+1]
	}
	return labels
}
