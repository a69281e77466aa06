package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the layout engine
type Registry struct {
	// Tick Metrics
	TicksTotal      *prometheus.CounterVec
	TickDuration    *prometheus.HistogramVec
	PhaseDuration   *prometheus.HistogramVec
	MaxDisplacement prometheus.Gauge

	// Graph Metrics
	Nodes prometheus.Gauge
	Edges prometheus.Gauge

	// Community Metrics
	Communities            prometheus.Gauge
	CommunityRebuildsTotal prometheus.Counter

	registry *prometheus.Registry
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initTickMetrics()
	r.initGraphMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
