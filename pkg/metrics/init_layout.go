package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initTickMetrics() {
	r.TicksTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "layout_ticks_total",
			Help: "Total number of layout ticks by mode and outcome",
		},
		[]string{"mode", "status"},
	)

	r.TickDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "layout_tick_duration_seconds",
			Help:    "Wall time of one layout tick",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
		[]string{"mode"},
	)

	r.PhaseDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "layout_phase_duration_seconds",
			Help:    "Wall time of one tick phase",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
		[]string{"phase"},
	)

	r.MaxDisplacement = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "layout_max_displacement",
			Help: "Largest committed node displacement of the last tick",
		},
	)
}

func (r *Registry) initGraphMetrics() {
	r.Nodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "layout_nodes",
			Help: "Number of nodes in the current layout snapshot",
		},
	)

	r.Edges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "layout_edges",
			Help: "Number of edges in the current layout snapshot",
		},
	)

	r.Communities = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "layout_communities",
			Help: "Number of communities in the current partition",
		},
	)

	r.CommunityRebuildsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "layout_community_rebuilds_total",
			Help: "Total number of community index builds",
		},
	)
}
