package metrics

import (
	"time"
)

// Every recorder is a no-op on a nil registry so callers may run
// uninstrumented.

// RecordTick records one tick with its outcome and duration
func (r *Registry) RecordTick(mode, status string, duration time.Duration) {
	if r == nil {
		return
	}
	r.TicksTotal.WithLabelValues(mode, status).Inc()
	r.TickDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordPhase records the duration of a single tick phase
func (r *Registry) RecordPhase(phase string, duration time.Duration) {
	if r == nil {
		return
	}
	r.PhaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// SetGraphSize records the snapshot size taken at initialization
func (r *Registry) SetGraphSize(nodes, edges int) {
	if r == nil {
		return
	}
	r.Nodes.Set(float64(nodes))
	r.Edges.Set(float64(edges))
}

// SetCommunities records the size of the current partition
func (r *Registry) SetCommunities(count int) {
	if r == nil {
		return
	}
	r.Communities.Set(float64(count))
}

// RecordRebuild counts a community index build
func (r *Registry) RecordRebuild() {
	if r == nil {
		return
	}
	r.CommunityRebuildsTotal.Inc()
}

// SetMaxDisplacement records the largest displacement committed by a tick
func (r *Registry) SetMaxDisplacement(d float64) {
	if r == nil {
		return
	}
	r.MaxDisplacement.Set(d)
}
