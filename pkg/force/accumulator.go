package force

import "sync"

// Accumulator holds one displacement vector per node.
//
// Node-indexed phases, where each index is written by exactly one task,
// use AddOwned. Edge-indexed phases touch both endpoints and must use Add,
// which serialises updates per node.
type Accumulator struct {
	dx []float64
	dy []float64
	mu []sync.Mutex
}

// NewAccumulator creates a zeroed accumulator for n nodes
func NewAccumulator(n int) *Accumulator {
	return &Accumulator{
		dx: make([]float64, n),
		dy: make([]float64, n),
		mu: make([]sync.Mutex, n),
	}
}

// Len returns the number of nodes tracked
func (a *Accumulator) Len() int {
	return len(a.dx)
}

// Reset zeroes every vector
func (a *Accumulator) Reset() {
	clear(a.dx)
	clear(a.dy)
}

// Add adds (fx, fy) to node i under the node's lock
func (a *Accumulator) Add(i int, fx, fy float64) {
	a.mu[i].Lock()
	a.dx[i] += fx
	a.dy[i] += fy
	a.mu[i].Unlock()
}

// AddOwned adds (fx, fy) to node i without locking. The caller must be the
// only writer of i for the current phase.
func (a *Accumulator) AddOwned(i int, fx, fy float64) {
	a.dx[i] += fx
	a.dy[i] += fy
}

// Scale multiplies node i's vector by s. Owner-only, like AddOwned.
func (a *Accumulator) Scale(i int, s float64) {
	a.dx[i] *= s
	a.dy[i] *= s
}

// Get returns node i's accumulated displacement
func (a *Accumulator) Get(i int) (float64, float64) {
	return a.dx[i], a.dy[i]
}
