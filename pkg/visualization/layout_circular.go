package visualization

import (
	"math"

	"github.com/dd0wney/cluso-layout/pkg/graph"
)

// CircularLayout arranges nodes in a circle around the origin
type CircularLayout struct {
	config *LayoutConfig
}

// NewCircularLayout creates a new circular layout
func NewCircularLayout(config *LayoutConfig) *CircularLayout {
	if config.Padding == 0 {
		config.Padding = 50
	}
	return &CircularLayout{config: config}
}

// ComputeLayout arranges nodes in a circle, in view order
func (cl *CircularLayout) ComputeLayout(view graph.View) (map[uint64]Position, error) {
	nodes := view.Nodes()
	positions := make(map[uint64]Position, len(nodes))

	if len(nodes) == 0 {
		return positions, nil
	}

	radius := math.Max(math.Min(cl.config.Width, cl.config.Height)/2-cl.config.Padding, 0)
	angleStep := 2 * math.Pi / float64(len(nodes))

	for i, n := range nodes {
		angle := float64(i) * angleStep
		positions[n.ID] = Position{
			X: radius * math.Cos(angle),
			Y: radius * math.Sin(angle),
		}
	}

	return positions, nil
}
