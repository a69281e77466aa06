// Package visualization seeds initial node positions and prepares layout
// results for display. The force engine never places nodes itself.
package visualization

import (
	"github.com/dd0wney/cluso-layout/pkg/graph"
)

// Position represents a 2D coordinate
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LayoutConfig configures layout parameters
type LayoutConfig struct {
	Width   float64 // Canvas width
	Height  float64 // Canvas height
	Padding float64 // Padding from edges
	Seed    uint64  // Seed for randomized placements
}

// Layout interface for different placement algorithms
type Layout interface {
	ComputeLayout(view graph.View) (map[uint64]Position, error)
}

// Apply moves every non-fixed node of view to its computed position
func Apply(view graph.View, positions map[uint64]Position) {
	for _, n := range view.Nodes() {
		if n.IsFixed() {
			continue
		}
		if pos, ok := positions[n.ID]; ok {
			n.SetPosition(pos.X, pos.Y)
		}
	}
}

// Place computes a layout and applies it in one step
func Place(view graph.View, layout Layout) error {
	positions, err := layout.ComputeLayout(view)
	if err != nil {
		return err
	}
	Apply(view, positions)
	return nil
}

// Snapshot reads the current node positions of view
func Snapshot(view graph.View) map[uint64]Position {
	positions := make(map[uint64]Position, len(view.Nodes()))
	for _, n := range view.Nodes() {
		x, y := n.Position()
		positions[n.ID] = Position{X: x, Y: y}
	}
	return positions
}
