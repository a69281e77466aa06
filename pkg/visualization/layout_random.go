package visualization

import (
	"math/rand/v2"

	"github.com/dd0wney/cluso-layout/pkg/graph"
)

// RandomLayout scatters nodes uniformly over a padded canvas centred on
// the origin. The same seed yields the same placement.
type RandomLayout struct {
	config *LayoutConfig
}

// NewRandomLayout creates a new random layout
func NewRandomLayout(config *LayoutConfig) *RandomLayout {
	if config.Padding == 0 {
		config.Padding = 50
	}
	return &RandomLayout{config: config}
}

// ComputeLayout assigns random positions in view order
func (rl *RandomLayout) ComputeLayout(view graph.View) (map[uint64]Position, error) {
	nodes := view.Nodes()
	positions := make(map[uint64]Position, len(nodes))

	rng := rand.New(rand.NewPCG(rl.config.Seed, rl.config.Seed^0x9e3779b97f4a7c15))
	halfW := max(rl.config.Width/2-rl.config.Padding, 0)
	halfH := max(rl.config.Height/2-rl.config.Padding, 0)

	for _, n := range nodes {
		positions[n.ID] = Position{
			X: (rng.Float64()*2 - 1) * halfW,
			Y: (rng.Float64()*2 - 1) * halfH,
		}
	}

	return positions, nil
}
