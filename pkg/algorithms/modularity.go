package algorithms

import "github.com/dd0wney/cluso-layout/pkg/graph"

// Modularity computes the weighted Newman modularity of a partition,
// treating edges as undirected:
//
//	Q = Σ_c [ L_c/m - (D_c/2m)² ]
//
// where m is the total edge weight, L_c the weight inside community c and
// D_c the summed weighted degree of its members. Returns 0 for graphs
// without weight. Nodes missing from nodeCommunity are ignored.
func Modularity(view graph.View, nodeCommunity map[uint64]int) float64 {
	var total float64
	inside := make(map[int]float64)
	degree := make(map[int]float64)

	for _, e := range view.Edges() {
		from, okFrom := nodeCommunity[e.FromNodeID]
		to, okTo := nodeCommunity[e.ToNodeID]
		if !okFrom || !okTo {
			continue
		}

		total += e.Weight
		degree[from] += e.Weight
		degree[to] += e.Weight
		if from == to {
			inside[from] += e.Weight
		}
	}

	if total == 0 {
		return 0
	}

	var q float64
	for c, d := range degree {
		share := d / (2 * total)
		q += inside[c]/total - share*share
	}
	return q
}
