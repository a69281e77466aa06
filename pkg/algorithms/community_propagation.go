package algorithms

import "github.com/dd0wney/cluso-layout/pkg/graph"

// LabelPropagation performs label propagation for community detection
// Fast, scalable algorithm for large graphs. Nodes adopt the label with
// the largest summed edge weight among their neighbours, visited in view
// order; ties keep the current label or go to the smaller one, so runs
// are reproducible.
func LabelPropagation(view graph.View, maxIterations int) (*CommunityDetectionResult, error) {
	adj, err := newAdjacency(view)
	if err != nil {
		return nil, err
	}

	// Initialize: each node in its own community
	labels := make([]int, len(adj.ids))
	for i := range labels {
		labels[i] = i
	}

	// Iterate until convergence or max iterations
	for iter := 0; iter < maxIterations; iter++ {
		changed := false

		for i, neighbors := range adj.neighbors {
			// Weigh neighbour labels
			score := make(map[int]float64)
			for _, nb := range neighbors {
				if nb.node != i {
					score[labels[nb.node]] += nb.weight
				}
			}

			// Find heaviest label; keep the current one on a tie,
			// otherwise prefer the smaller label
			best := -1
			bestScore := 0.0
			for label, s := range score {
				if best == -1 || s > bestScore || (s == bestScore && label < best) {
					best = label
					bestScore = s
				}
			}
			if best == -1 || score[labels[i]] == bestScore {
				continue
			}

			// Update label if changed
			if best != labels[i] {
				labels[i] = best
				changed = true
			}
		}

		if !changed {
			break // Converged
		}
	}

	return adj.result(view, labels), nil
}
