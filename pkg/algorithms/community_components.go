package algorithms

import (
	"container/list"

	"github.com/dd0wney/cluso-layout/pkg/graph"
)

// ConnectedComponents finds all connected components in the graph,
// ignoring edge direction. Components are numbered in view order.
func ConnectedComponents(view graph.View) (*CommunityDetectionResult, error) {
	adj, err := newAdjacency(view)
	if err != nil {
		return nil, err
	}

	labels := make([]int, len(adj.ids))
	visited := make([]bool, len(adj.ids))
	component := 0

	// BFS to find each component
	for start := range adj.ids {
		if visited[start] {
			continue
		}

		queue := list.New()
		queue.PushBack(start)
		visited[start] = true

		for queue.Len() > 0 {
			node, ok := queue.Remove(queue.Front()).(int)
			if !ok {
				continue
			}
			labels[node] = component

			for _, nb := range adj.neighbors[node] {
				if !visited[nb.node] {
					visited[nb.node] = true
					queue.PushBack(nb.node)
				}
			}
		}

		component++
	}

	return adj.result(view, labels), nil
}
