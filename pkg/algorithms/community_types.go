package algorithms

import (
	"github.com/dd0wney/cluso-layout/pkg/graph"
)

// Community represents a detected community
type Community struct {
	ID      int
	Nodes   []uint64
	Size    int
	Density float64 // Edge density within community
}

// CommunityDetectionResult contains detected communities
type CommunityDetectionResult struct {
	Communities   []*Community
	Modularity    float64        // Quality measure of the partitioning
	NodeCommunity map[uint64]int // Node ID -> Community ID
}

// Assign writes each node's community ID to the key attribute, in the
// integer form the layout engine groups by.
func (r *CommunityDetectionResult) Assign(view graph.View, key string) error {
	for _, n := range view.Nodes() {
		id, ok := r.NodeCommunity[n.ID]
		if !ok {
			return graph.NewError("Assign").Node(n.ID).Field(key).Cause(graph.ErrNodeNotFound).Err()
		}
		n.SetAttribute(key, graph.IntValue(int64(id)))
	}
	return nil
}

// neighbor is one weighted adjacency entry
type neighbor struct {
	node   int
	weight float64
}

// adjacency is an undirected weighted view of a graph over node indices
type adjacency struct {
	ids       []uint64
	neighbors [][]neighbor
}

func newAdjacency(view graph.View) (*adjacency, error) {
	nodes := view.Nodes()
	adj := &adjacency{
		ids:       make([]uint64, len(nodes)),
		neighbors: make([][]neighbor, len(nodes)),
	}

	position := make(map[uint64]int, len(nodes))
	for i, n := range nodes {
		adj.ids[i] = n.ID
		position[n.ID] = i
	}

	for _, e := range view.Edges() {
		from, ok := position[e.FromNodeID]
		if !ok {
			return nil, graph.NodeNotFoundError("Adjacency", e.FromNodeID)
		}
		to, ok := position[e.ToNodeID]
		if !ok {
			return nil, graph.NodeNotFoundError("Adjacency", e.ToNodeID)
		}
		adj.neighbors[from] = append(adj.neighbors[from], neighbor{node: to, weight: e.Weight})
		if from != to {
			adj.neighbors[to] = append(adj.neighbors[to], neighbor{node: from, weight: e.Weight})
		}
	}
	return adj, nil
}

// result groups nodes by label, numbering communities in node order
func (adj *adjacency) result(view graph.View, labels []int) *CommunityDetectionResult {
	renumber := make(map[int]int)
	var communities []*Community
	nodeCommunity := make(map[uint64]int, len(labels))

	for i, label := range labels {
		id, ok := renumber[label]
		if !ok {
			id = len(communities)
			renumber[label] = id
			communities = append(communities, &Community{ID: id})
		}
		c := communities[id]
		c.Nodes = append(c.Nodes, adj.ids[i])
		c.Size++
		nodeCommunity[adj.ids[i]] = id
	}

	// Undirected edges inside each community
	internal := make([]int, len(communities))
	for _, e := range view.Edges() {
		from, to := nodeCommunity[e.FromNodeID], nodeCommunity[e.ToNodeID]
		if from == to && e.FromNodeID != e.ToNodeID {
			internal[from]++
		}
	}
	for i, c := range communities {
		if c.Size > 1 {
			c.Density = float64(internal[i]) / float64(c.Size*(c.Size-1)/2)
		}
	}

	return &CommunityDetectionResult{
		Communities:   communities,
		NodeCommunity: nodeCommunity,
		Modularity:    Modularity(view, nodeCommunity),
	}
}
