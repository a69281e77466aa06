// Package community partitions layout nodes by a community attribute and
// keeps the per-community aggregates the approximate force pipeline uses.
//
// Membership and edge classification are built once per layout
// initialization. Centroids and radii move with the nodes and are
// refreshed every tick with UpdateCentroids.
package community

import (
	"fmt"
	"math"

	"github.com/dd0wney/cluso-layout/pkg/force"
	"github.com/dd0wney/cluso-layout/pkg/graph"
	"github.com/dd0wney/cluso-layout/pkg/parallel"
)

// Community is one partition cell. Members and Edges are fixed after
// Build/ClassifyEdges; Centroid and Radius are rewritten by UpdateCentroids.
type Community struct {
	ID      string      // Canonical key of the attribute value
	Value   graph.Value // Attribute value shared by all members
	Members []int       // Node indices, in snapshot order
	Edges   []int       // Indices of edges with both endpoints inside

	Centroid force.Point
	Radius   float64
}

// Size returns the number of member nodes
func (c *Community) Size() int {
	return len(c.Members)
}

// NeighborWeights maps a foreign community index to the summed weight of a
// node's edges that cross into it.
type NeighborWeights map[int]float64

// Index is the community partition of one layout snapshot
type Index struct {
	key         string
	communities []*Community
	byID        map[string]int
	membership  []int             // node index -> community index
	neighbors   []NeighborWeights // node index -> crossing weights, nil if none
	intraEdges  []int
}

// Build groups nodes by the value of key. Communities are numbered in
// order of first appearance. A node without the attribute fails the whole
// build with a ConfigurationError.
func Build(nodes []*graph.Node, key string) (*Index, error) {
	idx := &Index{
		key:        key,
		byID:       make(map[string]int),
		membership: make([]int, len(nodes)),
		neighbors:  make([]NeighborWeights, len(nodes)),
	}

	for i, n := range nodes {
		value, ok := n.Attribute(key)
		if !ok {
			return nil, &ConfigurationError{Key: key, NodeID: n.ID}
		}

		id := value.Key()
		ci, exists := idx.byID[id]
		if !exists {
			ci = len(idx.communities)
			idx.byID[id] = ci
			idx.communities = append(idx.communities, &Community{ID: id, Value: value})
		}

		c := idx.communities[ci]
		c.Members = append(c.Members, i)
		idx.membership[i] = ci
	}

	return idx, nil
}

// ClassifyEdges sorts every link into exactly one bucket: the edge set of
// the community containing both endpoints, or, for crossing links, the
// neighbour weights of both endpoints. Calling it again starts over.
func (idx *Index) ClassifyEdges(links []force.Link) error {
	for _, c := range idx.communities {
		c.Edges = c.Edges[:0]
	}
	clear(idx.neighbors)
	idx.intraEdges = idx.intraEdges[:0]

	for ei, l := range links {
		if l.Source < 0 || l.Source >= len(idx.membership) || l.Target < 0 || l.Target >= len(idx.membership) {
			return fmt.Errorf("edge %d references node outside the partition", ei)
		}

		sc := idx.membership[l.Source]
		tc := idx.membership[l.Target]

		if sc == tc {
			idx.communities[sc].Edges = append(idx.communities[sc].Edges, ei)
			idx.intraEdges = append(idx.intraEdges, ei)
			continue
		}

		idx.addNeighbor(l.Source, tc, l.Weight)
		idx.addNeighbor(l.Target, sc, l.Weight)
	}

	return nil
}

func (idx *Index) addNeighbor(node, community int, weight float64) {
	if idx.neighbors[node] == nil {
		idx.neighbors[node] = make(NeighborWeights)
	}
	idx.neighbors[node][community] += weight
}

// UpdateCentroids recomputes every centroid as the mean of its members'
// positions and sets radius = sqrt(totalArea·|members|/totalNodes)/2. One
// pool task per community; returns after all have finished.
func (idx *Index) UpdateCentroids(points []force.Point, totalArea float64, totalNodes int, pool *parallel.WorkerPool) error {
	if len(points) != len(idx.membership) {
		return fmt.Errorf("update centroids: %d positions for %d nodes", len(points), len(idx.membership))
	}

	err := pool.Run(len(idx.communities), func(ci int) error {
		c := idx.communities[ci]

		var x, y float64
		for _, m := range c.Members {
			x += points[m].X
			y += points[m].Y
		}
		size := float64(len(c.Members))
		c.Centroid = force.Point{X: x / size, Y: y / size}

		if totalNodes > 0 {
			c.Radius = math.Sqrt(totalArea*size/float64(totalNodes)) / 2
		} else {
			c.Radius = 0
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update centroids: %w", err)
	}
	return nil
}

// Key returns the attribute the index was built from
func (idx *Index) Key() string {
	return idx.key
}

// Len returns the number of communities
func (idx *Index) Len() int {
	return len(idx.communities)
}

// NodeCount returns the number of partitioned nodes
func (idx *Index) NodeCount() int {
	return len(idx.membership)
}

// Community returns community ci
func (idx *Index) Community(ci int) *Community {
	return idx.communities[ci]
}

// Communities returns all communities in index order
func (idx *Index) Communities() []*Community {
	return idx.communities
}

// Lookup finds a community by attribute value
func (idx *Index) Lookup(value graph.Value) (*Community, bool) {
	ci, ok := idx.byID[value.Key()]
	if !ok {
		return nil, false
	}
	return idx.communities[ci], true
}

// CommunityOf returns the community index of node i
func (idx *Index) CommunityOf(node int) int {
	return idx.membership[node]
}

// SameCommunity reports whether two nodes share a community
func (idx *Index) SameCommunity(a, b int) bool {
	return idx.membership[a] == idx.membership[b]
}

// Neighbors returns the crossing weights of node i, nil if it has none
func (idx *Index) Neighbors(node int) NeighborWeights {
	return idx.neighbors[node]
}

// IntraEdges returns the indices of all edges that lie inside a community
func (idx *Index) IntraEdges() []int {
	return idx.intraEdges
}

// Partition returns community id -> member node indices, for comparing
// two builds.
func (idx *Index) Partition() map[string][]int {
	out := make(map[string][]int, len(idx.communities))
	for _, c := range idx.communities {
		out[c.ID] = append([]int(nil), c.Members...)
	}
	return out
}
