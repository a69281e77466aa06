package community

import (
	"errors"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-layout/pkg/force"
	"github.com/dd0wney/cluso-layout/pkg/graph"
	"github.com/dd0wney/cluso-layout/pkg/parallel"
)

const classKey = "modularity_class"

func newPool(t *testing.T) *parallel.WorkerPool {
	t.Helper()
	pool, err := parallel.NewWorkerPool(3)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

// nodesWithClasses builds one node per entry, attribute = entry
func nodesWithClasses(classes ...int64) []*graph.Node {
	nodes := make([]*graph.Node, len(classes))
	for i, c := range classes {
		nodes[i] = &graph.Node{
			ID:         uint64(i + 1),
			Properties: map[string]graph.Value{classKey: graph.IntValue(c)},
		}
	}
	return nodes
}

func TestBuildGroupsByAttribute(t *testing.T) {
	idx, err := Build(nodesWithClasses(0, 1, 0, 2, 1), classKey)
	require.NoError(t, err)

	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, 5, idx.NodeCount())
	assert.Equal(t, classKey, idx.Key())

	// First-appearance order
	assert.Equal(t, []int{0, 2}, idx.Community(0).Members)
	assert.Equal(t, []int{1, 4}, idx.Community(1).Members)
	assert.Equal(t, []int{3}, idx.Community(2).Members)

	c, ok := idx.Lookup(graph.IntValue(1))
	require.True(t, ok)
	assert.Equal(t, 2, c.Size())

	assert.True(t, idx.SameCommunity(0, 2))
	assert.False(t, idx.SameCommunity(0, 1))
}

func TestBuildAcceptsAnyValueType(t *testing.T) {
	nodes := []*graph.Node{
		{ID: 1, Properties: map[string]graph.Value{"team": graph.StringValue("red")}},
		{ID: 2, Properties: map[string]graph.Value{"team": graph.StringValue("blue")}},
		{ID: 3, Properties: map[string]graph.Value{"team": graph.StringValue("red")}},
		// Same digits, different type: a distinct community
		{ID: 4, Properties: map[string]graph.Value{"team": graph.IntValue(1)}},
		{ID: 5, Properties: map[string]graph.Value{"team": graph.FloatValue(1)}},
	}

	idx, err := Build(nodes, "team")
	require.NoError(t, err)
	assert.Equal(t, 4, idx.Len())
}

func TestBuildMissingAttribute(t *testing.T) {
	nodes := nodesWithClasses(0, 1)
	nodes = append(nodes, &graph.Node{ID: 42})

	idx, err := Build(nodes, classKey)
	assert.Nil(t, idx)
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, uint64(42), cfgErr.NodeID)
	assert.Equal(t, classKey, cfgErr.Key)
	assert.True(t, errors.Is(err, ErrMissingAttribute))
	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "run community detection first")
}

func TestClassifyEdges(t *testing.T) {
	idx, err := Build(nodesWithClasses(0, 0, 1, 1), classKey)
	require.NoError(t, err)

	links := []force.Link{
		{Source: 0, Target: 1, Weight: 1},   // intra 0
		{Source: 2, Target: 3, Weight: 2},   // intra 1
		{Source: 0, Target: 2, Weight: 3},   // crossing
		{Source: 1, Target: 2, Weight: 0.5}, // crossing
		{Source: 0, Target: 3, Weight: 1},   // crossing
	}
	require.NoError(t, idx.ClassifyEdges(links))

	assert.Equal(t, []int{0}, idx.Community(0).Edges)
	assert.Equal(t, []int{1}, idx.Community(1).Edges)
	assert.ElementsMatch(t, []int{0, 1}, idx.IntraEdges())

	// Both endpoints receive the crossing weight
	assert.Equal(t, NeighborWeights{1: 4}, idx.Neighbors(0))
	assert.Equal(t, NeighborWeights{1: 0.5}, idx.Neighbors(1))
	assert.Equal(t, NeighborWeights{0: 3.5}, idx.Neighbors(2))
	assert.Equal(t, NeighborWeights{0: 1}, idx.Neighbors(3))

	// Own community never appears among neighbours
	for i := 0; i < idx.NodeCount(); i++ {
		_, self := idx.Neighbors(i)[idx.CommunityOf(i)]
		assert.False(t, self, "node %d lists its own community", i)
	}

	// Reclassifying starts from scratch
	require.NoError(t, idx.ClassifyEdges(links[:1]))
	assert.Equal(t, []int{0}, idx.Community(0).Edges)
	assert.Empty(t, idx.Community(1).Edges)
	assert.Nil(t, idx.Neighbors(0))
}

func TestClassifyEdgesOutOfRange(t *testing.T) {
	idx, err := Build(nodesWithClasses(0), classKey)
	require.NoError(t, err)
	assert.Error(t, idx.ClassifyEdges([]force.Link{{Source: 0, Target: 5}}))
}

func TestUpdateCentroids(t *testing.T) {
	pool := newPool(t)
	idx, err := Build(nodesWithClasses(0, 0, 1), classKey)
	require.NoError(t, err)

	points := []force.Point{{X: 0, Y: 0}, {X: 4, Y: 2}, {X: -3, Y: 7}}
	require.NoError(t, idx.UpdateCentroids(points, 1000, 3, pool))

	assert.Equal(t, force.Point{X: 2, Y: 1}, idx.Community(0).Centroid)
	assert.Equal(t, force.Point{X: -3, Y: 7}, idx.Community(1).Centroid)

	assert.InDelta(t, math.Sqrt(1000*2.0/3.0)/2, idx.Community(0).Radius, 1e-12)
	assert.InDelta(t, math.Sqrt(1000*1.0/3.0)/2, idx.Community(1).Radius, 1e-12)

	// Positions move, centroids follow
	points[0] = force.Point{X: 10, Y: 10}
	require.NoError(t, idx.UpdateCentroids(points, 1000, 3, pool))
	assert.Equal(t, force.Point{X: 7, Y: 6}, idx.Community(0).Centroid)
}

func TestUpdateCentroidsLengthMismatch(t *testing.T) {
	pool := newPool(t)
	idx, err := Build(nodesWithClasses(0, 1), classKey)
	require.NoError(t, err)
	assert.Error(t, idx.UpdateCentroids([]force.Point{{}}, 1, 2, pool))
}

func TestUpdateCentroidsClosedPool(t *testing.T) {
	pool, err := parallel.NewWorkerPool(1)
	require.NoError(t, err)
	pool.Close()

	idx, err := Build(nodesWithClasses(0), classKey)
	require.NoError(t, err)
	assert.ErrorIs(t, idx.UpdateCentroids([]force.Point{{}}, 1, 1, pool), parallel.ErrPoolClosed)
}

func TestPartitionProperties(t *testing.T) {
	pool := newPool(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	classes := gen.SliceOfN(40, gen.Int64Range(0, 5))
	edgeEnds := gen.SliceOfN(60, gen.IntRange(0, 39))

	properties.Property("every node in exactly one community", prop.ForAll(
		func(cs []int64) bool {
			idx, err := Build(nodesWithClasses(cs...), classKey)
			if err != nil {
				return false
			}
			seen := make(map[int]int)
			for _, c := range idx.Communities() {
				for _, m := range c.Members {
					seen[m]++
				}
			}
			if len(seen) != len(cs) {
				return false
			}
			for _, count := range seen {
				if count != 1 {
					return false
				}
			}
			return true
		},
		classes,
	))

	properties.Property("every edge classified exactly once", prop.ForAll(
		func(cs []int64, srcs, dsts []int) bool {
			idx, err := Build(nodesWithClasses(cs...), classKey)
			if err != nil {
				return false
			}
			links := make([]force.Link, len(srcs))
			crossing := 0
			for i := range srcs {
				links[i] = force.Link{Source: srcs[i], Target: dsts[i], Weight: 1}
				if cs[srcs[i]] != cs[dsts[i]] {
					crossing++
				}
			}
			if err := idx.ClassifyEdges(links); err != nil {
				return false
			}

			intra := 0
			for _, c := range idx.Communities() {
				intra += len(c.Edges)
			}

			// Each crossing edge adds weight 1 to both endpoints
			var neighborWeight float64
			for i := 0; i < idx.NodeCount(); i++ {
				for _, w := range idx.Neighbors(i) {
					neighborWeight += w
				}
			}

			return intra+crossing == len(links) && neighborWeight == float64(2*crossing)
		},
		classes, edgeEnds, edgeEnds,
	))

	properties.Property("centroid is the mean of members", prop.ForAll(
		func(cs []int64, xs, ys []float64) bool {
			idx, err := Build(nodesWithClasses(cs...), classKey)
			if err != nil {
				return false
			}
			points := make([]force.Point, len(cs))
			for i := range points {
				points[i] = force.Point{X: xs[i], Y: ys[i]}
			}
			if err := idx.UpdateCentroids(points, 1e8, len(cs), pool); err != nil {
				return false
			}
			for _, c := range idx.Communities() {
				var sx, sy float64
				for _, m := range c.Members {
					sx += points[m].X
					sy += points[m].Y
				}
				n := float64(c.Size())
				if math.Abs(c.Centroid.X-sx/n) > 1e-9 || math.Abs(c.Centroid.Y-sy/n) > 1e-9 {
					return false
				}
			}
			return true
		},
		classes,
		gen.SliceOfN(40, gen.Float64Range(-1e4, 1e4)),
		gen.SliceOfN(40, gen.Float64Range(-1e4, 1e4)),
	))

	properties.Property("rebuilding yields the same partition", prop.ForAll(
		func(cs []int64) bool {
			nodes := nodesWithClasses(cs...)
			a, errA := Build(nodes, classKey)
			b, errB := Build(nodes, classKey)
			if errA != nil || errB != nil {
				return false
			}
			return assert.ObjectsAreEqual(a.Partition(), b.Partition())
		},
		classes,
	))

	properties.TestingRun(t)
}
