package layout

import (
	"github.com/dd0wney/cluso-layout/pkg/community"
	"github.com/dd0wney/cluso-layout/pkg/force"
	"github.com/dd0wney/cluso-layout/pkg/graph"
	"github.com/dd0wney/cluso-layout/pkg/parallel"
)

// Phase names, used in TickError, logs and metrics
const (
	PhaseCommunities = "communities"
	PhaseCentroids   = "centroids"
	PhaseRepulsion   = "repulsion"
	PhaseAttraction  = "attraction"
	PhaseCommunity   = "community_attraction"
	PhaseDisplace    = "displacement"
)

// field is the read-only input of one tick plus the accumulator its
// phases write into. Every phase reads points, never node structs, so
// positions stay constant until the tick commits.
type field struct {
	cfg    Config
	k      float64
	nodes  []*graph.Node
	points []force.Point
	fixed  []bool
	links  []force.Link
	index  *community.Index // nil unless communities are in use
	acc    *force.Accumulator
	pool   *parallel.WorkerPool
}

func (f *field) offset(a, b int) (float64, float64) {
	return f.points[a].X - f.points[b].X, f.points[a].Y - f.points[b].Y
}

func (f *field) offsetTo(a int, p force.Point) (float64, float64) {
	return f.points[a].X - p.X, f.points[a].Y - p.Y
}

// repulsion runs the repulsion phase of the active pipeline
func (f *field) repulsion() error {
	if f.cfg.approximate() {
		return f.pool.Run(len(f.points), f.approximateRepulsion)
	}
	return f.pool.Run(len(f.points), f.exactRepulsion)
}

// exactRepulsion pushes node i away from every other node
func (f *field) exactRepulsion(i int) error {
	for j := range f.points {
		if j == i {
			continue
		}
		dx, dy := f.offset(i, j)
		fx, fy := force.Repulsion(f.k, 1, dx, dy)
		f.acc.AddOwned(i, fx, fy)
	}
	return nil
}

// approximateRepulsion pushes node i away from the members of its own
// community and from every other community's centroid, weighted by size.
func (f *field) approximateRepulsion(i int) error {
	own := f.index.CommunityOf(i)

	for ci, c := range f.index.Communities() {
		if ci == own {
			continue
		}
		dx, dy := f.offsetTo(i, c.Centroid)
		fx, fy := force.Repulsion(f.k, float64(c.Size()), dx, dy)
		f.acc.AddOwned(i, fx, fy)
	}

	for _, m := range f.index.Community(own).Members {
		if m == i {
			continue
		}
		dx, dy := f.offset(i, m)
		fx, fy := force.Repulsion(f.k, 1, dx, dy)
		f.acc.AddOwned(i, fx, fy)
	}
	return nil
}

// attraction runs the attraction phase of the active pipeline
func (f *field) attraction() error {
	if f.cfg.approximate() {
		return f.approximateAttraction()
	}
	return f.pool.Run(len(f.links), f.exactAttraction)
}

// sameGroup reports whether an edge joins nodes of one community, or of
// one label when communities are off.
func (f *field) sameGroup(l force.Link) bool {
	if f.index != nil {
		return f.index.SameCommunity(l.Source, l.Target)
	}
	return f.nodes[l.Source].Label == f.nodes[l.Target].Label
}

// exactAttraction pulls the endpoints of link e together
func (f *field) exactAttraction(e int) error {
	l := f.links[e]
	weight := f.cfg.Alpha
	if f.sameGroup(l) {
		weight = 1
	}
	f.attract(l, weight*l.Normalized)
	return nil
}

func (f *field) attract(l force.Link, weight float64) {
	dx, dy := f.offset(l.Source, l.Target)
	fx, fy := force.Attraction(f.k, weight, dx, dy)
	f.acc.Add(l.Source, -fx, -fy)
	f.acc.Add(l.Target, fx, fy)
}

// approximateAttraction applies spring forces along intra-community edges,
// then pulls each node toward the foreign communities it links into.
// The two passes are separate barriers: the first touches both endpoints
// of an edge, the second only its own node.
func (f *field) approximateAttraction() error {
	intra := f.index.IntraEdges()
	err := f.pool.Run(len(intra), func(i int) error {
		l := f.links[intra[i]]
		f.attract(l, l.Normalized)
		return nil
	})
	if err != nil {
		return err
	}

	return f.pool.Run(len(f.points), func(i int) error {
		for ci, w := range f.index.Neighbors(i) {
			dx, dy := f.offsetTo(i, f.index.Community(ci).Centroid)
			fx, fy := force.Attraction(f.k, w*f.cfg.Alpha, dx, dy)
			f.acc.AddOwned(i, -fx, -fy)
		}
		return nil
	})
}

// communityAttraction drags nodes lying outside their community's radius
// back toward its centroid. Nodes inside the radius are untouched.
func (f *field) communityAttraction() error {
	return f.pool.Run(len(f.points), func(i int) error {
		c := f.index.Community(f.index.CommunityOf(i))
		if c.Radius <= 0 {
			return nil
		}

		dx, dy := f.offsetTo(i, c.Centroid)
		dist := force.Norm(dx, dy)
		if dist <= c.Radius {
			return nil
		}

		excess := dist - c.Radius
		weight := force.CommunityPull(excess/c.Radius, c.Size())
		// Attraction over the excess vector has magnitude weight·excess²/k
		fx, fy := force.Attraction(f.k, weight, dx/dist*excess, dy/dist*excess)
		f.acc.AddOwned(i, -fx, -fy)
		return nil
	})
}

// displace adds gravity, applies speed and the displacement clamp, and
// writes each node's next position into next. Fixed nodes keep their
// current position.
func (f *field) displace(next []force.Point, moved []float64) error {
	speed := f.cfg.speedFactor()
	limit := f.cfg.maxDisplacement()

	return f.pool.Run(len(f.points), func(i int) error {
		p := f.points[i]
		gx, gy := force.Gravity(f.k, f.cfg.Gravity, p.X, p.Y)
		f.acc.AddOwned(i, gx, gy)
		f.acc.Scale(i, speed)

		next[i] = p
		moved[i] = 0
		if f.fixed[i] {
			return nil
		}

		dx, dy := f.acc.Get(i)
		dx, dy = force.Clamp(dx, dy, limit)
		next[i] = force.Point{X: p.X + dx, Y: p.Y + dy}
		moved[i] = force.Norm(dx, dy)
		return nil
	})
}
