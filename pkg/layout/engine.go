// Package layout runs the Fruchterman-Reingold force-directed layout over a
// host graph, one tick at a time.
//
// The engine moves through Uninitialized, Initialized, Running and Finished.
// Initialize snapshots the node and edge order and caches normalized edge
// weights; every Tick then advances all free nodes once and either commits
// every new position or none. The caller decides when to stop.
package layout

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-layout/pkg/community"
	"github.com/dd0wney/cluso-layout/pkg/force"
	"github.com/dd0wney/cluso-layout/pkg/graph"
	"github.com/dd0wney/cluso-layout/pkg/logging"
	"github.com/dd0wney/cluso-layout/pkg/metrics"
	"github.com/dd0wney/cluso-layout/pkg/parallel"
)

// State is the engine lifecycle state
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateRunning
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options configures engine resources
type Options struct {
	Workers int               // Pool size; 0 means parallel.DefaultWorkers()
	Logger  logging.Logger    // nil means no logging
	Metrics *metrics.Registry // nil means no metrics
}

// Engine is a single-driver layout engine. Configuration setters and
// State may be called from any goroutine; Initialize, Tick and Finish
// must come from one driver at a time.
type Engine struct {
	mu          sync.Mutex // Protects cfg, state and invalidated
	cfg         Config
	state       State
	invalidated bool

	workers int
	base    logging.Logger
	logger  logging.Logger
	metrics *metrics.Registry

	ticking atomic.Bool
	ticks   atomic.Uint64
	runID   string

	// Snapshot taken by Initialize, released by Finish
	pool    *parallel.WorkerPool
	nodeIDs []uint64
	edgeIDs []uint64
	links   []force.Link
	acc     *force.Accumulator
	index   *community.Index
}

// NewEngine validates cfg and returns an uninitialized engine
func NewEngine(cfg Config, opts Options) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout config: %w", err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = parallel.DefaultWorkers()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.With(logging.Component("layout"))

	return &Engine{
		cfg:     cfg,
		workers: workers,
		base:    logger,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// Initialize snapshots the view, caches normalized edge weights and starts
// the worker pool. It may be called in any state; a running pool is
// replaced.
func (e *Engine) Initialize(view graph.View) error {
	if view == nil {
		return ErrNilView
	}
	if e.ticking.Load() {
		return ErrTickInProgress
	}

	nodes := view.Nodes()
	edges := view.Edges()

	position := make(map[uint64]int, len(nodes))
	nodeIDs := make([]uint64, len(nodes))
	for i, n := range nodes {
		position[n.ID] = i
		nodeIDs[i] = n.ID
	}

	links := make([]force.Link, len(edges))
	edgeIDs := make([]uint64, len(edges))
	var maxWeight float64
	for i, edge := range edges {
		src, ok := position[edge.FromNodeID]
		if !ok {
			return graph.NodeNotFoundError("Initialize", edge.FromNodeID)
		}
		dst, ok := position[edge.ToNodeID]
		if !ok {
			return graph.NodeNotFoundError("Initialize", edge.ToNodeID)
		}
		links[i] = force.Link{Source: src, Target: dst, Weight: edge.Weight}
		edgeIDs[i] = edge.ID
		maxWeight = max(maxWeight, edge.Weight)
	}

	for i, edge := range edges {
		links[i].Normalized = normalizeWeight(links[i].Weight, maxWeight)
		edge.SetAttribute(graph.NormalizedWeightKey, graph.FloatValue(links[i].Normalized))
	}

	pool, err := parallel.NewWorkerPoolWithLogger(e.workers, e.base)
	if err != nil {
		return fmt.Errorf("start layout workers: %w", err)
	}

	if e.pool != nil {
		e.pool.Close()
	}

	e.pool = pool
	e.nodeIDs = nodeIDs
	e.edgeIDs = edgeIDs
	e.links = links
	e.acc = force.NewAccumulator(len(nodes))
	e.index = nil
	e.ticks.Store(0)
	e.runID = uuid.NewString()
	e.logger = e.base.With(logging.RunID(e.runID))

	e.mu.Lock()
	e.state = StateInitialized
	e.invalidated = false
	e.mu.Unlock()

	e.metrics.SetGraphSize(len(nodes), len(edges))
	e.logger.Info("layout initialized",
		logging.Int("nodes", len(nodes)),
		logging.Int("edges", len(edges)),
		logging.Int("workers", pool.Workers()),
	)
	return nil
}

// normalizeWeight divides by the snapshot maximum; 0 when every weight is 0
func normalizeWeight(weight, maxWeight float64) float64 {
	if maxWeight <= 0 {
		return 0
	}
	return weight / maxWeight
}

// Tick advances the layout by one step. On any error no node moves. A
// missing community attribute is returned as the *community.ConfigurationError
// itself; task failures are wrapped in a *TickError.
func (e *Engine) Tick(ctx context.Context, view graph.View) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !e.ticking.CompareAndSwap(false, true) {
		return ErrTickInProgress
	}
	defer e.ticking.Store(false)

	e.mu.Lock()
	state := e.state
	cfg := e.cfg
	invalidated := e.invalidated
	e.invalidated = false
	e.mu.Unlock()

	if invalidated {
		e.index = nil
	}

	switch state {
	case StateUninitialized:
		return ErrNotInitialized
	case StateFinished:
		return ErrFinished
	}
	if view == nil {
		return ErrNilView
	}

	nodes := view.Nodes()
	if err := e.checkSnapshot(nodes, view.Edges()); err != nil {
		return err
	}

	tick := e.ticks.Load() + 1
	mode := cfg.Mode()
	start := time.Now()
	timer := logging.StartTimer(e.logger, "layout tick", logging.Tick(tick), logging.Mode(mode))

	moved, err := e.step(cfg, nodes, tick)
	if err != nil {
		e.metrics.RecordTick(mode, "error", time.Since(start))
		timer.EndError(err)
		return err
	}

	e.ticks.Store(tick)
	e.mu.Lock()
	if e.state == StateInitialized {
		e.state = StateRunning
	}
	e.mu.Unlock()

	e.metrics.RecordTick(mode, "success", time.Since(start))
	e.metrics.SetMaxDisplacement(moved)
	timer.EndWithLevel(logging.DebugLevel, logging.Float64("max_displacement", moved))
	return nil
}

// checkSnapshot verifies that the view still lists the nodes and edges
// captured at initialization, in the same order.
func (e *Engine) checkSnapshot(nodes []*graph.Node, edges []*graph.Edge) error {
	if len(nodes) != len(e.nodeIDs) || len(edges) != len(e.edgeIDs) {
		return ErrGraphChanged
	}
	for i, n := range nodes {
		if n.ID != e.nodeIDs[i] {
			return ErrGraphChanged
		}
	}
	for i, edge := range edges {
		if edge.ID != e.edgeIDs[i] {
			return ErrGraphChanged
		}
	}
	return nil
}

// phase is one barrier-joined stage of a tick
type phase struct {
	name    string
	enabled bool
	run     func() error
}

// step runs every phase and commits positions. Returns the largest
// committed displacement.
func (e *Engine) step(cfg Config, nodes []*graph.Node, tick uint64) (float64, error) {
	f := &field{
		cfg:    cfg,
		k:      cfg.k(len(nodes)),
		nodes:  nodes,
		points: make([]force.Point, len(nodes)),
		fixed:  make([]bool, len(nodes)),
		links:  e.links,
		acc:    e.acc,
		pool:   e.pool,
	}
	for i, n := range nodes {
		x, y := n.Position()
		f.points[i] = force.Point{X: x, Y: y}
		f.fixed[i] = n.IsFixed()
	}

	if cfg.usesCommunities() {
		if e.index == nil || e.index.Key() != cfg.CommunityColumnName {
			idx, err := e.buildIndex(nodes, cfg.CommunityColumnName)
			if err != nil {
				return 0, err
			}
			e.index = idx
		}
		f.index = e.index
	}

	e.acc.Reset()

	next := make([]force.Point, len(nodes))
	moved := make([]float64, len(nodes))

	phases := []phase{
		{PhaseCentroids, cfg.needsCentroids(), func() error {
			return f.index.UpdateCentroids(f.points, cfg.totalArea(), len(nodes), e.pool)
		}},
		{PhaseRepulsion, true, f.repulsion},
		{PhaseAttraction, true, f.attraction},
		{PhaseCommunity, cfg.pullsToCommunity(), f.communityAttraction},
		{PhaseDisplace, true, func() error { return f.displace(next, moved) }},
	}

	for _, p := range phases {
		if !p.enabled {
			continue
		}
		start := time.Now()
		err := p.run()
		e.metrics.RecordPhase(p.name, time.Since(start))
		if err != nil {
			return 0, &TickError{Tick: tick, Phase: p.name, Err: err}
		}
	}

	var largest float64
	for i, n := range nodes {
		if f.fixed[i] {
			continue
		}
		n.SetPosition(next[i].X, next[i].Y)
		largest = max(largest, moved[i])
	}
	return largest, nil
}

// buildIndex partitions the snapshot and classifies its edges
func (e *Engine) buildIndex(nodes []*graph.Node, key string) (*community.Index, error) {
	start := time.Now()
	idx, err := community.Build(nodes, key)
	if err != nil {
		e.logger.Error("community build failed", logging.String("key", key), logging.Error(err))
		return nil, err
	}
	if err := idx.ClassifyEdges(e.links); err != nil {
		return nil, &TickError{Tick: e.ticks.Load() + 1, Phase: PhaseCommunities, Err: err}
	}
	e.metrics.RecordPhase(PhaseCommunities, time.Since(start))

	e.metrics.RecordRebuild()
	e.metrics.SetCommunities(idx.Len())
	e.logger.Info("communities built",
		logging.String("key", key),
		logging.Communities(idx.Len()),
		logging.Int("intra_edges", len(idx.IntraEdges())),
	)
	return idx, nil
}

// Finish releases the worker pool and per-run state. When view is non-nil
// the cached normalized weights are removed from its edges. Finishing an
// already finished engine is a no-op.
func (e *Engine) Finish(view graph.View) error {
	if e.ticking.Load() {
		return ErrTickInProgress
	}

	e.mu.Lock()
	state := e.state
	e.mu.Unlock()

	switch state {
	case StateUninitialized:
		return ErrNotInitialized
	case StateFinished:
		return nil
	}

	if view != nil {
		for _, edge := range view.Edges() {
			edge.DeleteAttribute(graph.NormalizedWeightKey)
		}
	}

	e.pool.Close()
	e.pool = nil
	e.acc = nil
	e.index = nil
	e.links = nil
	e.nodeIDs = nil
	e.edgeIDs = nil

	e.mu.Lock()
	e.state = StateFinished
	e.mu.Unlock()

	e.logger.Info("layout finished", logging.Uint64("ticks", e.ticks.Load()))
	return nil
}

// State returns the current lifecycle state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// CanTick reports whether Tick would run
func (e *Engine) CanTick() bool {
	s := e.State()
	return s == StateInitialized || s == StateRunning
}

// Ticks returns the number of committed ticks since Initialize
func (e *Engine) Ticks() uint64 {
	return e.ticks.Load()
}

// RunID identifies the current initialization in logs
func (e *Engine) RunID() string {
	return e.runID
}

// Config returns a copy of the current configuration
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// SetConfig replaces the whole configuration. Community structures are
// rebuilt on the next tick when the community settings changed.
func (e *Engine) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.apply(cfg)
	return nil
}

// apply swaps in cfg and flags the community cache. Caller holds mu.
func (e *Engine) apply(cfg Config) {
	old := e.cfg
	if old.Approximate != cfg.Approximate ||
		(!old.UseCommunityDetection && cfg.UseCommunityDetection) ||
		old.CommunityColumnName != cfg.CommunityColumnName {
		e.invalidated = true
	}
	e.cfg = cfg
}

func (e *Engine) update(fn func(*Config)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg := e.cfg
	fn(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.apply(cfg)
	return nil
}

// SetArea sets the layout area
func (e *Engine) SetArea(area float64) error {
	return e.update(func(c *Config) { c.Area = area })
}

// SetGravity sets the pull toward the origin
func (e *Engine) SetGravity(gravity float64) error {
	return e.update(func(c *Config) { c.Gravity = gravity })
}

// SetSpeed sets the displacement scale
func (e *Engine) SetSpeed(speed float64) error {
	return e.update(func(c *Config) { c.Speed = speed })
}

// SetAlpha sets the attraction discount for cross-group edges
func (e *Engine) SetAlpha(alpha float64) error {
	return e.update(func(c *Config) { c.Alpha = alpha })
}

// SetUseCommunityDetection toggles community-aware weighting
func (e *Engine) SetUseCommunityDetection(on bool) error {
	return e.update(func(c *Config) { c.UseCommunityDetection = on })
}

// SetApproximate toggles the centroid-approximated pipeline
func (e *Engine) SetApproximate(on bool) error {
	return e.update(func(c *Config) { c.Approximate = on })
}

// SetCommunityAttraction toggles the pull toward community centroids
func (e *Engine) SetCommunityAttraction(on bool) error {
	return e.update(func(c *Config) { c.CommunityAttraction = on })
}

// SetCommunityColumnName sets the node attribute holding the community id
func (e *Engine) SetCommunityColumnName(name string) error {
	return e.update(func(c *Config) { c.CommunityColumnName = name })
}
