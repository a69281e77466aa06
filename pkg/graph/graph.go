// Package graph is the in-memory host graph the layout engine runs against.
//
// The graph owns node and edge storage and the lock that protects it. The
// layout engine only ever sees a View, handed to it for the duration of a
// read-lock scope opened by the caller:
//
//	err := g.Read(func(v graph.View) error {
//	    return engine.Tick(ctx, v)
//	})
//
// Positions are mutated under the read lock. The structure (node and edge
// sets) is what the lock protects; the layout engine is the only writer of
// positions while it holds a View.
package graph

import (
	"math"
	"sync"
)

// NormalizedWeightKey is the edge attribute holding weight / max weight,
// cached by the layout engine during initialization.
const NormalizedWeightKey = "normalized_weight"

// Node represents a vertex with a mutable 2D position
type Node struct {
	ID         uint64
	Label      string
	X          float64
	Y          float64
	Fixed      bool
	Properties map[string]Value
}

// Position returns the node's current coordinates
func (n *Node) Position() (float64, float64) {
	return n.X, n.Y
}

// SetPosition moves the node
func (n *Node) SetPosition(x, y float64) {
	n.X = x
	n.Y = y
}

// IsFixed reports whether layouts must leave the node in place
func (n *Node) IsFixed() bool {
	return n.Fixed
}

// Attribute returns a named attribute
func (n *Node) Attribute(key string) (Value, bool) {
	v, ok := n.Properties[key]
	return v, ok
}

// SetAttribute sets a named attribute
func (n *Node) SetAttribute(key string, value Value) {
	if n.Properties == nil {
		n.Properties = make(map[string]Value)
	}
	n.Properties[key] = value
}

// Edge represents a weighted relationship between two nodes
type Edge struct {
	ID         uint64
	FromNodeID uint64
	ToNodeID   uint64
	Weight     float64
	Properties map[string]Value
}

// Attribute returns a named attribute
func (e *Edge) Attribute(key string) (Value, bool) {
	v, ok := e.Properties[key]
	return v, ok
}

// SetAttribute sets a named attribute
func (e *Edge) SetAttribute(key string, value Value) {
	if e.Properties == nil {
		e.Properties = make(map[string]Value)
	}
	e.Properties[key] = value
}

// DeleteAttribute removes a named attribute
func (e *Edge) DeleteAttribute(key string) {
	delete(e.Properties, key)
}

// View is the read-locked capability a layout receives. Implementations
// return nodes and edges in a stable order for as long as the structure
// is unchanged.
type View interface {
	Nodes() []*Node
	Edges() []*Edge
	Node(id uint64) (*Node, bool)
}

// Graph is an in-memory, insertion-ordered graph
type Graph struct {
	mu sync.RWMutex

	nodes     map[uint64]*Node
	edges     map[uint64]*Edge
	nodeOrder []*Node
	edgeOrder []*Edge

	nextNodeID uint64
	nextEdgeID uint64
}

// New creates an empty graph
func New() *Graph {
	return &Graph{
		nodes:      make(map[uint64]*Node),
		edges:      make(map[uint64]*Edge),
		nextNodeID: 1,
		nextEdgeID: 1,
	}
}

// AddNode inserts a node. A zero ID is replaced by the next free ID.
func (g *Graph) AddNode(node *Node) (*Node, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if node.ID == 0 {
		node.ID = g.nextNodeID
	}
	if _, exists := g.nodes[node.ID]; exists {
		return nil, NewError("AddNode").Node(node.ID).Cause(ErrDuplicateNode).Err()
	}
	if node.Properties == nil {
		node.Properties = make(map[string]Value)
	}
	if node.ID >= g.nextNodeID {
		g.nextNodeID = node.ID + 1
	}

	g.nodes[node.ID] = node
	g.nodeOrder = append(g.nodeOrder, node)
	return node, nil
}

// CreateNode is a shorthand for AddNode with an auto-assigned ID
func (g *Graph) CreateNode(label string, x, y float64, properties map[string]Value) *Node {
	node, _ := g.AddNode(&Node{Label: label, X: x, Y: y, Properties: properties})
	return node
}

// CreateEdge connects two existing nodes
func (g *Graph) CreateEdge(fromID, toID uint64, weight float64) (*Edge, error) {
	if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return nil, NewError("CreateEdge").Document().Field("weight").Cause(ErrInvalidWeight).Err()
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[fromID]; !ok {
		return nil, NodeNotFoundError("CreateEdge", fromID)
	}
	if _, ok := g.nodes[toID]; !ok {
		return nil, NodeNotFoundError("CreateEdge", toID)
	}

	edge := &Edge{
		ID:         g.nextEdgeID,
		FromNodeID: fromID,
		ToNodeID:   toID,
		Weight:     weight,
		Properties: make(map[string]Value),
	}
	g.nextEdgeID++

	g.edges[edge.ID] = edge
	g.edgeOrder = append(g.edgeOrder, edge)
	return edge, nil
}

// GetNode retrieves a node by ID
func (g *Graph) GetNode(id uint64) (*Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, ok := g.nodes[id]
	if !ok {
		return nil, NodeNotFoundError("GetNode", id)
	}
	return node, nil
}

// GetEdge retrieves an edge by ID
func (g *Graph) GetEdge(id uint64) (*Edge, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edge, ok := g.edges[id]
	if !ok {
		return nil, EdgeNotFoundError("GetEdge", id)
	}
	return edge, nil
}

// SetFixed pins or releases a node
func (g *Graph) SetFixed(id uint64, fixed bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	node, ok := g.nodes[id]
	if !ok {
		return NodeNotFoundError("SetFixed", id)
	}
	node.Fixed = fixed
	return nil
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodeOrder)
}

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edgeOrder)
}

// Read runs fn inside a read-lock scope
func (g *Graph) Read(fn func(View) error) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return fn(lockedView{g})
}

// Update runs fn inside a write-lock scope
func (g *Graph) Update(fn func(View) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(lockedView{g})
}

// lockedView exposes the graph without taking the lock again
type lockedView struct {
	g *Graph
}

func (v lockedView) Nodes() []*Node {
	return v.g.nodeOrder
}

func (v lockedView) Edges() []*Edge {
	return v.g.edgeOrder
}

func (v lockedView) Node(id uint64) (*Node, bool) {
	node, ok := v.g.nodes[id]
	return node, ok
}
