package visualization

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/dd0wney/cluso-layout/pkg/graph"
)

func lineGraph(t *testing.T, n int) *graph.Graph {
	t.Helper()
	g := graph.New()
	var prev *graph.Node
	for i := 0; i < n; i++ {
		node := g.CreateNode("Person", 0, 0, map[string]graph.Value{
			"name": graph.StringValue(string(rune('A' + i))),
		})
		if prev != nil {
			if _, err := g.CreateEdge(prev.ID, node.ID, 1); err != nil {
				t.Fatalf("CreateEdge failed: %v", err)
			}
		}
		prev = node
	}
	return g
}

func compute(t *testing.T, g *graph.Graph, layout Layout) map[uint64]Position {
	t.Helper()
	var positions map[uint64]Position
	err := g.Read(func(v graph.View) error {
		var err error
		positions, err = layout.ComputeLayout(v)
		return err
	})
	if err != nil {
		t.Fatalf("Layout computation failed: %v", err)
	}
	return positions
}

// TestCircularLayout tests the circular layout algorithm
func TestCircularLayout(t *testing.T) {
	g := lineGraph(t, 4)
	layout := NewCircularLayout(&LayoutConfig{Width: 800, Height: 600})

	positions := compute(t, g, layout)
	if len(positions) != 4 {
		t.Fatalf("Expected 4 positions, got %d", len(positions))
	}

	// Radius is min(800, 600)/2 - default padding
	for nodeID, pos := range positions {
		r := math.Hypot(pos.X, pos.Y)
		if math.Abs(r-250) > 1e-9 {
			t.Errorf("Node %d at distance %f, want 250", nodeID, r)
		}
	}

	first := positions[1]
	if math.Abs(first.X-250) > 1e-9 || math.Abs(first.Y) > 1e-9 {
		t.Errorf("First node at %+v, want (250, 0)", first)
	}
}

func TestRandomLayout(t *testing.T) {
	g := lineGraph(t, 20)
	config := &LayoutConfig{Width: 400, Height: 200, Padding: 10, Seed: 7}

	a := compute(t, g, NewRandomLayout(config))
	b := compute(t, g, NewRandomLayout(config))

	for nodeID, pos := range a {
		if pos != b[nodeID] {
			t.Errorf("Node %d differs between runs with the same seed", nodeID)
		}
		if math.Abs(pos.X) > 190 || math.Abs(pos.Y) > 90 {
			t.Errorf("Node %d at %+v out of bounds", nodeID, pos)
		}
	}

	other := compute(t, g, NewRandomLayout(&LayoutConfig{Width: 400, Height: 200, Padding: 10, Seed: 8}))
	same := 0
	for nodeID, pos := range a {
		if other[nodeID] == pos {
			same++
		}
	}
	if same == len(a) {
		t.Error("Different seeds produced the same placement")
	}
}

func TestPlaceSkipsFixedNodes(t *testing.T) {
	g := lineGraph(t, 3)
	if err := g.SetFixed(2, true); err != nil {
		t.Fatalf("SetFixed failed: %v", err)
	}

	err := g.Update(func(v graph.View) error {
		return Place(v, NewCircularLayout(&LayoutConfig{Width: 200, Height: 200, Padding: 10}))
	})
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	pinned, _ := g.GetNode(2)
	if pinned.X != 0 || pinned.Y != 0 {
		t.Errorf("Fixed node moved to (%f, %f)", pinned.X, pinned.Y)
	}
	free, _ := g.GetNode(1)
	if free.X != 90 {
		t.Errorf("Free node X = %f, want 90", free.X)
	}
}

// TestLayoutNormalization tests that coordinates are normalized to bounds
func TestLayoutNormalization(t *testing.T) {
	positions := map[uint64]Position{
		1: {X: -1000, Y: 5},
		2: {X: 3000, Y: -20},
		3: {X: 0, Y: 30},
	}

	fitted := Fit(positions, &LayoutConfig{Width: 800, Height: 600, Padding: 50})

	for nodeID, pos := range fitted {
		if pos.X < 50 || pos.X > 750 {
			t.Errorf("Node %d X position %f out of bounds", nodeID, pos.X)
		}
		if pos.Y < 50 || pos.Y > 550 {
			t.Errorf("Node %d Y position %f out of bounds", nodeID, pos.Y)
		}
	}

	if fitted[1].X != 50 || fitted[2].X != 750 {
		t.Errorf("Extremes not stretched to padding: %+v", fitted)
	}
}

func TestNormalizeDegenerate(t *testing.T) {
	fitted := normalizePositions(map[uint64]Position{1: {X: 5, Y: 5}}, 100, 100, 10)
	if fitted[1] != (Position{X: 10, Y: 10}) {
		t.Errorf("Single point = %+v, want (10, 10)", fitted[1])
	}

	if got := normalizePositions(map[uint64]Position{}, 100, 100, 10); len(got) != 0 {
		t.Errorf("Expected empty result, got %v", got)
	}
}

func TestEmptyGraph(t *testing.T) {
	g := graph.New()

	for name, layout := range map[string]Layout{
		"circular": NewCircularLayout(&LayoutConfig{Width: 800, Height: 600}),
		"random":   NewRandomLayout(&LayoutConfig{Width: 800, Height: 600}),
	} {
		if positions := compute(t, g, layout); len(positions) != 0 {
			t.Errorf("%s: expected 0 positions, got %d", name, len(positions))
		}
	}
}

func TestVisualizationExport(t *testing.T) {
	g := lineGraph(t, 2)

	var data []byte
	err := g.Update(func(v graph.View) error {
		v.Nodes()[1].SetPosition(3.5, -2)
		var err error
		data, err = FromView(v).ExportJSON()
		return err
	})
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	var decoded struct {
		Nodes []struct {
			ID         uint64            `json:"id"`
			Label      string            `json:"label"`
			Properties map[string]string `json:"properties"`
			X          float64           `json:"x"`
			Y          float64           `json:"y"`
		} `json:"nodes"`
		Edges []struct {
			From   uint64  `json:"from"`
			To     uint64  `json:"to"`
			Weight float64 `json:"weight"`
		} `json:"edges"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to decode export: %v", err)
	}

	if len(decoded.Nodes) != 2 || len(decoded.Edges) != 1 {
		t.Fatalf("Export has %d nodes and %d edges, want 2 and 1", len(decoded.Nodes), len(decoded.Edges))
	}
	if decoded.Nodes[1].X != 3.5 || decoded.Nodes[1].Y != -2 {
		t.Errorf("Node position = (%f, %f), want (3.5, -2)", decoded.Nodes[1].X, decoded.Nodes[1].Y)
	}
	if decoded.Nodes[0].Properties["name"] != "A" || decoded.Nodes[0].Label != "Person" {
		t.Errorf("Node metadata lost: %+v", decoded.Nodes[0])
	}
	if decoded.Edges[0].From != 1 || decoded.Edges[0].To != 2 {
		t.Errorf("Edge endpoints = %d -> %d, want 1 -> 2", decoded.Edges[0].From, decoded.Edges[0].To)
	}
}
