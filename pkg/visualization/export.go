package visualization

import (
	"encoding/json"

	"github.com/dd0wney/cluso-layout/pkg/graph"
)

// Visualization represents a graph visualization with layout
type Visualization struct {
	Nodes     []*graph.Node
	Edges     []*graph.Edge
	Positions map[uint64]Position
}

// FromView captures nodes, edges and current positions of view
func FromView(view graph.View) *Visualization {
	return &Visualization{
		Nodes:     view.Nodes(),
		Edges:     view.Edges(),
		Positions: Snapshot(view),
	}
}

// ExportJSON exports the visualization to JSON
func (v *Visualization) ExportJSON() ([]byte, error) {
	type NodeViz struct {
		ID         uint64            `json:"id"`
		Label      string            `json:"label"`
		Properties map[string]string `json:"properties"`
		Fixed      bool              `json:"fixed,omitempty"`
		X          float64           `json:"x"`
		Y          float64           `json:"y"`
	}

	type EdgeViz struct {
		ID         uint64  `json:"id"`
		FromNodeID uint64  `json:"from"`
		ToNodeID   uint64  `json:"to"`
		Weight     float64 `json:"weight"`
	}

	type VizData struct {
		Nodes []NodeViz `json:"nodes"`
		Edges []EdgeViz `json:"edges"`
	}

	data := VizData{
		Nodes: make([]NodeViz, 0, len(v.Nodes)),
		Edges: make([]EdgeViz, 0, len(v.Edges)),
	}

	// Convert nodes
	for _, node := range v.Nodes {
		pos := v.Positions[node.ID]
		props := make(map[string]string, len(node.Properties))
		for key, val := range node.Properties {
			props[key] = val.String()
		}

		data.Nodes = append(data.Nodes, NodeViz{
			ID:         node.ID,
			Label:      node.Label,
			Properties: props,
			Fixed:      node.Fixed,
			X:          pos.X,
			Y:          pos.Y,
		})
	}

	// Convert edges
	for _, edge := range v.Edges {
		data.Edges = append(data.Edges, EdgeViz{
			ID:         edge.ID,
			FromNodeID: edge.FromNodeID,
			ToNodeID:   edge.ToNodeID,
			Weight:     edge.Weight,
		})
	}

	return json.Marshal(data)
}
