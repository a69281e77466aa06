package graph

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Document is the YAML shape of a graph file:
//
//	nodes:
//	  - id: 1
//	    label: alice
//	    x: -10
//	    y: 4
//	    attributes:
//	      modularity_class: 0
//	edges:
//	  - source: 1
//	    target: 2
//	    weight: 2.5
type Document struct {
	Nodes []NodeDocument `yaml:"nodes"`
	Edges []EdgeDocument `yaml:"edges"`
}

// NodeDocument describes one node in a graph file
type NodeDocument struct {
	ID         uint64         `yaml:"id"`
	Label      string         `yaml:"label"`
	X          float64        `yaml:"x"`
	Y          float64        `yaml:"y"`
	Fixed      bool           `yaml:"fixed"`
	Attributes map[string]any `yaml:"attributes"`
}

// EdgeDocument describes one edge in a graph file. A missing weight means 1.
type EdgeDocument struct {
	Source uint64   `yaml:"source"`
	Target uint64   `yaml:"target"`
	Weight *float64 `yaml:"weight"`
}

// LoadFile reads a YAML graph document from disk
func LoadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open graph file: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}

// LoadYAML decodes a YAML graph document
func LoadYAML(r io.Reader) (*Graph, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, NewError("LoadYAML").Document().Cause(fmt.Errorf("%w: %v", ErrInvalidPayload, err)).Err()
	}
	return FromDocument(&doc)
}

// FromDocument builds a graph from a decoded document
func FromDocument(doc *Document) (*Graph, error) {
	g := New()

	for _, nd := range doc.Nodes {
		props := make(map[string]Value, len(nd.Attributes))

		// Sorted so the first bad attribute reported is deterministic
		keys := make([]string, 0, len(nd.Attributes))
		for key := range nd.Attributes {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			v, err := ValueOf(nd.Attributes[key])
			if err != nil {
				return nil, NewError("LoadYAML").Node(nd.ID).Field(key).Cause(err).Err()
			}
			props[key] = v
		}

		if _, err := g.AddNode(&Node{
			ID:         nd.ID,
			Label:      nd.Label,
			X:          nd.X,
			Y:          nd.Y,
			Fixed:      nd.Fixed,
			Properties: props,
		}); err != nil {
			return nil, err
		}
	}

	for i, ed := range doc.Edges {
		weight := 1.0
		if ed.Weight != nil {
			weight = *ed.Weight
		}
		if _, err := g.CreateEdge(ed.Source, ed.Target, weight); err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
	}

	return g, nil
}
