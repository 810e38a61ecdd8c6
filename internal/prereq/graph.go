package prereq

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Graph is the static concept-to-prerequisites lookup. It is configuration
// data, read once at startup, never derived from student activity.
type Graph struct {
	prereqs map[string][]string
}

// NewGraph builds a graph from an edge map (concept -> prerequisites).
func NewGraph(edges map[string][]string) *Graph {
	prereqs := make(map[string][]string, len(edges))
	for concept, deps := range edges {
		prereqs[concept] = append([]string(nil), deps...)
	}
	return &Graph{prereqs: prereqs}
}

// graphFile is the YAML structure for the prerequisite graph.
type graphFile struct {
	Concepts []struct {
		ID            string   `yaml:"id"`
		Prerequisites []string `yaml:"prerequisites"`
	} `yaml:"concepts"`
}

// LoadGraph reads the prerequisite graph from a YAML file.
func LoadGraph(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prerequisite graph: %w", err)
	}

	var file graphFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse prerequisite graph: %w", err)
	}

	edges := make(map[string][]string, len(file.Concepts))
	for _, c := range file.Concepts {
		if c.ID == "" {
			return nil, fmt.Errorf("prerequisite graph: concept with empty id")
		}
		edges[c.ID] = c.Prerequisites
	}
	return NewGraph(edges), nil
}

// Prerequisites returns the direct prerequisites of a concept. Concepts
// without edges return an empty list; they are never blocked.
func (g *Graph) Prerequisites(concept string) []string {
	return append([]string(nil), g.prereqs[concept]...)
}

// Concepts returns every concept that has at least one prerequisite edge.
func (g *Graph) Concepts() []string {
	out := make([]string, 0, len(g.prereqs))
	for concept := range g.prereqs {
		out = append(out, concept)
	}
	return out
}
