// Package cytoscape converts styled nodes and edges into Cytoscape.js
// elements.
//
// The browser shell hands the elements to a Cytoscape canvas as-is. Each
// element carries its own style mapping, which the page stylesheet binds to
// label size and background color.
package cytoscape

import (
	"maps"

	"github.com/matzehuels/flowguide/pkg/graph"
)

// Element groups.
const (
	GroupNodes = "nodes"
	GroupEdges = "edges"
)

// Element is a node or edge in Cytoscape.js format.
type Element struct {
	Group string      `json:"group"`
	Data  ElementData `json:"data"`
	Style graph.Style `json:"style"`
}

// ElementData holds the data fields of an element. Node elements use ID,
// Label and Doc; edge elements use Source, Target and Label.
type ElementData struct {
	ID     string  `json:"id,omitempty"`
	Source string  `json:"source,omitempty"`
	Target string  `json:"target,omitempty"`
	Label  string  `json:"label"`
	Doc    *string `json:"data,omitempty"`
}

// IsNode reports whether the element is a node.
func (e Element) IsNode() bool { return e.Group == GroupNodes }

// ToElements converts nodes then edges into elements, preserving order.
// Missing styles become empty mappings.
func ToElements(nodes []graph.Node, edges []graph.Edge) []Element {
	out := make([]Element, 0, len(nodes)+len(edges))
	for _, n := range nodes {
		n = n.Clone()
		out = append(out, Element{
			Group: GroupNodes,
			Data: ElementData{
				ID:    n.ID,
				Label: n.Label,
				Doc:   n.Data,
			},
			Style: styleOrEmpty(n.Style),
		})
	}
	for _, e := range edges {
		out = append(out, Element{
			Group: GroupEdges,
			Data: ElementData{
				Source: e.Source,
				Target: e.Target,
				Label:  e.Label,
			},
			Style: styleOrEmpty(e.Style.Clone()),
		})
	}
	return out
}

func styleOrEmpty(s graph.Style) graph.Style {
	if s == nil {
		return graph.Style{}
	}
	return s
}

// Layout returns a copy of the base layout parameters with "roots" set to
// the given root ids.
func Layout(base map[string]any, roots []string) map[string]any {
	out := make(map[string]any, len(base)+1)
	maps.Copy(out, base)
	r := make([]string, len(roots))
	copy(r, roots)
	out["roots"] = r
	return out
}

// DefaultLayout is used when no base layout is configured.
func DefaultLayout() map[string]any {
	return map[string]any{
		"name":          "breadthfirst",
		"directed":      true,
		"spacingFactor": 1.0,
	}
}
