package graph

import (
	"slices"

	"github.com/matzehuels/flowguide/pkg/errors"
)

// Style keys understood by the formatter and the renderers.
const (
	StyleFontSize        = "font-size"
	StyleBackgroundColor = "background-color"
)

// Style holds presentation attributes of a node or edge.
// Values are usually strings ("14px", "#ff7f50") but numbers from the graph
// document are preserved as decoded.
type Style map[string]any

// Clone returns a deep copy of the style. A nil style stays nil.
func (s Style) Clone() Style {
	if s == nil {
		return nil
	}
	out := make(Style, len(s))
	for k, v := range s {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, inner := range t {
			m[k] = cloneValue(inner)
		}
		return m
	case Style:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, inner := range t {
			s[i] = cloneValue(inner)
		}
		return s
	default:
		return v
	}
}

// Node is a vertex of the flowchart.
type Node struct {
	ID    string  `json:"id" bson:"id"`
	Label string  `json:"label" bson:"label"`
	Data  *string `json:"data" bson:"data"` // Documentation URL, nil when absent
	Style Style   `json:"style,omitempty" bson:"style,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// DocURL returns the documentation link, or "" when the node has none.
func (n Node) DocURL() string {
	if n.Data == nil {
		return ""
	}
	return *n.Data
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	out := n
	if n.Data != nil {
		d := *n.Data
		out.Data = &d
	}
	out.Style = n.Style.Clone()
	return out
}

// Edge is a directed connection from Source to Target.
type Edge struct {
	Source string `json:"source" bson:"source"`
	Target string `json:"target" bson:"target"`
	Label  string `json:"label" bson:"label"`
	Style  Style  `json:"style,omitempty" bson:"style,omitempty"`
}

// Clone returns a deep copy of the edge.
func (e Edge) Clone() Edge {
	out := e
	out.Style = e.Style.Clone()
	return out
}

// Graph is an ordered node-link graph.
//
// Node and edge order is significant: it fixes root order and the discovery
// order of subtree extraction.
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Clone returns a deep copy of the graph.
func (g Graph) Clone() Graph {
	return Graph{
		Nodes: CloneNodes(g.Nodes),
		Edges: CloneEdges(g.Edges),
	}
}

// CloneNodes deep-copies a node slice. The result is never nil.
func CloneNodes(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// CloneEdges deep-copies an edge slice. The result is never nil.
func CloneEdges(edges []Edge) []Edge {
	out := make([]Edge, len(edges))
	for i, e := range edges {
		out[i] = e.Clone()
	}
	return out
}

// NodeIDs returns the node IDs in node order.
func (g Graph) NodeIDs() []string {
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// Roots returns the IDs of nodes without incoming edges, in node order.
func (g Graph) Roots() []string { return FindRoots(g.Nodes, g.Edges) }

// Validate checks the structural integrity of a graph document.
//
// It rejects empty graphs, empty, duplicate or unselectable node IDs (see
// [errors.ValidateNodeID]), and edges whose
// endpoints are not nodes of the graph. Validation failures carry the
// [errors.ErrCodeInvalidGraph] code. Cycles are tolerated; see [Graph.HasCycle].
func (g Graph) Validate() error {
	if len(g.Nodes) == 0 {
		return errors.New(errors.ErrCodeInvalidGraph, "graph has no nodes")
	}

	seen := make(map[string]struct{}, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.ID == "" {
			return errors.New(errors.ErrCodeInvalidGraph, "node %d has an empty id", i)
		}
		// Ids must survive the same check as client events or the node
		// could never be selected.
		if err := errors.ValidateNodeID(n.ID); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidGraph, err, "node %d", i)
		}
		if _, dup := seen[n.ID]; dup {
			return errors.New(errors.ErrCodeInvalidGraph, "duplicate node id %q", n.ID)
		}
		seen[n.ID] = struct{}{}
	}

	for i, e := range g.Edges {
		if _, ok := seen[e.Source]; !ok {
			return errors.New(errors.ErrCodeInvalidGraph, "edge %d: unknown source node %q", i, e.Source)
		}
		if _, ok := seen[e.Target]; !ok {
			return errors.New(errors.ErrCodeInvalidGraph, "edge %d: unknown target node %q", i, e.Target)
		}
	}
	return nil
}

// HasCycle reports whether the graph contains a directed cycle.
// Cycle detection runs in O(N+E) time using depth-first search.
func (g Graph) HasCycle() bool {
	const (
		white = iota
		gray
		black
	)

	out := outgoing(g.Edges)
	color := make(map[string]int, len(g.Nodes))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, idx := range out[id] {
			child := g.Edges[idx].Target
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
			}
			if hasCycle {
				return
			}
		}
		color[id] = black
	}

	for _, n := range g.Nodes {
		if color[n.ID] == white {
			dfs(n.ID)
			if hasCycle {
				return true
			}
		}
	}
	return false
}

// StructuralEqual reports whether two graphs have the same nodes and edges in
// the same order, ignoring style.
func (g Graph) StructuralEqual(other Graph) bool {
	return slices.EqualFunc(g.Nodes, other.Nodes, func(a, b Node) bool {
		return a.ID == b.ID && a.Label == b.Label && a.DocURL() == b.DocURL() && (a.Data == nil) == (b.Data == nil)
	}) && slices.EqualFunc(g.Edges, other.Edges, func(a, b Edge) bool {
		return a.Source == b.Source && a.Target == b.Target && a.Label == b.Label
	})
}
