// Package format derives presentation attributes for the current view.
//
// [Format] highlights the focus node and magnifies the labels around it: the
// focus node, its immediate children, and the edges leaving it. The
// magnification grows with the logarithm of the view size so that labels stay
// readable when many nodes share the canvas.
//
// Formatting works on copies and is idempotent: formatting the same stored
// state twice yields identical output.
package format

import (
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/flowguide/pkg/graph"
)

// Default option values.
const (
	DefaultHighlightColor  = "#ff7f50"
	DefaultMagnifyingRatio = 1.0
)

// Options controls formatting.
type Options struct {
	// HighlightColor is the background color of the focus node.
	HighlightColor string
	// MagnifyingRatio scales the label magnification. Must be positive.
	MagnifyingRatio float64
}

// DefaultOptions returns the options used when no configuration is given.
func DefaultOptions() Options {
	return Options{
		HighlightColor:  DefaultHighlightColor,
		MagnifyingRatio: DefaultMagnifyingRatio,
	}
}

// Magnification returns the label scale factor for a view of nodeCount nodes:
// ratio * (1 + ln(nodeCount+1)).
func Magnification(ratio float64, nodeCount int) float64 {
	return ratio * (1 + math.Log(float64(nodeCount)+1))
}

// Format returns styled copies of nodes and edges for the given focus.
//
// A zero focus (empty ID) means there is nothing to highlight; the copies are
// returned unchanged. Styles without a parseable font-size keep their size.
// Inputs are never modified and outputs never share memory with them.
func Format(nodes []graph.Node, edges []graph.Edge, focus graph.Node, opts Options) ([]graph.Node, []graph.Edge) {
	outNodes := graph.CloneNodes(nodes)
	outEdges := graph.CloneEdges(edges)
	if focus.ID == "" {
		return outNodes, outEdges
	}

	m := Magnification(opts.MagnifyingRatio, len(nodes))

	children, _, _ := graph.FindChildren(focus.ID, nodes, edges)
	targets := make(map[string]struct{}, len(children)+1)
	targets[focus.ID] = struct{}{}
	for _, id := range children {
		targets[id] = struct{}{}
	}

	for i := range outNodes {
		n := &outNodes[i]
		if n.ID == focus.ID {
			if n.Style == nil {
				n.Style = graph.Style{}
			}
			n.Style[graph.StyleBackgroundColor] = opts.HighlightColor
		}
		if _, ok := targets[n.ID]; !ok {
			continue
		}
		if px, ok := FontSize(n.Style); ok {
			n.Style[graph.StyleFontSize] = NodeFontSize(px, m)
		}
	}

	for i := range outEdges {
		e := &outEdges[i]
		if e.Source != focus.ID {
			continue
		}
		if px, ok := FontSize(e.Style); ok {
			e.Style[graph.StyleFontSize] = EdgeFontSize(px, m)
		}
	}

	return outNodes, outEdges
}

// NodeFontSize scales px by m and rounds to whole pixels. Halves round to
// even.
func NodeFontSize(px, m float64) string {
	return strconv.FormatInt(int64(math.RoundToEven(px*m)), 10) + "px"
}

// EdgeFontSize scales px by m without rounding. Whole values keep one decimal
// place ("24.0px").
func EdgeFontSize(px, m float64) string {
	s := strconv.FormatFloat(px*m, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s + "px"
}

// FontSize reads a "<number>px" font-size from a style.
func FontSize(s graph.Style) (float64, bool) {
	v, ok := s[graph.StyleFontSize]
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case string:
		px, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "px")), 64)
		if err != nil || math.IsNaN(px) || math.IsInf(px, 0) {
			return 0, false
		}
		return px, true
	case float64:
		return t, true
	case int:
		return float64(t), true
	default:
		return 0, false
	}
}
