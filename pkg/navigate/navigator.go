package navigate

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowguide/pkg/graph"
	"github.com/matzehuels/flowguide/pkg/observability"
)

// Navigator applies events to navigation states.
//
// A Navigator is immutable after construction and safe for concurrent use.
// Callers must not apply two events to the same session state concurrently.
type Navigator struct {
	full   graph.Graph
	roots  []string
	logger *log.Logger
	hooks  observability.NavigationHooks
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithLogger sets the logger used for transition diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(n *Navigator) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithHooks overrides the globally registered navigation hooks.
func WithHooks(h observability.NavigationHooks) Option {
	return func(n *Navigator) { n.hooks = h }
}

// New creates a navigator over full. The graph is copied; root order is
// fixed here and follows node order.
func New(full graph.Graph, opts ...Option) *Navigator {
	g := full.Clone()
	n := &Navigator{
		full:   g,
		roots:  graph.FindRoots(g.Nodes, g.Edges),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Full returns a copy of the full graph.
func (n *Navigator) Full() graph.Graph { return n.full.Clone() }

// Roots returns a copy of the full graph's roots.
func (n *Navigator) Roots() []string {
	out := make([]string, len(n.roots))
	copy(out, n.roots)
	return out
}

// Init returns the initial state of a new session: the full graph, its roots,
// render key 0 and the first root as focus.
func (n *Navigator) Init() State {
	s := State{Graph: n.full.Clone(), Roots: n.Roots()}
	s.Focus = s.FirstRoot()
	return s
}

// Apply computes the result of ev on s. The input state is not modified.
func (n *Navigator) Apply(ctx context.Context, s State, ev Event) Result {
	start := time.Now()
	if ev == nil {
		ev = Refresh{}
	}

	var res Result
	switch e := ev.(type) {
	case Reset:
		res = n.reset(s)
	case Select:
		res = n.selectNode(s, e.NodeID)
	case RouteChanged:
		res = n.route(s, e.Path)
	default:
		res = n.refresh(s)
	}

	hooks := n.hookSet()
	hooks.OnTransition(ctx, ev.Kind(), string(res.Outcome), time.Since(start))
	if res.Intent.Kind != IntentNone {
		hooks.OnIntent(ctx, res.Intent.Kind.String())
	}

	n.logger.Debug("navigation",
		"event", ev.Kind(),
		"outcome", res.Outcome,
		"focus", res.State.Focus,
		"nodes", len(res.State.Graph.Nodes),
		"render_key", res.State.RenderKey)
	return res
}

func (n *Navigator) hookSet() observability.NavigationHooks {
	if n.hooks != nil {
		return n.hooks
	}
	return observability.Navigation()
}

// refresh focuses the first root without touching the graph or render key.
func (n *Navigator) refresh(s State) Result {
	next := s.Clone()
	next.Focus = next.FirstRoot()
	return n.result(next, OutcomeRefresh)
}

// reset restores the full graph.
func (n *Navigator) reset(s State) Result {
	next := n.Init()
	next.RenderKey = s.RenderKey + 1
	return n.result(next, OutcomeReset)
}

func (n *Navigator) selectNode(s State, id string) Result {
	node, ok := graph.FindNode(s.Graph.Nodes, id)
	if !ok {
		return n.result(s.Clone(), OutcomeUnknown)
	}

	children, _, _ := graph.FindChildren(id, s.Graph.Nodes, s.Graph.Edges)
	parents, _ := graph.FindParents(id, s.Graph.Nodes, s.Graph.Edges)

	// Terminal nodes and orphans keep the view and ask for their documentation.
	if len(children) == 0 || len(parents) == 0 {
		next := s.Clone()
		next.RenderKey++
		if next.Focus == "" {
			next.Focus = next.FirstRoot()
		}
		res := n.result(next, OutcomeLeaf)
		if url := node.DocURL(); url != "" {
			res.Intent = Intent{Kind: IntentOpenLink, URL: url}
		} else {
			res.Intent = Intent{Kind: IntentNoDocumentation}
		}
		return res
	}

	nodes, edges := graph.Subtree(id, s.Graph.Nodes, s.Graph.Edges)
	next := State{
		Graph:     graph.Graph{Nodes: nodes, Edges: edges},
		Roots:     graph.FindRoots(nodes, edges),
		RenderKey: s.RenderKey + 1,
		Focus:     id,
	}
	return n.result(next, OutcomeReroot)
}

// route resolves the page for path. Pages showing the flowchart force a new
// layout and focus the first root.
func (n *Navigator) route(s State, path string) Result {
	page := ResolvePage(path)
	next := s.Clone()
	if page.HasGraph() {
		next.RenderKey++
		next.Focus = next.FirstRoot()
	}
	res := n.result(next, OutcomeRoute)
	res.Page = page
	return res
}

// result resolves the focus id of s against its graph.
func (n *Navigator) result(s State, outcome Outcome) Result {
	res := Result{State: s, Outcome: outcome}
	if s.Focus == "" {
		return res
	}
	if node, ok := graph.FindNode(s.Graph.Nodes, s.Focus); ok {
		res.Focus = node
		res.HasFocus = true
	}
	return res
}
