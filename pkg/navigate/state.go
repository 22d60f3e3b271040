package navigate

import (
	"fmt"
	"slices"

	"github.com/matzehuels/flowguide/pkg/graph"
)

// =============================================================================
// State
// =============================================================================

// State is the per-session navigation state.
//
// Roots always lists the nodes of Graph without incoming edges, in node order.
// Graph is a subgraph of the navigator's full graph.
type State struct {
	Graph     graph.Graph `json:"graph" bson:"graph"`
	Roots     []string    `json:"roots" bson:"roots"`
	RenderKey int         `json:"render_key" bson:"render_key"`
	Focus     string      `json:"focus,omitempty" bson:"focus,omitempty"`
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	roots := make([]string, len(s.Roots))
	copy(roots, s.Roots)
	return State{
		Graph:     s.Graph.Clone(),
		Roots:     roots,
		RenderKey: s.RenderKey,
		Focus:     s.Focus,
	}
}

// FirstRoot returns the first root, or "" when the root list is empty.
func (s State) FirstRoot() string {
	if len(s.Roots) == 0 {
		return ""
	}
	return s.Roots[0]
}

// Contains reports whether id is a node of the current graph.
func (s State) Contains(id string) bool {
	return slices.ContainsFunc(s.Graph.Nodes, func(n graph.Node) bool { return n.ID == id })
}

// =============================================================================
// Events
// =============================================================================

// Event is a user interface event. The set of events is closed.
type Event interface {
	// Kind returns a short name used in logs and metrics.
	Kind() string
	event()
}

// Refresh requests the default render of the current state.
type Refresh struct{}

// Reset restores the full graph.
type Reset struct{}

// Select is a click on a node.
type Select struct {
	NodeID string
}

// RouteChanged reports that the browser navigated to a new path.
type RouteChanged struct {
	Path string
}

func (Refresh) Kind() string      { return "refresh" }
func (Reset) Kind() string        { return "reset" }
func (Select) Kind() string       { return "select" }
func (RouteChanged) Kind() string { return "route" }

func (Refresh) event()      {}
func (Reset) event()        {}
func (Select) event()       {}
func (RouteChanged) event() {}

// =============================================================================
// Intents
// =============================================================================

// IntentKind identifies a side effect the shell should perform.
type IntentKind int

const (
	// IntentNone requests nothing.
	IntentNone IntentKind = iota
	// IntentOpenLink requests opening Intent.URL in a new browser tab.
	IntentOpenLink
	// IntentNoDocumentation reports that the selected node has no link.
	IntentNoDocumentation
)

var intentNames = map[IntentKind]string{
	IntentNone:            "none",
	IntentOpenLink:        "open_link",
	IntentNoDocumentation: "no_documentation",
}

func (k IntentKind) String() string {
	if s, ok := intentNames[k]; ok {
		return s
	}
	return "unknown"
}

// MarshalText encodes the kind by name.
func (k IntentKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name produced by MarshalText.
func (k *IntentKind) UnmarshalText(text []byte) error {
	for kind, name := range intentNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown intent kind %q", text)
}

// Intent is a side effect requested by a transition. The state machine never
// performs effects itself.
type Intent struct {
	Kind IntentKind `json:"kind"`
	URL  string     `json:"url,omitempty"`
}

// NoDocumentationMessage is shown when a terminal node has no link.
const NoDocumentationMessage = "No documentation is available"

// =============================================================================
// Pages
// =============================================================================

// Page identifies a page of the user interface.
type Page string

const (
	PageHome     Page = "home"
	PageExplorer Page = "explorer"
	PageGuided   Page = "guided"
	PageNotFound Page = "not_found"
)

// Route paths served by the shell.
const (
	PathHome     = "/"
	PathExplorer = "/flowchart_explorer"
	PathGuided   = "/guided_selection_flowchart"
)

// ResolvePage maps a path to a page. Unknown paths resolve to PageNotFound.
func ResolvePage(path string) Page {
	switch path {
	case PathHome:
		return PageHome
	case PathExplorer:
		return PageExplorer
	case PathGuided:
		return PageGuided
	default:
		return PageNotFound
	}
}

// HasGraph reports whether the page displays the flowchart.
func (p Page) HasGraph() bool {
	return p == PageExplorer || p == PageGuided
}

// =============================================================================
// Result
// =============================================================================

// Outcome names the branch a transition took.
type Outcome string

const (
	OutcomeRefresh Outcome = "refresh"
	OutcomeReset   Outcome = "reset"
	OutcomeReroot  Outcome = "reroot"
	OutcomeLeaf    Outcome = "leaf"
	OutcomeUnknown Outcome = "unknown"
	OutcomeRoute   Outcome = "route"
)

// Result is the outcome of applying an event.
type Result struct {
	// State is the new navigation state.
	State State

	// Focus is the node to highlight and magnify. It is the zero Node when
	// HasFocus is false.
	Focus    graph.Node
	HasFocus bool

	// Intent is the side effect requested from the shell, if any.
	Intent Intent

	// Page is set for RouteChanged events only.
	Page Page

	// Outcome names the branch taken, for logs and metrics.
	Outcome Outcome
}
