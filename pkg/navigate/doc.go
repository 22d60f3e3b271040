// Package navigate implements the navigation state machine of the flowchart
// explorer.
//
// A [Navigator] owns the full graph loaded at startup. Each browsing session
// carries its own [State]: the subgraph currently on screen, its roots, a
// render key and the node last used as formatting focus. Events coming from
// the user interface ([Select], [Reset], [RouteChanged], [Refresh]) are applied
// with [Navigator.Apply], which returns a new state and never mutates its
// input.
//
// # Transitions
//
// Selecting a node that has both parents and children re-roots the view on
// the subtree below it. Selecting a node without children or without parents
// does not change the graph; instead the result carries an [Intent] asking the
// shell to open the node's documentation link, or to report that none exists.
// Unknown node ids are ignored. Reset restores the full graph.
//
// Every structural change increments [State.RenderKey], which renderers use to
// discard cached layout.
//
// # Example
//
//	nav := navigate.New(full, navigate.WithLogger(logger))
//	state := nav.Init()
//	res := nav.Apply(ctx, state, navigate.Select{NodeID: "B"})
//	if res.Intent.Kind == navigate.IntentOpenLink {
//	    openBrowser(res.Intent.URL)
//	}
//	state = res.State
package navigate
