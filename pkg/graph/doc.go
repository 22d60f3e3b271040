// Package graph provides the node-link model of the method flowchart and the
// pure query functions the navigator builds on.
//
// # Core Types
//
//   - [Graph]: ordered nodes and edges, loaded once from a JSON document
//   - [Node]: a method or decision with an optional documentation link
//   - [Edge]: a directed, labelled connection between two nodes
//   - [Style]: transient presentation attributes (font-size, background-color)
//
// # Graph Documents
//
// Graphs are read from a JSON document with top-level nodes and edges:
//
//	{
//	  "nodes": [
//	    {"id": "root", "label": "Uncertainty", "data": null, "style": {"font-size": "12px"}},
//	    {"id": "mcs", "label": "Monte Carlo", "data": "https://example.org/mcs"}
//	  ],
//	  "edges": [{"source": "root", "target": "mcs", "label": "sampling"}]
//	}
//
// [ReadGraphFile] and [ReadGraph] decode and validate the document; a missing
// or malformed document is a startup failure.
//
// # Queries
//
// [FindParents], [FindChildren], [FindRoots], [Subtree] and [FindNode] operate
// on an explicit (nodes, edges) pair. They never mutate their inputs and always
// return fresh slices. Lookups that find nothing return empty results rather
// than errors, leaving the decision to the caller.
//
// Root order is node order, so "the first root" of a graph is reproducible
// across calls.
//
// # Concurrency
//
// Graph values are plain data. A loaded graph is treated as immutable and may
// be shared by any number of goroutines as long as nobody writes to it; use
// [Graph.Clone] before handing out a copy that will be modified.
package graph
