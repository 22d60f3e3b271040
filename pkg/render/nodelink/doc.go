// Package nodelink renders flowchart views as node-link diagrams.
//
// # Overview
//
// This package produces directed graph drawings using Graphviz, where nodes
// appear as boxes connected by labeled arrows. It is used for exports: the
// interactive explorer draws with Cytoscape in the browser instead.
//
// Presentation attributes computed by the formatter carry over: the focus
// node keeps its highlight color and magnified labels keep their size.
// Nodes with a documentation link become clickable in SVG output.
//
// # Usage
//
// Convert a formatted view to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(nodes, edges, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output, use the render functions:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)  // 2x scale
//
// # Options
//
// The [Options] struct controls diagram generation:
//
//   - Detailed: When true, node labels also show the node id and link.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
