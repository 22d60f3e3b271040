// Package render turns formatted flowchart views into displayable outputs.
//
// # Overview
//
// The browser shell draws views with Cytoscape.js; exports go through
// Graphviz. This package holds the pieces shared by both:
//
//   - Cytoscape elements and layout hints (in [cytoscape] subpackage)
//   - Graphviz node-link diagrams (in [nodelink] subpackage)
//   - SVG to PDF/PNG conversion ([ToPDF], [ToPNG])
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// [cytoscape]: github.com/matzehuels/flowguide/pkg/render/cytoscape
// [nodelink]: github.com/matzehuels/flowguide/pkg/render/nodelink
package render
