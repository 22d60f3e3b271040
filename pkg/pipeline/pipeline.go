// Package pipeline turns navigation events into renderable views.
//
// A [Runner] chains the three stages every entry point needs:
//
//  1. Navigate: apply an event to the session state ([navigate.Navigator])
//  2. Format: highlight and magnify around the focus node ([format.Format])
//  3. Render: adapt the styled graph to Cytoscape elements, or export it as
//     DOT, SVG, PNG or PDF through Graphviz ([nodelink])
//
// The HTTP server, the terminal explorer and the export command all use the
// same Runner so the three surfaces show identical views.
//
// # Usage
//
//	runner := pipeline.NewRunner(nav, pipeline.Options{Logger: logger})
//	res, err := runner.Handle(ctx, state, navigate.Select{NodeID: "bootstrap"})
//	if err != nil {
//	    return err
//	}
//	state = res.State
//	send(res.View)
//
// Export the current view:
//
//	svg, err := runner.Artifact(ctx, state, pipeline.ArtifactOptions{Format: "svg"})
package pipeline

import (
	"math"

	"github.com/matzehuels/flowguide/pkg/cache"
	"github.com/matzehuels/flowguide/pkg/errors"
	"github.com/matzehuels/flowguide/pkg/navigate"
	"github.com/matzehuels/flowguide/pkg/render/cytoscape"
)

// =============================================================================
// Formats
// =============================================================================

// Format constants for artifacts.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// DefaultScale is the PNG scale factor used when none is given.
const DefaultScale = 2.0

// ValidFormats is the set of supported artifact formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// ContentTypes maps artifact formats to MIME types.
var ContentTypes = map[string]string{
	FormatJSON: "application/json",
	FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	FormatSVG:  "image/svg+xml",
	FormatPNG:  "image/png",
	FormatPDF:  "application/pdf",
}

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: json, dot, svg, png, pdf)", format)
	}
	return nil
}

// =============================================================================
// Options
// =============================================================================

// ArtifactOptions selects an export format.
type ArtifactOptions struct {
	Format string `json:"format"`

	// Detailed adds node ids and documentation links to Graphviz labels.
	Detailed bool `json:"detailed,omitempty"`

	// Scale is the PNG scale factor. Zero means DefaultScale.
	Scale float64 `json:"scale,omitempty"`
}

// ValidateAndSetDefaults checks the format and fills in the scale.
func (o *ArtifactOptions) ValidateAndSetDefaults() error {
	if err := ValidateFormat(o.Format); err != nil {
		return err
	}
	if math.IsNaN(o.Scale) || math.IsInf(o.Scale, 0) {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be a finite number")
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must not be negative")
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	return nil
}

// KeyOpts returns cache key options. Scale only affects PNG output.
func (o ArtifactOptions) KeyOpts() cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: o.Format, Detailed: o.Detailed}
	if o.Format == FormatPNG {
		k.Scale = o.Scale
	}
	return k
}

// =============================================================================
// Results
// =============================================================================

// View is everything the browser needs to draw the flowchart.
type View struct {
	// RenderKey changes whenever the canvas must be rebuilt.
	RenderKey string `json:"render_key"`

	// Elements are the styled nodes then edges in Cytoscape format.
	Elements []cytoscape.Element `json:"elements"`

	// Layout is the configured base layout with the current roots.
	Layout map[string]any `json:"layout"`

	// Roots is the layout_roots hint.
	Roots []string `json:"layout_roots"`

	// Focus is the highlighted node id, empty when nothing is focused.
	Focus string `json:"focus,omitempty"`

	// Intent is the side effect the page should perform.
	Intent navigate.Intent `json:"intent"`

	// Message is the notice to show for a no-documentation intent.
	Message string `json:"message,omitempty"`

	// Page is set when the event was a route change.
	Page navigate.Page `json:"page,omitempty"`

	// Outcome names the transition branch taken.
	Outcome navigate.Outcome `json:"outcome"`

	NodeCount int `json:"node_count"`
	EdgeCount int `json:"edge_count"`
}

// Result contains the outputs of handling one event.
type Result struct {
	// State is the new navigation state. Callers persist it.
	State navigate.State `json:"-"`

	// View is the rendered view of State.
	View View `json:"view"`
}
