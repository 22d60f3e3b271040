package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/matzehuels/flowguide/pkg/cache"
	"github.com/matzehuels/flowguide/pkg/graph"
	"github.com/matzehuels/flowguide/pkg/navigate"
	"github.com/matzehuels/flowguide/pkg/observability"
	"github.com/matzehuels/flowguide/pkg/render/cytoscape"
	"github.com/matzehuels/flowguide/pkg/render/nodelink"
)

const cacheKeyType = "artifact"

// Artifact exports the styled view of s in the requested format.
//
// Results are cached by a hash of the styled view, so sessions looking at
// the same subtree with the same focus share cache entries.
func (r *Runner) Artifact(ctx context.Context, s navigate.State, opts ArtifactOptions) ([]byte, error) {
	data, _, err := r.ArtifactWithCacheInfo(ctx, s, opts)
	return data, err
}

// ArtifactWithCacheInfo is Artifact and additionally reports whether the
// bytes came from the cache.
func (r *Runner) ArtifactWithCacheInfo(ctx context.Context, s navigate.State, opts ArtifactOptions) ([]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	nodes, edges := r.Styled(ctx, s)

	viewData, err := json.Marshal(graph.Graph{Nodes: nodes, Edges: edges})
	if err != nil {
		return nil, false, fmt.Errorf("serialize view for cache key: %w", err)
	}
	cacheKey := r.Keyer.ArtifactKey(cache.Hash(viewData), opts.KeyOpts())

	hooks := observability.Cache()
	if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
		hooks.OnCacheHit(ctx, cacheKeyType)
		return data, true, nil
	} else if err != nil {
		r.Logger.Warn("artifact cache read failed", "error", err)
	}
	hooks.OnCacheMiss(ctx, cacheKeyType)

	data, err := r.render(ctx, nodes, edges, s.Roots, opts)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err != nil {
		r.Logger.Warn("artifact cache write failed", "error", err)
	} else {
		hooks.OnCacheSet(ctx, cacheKeyType, len(data))
	}
	return data, false, nil
}

func (r *Runner) render(ctx context.Context, nodes []graph.Node, edges []graph.Edge, roots []string, opts ArtifactOptions) (data []byte, err error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Format)
	start := time.Now()
	defer func() {
		hooks.OnRenderComplete(ctx, opts.Format, time.Since(start), err)
		r.Logger.Debug("rendered artifact",
			"format", opts.Format,
			"bytes", len(data),
			"duration", time.Since(start))
	}()

	if opts.Format == FormatJSON {
		return json.MarshalIndent(elementsDoc{
			Elements: cytoscape.ToElements(nodes, edges),
			Layout:   cytoscape.Layout(r.BaseLayout, roots),
		}, "", "  ")
	}

	dot := nodelink.ToDOT(nodes, edges, nodelink.Options{Detailed: opts.Detailed})
	switch opts.Format {
	case FormatDOT:
		data = []byte(dot)
	case FormatSVG:
		data, err = nodelink.RenderSVG(ctx, dot)
	case FormatPNG:
		data, err = nodelink.RenderPNG(ctx, dot, opts.Scale)
	case FormatPDF:
		data, err = nodelink.RenderPDF(ctx, dot)
	default:
		return nil, ValidateFormat(opts.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", opts.Format, err)
	}
	return data, nil
}

// elementsDoc is the JSON export: the Cytoscape elements and layout.
type elementsDoc struct {
	Elements []cytoscape.Element `json:"elements"`
	Layout   map[string]any      `json:"layout"`
}
