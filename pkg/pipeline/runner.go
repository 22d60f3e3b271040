package pipeline

import (
	"context"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowguide/pkg/cache"
	"github.com/matzehuels/flowguide/pkg/format"
	"github.com/matzehuels/flowguide/pkg/graph"
	"github.com/matzehuels/flowguide/pkg/navigate"
	"github.com/matzehuels/flowguide/pkg/observability"
	"github.com/matzehuels/flowguide/pkg/render/cytoscape"
)

// Options configures a Runner. Zero values select defaults.
type Options struct {
	// Format controls highlighting and magnification.
	// The zero value means format.DefaultOptions().
	Format format.Options

	// BaseLayout holds Cytoscape layout parameters.
	// Nil means cytoscape.DefaultLayout().
	BaseLayout map[string]any

	// Cache stores exported artifacts. Nil disables caching.
	Cache cache.Cache

	// Keyer builds artifact cache keys. Nil means cache.NewDefaultKeyer().
	Keyer cache.Keyer

	Logger *log.Logger
}

// Runner encapsulates the navigate → format → render pipeline.
//
// The Runner is stateless except for the cache and logger: session state is
// passed in and returned. Multiple goroutines can safely use the same Runner
// as long as each session's events are applied one at a time.
type Runner struct {
	Navigator  *navigate.Navigator
	Format     format.Options
	BaseLayout map[string]any
	Cache      cache.Cache
	Keyer      cache.Keyer
	Logger     *log.Logger
}

// NewRunner creates a runner over nav.
func NewRunner(nav *navigate.Navigator, opts Options) *Runner {
	r := &Runner{
		Navigator:  nav,
		Format:     opts.Format,
		BaseLayout: opts.BaseLayout,
		Cache:      opts.Cache,
		Keyer:      opts.Keyer,
		Logger:     opts.Logger,
	}
	if r.Format == (format.Options{}) {
		r.Format = format.DefaultOptions()
	}
	if r.BaseLayout == nil {
		r.BaseLayout = cytoscape.DefaultLayout()
	}
	if r.Cache == nil {
		r.Cache = cache.NewNullCache()
	}
	if r.Keyer == nil {
		r.Keyer = cache.NewDefaultKeyer()
	}
	if r.Logger == nil {
		r.Logger = log.Default()
	}
	return r
}

// Init returns the initial session state.
func (r *Runner) Init() navigate.State {
	return r.Navigator.Init()
}

// Handle applies ev to s and renders the resulting state.
func (r *Runner) Handle(ctx context.Context, s navigate.State, ev navigate.Event) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := r.Navigator.Apply(ctx, s, ev)
	view := r.view(ctx, res)

	r.Logger.Debug("handled event",
		"event", eventKind(ev),
		"outcome", res.Outcome,
		"render_key", view.RenderKey,
		"nodes", view.NodeCount,
		"edges", view.EdgeCount)

	return &Result{State: res.State, View: view}, nil
}

// Styled returns the formatted nodes and edges of s, highlighted around
// s.Focus. An unknown or empty focus yields unstyled copies.
func (r *Runner) Styled(ctx context.Context, s navigate.State) ([]graph.Node, []graph.Edge) {
	focus, _ := graph.FindNode(s.Graph.Nodes, s.Focus)
	return r.format(ctx, s.Graph, focus)
}

func (r *Runner) view(ctx context.Context, res navigate.Result) View {
	st := res.State

	var focus graph.Node
	if res.HasFocus {
		focus = res.Focus
	}
	nodes, edges := r.format(ctx, st.Graph, focus)

	v := View{
		RenderKey: strconv.Itoa(st.RenderKey),
		Elements:  cytoscape.ToElements(nodes, edges),
		Layout:    cytoscape.Layout(r.BaseLayout, st.Roots),
		Roots:     append([]string{}, st.Roots...),
		Intent:    res.Intent,
		Page:      res.Page,
		Outcome:   res.Outcome,
		NodeCount: len(nodes),
		EdgeCount: len(edges),
	}
	if res.HasFocus {
		v.Focus = res.Focus.ID
	}
	if res.Intent.Kind == navigate.IntentNoDocumentation {
		v.Message = navigate.NoDocumentationMessage
	}
	return v
}

func (r *Runner) format(ctx context.Context, g graph.Graph, focus graph.Node) ([]graph.Node, []graph.Edge) {
	start := time.Now()
	nodes, edges := format.Format(g.Nodes, g.Edges, focus, r.Format)
	observability.Pipeline().OnFormatComplete(ctx, len(nodes), time.Since(start))
	return nodes, edges
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func eventKind(ev navigate.Event) string {
	if ev == nil {
		return navigate.Refresh{}.Kind()
	}
	return ev.Kind()
}
