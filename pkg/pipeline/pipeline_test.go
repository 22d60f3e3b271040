package pipeline

import (
	"context"
	"io"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"

	"github.com/matzehuels/flowguide/pkg/cache"
	"github.com/matzehuels/flowguide/pkg/errors"
	"github.com/matzehuels/flowguide/pkg/graph"
	"github.com/matzehuels/flowguide/pkg/navigate"
	"github.com/matzehuels/flowguide/pkg/observability"
)

// abc is A → B → C with a documentation link on C.
func abc() graph.Graph {
	url := "https://example.org/c"
	return graph.Graph{
		Nodes: []graph.Node{
			{ID: "A", Label: "Start", Style: graph.Style{graph.StyleFontSize: "12px"}},
			{ID: "B", Label: "Middle", Style: graph.Style{graph.StyleFontSize: "12px"}},
			{ID: "C", Label: "End", Data: &url, Style: graph.Style{graph.StyleFontSize: "12px"}},
		},
		Edges: []graph.Edge{
			{Source: "A", Target: "B", Label: "ab", Style: graph.Style{graph.StyleFontSize: "10px"}},
			{Source: "B", Target: "C", Label: "bc"},
		},
	}
}

func newTestRunner(t *testing.T, c cache.Cache) *Runner {
	t.Helper()
	logger := log.New(io.Discard)
	nav := navigate.New(abc(), navigate.WithLogger(logger))
	return NewRunner(nav, Options{Cache: c, Logger: logger})
}

func elementStyle(t *testing.T, v View, id string) graph.Style {
	t.Helper()
	for _, el := range v.Elements {
		if el.IsNode() && el.Data.ID == id {
			return el.Style
		}
	}
	t.Fatalf("no element %q in view", id)
	return nil
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"dot", false},
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %v, want INVALID_FORMAT", tt.format, errors.GetCode(err))
		}
	}
}

func TestArtifactOptions(t *testing.T) {
	o := ArtifactOptions{Format: FormatPNG}
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error: %v", err)
	}
	if o.Scale != DefaultScale {
		t.Errorf("Scale = %v, want %v", o.Scale, DefaultScale)
	}
	if k := o.KeyOpts(); k.Scale != DefaultScale {
		t.Errorf("KeyOpts().Scale = %v, want %v", k.Scale, DefaultScale)
	}

	svg := ArtifactOptions{Format: FormatSVG, Scale: 3}
	if k := svg.KeyOpts(); k.Scale != 0 {
		t.Errorf("svg KeyOpts().Scale = %v, want 0", k.Scale)
	}

	for _, scale := range []float64{-1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		bad := ArtifactOptions{Format: FormatPNG, Scale: scale}
		if err := bad.ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("scale %v error = %v, want INVALID_INPUT", scale, err)
		}
	}
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(navigate.New(abc()), Options{})
	if r.Format.HighlightColor == "" || r.Format.MagnifyingRatio == 0 {
		t.Errorf("Format = %+v, want defaults", r.Format)
	}
	if r.BaseLayout["name"] != "breadthfirst" {
		t.Errorf("BaseLayout = %v, want default", r.BaseLayout)
	}
	if r.Cache == nil || r.Keyer == nil || r.Logger == nil {
		t.Error("NewRunner left a nil dependency")
	}
}

func TestHandleRefresh(t *testing.T) {
	r := newTestRunner(t, nil)
	res, err := r.Handle(context.Background(), r.Init(), navigate.Refresh{})
	if err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	v := res.View

	if v.RenderKey != "0" {
		t.Errorf("RenderKey = %q, want 0", v.RenderKey)
	}
	if v.NodeCount != 3 || v.EdgeCount != 2 || len(v.Elements) != 5 {
		t.Errorf("counts = %d/%d/%d, want 3/2/5", v.NodeCount, v.EdgeCount, len(v.Elements))
	}
	if v.Focus != "A" {
		t.Errorf("Focus = %q, want A", v.Focus)
	}
	if len(v.Roots) != 1 || v.Roots[0] != "A" {
		t.Errorf("Roots = %v, want [A]", v.Roots)
	}
	if roots, _ := v.Layout["roots"].([]string); len(roots) != 1 || roots[0] != "A" {
		t.Errorf("Layout[roots] = %v, want [A]", v.Layout["roots"])
	}

	// m = 1 + ln(4) ≈ 2.386; 12px → 29px for the focus and its child
	a := elementStyle(t, v, "A")
	if a[graph.StyleBackgroundColor] != "#ff7f50" || a[graph.StyleFontSize] != "29px" {
		t.Errorf("A style = %v", a)
	}
	if b := elementStyle(t, v, "B"); b[graph.StyleFontSize] != "29px" {
		t.Errorf("B style = %v, want 29px", b)
	}
	if c := elementStyle(t, v, "C"); c[graph.StyleFontSize] != "12px" {
		t.Errorf("C style = %v, want 12px", c)
	}
}

func TestHandleScenario(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t, nil)

	res, _ := r.Handle(ctx, r.Init(), navigate.Refresh{})
	res, err := r.Handle(ctx, res.State, navigate.Select{NodeID: "B"})
	if err != nil {
		t.Fatalf("Handle(select B) error: %v", err)
	}
	if res.View.RenderKey != "1" || res.View.Focus != "B" || res.View.NodeCount != 2 {
		t.Errorf("after select B: key=%q focus=%q nodes=%d", res.View.RenderKey, res.View.Focus, res.View.NodeCount)
	}
	if res.View.Outcome != navigate.OutcomeReroot {
		t.Errorf("Outcome = %q, want reroot", res.View.Outcome)
	}

	res, _ = r.Handle(ctx, res.State, navigate.Select{NodeID: "C"})
	if res.View.Intent.Kind != navigate.IntentOpenLink || res.View.Intent.URL != "https://example.org/c" {
		t.Errorf("Intent = %+v, want open_link", res.View.Intent)
	}
	if res.View.Message != "" {
		t.Errorf("Message = %q, want empty", res.View.Message)
	}
	if res.View.RenderKey != "2" {
		t.Errorf("RenderKey = %q, want 2", res.View.RenderKey)
	}

	res, _ = r.Handle(ctx, res.State, navigate.Reset{})
	if res.View.RenderKey != "3" || res.View.NodeCount != 3 || res.View.Focus != "A" {
		t.Errorf("after reset: key=%q nodes=%d focus=%q", res.View.RenderKey, res.View.NodeCount, res.View.Focus)
	}
}

func TestHandleNoDocumentation(t *testing.T) {
	r := newTestRunner(t, nil)
	// A has no parents and no link.
	res, _ := r.Handle(context.Background(), r.Init(), navigate.Select{NodeID: "A"})
	if res.View.Intent.Kind != navigate.IntentNoDocumentation {
		t.Errorf("Intent = %v, want no_documentation", res.View.Intent.Kind)
	}
	if res.View.Message != navigate.NoDocumentationMessage {
		t.Errorf("Message = %q, want %q", res.View.Message, navigate.NoDocumentationMessage)
	}
}

func TestHandleRoute(t *testing.T) {
	r := newTestRunner(t, nil)
	res, _ := r.Handle(context.Background(), r.Init(), navigate.RouteChanged{Path: "/nowhere"})
	if res.View.Page != navigate.PageNotFound {
		t.Errorf("Page = %q, want not_found", res.View.Page)
	}
}

func TestHandleCanceled(t *testing.T) {
	r := newTestRunner(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Handle(ctx, r.Init(), navigate.Refresh{}); err == nil {
		t.Error("Handle() with canceled context should fail")
	}
}

func TestViewJSON(t *testing.T) {
	r := newTestRunner(t, nil)
	res, _ := r.Handle(context.Background(), r.Init(), navigate.Select{NodeID: "A"})

	data, err := json.Marshal(res.View)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	for _, want := range []string{`"render_key":"1"`, `"layout_roots":["A"]`, `"kind":"no_documentation"`, `"group":"nodes"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("view JSON missing %s: %s", want, data)
		}
	}
}

func TestArtifactDOTCached(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := newTestRunner(t, fc)
	ctx := context.Background()
	s := r.Init()

	data, hit, err := r.ArtifactWithCacheInfo(ctx, s, ArtifactOptions{Format: FormatDOT})
	if err != nil {
		t.Fatalf("Artifact() error: %v", err)
	}
	if hit {
		t.Error("first call should miss the cache")
	}
	dot := string(data)
	if !strings.HasPrefix(dot, "digraph") || !strings.Contains(dot, `"A" -> "B"`) {
		t.Errorf("unexpected DOT:\n%s", dot)
	}
	if !strings.Contains(dot, "#ff7f50") {
		t.Error("DOT should carry the highlight color")
	}

	again, hit, err := r.ArtifactWithCacheInfo(ctx, s, ArtifactOptions{Format: FormatDOT})
	if err != nil || !hit {
		t.Errorf("second call: hit=%v err=%v, want cache hit", hit, err)
	}
	if string(again) != dot {
		t.Error("cached artifact differs")
	}

	// A different focus is a different view.
	s.Focus = "B"
	if _, hit, _ := r.ArtifactWithCacheInfo(ctx, s, ArtifactOptions{Format: FormatDOT}); hit {
		t.Error("different focus should miss the cache")
	}
}

func TestArtifactJSON(t *testing.T) {
	r := newTestRunner(t, nil)
	data, err := r.Artifact(context.Background(), r.Init(), ArtifactOptions{Format: FormatJSON})
	if err != nil {
		t.Fatalf("Artifact() error: %v", err)
	}
	var doc struct {
		Elements []map[string]any `json:"elements"`
		Layout   map[string]any   `json:"layout"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if len(doc.Elements) != 5 {
		t.Errorf("elements = %d, want 5", len(doc.Elements))
	}
	if doc.Layout["name"] != "breadthfirst" {
		t.Errorf("layout = %v", doc.Layout)
	}
}

func TestArtifactSVG(t *testing.T) {
	r := newTestRunner(t, nil)
	data, err := r.Artifact(context.Background(), r.Init(), ArtifactOptions{Format: FormatSVG})
	if err != nil {
		t.Fatalf("Artifact() error: %v", err)
	}
	if !strings.Contains(string(data), "<svg") {
		t.Error("SVG output missing <svg tag")
	}
}

func TestArtifactInvalidFormat(t *testing.T) {
	r := newTestRunner(t, nil)
	_, err := r.Artifact(context.Background(), r.Init(), ArtifactOptions{Format: "gif"})
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Artifact(gif) error = %v, want INVALID_FORMAT", err)
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	observability.NoopCacheHooks

	mu      sync.Mutex
	formats int
	renders []string
	hits    int
	misses  int
}

func (h *recordingHooks) OnFormatComplete(context.Context, int, time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.formats++
}

func (h *recordingHooks) OnRenderComplete(_ context.Context, format string, _ time.Duration, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.renders = append(h.renders, format)
}

func (h *recordingHooks) OnCacheHit(context.Context, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits++
}

func (h *recordingHooks) OnCacheMiss(context.Context, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.misses++
}

func TestHooks(t *testing.T) {
	h := &recordingHooks{}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	t.Cleanup(observability.Reset)

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := newTestRunner(t, fc)
	ctx := context.Background()

	if _, err := r.Handle(ctx, r.Init(), navigate.Refresh{}); err != nil {
		t.Fatal(err)
	}
	for range 2 {
		if _, err := r.Artifact(ctx, r.Init(), ArtifactOptions{Format: FormatDOT}); err != nil {
			t.Fatal(err)
		}
	}

	if h.formats != 3 {
		t.Errorf("format hooks = %d, want 3", h.formats)
	}
	if len(h.renders) != 1 || h.renders[0] != FormatDOT {
		t.Errorf("render hooks = %v, want [dot]", h.renders)
	}
	if h.hits != 1 || h.misses != 1 {
		t.Errorf("cache hits/misses = %d/%d, want 1/1", h.hits, h.misses)
	}
}
