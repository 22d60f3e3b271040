package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/flowguide/pkg/graph"
)

func view() ([]graph.Node, []graph.Edge) {
	url := "https://example.org/b"
	nodes := []graph.Node{
		{ID: "a", Label: "Start", Style: graph.Style{graph.StyleBackgroundColor: "#ff7f50", graph.StyleFontSize: "29px"}},
		{ID: "b", Label: "Leaf", Data: &url},
	}
	edges := []graph.Edge{{Source: "a", Target: "b", Label: "yes", Style: graph.Style{graph.StyleFontSize: "23.5px"}}}
	return nodes, edges
}

func TestToDOT_Basic(t *testing.T) {
	nodes, edges := view()
	dot := ToDOT(nodes, edges, Options{})

	for _, want := range []string{
		"digraph G",
		`"a" [label="Start"`,
		`"b" [label="Leaf"`,
		`"a" -> "b" [label="yes", fontsize=23.5]`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() output missing %s:\n%s", want, dot)
		}
	}
}

func TestToDOT_Styles(t *testing.T) {
	nodes, edges := view()
	dot := ToDOT(nodes, edges, Options{})

	if !strings.Contains(dot, `fillcolor="#ff7f50"`) {
		t.Error("ToDOT() focus node missing highlight fill")
	}
	if !strings.Contains(dot, "fontsize=29") {
		t.Error("ToDOT() focus node missing magnified font size")
	}
	if !strings.Contains(dot, `URL="https://example.org/b"`) {
		t.Error("ToDOT() documented node missing URL")
	}
}

func TestToDOT_UnlabeledEdge(t *testing.T) {
	dot := ToDOT([]graph.Node{{ID: "x"}, {ID: "y"}}, []graph.Edge{{Source: "x", Target: "y"}}, Options{})
	if !strings.Contains(dot, "  \"x\" -> \"y\";\n") {
		t.Errorf("ToDOT() unlabeled edge should have no attribute list:\n%s", dot)
	}
	if !strings.Contains(dot, `"x" [label="x"]`) {
		t.Errorf("ToDOT() node without label should fall back to its id:\n%s", dot)
	}
}

func TestFmtLabel(t *testing.T) {
	nodes, _ := view()

	if got := fmtLabel(nodes[0], false); got != "Start" {
		t.Errorf("fmtLabel() simple mode = %q, want %q", got, "Start")
	}

	label := fmtLabel(nodes[1], true)
	if !strings.HasPrefix(label, "Leaf\n") {
		t.Errorf("fmtLabel() detailed should start with the label: %q", label)
	}
	if !strings.Contains(label, "id: b") {
		t.Errorf("fmtLabel() detailed missing id: %q", label)
	}
	if !strings.Contains(label, "link: https://example.org/b") {
		t.Errorf("fmtLabel() detailed missing link: %q", label)
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", `"plain"`},
		{`say "hi"`, `"say \"hi\""`},
		{"two\nlines", `"two\nlines"`},
		{`back\slash`, `"back\\slash"`},
	}
	for _, tt := range tests {
		if got := quote(tt.in); got != tt.want {
			t.Errorf("quote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		want string
	}{
		{
			name: "with viewBox",
			svg:  `<svg viewBox="10 20 800 600" xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 800.00 600.00" width="800" height="600">content</svg>`,
		},
		{
			name: "no viewBox",
			svg:  `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
		},
		{
			name: "zero dimensions",
			svg:  `<svg viewBox="0 0 0 0">content</svg>`,
			want: `<svg viewBox="0 0 0 0">content</svg>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeViewBox([]byte(tt.svg))
			if string(got) != tt.want {
				t.Errorf("normalizeViewBox() = %q, want %q", string(got), tt.want)
			}
		})
	}
}

func TestRenderSVG(t *testing.T) {
	nodes, edges := view()
	svg, err := RenderSVG(context.Background(), ToDOT(nodes, edges, Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}

	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG() output missing <svg> tag")
	}
	if !strings.Contains(string(svg), "Start") {
		t.Error("RenderSVG() output missing node label")
	}
}

func TestRenderSVG_InvalidDOT(t *testing.T) {
	_, err := RenderSVG(context.Background(), `not valid DOT {{{`)
	if err == nil {
		t.Error("RenderSVG() should return error for invalid DOT")
	}
}
