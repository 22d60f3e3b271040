package graph_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/flowguide/pkg/graph"
)

const exampleDoc = `{
  "nodes": [
    {"id": "start", "label": "Is the uncertainty aleatoric?", "data": null},
    {"id": "yes", "label": "Use a probabilistic model", "data": "https://example.org/prob"},
    {"id": "no", "label": "Collect more data", "data": null}
  ],
  "edges": [
    {"source": "start", "target": "yes", "label": "yes"},
    {"source": "start", "target": "no", "label": "no"}
  ]
}`

func ExampleReadGraph() {
	g, err := graph.ReadGraph(strings.NewReader(exampleDoc))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Println("Roots:", g.Roots())
	_, children, _ := graph.FindChildren("start", g.Nodes, g.Edges)
	for _, c := range children {
		fmt.Printf("%s -> %q\n", c.ID, c.DocURL())
	}
	// Output:
	// Roots: [start]
	// yes -> "https://example.org/prob"
	// no -> ""
}

func ExampleSubtree() {
	g, _ := graph.ReadGraph(strings.NewReader(exampleDoc))

	nodes, edges := graph.Subtree("yes", g.Nodes, g.Edges)
	fmt.Println("Nodes:", len(nodes), "Edges:", len(edges))
	fmt.Println("Roots:", graph.FindRoots(nodes, edges))
	// Output:
	// Nodes: 1 Edges: 0
	// Roots: [yes]
}
