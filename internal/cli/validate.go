package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowguide/pkg/config"
	"github.com/matzehuels/flowguide/pkg/errors"
	"github.com/matzehuels/flowguide/pkg/graph"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [graph.json]",
		Short: "Check a graph document",
		Long: `Check a graph document and print its size and roots.

Without an argument the graph named by the configuration is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				cfg, err := config.Load(config.ResolvePath(c.configPath))
				if err != nil {
					return err
				}
				path = cfg.GraphDataFilePath
			}

			g, err := graph.ReadGraphFile(path)
			if err != nil {
				printError("%s", path)
				return err
			}
			report := summarize(g)

			printSuccess("Valid graph")
			printKeyValue("File", path)
			printKeyValue("Nodes", strconv.Itoa(report.nodes))
			printKeyValue("Edges", strconv.Itoa(report.edges))
			printKeyValue("Roots", fmt.Sprintf("%d %v", len(report.roots), report.roots))
			printKeyValue("Leaves", strconv.Itoa(report.leaves))
			printKeyValue("Linked", strconv.Itoa(report.linked))
			if report.cyclic {
				printWarning("Graph contains a cycle; nodes on it are only reachable through other roots")
			}
			if len(report.roots) == 0 {
				printWarning("Graph has no roots; the explorer will show no focus")
			}
			if len(report.badLinks) > 0 {
				printWarning("Documentation links without an http(s) scheme: %v", report.badLinks)
			}
			if n := report.leaves - report.linkedLeaves; n > 0 {
				printWarning("%d terminal nodes have no documentation link", n)
			}
			printNextStep("Explore it", appName+" explore")
			return nil
		},
	}
}

// graphReport summarizes a graph for the validate command.
type graphReport struct {
	nodes        int
	edges        int
	roots        []string
	leaves       int
	linked       int
	linkedLeaves int
	badLinks     []string
	cyclic       bool
}

func summarize(g graph.Graph) graphReport {
	r := graphReport{
		nodes:  len(g.Nodes),
		edges:  len(g.Edges),
		roots:  g.Roots(),
		cyclic: g.HasCycle(),
	}
	hasChildren := make(map[string]bool, len(g.Nodes))
	for _, e := range g.Edges {
		hasChildren[e.Source] = true
	}
	for _, n := range g.Nodes {
		linked := n.DocURL() != ""
		if linked {
			r.linked++
			if errors.ValidateURL(n.DocURL()) != nil {
				r.badLinks = append(r.badLinks, n.ID)
			}
		}
		if !hasChildren[n.ID] {
			r.leaves++
			if linked {
				r.linkedLeaves++
			}
		}
	}
	return r
}
