package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowguide/pkg/navigate"
	"github.com/matzehuels/flowguide/pkg/pipeline"
)

// exportOptions holds flags for the export command.
type exportOptions struct {
	selects  []string
	reset    bool
	format   string
	output   string
	detailed bool
	scale    float64
	noCache  bool
}

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	opts := exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a view of the flowchart",
		Long: `Export a view of the flowchart.

Starting from the full graph, each --select is applied in order as if the
node had been clicked, then --reset if given. The resulting view is written
as Cytoscape JSON, Graphviz DOT, SVG, PNG or PDF. PNG and PDF require
rsvg-convert.`,
		Example: `  flowguide export -f svg -o full.svg
  flowguide export --select sampling --select mc -f dot`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.selects, "select", nil, "node id to select (repeatable, applied in order)")
	cmd.Flags().BoolVar(&opts.reset, "reset", false, "reset the view after the selections")
	cmd.Flags().StringVarP(&opts.format, "format", "f", pipeline.FormatJSON, "output format: json, dot, svg, png, pdf")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include node ids and links in Graphviz labels")
	cmd.Flags().Float64Var(&opts.scale, "scale", pipeline.DefaultScale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		formats := []string{pipeline.FormatJSON, pipeline.FormatDOT, pipeline.FormatSVG, pipeline.FormatPNG, pipeline.FormatPDF}
		return formats, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func (c *CLI) runExport(ctx context.Context, stdout io.Writer, opts exportOptions) error {
	logger := loggerFromContext(ctx)

	artifact := pipeline.ArtifactOptions{Format: opts.format, Detailed: opts.detailed, Scale: opts.scale}
	if err := artifact.ValidateAndSetDefaults(); err != nil {
		return err
	}

	a, err := c.loadApp(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer a.runner.Close()

	state, err := replay(ctx, a.runner, opts.selects, opts.reset, logger.Infof)
	if err != nil {
		return err
	}

	var spin *renderSpinner
	if opts.output != "" && artifact.Format != pipeline.FormatJSON && artifact.Format != pipeline.FormatDOT {
		spin = startSpinner(ctx, os.Stderr, fmt.Sprintf("Rendering %s...", artifact.Format))
	}
	data, cached, err := a.runner.ArtifactWithCacheInfo(ctx, state, artifact)
	if spin != nil {
		spin.stop()
	}
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess("Exported %s", artifact.Format)
	printStats(len(state.Graph.Nodes), len(state.Graph.Edges), cached)
	printFile(opts.output)
	return nil
}

// replay applies selections (and an optional reset) to the initial state
// and reports intents through report.
func replay(ctx context.Context, runner *pipeline.Runner, selects []string, reset bool, report func(string, ...any)) (navigate.State, error) {
	events := make([]navigate.Event, 0, len(selects)+2)
	events = append(events, navigate.Refresh{})
	for _, id := range selects {
		events = append(events, navigate.Select{NodeID: id})
	}
	if reset {
		events = append(events, navigate.Reset{})
	}

	state := runner.Init()
	for _, ev := range events {
		res, err := runner.Handle(ctx, state, ev)
		if err != nil {
			return state, err
		}
		state = res.State

		switch res.View.Intent.Kind {
		case navigate.IntentOpenLink:
			report("%s: documentation at %s", ev.(navigate.Select).NodeID, res.View.Intent.URL)
		case navigate.IntentNoDocumentation:
			report("%s: %s", ev.(navigate.Select).NodeID, res.View.Message)
		}
		if res.View.Outcome == navigate.OutcomeUnknown {
			report("%s: no such node in the current view", ev.(navigate.Select).NodeID)
		}
	}
	return state, nil
}
