// Package cli implements the flowguide command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowguide/pkg/buildinfo"
	"github.com/matzehuels/flowguide/pkg/cache"
	"github.com/matzehuels/flowguide/pkg/config"
	"github.com/matzehuels/flowguide/pkg/graph"
	"github.com/matzehuels/flowguide/pkg/navigate"
	"github.com/matzehuels/flowguide/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "flowguide"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Flowguide walks users through a decision flowchart",
		Long:          `Flowguide serves an interactive flowchart explorer: clicking a node narrows the chart to the branch below it, and clicking a final method opens its documentation.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "",
		fmt.Sprintf("config file (default $%s or %s)", config.EnvPath, config.DefaultPath))

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Application Loading
// =============================================================================

// app bundles the configuration and the pipeline built from it.
type app struct {
	cfg    *config.Config
	runner *pipeline.Runner
}

// loadApp reads the configuration and the graph it names. Any failure here
// is fatal for the calling command.
func (c *CLI) loadApp(ctx context.Context, noCache bool) (*app, error) {
	logger := loggerFromContext(ctx)

	cfg, err := config.Load(config.ResolvePath(c.configPath))
	if err != nil {
		return nil, err
	}
	if cfg.Echo {
		logger.SetLevel(LogDebug)
	}
	logger.Debug("loaded config", "path", cfg.Path())

	prog := newProgress(logger)
	g, err := graph.ReadGraphFile(cfg.GraphDataFilePath)
	if err != nil {
		return nil, err
	}
	nav := navigate.New(g, navigate.WithLogger(logger))
	if len(nav.Roots()) == 0 {
		logger.Warn("graph has no root nodes; nothing will be focused")
	}
	prog.done("Loaded graph", "nodes", len(g.Nodes), "edges", len(g.Edges), "path", cfg.GraphDataFilePath)

	artifacts, err := newCache(cfg, noCache)
	if err != nil {
		return nil, err
	}

	runner := pipeline.NewRunner(nav, pipeline.Options{
		Format:     cfg.FormatOptions(),
		BaseLayout: cfg.BaseGraphLayout,
		Cache:      artifacts,
		Keyer:      cache.NewScopedKeyer(cache.NewDefaultKeyer(), buildinfo.CacheScope()),
		Logger:     logger,
	})
	return &app{cfg: cfg, runner: runner}, nil
}

// newCache opens the artifact cache selected by cfg.
func newCache(cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/flowguide/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
