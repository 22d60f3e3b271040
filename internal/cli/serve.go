package cli

import (
	"context"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/flowguide/internal/server"
	"github.com/matzehuels/flowguide/pkg/observability"
	"github.com/matzehuels/flowguide/pkg/session"
)

// serveOptions holds flags for the serve command.
type serveOptions struct {
	addr      string
	secure    bool
	noCache   bool
	noMetrics bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the flowchart web UI",
		Long: `Run the web UI and its JSON API.

The configuration and graph are loaded once at startup; any problem with
either stops the server before it listens. Sessions are kept in the store
selected by the [session] section of the configuration.`,
		Example: `  flowguide serve
  flowguide serve -c config/flowguide.yaml --addr :9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (overrides [server] addr)")
	cmd.Flags().BoolVar(&opts.secure, "secure-cookie", false, "mark the session cookie Secure (HTTPS only)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.noMetrics, "no-metrics", false, "disable the /metrics endpoint")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOptions) error {
	logger := loggerFromContext(ctx)

	a, err := c.loadApp(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer a.runner.Close()

	store, err := session.Open(ctx, a.cfg.SessionOptions())
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("session store ready", "backend", a.cfg.Session.Backend, "ttl", a.cfg.Session.TTL)

	srvOpts := server.Options{
		TTL:    a.cfg.Session.TTL,
		Secure: opts.secure,
		Logger: logger,
	}
	if !opts.noMetrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		observability.NewPrometheus(reg).Install()
		srvOpts.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}
	srv := server.New(a.runner, store, srvOpts)

	addr := opts.addr
	if addr == "" {
		addr = a.cfg.Server.Addr
	}

	printInfo("Serving flowchart at %s", StyleHighlight.Render(displayURL(addr)))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx, addr)
	})
	g.Go(func() error {
		return srv.RunJanitor(gctx, server.DefaultJanitorInterval)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	printSuccess("Server stopped")
	return nil
}

// displayURL turns a listen address into a browsable URL.
func displayURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
