package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/forgemap/internal/server"
	"github.com/matzehuels/forgemap/pkg/observability/metrics"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noMetrics bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the exploration API over HTTP",
		Long: `Serve the exploration API over HTTP.

Each client creates a workspace holding its own graph. Shareable links
point at /favoris on this server, which restores them into a new
workspace. Prometheus metrics are exposed on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			api, store, err := c.newForge(ctx, c.Logger)
			if err != nil {
				return err
			}
			defer store.Close()

			opts := server.Options{
				Forge:          api,
				Logger:         c.Logger,
				ShareBaseURL:   c.cfg.Share.BaseURL,
				AllowedOrigins: c.cfg.Server.AllowedOrigins,
				WorkspaceTTL:   c.cfg.Server.WorkspaceTTL.Duration,
				MaxRestoreIDs:  c.cfg.Server.MaxRestoreIDs,
			}
			if !noMetrics {
				reg := prometheus.NewRegistry()
				reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
				m := metrics.New(reg)
				m.Register()
				opts.Metrics = m.Handler()
			}

			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			printInfo("Listening on %s", addr)
			printDetail("Share links: %s", c.cfg.Share.BaseURL)
			return server.New(opts).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable the /metrics endpoint")
	return cmd
}
