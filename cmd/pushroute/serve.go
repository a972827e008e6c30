package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/vango-dev/pushroute/pkg/live"
	"github.com/vango-dev/pushroute/pkg/metrics"
)

func serveCmd(configPath *string) *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site",
		Long: `Serve the site with server-rendered pages and live sessions.

Endpoints:
  /                       pages, rendered for the requested path
  /_pushroute/live        WebSocket sessions
  /_pushroute/client.js   browser client
  /metrics                Prometheus metrics
  /healthz                liveness

Examples:
  pushroute serve
  pushroute serve --port=8080
  pushroute serve -c site.yaml --host=0.0.0.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, *configPath, port, host)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from project file)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from project file)")

	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int, host string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Port = port
	}
	if host != "" {
		cfg.Host = host
	}

	logger := newLogger(cfg)
	st, err := cfg.Site(ctx, cfg.Loader(logger))
	if err != nil {
		return err
	}
	shutdown, err := cfg.ShutdownTimeout()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(metrics.WithRegistry(reg))

	server := live.New(st, &live.Config{
		Address:         cfg.Address(),
		ShutdownTimeout: shutdown,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
	}, live.WithLogger(logger), live.WithMetrics(m, reg))

	out := cmd.OutOrStdout()
	success(out, "Serving %s", st.Name)
	info(out, "http://%s", cfg.Address())
	info(out, "%d routes, default %s", len(st.Routes), st.Default)
	fmt.Fprintln(out)

	return server.Run(ctx)
}
