package main

import (
	"context"
	"errors"
	"net/http"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httpserver "github.com/fyrsmithlabs/mcp-cliniko/internal/http"
	"github.com/fyrsmithlabs/mcp-cliniko/internal/mcp"
)

type serveOptions struct {
	http     bool
	httpAddr string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP on stdio",
		Long: `Serve the MCP protocol on stdin/stdout until the client disconnects.

With --http, an HTTP sidecar also serves /health, /status, /metrics and the
streamable HTTP transport on /mcp.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.http, "http", false, "also start the HTTP sidecar")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", "", "HTTP sidecar listen address (overrides server.http_addr)")
	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if opts.http {
		cfg.Server.Enabled = true
	}
	if opts.httpAddr != "" {
		cfg.Server.Addr = opts.httpAddr
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	server := mcp.NewServer(mcp.ServerConfig{Version: version, Logger: a.logger}, a.dispatcher)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if cfg.Server.Enabled {
		streamable := sdk.NewStreamableHTTPHandler(func(*http.Request) *sdk.Server {
			return server.MCPServer()
		}, nil)
		sidecar, err := httpserver.NewServer(a.logger.Named("http"), &httpserver.Config{
			Addr:            cfg.Server.Addr,
			Version:         version,
			ShutdownTimeout: cfg.Server.ShutdownTimeout.Duration(),
		},
			httpserver.WithRegistry(a.registry),
			httpserver.WithMCPHandler(streamable),
			httpserver.WithGatherer(a.prom),
			httpserver.WithTelemetry(a.telemetry),
			httpserver.WithMetrics(httpserver.NewHTTPMetricsWithMeter(a.telemetry.Meter(instrumentationName), a.logger)),
		)
		if err != nil {
			return err
		}
		g.Go(func() error { return sidecar.Start(ctx) })
	}

	g.Go(func() error {
		// The stdio session ending stops the sidecar too.
		defer cancel()
		return server.Run(ctx)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	a.logger.Info(context.WithoutCancel(ctx), "server stopped", zap.Error(err))
	return err
}
