package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rendis/flowcanvas/internal/logging"
	"github.com/rendis/flowcanvas/pkg/mcp"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var httpMode bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the flowcanvas tools over MCP",
		Long: `Serve the flowcanvas tools over the Model Context Protocol.

By default the server speaks MCP over stdin/stdout, ready to be registered as a
local tool server. With --http it listens for streamable HTTP sessions on the
configured listen address instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := mcp.NewFlowcanvasServer(mcp.FlowcanvasServerDeps{
				Canvas:  a.canvas,
				Logger:  logging.New(os.Stderr, a.cfg.LogLevel, a.cfg.LogFormat),
				Version: version,
			})
			if err != nil {
				return err
			}
			if httpMode {
				return srv.ServeHTTP(ctx, a.cfg.ListenAddr)
			}
			return serveStdio(ctx, srv)
		},
	}
	cmd.Flags().BoolVar(&httpMode, "http", false, "serve streamable HTTP instead of stdio")
	cmd.Flags().StringVar(&a.cfg.ListenAddr, "listen-addr", a.cfg.ListenAddr, "TCP listen address for --http")
	return cmd
}

func serveStdio(ctx context.Context, srv *mcp.FlowcanvasServer) error {
	err := srv.Serve(ctx)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
