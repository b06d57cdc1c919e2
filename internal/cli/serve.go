package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/csvclean/internal/mcp"
	"github.com/JonMunkholm/csvclean/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API on SERVER_HOST:SERVER_PORT.

Endpoints:
  POST /api/clean       cleaning request (JSON)
  POST /api/aggregate   aggregation request (JSON)
  POST /api/info        profile request (JSON)
  POST /api/upload      multipart form with file, operation and options
  GET  /api/methods     supported methods
  GET  /healthz         liveness and limiter occupancy
  GET  /metrics         Prometheus metrics

When MCP_HTTP_ADDR (or --mcp-addr) is set, the MCP tools are served over
streamable HTTP on that address as well. The server stops on SIGINT or
SIGTERM after in-flight operations finish.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "HTTP port (overrides SERVER_PORT)")
	serveCmd.Flags().String("mcp-addr", "", "also serve MCP over HTTP on this address (overrides MCP_HTTP_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := requireService(); err != nil {
		return err
	}

	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	mcpAddr, err := cmd.Flags().GetString("mcp-addr")
	if err != nil {
		return fmt.Errorf("getting mcp-addr flag: %w", err)
	}
	if mcpAddr == "" {
		mcpAddr = cfg.MCP.HTTPAddr
	}

	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"max_concurrent", cfg.Processing.MaxConcurrent,
		"max_input_bytes", cfg.Processing.MaxInputBytes,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"mcp_addr", mcpAddr,
	)

	server, mcpServer, err := buildServers(mcpAddr)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return server.Run(ctx)
	})
	if mcpServer != nil {
		g.Go(func() error {
			slog.Info("mcp server listening", "addr", mcpAddr)
			return mcpServer.RunHTTP(ctx, mcpAddr)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}

// buildServers constructs everything serve runs before any of it starts.
// The MCP server is nil when mcpAddr is empty.
func buildServers(mcpAddr string) (*web.Server, *mcp.Server, error) {
	server := web.NewServer(cfg, service)
	if mcpAddr == "" {
		return server, nil, nil
	}

	mcpServer, err := mcp.NewServer(service, version)
	if err != nil {
		return nil, nil, fmt.Errorf("building mcp server: %w", err)
	}
	return server, mcpServer, nil
}
