package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvclean/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default the server communicates over stdio. Use --addr to serve
streamable HTTP instead.

Tools:
  clean_csv      apply a cleaning method
  aggregate_csv  group rows and total or average numeric columns
  describe_csv   profile every column

Examples:
  # Stdio mode
  csvclean mcp

  # HTTP mode
  csvclean mcp --addr 127.0.0.1:8081

MCP client configuration:
  {
    "mcpServers": {
      "csvclean": {
        "command": "/path/to/csvclean",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().String("addr", "", "HTTP listen address (empty = use stdio)")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	if err := requireService(); err != nil {
		return err
	}

	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return fmt.Errorf("getting addr flag: %w", err)
	}

	server, err := mcp.NewServer(service, version)
	if err != nil {
		return err
	}

	if addr != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
