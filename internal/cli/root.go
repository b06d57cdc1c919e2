// Package cli implements the csvclean command line.
//
// The operation commands (clean, aggregate, info) read one JSON request and
// write one response envelope: success goes to stdout with exit status 0,
// failure goes to stderr with exit status 1. Logs always go to stderr.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvclean/internal/config"
	"github.com/JonMunkholm/csvclean/internal/core"
)

// ErrOperationFailed is returned by a command that has already written an
// error envelope. Execute exits non-zero without printing it again.
var ErrOperationFailed = errors.New("operation failed")

var (
	version = "dev"

	cfg     *config.Config
	service *core.Service
)

var rootCmd = &cobra.Command{
	Use:   "csvclean",
	Short: "Clean, aggregate and profile CSV data",
	Long: `csvclean cleans and aggregates CSV data.

Run one operation by piping a JSON request into a command:

  echo '{"csv_data":"a,b\n1,\n2,3","method":"dropna"}' | csvclean clean

or serve the same operations over HTTP (serve) or MCP (mcp).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Init sets the configuration and service the commands use.
func Init(c *config.Config, s *core.Service, v string) {
	cfg = c
	service = s
	if v != "" {
		version = v
	}
}

// Execute runs the root command and returns the process exit status.
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, ErrOperationFailed) {
			fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		}
		return 1
	}
	return 0
}

// requireService fails commands run before Init.
func requireService() error {
	if cfg == nil || service == nil {
		return errors.New("cli: not initialised")
	}
	return nil
}
