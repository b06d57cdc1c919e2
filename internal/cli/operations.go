package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvclean/internal/core"
	"github.com/JonMunkholm/csvclean/internal/protocol"
)

// operation decodes a request body and runs it.
type operation func(ctx context.Context, body []byte) (string, error)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Apply a cleaning method to CSV data",
	Long: `Read a cleaning request as JSON and print the cleaned CSV in a response envelope.

Request fields:
  csv_data     CSV text with a header row (required)
  method       dropna, typecast, fillna, ffill, bfill, fillna_mean,
               fillna_median, fillna_mode or replace (default dropna)
  column       column to clean; omit for every column
  value        fill value, or {"oldVal": ..., "newVal": ...} for replace
  target_type  int, float, str or bool for typecast; exact or contains for replace
  limit        maximum consecutive cells filled by ffill or bfill`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runOperation(cmd, func(ctx context.Context, body []byte) (string, error) {
			in, err := protocol.DecodeClean(body)
			if err != nil {
				return "", err
			}
			return service.Clean(ctx, in.CSVData, in.Request)
		})
	},
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Group CSV rows and total or average numeric columns",
	Long: `Read an aggregation request as JSON and print the grouped CSV in a response envelope.

Request fields:
  csv_data       CSV text with a header row (required)
  method         sum, mean or both
  target_column  column to group rows by
  selected_cols  numeric columns to total or average`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runOperation(cmd, func(ctx context.Context, body []byte) (string, error) {
			in, err := protocol.DecodeAggregate(body)
			if err != nil {
				return "", err
			}
			return service.Aggregate(ctx, in.CSVData, in.Request)
		})
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Profile the columns of CSV data",
	Long: `Read {"csv_data": "..."} and print a per-column profile: counts, distinct
values, numeric statistics and value kinds.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runOperation(cmd, func(ctx context.Context, body []byte) (string, error) {
			csvData, err := protocol.DecodeDescribe(body)
			if err != nil {
				return "", err
			}
			return service.Describe(ctx, csvData)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{cleanCmd, aggregateCmd, infoCmd} {
		c.Flags().StringP("file", "f", "", "read the request from a file instead of stdin")
		rootCmd.AddCommand(c)
	}
}

// runOperation reads the request, runs op and writes the envelope.
func runOperation(cmd *cobra.Command, op operation) error {
	if err := requireService(); err != nil {
		return err
	}

	var out string
	body, err := readRequest(cmd)
	if err == nil {
		out, err = op(cmd.Context(), body)
	}

	resp := protocol.Result(out, err)
	if resp.OK() {
		return resp.Encode(cmd.OutOrStdout())
	}
	if encErr := resp.Encode(cmd.ErrOrStderr()); encErr != nil {
		return encErr
	}
	return ErrOperationFailed
}

func readRequest(cmd *cobra.Command) ([]byte, error) {
	path, err := cmd.Flags().GetString("file")
	if err != nil {
		return nil, err
	}

	var r io.Reader = cmd.InOrStdin()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, core.NewErrorDetails(core.ErrInvalidReq, "Could not open request file", err.Error())
		}
		defer f.Close()
		r = f
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, core.NewErrorDetails(core.ErrSystem, "Could not read request", err.Error())
	}
	return body, nil
}
