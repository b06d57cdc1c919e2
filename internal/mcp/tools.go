package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/JonMunkholm/csvclean/internal/core"
	"github.com/JonMunkholm/csvclean/internal/protocol"
)

// CleanInput is the input schema for the clean_csv tool.
type CleanInput struct {
	CSVData    string `json:"csv_data" jsonschema:"CSV text with a header row"`
	Method     string `json:"method,omitempty" jsonschema:"cleaning method (default dropna)"`
	Column     string `json:"column,omitempty" jsonschema:"column to clean; empty means every column"`
	Value      any    `json:"value,omitempty" jsonschema:"fill value, or {oldVal, newVal} for replace"`
	TargetType string `json:"target_type,omitempty" jsonschema:"int, float, str or bool for typecast; exact or contains for replace"`
	Limit      any    `json:"limit,omitempty" jsonschema:"maximum consecutive cells filled by ffill or bfill"`
}

// AggregateInput is the input schema for the aggregate_csv tool.
type AggregateInput struct {
	CSVData      string   `json:"csv_data" jsonschema:"CSV text with a header row"`
	Method       string   `json:"method,omitempty" jsonschema:"sum, mean or both"`
	TargetColumn string   `json:"target_column,omitempty" jsonschema:"column to group rows by"`
	SelectedCols []string `json:"selected_cols,omitempty" jsonschema:"numeric columns to total or average"`
}

// DescribeInput is the input schema for the describe_csv tool.
type DescribeInput struct {
	CSVData string `json:"csv_data" jsonschema:"CSV text with a header row"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "clean_csv",
		Description: "Clean CSV data with one method: " + methodList(),
	}, s.handleClean)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "aggregate_csv",
		Description: "Group CSV rows by a column and report counts plus sums and/or means of numeric columns",
	}, s.handleAggregate)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "describe_csv",
		Description: "Profile every column of CSV data: counts, distinct values and numeric statistics",
	}, s.handleDescribe)
}

// handleClean handles the clean_csv tool invocation.
func (s *Server) handleClean(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CleanInput,
) (*mcp.CallToolResult, any, error) {
	// Round-trip through the wire decoder so value and limit are read
	// exactly as the HTTP and CLI transports read them.
	body, err := json.Marshal(input)
	if err != nil {
		return toolResult("", err), nil, nil
	}
	in, err := protocol.DecodeClean(body)
	if err != nil {
		return toolResult("", err), nil, nil
	}

	out, err := s.service.Clean(ctx, in.CSVData, in.Request)
	return toolResult(out, err), nil, nil
}

// handleAggregate handles the aggregate_csv tool invocation.
func (s *Server) handleAggregate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AggregateInput,
) (*mcp.CallToolResult, any, error) {
	if input.CSVData == "" {
		return toolResult("", core.NewError(core.ErrMissingData, "CSV data is required")), nil, nil
	}

	out, err := s.service.Aggregate(ctx, input.CSVData, core.AggregateRequest{
		Method:          input.Method,
		TargetColumn:    input.TargetColumn,
		SelectedColumns: input.SelectedCols,
	})
	return toolResult(out, err), nil, nil
}

// handleDescribe handles the describe_csv tool invocation.
func (s *Server) handleDescribe(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DescribeInput,
) (*mcp.CallToolResult, any, error) {
	if input.CSVData == "" {
		return toolResult("", core.NewError(core.ErrMissingData, "CSV data is required")), nil, nil
	}

	out, err := s.service.Describe(ctx, input.CSVData)
	return toolResult(out, err), nil, nil
}

// toolResult wraps an outcome in the response envelope. Failures set
// IsError so clients can tell them apart without parsing the text.
func toolResult(data string, err error) *mcp.CallToolResult {
	resp := protocol.Result(data, err)

	var b strings.Builder
	if encErr := resp.Encode(&b); encErr != nil {
		resp = protocol.Failure(encErr)
		b.Reset()
		resp.Encode(&b) //nolint:errcheck
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: strings.TrimSuffix(b.String(), "\n")}},
		IsError: !resp.OK(),
	}
}

func methodList() string {
	names := make([]string, 0, len(core.Methods()))
	for _, m := range core.Methods() {
		names = append(names, string(m))
	}
	return strings.Join(names, ", ")
}
