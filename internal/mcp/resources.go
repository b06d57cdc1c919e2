package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/JonMunkholm/csvclean/internal/core"
)

const (
	// uriScheme is the custom URI scheme for csvclean resources.
	uriScheme = "csvclean://"

	methodsURI = uriScheme + "methods"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         methodsURI,
		Name:        "methods",
		Description: "Cleaning and aggregation methods accepted by the tools",
		MIMEType:    "application/json",
	}, s.handleMethodsResource)
}

type methodsInfo struct {
	Clean     []core.Method          `json:"clean"`
	Aggregate []core.AggregateMethod `json:"aggregate"`
	Limiter   core.LimiterStatus     `json:"limiter"`
}

// handleMethodsResource lists the supported methods and the current limiter
// occupancy.
func (s *Server) handleMethodsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	data, err := json.Marshal(methodsInfo{
		Clean:     core.Methods(),
		Aggregate: []core.AggregateMethod{core.AggregateSum, core.AggregateMean, core.AggregateBoth},
		Limiter:   s.service.LimiterStatus(),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding methods: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
