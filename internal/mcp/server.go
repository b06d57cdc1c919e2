// Package mcp exposes the cleaning engine as MCP (Model Context Protocol)
// tools, so assistants can clean, aggregate and profile CSV data.
package mcp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/JonMunkholm/csvclean/internal/core"
)

// ErrMissingService is returned when no engine service is provided.
var ErrMissingService = errors.New("mcp: service is required")

// Server is the MCP server for csvclean.
type Server struct {
	service *core.Service
	server  *mcp.Server
}

// NewServer creates an MCP server backed by service.
func NewServer(service *core.Service, version string) (*Server, error) {
	if service == nil {
		return nil, ErrMissingService
	}

	impl := &mcp.Implementation{
		Name:    "csvclean",
		Version: version,
	}

	s := &Server{
		service: service,
		server:  mcp.NewServer(impl, nil),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run serves MCP over stdio.
// It blocks until the context is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns a streamable HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// RunHTTP serves MCP over HTTP on addr.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
