package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csvclean/internal/core"
	"github.com/JonMunkholm/csvclean/internal/protocol"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	server, err := NewServer(core.NewService(core.NewLimiter(2, 0), 0), "test")
	require.NoError(t, err)
	return server
}

// envelope decodes the text content of a tool result.
func envelope(t *testing.T, res *mcp.CallToolResult) protocol.Response {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])

	var resp protocol.Response
	require.NoError(t, json.Unmarshal([]byte(text.Text), &resp))
	return resp
}

func TestNewServer(t *testing.T) {
	t.Run("nil service returns error", func(t *testing.T) {
		server, err := NewServer(nil, "test")
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingService)
	})

	t.Run("valid service creates server", func(t *testing.T) {
		assert.NotNil(t, newTestServer(t))
	})
}

func TestSession_ListAndCallTools(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"clean_csv", "aggregate_csv", "describe_csv"}, names)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name: "clean_csv",
		Arguments: map[string]any{
			"csv_data": "a,b\n1,x\n,y\n",
			"method":   "fillna",
			"value":    0,
		},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	resp := envelope(t, res)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "a,b\n1,x\n0,y\n", *resp.Data)
}
