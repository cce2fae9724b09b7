package mcp_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/effective-security/mcpclient/mcp"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textResult(text string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}},
	}
}

func newTestServer(opts *mcpsdk.ServerOptions) *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{Name: "test-server", Version: "v0.0.1"}, opts)

	server.AddTool(&mcpsdk.Tool{
		Name:        "add",
		Description: "Add two numbers",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"a": map[string]any{"type": "number"},
				"b": map[string]any{"type": "number"},
			},
			"required": []any{"a", "b"},
		},
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		var args struct {
			A float64 `json:"a"`
			B float64 `json:"b"`
		}
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return nil, err
		}
		js, _ := json.Marshal(args.A + args.B)
		return textResult(string(js)), nil
	})

	server.AddTool(&mcpsdk.Tool{
		Name:        "echo",
		Description: "Echo input",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		var args map[string]any
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return nil, err
		}
		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{
				&mcpsdk.TextContent{Text: "line1"},
				&mcpsdk.TextContent{Text: "args:" + string(req.Params.Arguments)},
			},
		}, nil
	})

	server.AddTool(&mcpsdk.Tool{
		Name:        "get_weather",
		InputSchema: map[string]any{"type": "object"},
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		res := textResult("timeout")
		res.IsError = true
		return res, nil
	})

	return server
}

func connectTestClient(t *testing.T, opts *mcpsdk.ServerOptions) *mcp.Client {
	t.Helper()
	ctx := context.Background()

	st, ct := mcpsdk.NewInMemoryTransports()
	ss, err := newTestServer(opts).Connect(ctx, st, nil)
	require.NoError(t, err)

	client, err := mcp.ConnectTransport(ctx, ct, mcp.WithImplementation("test-client", "v1"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
		_ = ss.Close()
	})
	return client
}

func TestClient_ListTools(t *testing.T) {
	t.Parallel()

	for _, pageSize := range []int{0, 1} {
		client := connectTestClient(t, &mcpsdk.ServerOptions{PageSize: pageSize})

		info := client.ServerInfo()
		require.NotNil(t, info)
		assert.Equal(t, "test-server", info.Name)

		list, err := client.ListTools(context.Background())
		require.NoError(t, err)
		require.Len(t, list, 3)

		names := []string{list[0].Name, list[1].Name, list[2].Name}
		assert.Equal(t, []string{"add", "echo", "get_weather"}, names)
		assert.Equal(t, "Add two numbers", list[0].Description)

		schema, ok := list[0].InputSchema.(map[string]any)
		require.True(t, ok, "schema type %T", list[0].InputSchema)
		assert.Equal(t, "object", schema["type"])
	}
}

func TestClient_CallTool(t *testing.T) {
	t.Parallel()
	client := connectTestClient(t, nil)
	ctx := context.Background()

	res, err := client.CallTool(ctx, "add", map[string]any{"a": 2, "b": 3})
	require.NoError(t, err)
	assert.Equal(t, mcp.PlainText{Text: "5"}, res)
	assert.Equal(t, "5", res.String())

	res, err = client.CallTool(ctx, "echo", nil)
	require.NoError(t, err)
	assert.Equal(t, "line1\nargs:{}", res.String())

	_, err = client.CallTool(ctx, "get_weather", map[string]any{"city": "Paris"})
	require.Error(t, err)
	assert.Equal(t, "timeout", err.Error())
	var te *mcp.ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "get_weather", te.Tool)

	_, err = client.CallTool(ctx, "missing", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestClient_Close(t *testing.T) {
	t.Parallel()
	client := connectTestClient(t, nil)

	err := client.Close()
	// second close returns the same result
	assert.Equal(t, err, client.Close())

	_, err = client.ListTools(context.Background())
	assert.Error(t, err)
}

func TestToolError(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "boom", (&mcp.ToolError{Tool: "x", Message: "boom"}).Error())
	assert.Equal(t, "tool x reported an error", (&mcp.ToolError{Tool: "x"}).Error())
}
