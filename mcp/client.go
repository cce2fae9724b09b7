package mcp

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpclient/chatmodel"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Client is the Session over the official MCP SDK client.
type Client struct {
	session *mcpsdk.ClientSession

	closeOnce sync.Once
	closeErr  error
}

var _ Session = (*Client)(nil)

// Connect launches or dials the target and initializes the session.
func Connect(ctx context.Context, target string, opts ...Option) (*Client, error) {
	o := newOptions(opts...)
	transport, err := newTransport(ctx, target, o)
	if err != nil {
		return nil, err
	}

	c, err := connect(ctx, transport, o)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to connect to %s", target)
	}
	if info := c.ServerInfo(); info != nil {
		logger.ContextKV(ctx, xlog.DEBUG,
			"status", "connected",
			"target", target,
			"server", info.Name,
			"version", info.Version,
		)
	}
	return c, nil
}

// ConnectTransport initializes the session over the provided transport.
func ConnectTransport(ctx context.Context, transport mcpsdk.Transport, opts ...Option) (*Client, error) {
	return connect(ctx, transport, newOptions(opts...))
}

func connect(ctx context.Context, transport mcpsdk.Transport, o *options) (*Client, error) {
	impl := mcpsdk.NewClient(&mcpsdk.Implementation{Name: o.name, Version: o.version}, nil)
	session, err := impl.Connect(ctx, transport, nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Client{session: session}, nil
}

// ServerInfo returns the server implementation reported on initialize.
func (c *Client) ServerInfo() *mcpsdk.Implementation {
	if res := c.session.InitializeResult(); res != nil {
		return res.ServerInfo
	}
	return nil
}

// ListTools returns all tools, following pagination.
func (c *Client) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	var list []ToolDescriptor
	for tool, err := range c.session.Tools(ctx, nil) {
		if err != nil {
			return nil, errors.WithMessage(err, "failed to list tools")
		}
		if tool == nil {
			continue
		}
		list = append(list, ToolDescriptor{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		})
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"query_id", chatmodel.GetQueryID(ctx),
		"status", "tools_listed",
		"count", len(list),
	)
	return list, nil
}

// CallTool invokes the tool.
// The error of a failed call is returned as is,
// a call flagged as error by the server returns *ToolError.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (Result, error) {
	if args == nil {
		args = map[string]any{}
	}

	started := time.Now()
	res, err := c.session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		logger.ContextKV(ctx, xlog.DEBUG,
			"query_id", chatmodel.GetQueryID(ctx),
			"status", "call_failed",
			"tool", name,
			"err", err.Error(),
		)
		return nil, err
	}

	if res.IsError {
		msg := ""
		if text, ok := textOf(res.Content); ok {
			msg = text
		}
		return nil, &ToolError{Tool: name, Message: msg}
	}

	result, err := ResultFromCallTool(res)
	if err != nil {
		return nil, err
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"query_id", chatmodel.GetQueryID(ctx),
		"status", "called",
		"tool", name,
		"result", slices.StringUpto(result.String(), 64),
		"elapsed", time.Since(started).String(),
	)
	return result, nil
}

// Close closes the session, it is safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.session.Close()
	})
	return c.closeErr
}
