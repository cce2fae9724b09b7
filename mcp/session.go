// Package mcp provides the tool session to an MCP server.
package mcp

import (
	"context"

	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/mcpclient", "mcp")

//go:generate mockgen -destination=../mocks/mockmcp/session_mock.gen.go -package mockmcp github.com/effective-security/mcpclient/mcp Session

// ToolDescriptor describes a tool advertised by the server.
type ToolDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	// InputSchema is the JSON schema object of the arguments,
	// nil if the server did not provide one.
	InputSchema any `json:"inputSchema,omitempty"`
}

// Session is a connection to an MCP server.
type Session interface {
	// ListTools returns the tools in the order advertised by the server.
	ListTools(ctx context.Context) ([]ToolDescriptor, error)
	// CallTool invokes the tool by name with schema-less arguments.
	CallTool(ctx context.Context, name string, args map[string]any) (Result, error)
	// Close releases the session and terminates the server process, if any.
	Close() error
}
