package processor

import (
	"context"

	"github.com/effective-security/mcpclient/pkg/llms"
)

// Callback receives the events of query processing.
type Callback interface {
	OnQueryStart(ctx context.Context, query string)
	OnQueryEnd(ctx context.Context, query, result string)
	OnQueryError(ctx context.Context, query string, err error)

	OnLLMCallStart(ctx context.Context, llm llms.Model, messages []llms.Message)
	OnLLMCallEnd(ctx context.Context, llm llms.Model, resp *llms.ContentResponse)

	// OnToolStart is called with the tool name and its raw JSON arguments.
	OnToolStart(ctx context.Context, tool, input string)
	OnToolEnd(ctx context.Context, tool, input, output string)
	OnToolError(ctx context.Context, tool, input string, err error)
}
