package mcp

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Result is the outcome of a tool invocation: PlainText or StructuredPayload.
type Result interface {
	// String returns the textual content of the result
	String() string
	isResult()
}

// PlainText is a result made only of text content.
type PlainText struct {
	Text string
}

func (r PlainText) String() string {
	return r.Text
}

func (PlainText) isResult() {}

// StructuredPayload is a result with non-text content or structured content,
// Raw holds its JSON rendering.
type StructuredPayload struct {
	Raw json.RawMessage
}

func (r StructuredPayload) String() string {
	return string(r.Raw)
}

func (StructuredPayload) isResult() {}

// ToolError is returned when the server reports a failed tool call.
type ToolError struct {
	Tool    string
	Message string
}

func (e *ToolError) Error() string {
	if e.Message == "" {
		return "tool " + e.Tool + " reported an error"
	}
	return e.Message
}

// ResultFromCallTool extracts the Result from the server response.
// Text-only content is joined with new lines.
func ResultFromCallTool(res *mcpsdk.CallToolResult) (Result, error) {
	if res == nil {
		return PlainText{}, nil
	}

	if len(res.Content) == 0 {
		if res.StructuredContent == nil {
			return PlainText{}, nil
		}
		js, err := json.Marshal(res.StructuredContent)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode structured content")
		}
		return StructuredPayload{Raw: js}, nil
	}

	if text, ok := textOf(res.Content); ok {
		return PlainText{Text: text}, nil
	}

	js, err := json.Marshal(res.Content)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode content")
	}
	return StructuredPayload{Raw: js}, nil
}

// textOf returns the joined text if every block is text.
func textOf(content []mcpsdk.Content) (string, bool) {
	texts := make([]string, 0, len(content))
	for _, c := range content {
		tc, ok := c.(*mcpsdk.TextContent)
		if !ok || tc == nil {
			return "", false
		}
		texts = append(texts, tc.Text)
	}
	return strings.Join(texts, "\n"), true
}
