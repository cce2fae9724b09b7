package llms

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrEmptyResponse is returned when a response carries no choices.
var ErrEmptyResponse = errors.New("empty response")

// Reply is the interpreted model response: either a TextAnswer
// or ToolRequests.
type Reply interface {
	isReply()
}

// TextAnswer is a plain textual answer.
type TextAnswer struct {
	Text string
}

func (TextAnswer) isReply() {}

// ToolRequests is an ordered list of tool invocations requested by the model.
// Text holds any narration the model returned alongside the calls.
type ToolRequests struct {
	Calls []ToolCall
	Text  string
}

func (ToolRequests) isReply() {}

// ReplyFromResponse interprets the response.
// Tool calls from all choices are collected in order;
// when there are none, the text of all choices is joined.
func ReplyFromResponse(resp *ContentResponse) (Reply, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, errors.WithStack(ErrEmptyResponse)
	}

	var calls []ToolCall
	for _, choice := range resp.Choices {
		if choice == nil {
			continue
		}
		calls = append(calls, choice.ToolCalls...)
	}

	text := ResponseText(resp)
	if len(calls) == 0 {
		return TextAnswer{Text: text}, nil
	}
	return ToolRequests{Calls: calls, Text: text}, nil
}

// ResponseText returns the text of all choices joined with new lines.
func ResponseText(resp *ContentResponse) string {
	if resp == nil {
		return ""
	}
	var texts []string
	for _, choice := range resp.Choices {
		if choice != nil && choice.Content != "" {
			texts = append(texts, choice.Content)
		}
	}
	return strings.Join(texts, "\n")
}
