// Package conversation holds the ordered message history of a single query.
package conversation

import (
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpclient/pkg/llms"
)

var (
	// ErrUnmatchedToolResult is returned when a tool result does not refer
	// to a tool call requested earlier in the conversation.
	ErrUnmatchedToolResult = errors.New("tool result does not match any tool call")
	// ErrInvalidMessage is returned when a message can not be appended.
	ErrInvalidMessage = errors.New("invalid message")
)

// Kind is the classification of a message in the conversation.
type Kind int

const (
	// KindInvalid is a message that can not be part of the conversation.
	KindInvalid Kind = iota
	// KindHuman is the user query.
	KindHuman
	// KindAssistantText is a textual answer of the model.
	KindAssistantText
	// KindAssistantToolRequest is a model message requesting tool calls.
	KindAssistantToolRequest
	// KindToolResult is the outcome of a tool call.
	KindToolResult
)

func (k Kind) String() string {
	switch k {
	case KindHuman:
		return "human"
	case KindAssistantText:
		return "assistant_text"
	case KindAssistantToolRequest:
		return "assistant_tool_request"
	case KindToolResult:
		return "tool_result"
	default:
		return "invalid"
	}
}

// KindOf classifies the message by its role and parts.
func KindOf(m llms.Message) Kind {
	if len(m.Parts) == 0 {
		return KindInvalid
	}

	var texts, calls, results int
	for _, p := range m.Parts {
		switch p.(type) {
		case llms.TextContent:
			texts++
		case llms.ToolCall:
			calls++
		case llms.ToolCallResponse:
			results++
		default:
			return KindInvalid
		}
	}

	switch m.Role {
	case llms.RoleHuman:
		if texts == len(m.Parts) {
			return KindHuman
		}
	case llms.RoleAI:
		if results > 0 {
			return KindInvalid
		}
		if calls > 0 {
			return KindAssistantToolRequest
		}
		return KindAssistantText
	case llms.RoleTool:
		if results == len(m.Parts) {
			return KindToolResult
		}
	}
	return KindInvalid
}

// State is an append-only conversation,
// the first message is always the user query.
type State struct {
	messages  []llms.Message
	requested map[string]struct{}
}

// New returns the State with the Human message.
func New(query string) *State {
	return &State{
		messages:  []llms.Message{llms.MessageFromTextParts(llms.RoleHuman, query)},
		requested: map[string]struct{}{},
	}
}

// Append validates and appends the messages.
// A rejected batch leaves the State unchanged.
func (s *State) Append(msgs ...llms.Message) error {
	pending := map[string]struct{}{}
	for i, m := range msgs {
		switch KindOf(m) {
		case KindAssistantText:
		case KindAssistantToolRequest:
			for _, tc := range m.GetToolCalls() {
				if tc.ID == "" {
					return errors.Wrapf(ErrInvalidMessage, "message %d: tool call %q without id", i, tc.Name())
				}
				pending[tc.ID] = struct{}{}
			}
		case KindToolResult:
			for _, p := range m.Parts {
				id := p.(llms.ToolCallResponse).ToolCallID
				_, ok := s.requested[id]
				if !ok {
					_, ok = pending[id]
				}
				if !ok {
					return errors.Wrapf(ErrUnmatchedToolResult, "message %d: %q", i, id)
				}
			}
		case KindHuman:
			return errors.Wrapf(ErrInvalidMessage, "message %d: human message must be first", i)
		default:
			return errors.Wrapf(ErrInvalidMessage, "message %d: role %q", i, m.Role)
		}
	}

	for id := range pending {
		s.requested[id] = struct{}{}
	}
	for _, m := range msgs {
		s.messages = append(s.messages, clone(m))
	}
	return nil
}

// Snapshot returns a copy of the messages.
func (s *State) Snapshot() []llms.Message {
	res := make([]llms.Message, 0, len(s.messages))
	for _, m := range s.messages {
		res = append(res, clone(m))
	}
	return res
}

// Len returns the number of messages.
func (s *State) Len() int {
	return len(s.messages)
}

// Query returns the text of the first message.
func (s *State) Query() string {
	return s.messages[0].GetText()
}

func clone(m llms.Message) llms.Message {
	return llms.Message{
		Role:  m.Role,
		Parts: slices.Clone(m.Parts),
	}
}
