package bedrockclient

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpclient/pkg/llms"
	"github.com/effective-security/mcpclient/pkg/schema"
)

// Ref: https://docs.aws.amazon.com/bedrock/latest/userguide/model-parameters-anthropic-claude-messages.html

// anthropicInputContent is a single content block of a message.
type anthropicInputContent struct {
	// One of: "text", "tool_use", "tool_result"
	Type string `json:"type"`
	// Required if type is "text"
	Text string `json:"text,omitempty"`
	// Tool use fields
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Input any    `json:"input,omitempty"`
	// Tool result fields
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

type anthropicInputMessage struct {
	// One of: "user", "assistant"
	Role    string                  `json:"role"`
	Content []anthropicInputContent `json:"content"`
}

type anthropicTool struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	InputSchema anthropicInputSchema `json:"input_schema"`
}

type anthropicInputSchema struct {
	Type       string   `json:"type"`
	Properties any      `json:"properties"`
	Required   []string `json:"required,omitempty"`
}

type anthropicInput struct {
	AnthropicVersion string                   `json:"anthropic_version"`
	MaxTokens        int                      `json:"max_tokens"`
	System           string                   `json:"system,omitempty"`
	Messages         []*anthropicInputMessage `json:"messages"`
	Temperature      *float64                 `json:"temperature,omitempty"`
	Tools            []anthropicTool          `json:"tools,omitempty"`
}

type anthropicOutputContent struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type anthropicOutput struct {
	ID         string                   `json:"id"`
	Type       string                   `json:"type"`
	Role       string                   `json:"role"`
	Content    []anthropicOutputContent `json:"content"`
	StopReason string                   `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Finish reason for the completion of the generation.
const (
	AnthropicCompletionReasonEndTurn      = "end_turn"
	AnthropicCompletionReasonMaxTokens    = "max_tokens"
	AnthropicCompletionReasonStopSequence = "stop_sequence"
	AnthropicCompletionReasonToolUse      = "tool_use"
)

const (
	AnthropicLatestVersion = "bedrock-2023-05-31"
	AnthropicMaxTokens     = 2048
)

// Role attribute for the anthropic message.
const (
	AnthropicSystem        = "system"
	AnthropicRoleUser      = "user"
	AnthropicRoleAssistant = "assistant"
)

// Type attribute for the anthropic message.
const (
	AnthropicMessageTypeText       = "text"
	AnthropicMessageTypeToolUse    = "tool_use"
	AnthropicMessageTypeToolResult = "tool_result"
)

func createAnthropicCompletion(ctx context.Context,
	client InvokeModelAPI,
	modelID string,
	messages []Message,
	options llms.CallOptions,
) (*llms.ContentResponse, error) {
	inputContents, systemPrompt, err := processInputMessagesAnthropic(messages)
	if err != nil {
		return nil, err
	}

	tools, err := anthropicTools(options.Tools)
	if err != nil {
		return nil, err
	}

	input := anthropicInput{
		AnthropicVersion: AnthropicLatestVersion,
		MaxTokens:        getMaxTokens(options.MaxTokens, AnthropicMaxTokens),
		System:           systemPrompt,
		Messages:         inputContents,
		Temperature:      options.Temperature,
		Tools:            tools,
	}

	body, err := json.Marshal(input)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	resp, err := client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		Accept:      aws.String("*/*"),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, errors.Wrap(err, "bedrock: failed to invoke model")
	}

	var output anthropicOutput
	if err = json.Unmarshal(resp.Body, &output); err != nil {
		return nil, errors.Wrap(err, "bedrock: failed to decode response")
	}

	if len(output.Content) == 0 {
		return nil, errors.WithStack(llms.ErrEmptyResponse)
	} else if stopReason := output.StopReason; stopReason != AnthropicCompletionReasonEndTurn &&
		stopReason != AnthropicCompletionReasonStopSequence &&
		stopReason != AnthropicCompletionReasonToolUse {
		return nil, errors.Newf("bedrock: completed due to %s. Maybe try increasing max tokens", stopReason)
	}

	info := map[string]any{
		"InputTokens":  output.Usage.InputTokens,
		"OutputTokens": output.Usage.OutputTokens,
		"TotalTokens":  output.Usage.InputTokens + output.Usage.OutputTokens,
	}

	var textContent string
	var toolCalls []llms.ToolCall
	for _, c := range output.Content {
		switch c.Type {
		case AnthropicMessageTypeText:
			textContent += c.Text
		case AnthropicMessageTypeToolUse:
			arguments := string(c.Input)
			if arguments == "" || arguments == "null" {
				arguments = "{}"
			}
			toolCalls = append(toolCalls, llms.ToolCall{
				ID:   c.ID,
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      c.Name,
					Arguments: arguments,
				},
			})
		}
	}

	var choices []*llms.ContentChoice
	if textContent != "" {
		choices = append(choices, &llms.ContentChoice{
			Content:        textContent,
			StopReason:     output.StopReason,
			GenerationInfo: info,
		})
	}
	if len(toolCalls) > 0 {
		choices = append(choices, &llms.ContentChoice{
			ToolCalls:      toolCalls,
			StopReason:     output.StopReason,
			GenerationInfo: info,
		})
	}
	if len(choices) == 0 {
		return nil, errors.WithStack(llms.ErrEmptyResponse)
	}

	return &llms.ContentResponse{
		Choices: choices,
	}, nil
}

func anthropicTools(list []llms.Tool) ([]anthropicTool, error) {
	if len(list) == 0 {
		return nil, nil
	}
	tools := make([]anthropicTool, len(list))
	for i, tool := range list {
		if tool.Function == nil {
			return nil, errors.Newf("bedrock: tool type %v not supported", tool.Type)
		}
		params, err := schema.ToMap(tool.Function.Parameters)
		if err != nil {
			return nil, errors.Wrapf(err, "bedrock: invalid parameters of %s", tool.Function.Name)
		}

		is := anthropicInputSchema{
			Type:       "object",
			Properties: params["properties"],
		}
		if is.Properties == nil {
			is.Properties = map[string]any{}
		}
		switch req := params["required"].(type) {
		case []string:
			is.Required = req
		case []any:
			for _, v := range req {
				if s, ok := v.(string); ok {
					is.Required = append(is.Required, s)
				}
			}
		}

		tools[i] = anthropicTool{
			Name:        tool.Function.Name,
			Description: tool.Function.Description,
			InputSchema: is,
		}
	}
	return tools, nil
}

// processInputMessagesAnthropic groups consecutive messages of the same role
// and returns the input content and system prompt.
func processInputMessagesAnthropic(messages []Message) ([]*anthropicInputMessage, string, error) {
	chunkedMessages := make([][]Message, 0, len(messages))
	currentChunk := make([]Message, 0, len(messages))
	var lastRole llms.Role
	for _, message := range messages {
		if message.Role != lastRole {
			if len(currentChunk) > 0 {
				chunkedMessages = append(chunkedMessages, currentChunk)
			}
			currentChunk = make([]Message, 0, len(messages))
		}
		currentChunk = append(currentChunk, message)
		lastRole = message.Role
	}
	if len(currentChunk) > 0 {
		chunkedMessages = append(chunkedMessages, currentChunk)
	}

	inputContents := make([]*anthropicInputMessage, 0, len(chunkedMessages))
	var systemPrompt string
	for _, chunk := range chunkedMessages {
		role, err := getAnthropicRole(chunk[0].Role)
		if err != nil {
			return nil, "", err
		}
		if role == AnthropicSystem {
			if systemPrompt != "" {
				return nil, "", errors.New("bedrock: multiple system prompts")
			}
			for _, message := range chunk {
				if message.Type != AnthropicMessageTypeText {
					return nil, "", errors.New("bedrock: system prompt must be text")
				}
				systemPrompt += message.Content
			}
			continue
		}
		content := make([]anthropicInputContent, 0, len(chunk))
		for _, message := range chunk {
			c, err := getAnthropicInputContent(message)
			if err != nil {
				return nil, "", err
			}
			content = append(content, c)
		}
		// tool results are sent by the user role, merge them with a preceding user turn
		if n := len(inputContents); n > 0 && inputContents[n-1].Role == role {
			inputContents[n-1].Content = append(inputContents[n-1].Content, content...)
			continue
		}
		inputContents = append(inputContents, &anthropicInputMessage{
			Role:    role,
			Content: content,
		})
	}
	return inputContents, systemPrompt, nil
}

func getAnthropicRole(role llms.Role) (string, error) {
	switch role {
	case llms.RoleSystem:
		return AnthropicSystem, nil
	case llms.RoleAI:
		return AnthropicRoleAssistant, nil
	case llms.RoleHuman, llms.RoleTool:
		return AnthropicRoleUser, nil
	default:
		return "", errors.WithMessagef(llms.ErrUnexpectedRole, "bedrock: %s", role)
	}
}

func getAnthropicInputContent(message Message) (anthropicInputContent, error) {
	switch message.Type {
	case AnthropicMessageTypeText:
		return anthropicInputContent{
			Type: message.Type,
			Text: message.Content,
		}, nil
	case AnthropicMessageTypeToolUse:
		input := map[string]any{}
		if message.ToolInput != "" {
			if err := json.Unmarshal([]byte(message.ToolInput), &input); err != nil {
				return anthropicInputContent{}, errors.Wrapf(err, "bedrock: invalid arguments of %s", message.ToolName)
			}
		}
		return anthropicInputContent{
			Type:  message.Type,
			ID:    message.ToolCallID,
			Name:  message.ToolName,
			Input: input,
		}, nil
	case AnthropicMessageTypeToolResult:
		return anthropicInputContent{
			Type:      message.Type,
			ToolUseID: message.ToolCallID,
			Content:   message.Content,
		}, nil
	}
	return anthropicInputContent{}, errors.Newf("bedrock: unsupported content type %q", message.Type)
}
