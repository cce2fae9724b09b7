package openai

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpclient/pkg/llms"
	"github.com/effective-security/mcpclient/pkg/llms/openai/internal/openaiclient"
	"github.com/effective-security/mcpclient/pkg/schema"
	"github.com/effective-security/x/values"
	oai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"
)

// ErrMissingToken is returned when the API token is not provided.
var ErrMissingToken = errors.New("missing the API key, set it in the OPENAI_API_KEY or GROQ_API_KEY environment variable")

// ErrEmptyResponse is returned when the API returns no choices.
var ErrEmptyResponse = openaiclient.ErrEmptyResponse

// LLM is an OpenAI compatible chat model, it serves OpenAI and Groq.
type LLM struct {
	client *openaiclient.Client
}

const toolTypeFunction = "function"

var _ llms.Model = (*LLM)(nil)

// New returns a new OpenAI LLM.
func New(opts ...Option) (*LLM, error) {
	c, err := newClient(opts...)
	if err != nil {
		return nil, err
	}
	return &LLM{
		client: c,
	}, nil
}

func newClient(opts ...Option) (*openaiclient.Client, error) {
	options := &options{
		provider:     ProviderOpenAI,
		model:        os.Getenv(modelEnvVarName),
		baseURL:      os.Getenv(baseURLEnvVarName),
		organization: os.Getenv(organizationEnvVarName),
	}
	for _, opt := range opts {
		opt(options)
	}

	if options.token == "" {
		if options.provider == ProviderGroq {
			options.token = os.Getenv(groqTokenEnvVarName)
		} else {
			options.token = os.Getenv(tokenEnvVarName)
		}
	}
	if options.token == "" {
		return nil, errors.WithStack(ErrMissingToken)
	}

	return openaiclient.New(options.provider, options.model, options.token,
		options.baseURL, options.organization, options.httpClient)
}

// GetName implements the Model interface.
func (o *LLM) GetName() string {
	return o.client.Model
}

// GetProviderType implements the Model interface.
func (o *LLM) GetProviderType() llms.ProviderType {
	if o.client.Provider == ProviderGroq {
		return llms.ProviderGroq
	}
	return llms.ProviderOpenAI
}

// GenerateContent implements the Model interface.
func (o *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(options...)

	req := &oai.ChatCompletionNewParams{
		Model:    opts.Model,
		Messages: make([]oai.ChatCompletionMessageParamUnion, 0, len(messages)),
	}
	for _, mc := range messages {
		msg, err := chatMessage(mc)
		if err != nil {
			return nil, err
		}
		req.Messages = append(req.Messages, msg)
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = oai.Int(int64(opts.MaxTokens))
	}
	if opts.Temperature != nil {
		req.Temperature = oai.Float(*opts.Temperature)
	}

	for _, tool := range opts.Tools {
		t, err := toolFromTool(tool)
		if err != nil {
			return nil, errors.Wrap(err, "failed to convert llms tool to openai tool")
		}
		req.Tools = append(req.Tools, t)
	}

	result, err := o.client.CreateChat(ctx, req)
	if err != nil {
		return nil, err
	}

	choices := make([]*llms.ContentChoice, len(result.Choices))
	for i, c := range result.Choices {
		choices[i] = &llms.ContentChoice{
			Content:    c.Message.Content,
			StopReason: c.FinishReason,
			GenerationInfo: map[string]any{
				"InputTokens":  result.Usage.PromptTokens,
				"OutputTokens": result.Usage.CompletionTokens,
				"TotalTokens":  result.Usage.TotalTokens,
			},
		}
		for _, tool := range c.Message.ToolCalls {
			if tool.Type != "" && tool.Type != toolTypeFunction {
				continue
			}
			choices[i].ToolCalls = append(choices[i].ToolCalls, llms.ToolCall{
				ID:   tool.ID,
				Type: toolTypeFunction,
				FunctionCall: &llms.FunctionCall{
					Name:      tool.Function.Name,
					Arguments: tool.Function.Arguments,
				},
			})
		}
	}
	return &llms.ContentResponse{Choices: choices}, nil
}

func chatMessage(mc llms.Message) (oai.ChatCompletionMessageParamUnion, error) {
	switch mc.Role {
	case llms.RoleSystem:
		return oai.SystemMessage(mc.GetText()), nil
	case llms.RoleHuman:
		return oai.UserMessage(mc.GetText()), nil
	case llms.RoleAI:
		var msg oai.ChatCompletionAssistantMessageParam
		if text := mc.GetText(); text != "" {
			msg.Content.OfString = oai.String(text)
		}
		msg.ToolCalls = toolCallsFromToolCalls(mc.GetToolCalls())
		return oai.ChatCompletionMessageParamUnion{OfAssistant: &msg}, nil
	case llms.RoleTool:
		// a tool message carries exactly one ToolCallResponse
		if len(mc.Parts) != 1 {
			return oai.ChatCompletionMessageParamUnion{}, errors.Errorf("expected exactly one part for role %v, got %v", mc.Role, len(mc.Parts))
		}
		p, ok := mc.Parts[0].(llms.ToolCallResponse)
		if !ok {
			return oai.ChatCompletionMessageParamUnion{}, errors.Errorf("expected part of type ToolCallResponse for role %v, got %T", mc.Role, mc.Parts[0])
		}
		return oai.ToolMessage(p.Content, p.ToolCallID), nil
	default:
		return oai.ChatCompletionMessageParamUnion{}, errors.Wrapf(llms.ErrUnexpectedRole, "role %v not supported", mc.Role)
	}
}

// toolFromTool converts an llms.Tool to the function tool param.
func toolFromTool(t llms.Tool) (oai.ChatCompletionToolUnionParam, error) {
	if t.Type != toolTypeFunction || t.Function == nil {
		return oai.ChatCompletionToolUnionParam{}, errors.Errorf("tool type %v not supported", t.Type)
	}
	params, err := schema.ToMap(t.Function.Parameters)
	if err != nil {
		return oai.ChatCompletionToolUnionParam{}, err
	}
	fn := shared.FunctionDefinitionParam{
		Name:       t.Function.Name,
		Parameters: shared.FunctionParameters(params),
	}
	if t.Function.Description != "" {
		fn.Description = oai.String(t.Function.Description)
	}
	return oai.ChatCompletionFunctionTool(fn), nil
}

// toolCallsFromToolCalls converts the llms tool calls of an assistant message.
func toolCallsFromToolCalls(tcs []llms.ToolCall) []oai.ChatCompletionMessageToolCallUnionParam {
	if len(tcs) == 0 {
		return nil
	}
	toolCalls := make([]oai.ChatCompletionMessageToolCallUnionParam, len(tcs))
	for i, tc := range tcs {
		toolCalls[i] = oai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &oai.ChatCompletionMessageFunctionToolCallParam{
				ID: tc.ID,
				Function: oai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      tc.Name(),
					Arguments: values.StringsCoalesce(tc.Arguments(), "{}"),
				},
			},
		}
	}
	return toolCalls
}
