package anthropic_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/effective-security/mcpclient/pkg/llms"
	"github.com/effective-security/mcpclient/pkg/llms/anthropic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		opts        []anthropic.Option
		wantErr     bool
		errContains string
	}{
		{
			name:        "missing token",
			opts:        []anthropic.Option{anthropic.WithModel("claude-3-5-sonnet-20241022")},
			wantErr:     true,
			errContains: "missing API key",
		},
		{
			name:        "missing model",
			opts:        []anthropic.Option{anthropic.WithToken("fake-token"), anthropic.WithModel("")},
			wantErr:     true,
			errContains: "model is required",
		},
		{
			name: "valid configuration",
			opts: []anthropic.Option{
				anthropic.WithToken("fake-token"),
				anthropic.WithModel("claude-3-5-sonnet-20241022"),
			},
		},
		{
			name: "with custom base URL",
			opts: []anthropic.Option{
				anthropic.WithToken("fake-token"),
				anthropic.WithBaseURL("https://custom.anthropic.com"),
			},
		},
		{
			name: "with custom HTTP client",
			opts: []anthropic.Option{
				anthropic.WithToken("fake-token"),
				anthropic.WithHTTPClient(&http.Client{}),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(anthropic.EnvAPIKey, "")

			allm, err := anthropic.New(tt.opts...)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Nil(t, allm)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, allm.Client)
				assert.NotNil(t, allm.Options)
			}
		})
	}
}

func TestNewWithEnvironmentVariable(t *testing.T) {
	t.Setenv(anthropic.EnvAPIKey, "env-token")

	llm, err := anthropic.New()
	require.NoError(t, err)
	assert.Equal(t, "env-token", llm.Options.Token)
	assert.Equal(t, anthropic.DefaultModel, llm.GetName())
	assert.Equal(t, llms.ProviderAnthropic, llm.GetProviderType())
	assert.Equal(t, http.DefaultClient, llm.Options.HTTPClient)
}

func TestProcessMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		messages     []llms.Message
		wantMessages int
		wantSystem   string
		wantErr      bool
	}{
		{
			name:     "empty",
			messages: []llms.Message{},
		},
		{
			name: "system messages are joined",
			messages: []llms.Message{
				llms.MessageFromTextParts(llms.RoleSystem, "You are a helpful assistant."),
				llms.MessageFromTextParts(llms.RoleSystem, "Always be polite."),
			},
			wantSystem: "You are a helpful assistant.\nAlways be polite.",
		},
		{
			name: "human",
			messages: []llms.Message{
				llms.MessageFromTextParts(llms.RoleHuman, "Hello"),
			},
			wantMessages: 1,
		},
		{
			name: "tool call and result",
			messages: []llms.Message{
				llms.MessageFromTextParts(llms.RoleHuman, "weather?"),
				llms.MessageFromToolCalls(llms.RoleAI, llms.ToolCall{
					ID:           "call_1",
					Type:         "function",
					FunctionCall: &llms.FunctionCall{Name: "get_weather", Arguments: `{"city":"Paris"}`},
				}),
				llms.MessageFromToolResponse(llms.RoleTool, llms.ToolCallResponse{
					ToolCallID: "call_1",
					Name:       "get_weather",
					Content:    "18C",
				}),
			},
			wantMessages: 3,
		},
		{
			name: "tool call without arguments",
			messages: []llms.Message{
				llms.MessageFromToolCalls(llms.RoleAI, llms.ToolCall{
					ID:           "call_1",
					FunctionCall: &llms.FunctionCall{Name: "ping"},
				}),
			},
			wantMessages: 1,
		},
		{
			name: "invalid tool call arguments",
			messages: []llms.Message{
				llms.MessageFromToolCalls(llms.RoleAI, llms.ToolCall{
					ID:           "call_1",
					FunctionCall: &llms.FunctionCall{Name: "ping", Arguments: "{oops"},
				}),
			},
			wantErr: true,
		},
		{
			name: "text in tool message",
			messages: []llms.Message{
				llms.MessageFromTextParts(llms.RoleTool, "not a response"),
			},
			wantErr: true,
		},
		{
			name: "unsupported role",
			messages: []llms.Message{
				llms.MessageFromTextParts(llms.Role("generic"), "hi"),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			msgs, system, err := anthropic.ProcessMessages(tt.messages)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, msgs, tt.wantMessages)
			assert.Equal(t, tt.wantSystem, system)
		})
	}
}

func TestToTools(t *testing.T) {
	t.Parallel()

	res, err := anthropic.ToTools(nil)
	require.NoError(t, err)
	assert.Nil(t, res)

	res, err = anthropic.ToTools([]llms.Tool{
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        "get_weather",
				Description: "Get the weather",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"city": map[string]any{"type": "string"},
					},
					"required": []any{"city"},
				},
			},
		},
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:       "ping",
				Parameters: map[string]any{"type": "object", "properties": map[string]any{}, "required": []any{}},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, res, 2)

	tool := res[0].OfTool
	require.NotNil(t, tool)
	assert.Equal(t, "get_weather", tool.Name)
	assert.Equal(t, []string{"city"}, tool.InputSchema.Required)
	assert.Equal(t, map[string]any{"city": map[string]any{"type": "string"}}, tool.InputSchema.Properties)

	tool = res[1].OfTool
	require.NotNil(t, tool)
	assert.Empty(t, tool.InputSchema.Required)

	_, err = anthropic.ToTools([]llms.Tool{{Type: "retrieval"}})
	assert.EqualError(t, err, "anthropic: tool type retrieval not supported")
}

func TestGenerateContent(t *testing.T) {
	var req map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &req)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-sonnet-20241022",
			"content": [
				{"type": "text", "text": "Let me check."},
				{"type": "tool_use", "id": "toolu_1", "name": "get_weather", "input": {"city": "Paris"}}
			],
			"stop_reason": "tool_use",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	llm, err := anthropic.New(
		anthropic.WithToken("fake-token"),
		anthropic.WithBaseURL(srv.URL),
	)
	require.NoError(t, err)

	resp, err := llm.GenerateContent(context.Background(),
		[]llms.Message{
			llms.MessageFromTextParts(llms.RoleSystem, "be brief"),
			llms.MessageFromTextParts(llms.RoleHuman, "weather in Paris?"),
		},
		llms.WithMaxTokens(200),
		llms.WithTemperature(0.5),
		llms.WithTools([]llms.Tool{{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:       "get_weather",
				Parameters: map[string]any{"type": "object", "properties": map[string]any{}},
			},
		}}),
	)
	require.NoError(t, err)
	require.Len(t, resp.Choices, 2)

	assert.Equal(t, "Let me check.", resp.Choices[0].Content)
	require.Len(t, resp.Choices[1].ToolCalls, 1)
	call := resp.Choices[1].ToolCalls[0]
	assert.Equal(t, "toolu_1", call.ID)
	assert.Equal(t, "get_weather", call.Name())
	assert.JSONEq(t, `{"city":"Paris"}`, call.Arguments())
	assert.EqualValues(t, 15, resp.Choices[0].GenerationInfo["TotalTokens"])

	require.NotNil(t, req)
	assert.Equal(t, anthropic.DefaultModel, req["model"])
	assert.EqualValues(t, 200, req["max_tokens"])
	assert.EqualValues(t, 0.5, req["temperature"])
	assert.Len(t, req["tools"], 1)
	assert.Len(t, req["messages"], 1)
	system, ok := req["system"].([]any)
	require.True(t, ok)
	assert.Equal(t, "be brief", system[0].(map[string]any)["text"])
}

func TestGenerateContentError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	llm, err := anthropic.New(
		anthropic.WithToken("fake-token"),
		anthropic.WithBaseURL(srv.URL),
	)
	require.NoError(t, err)

	_, err = llm.GenerateContent(context.Background(), []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "hi"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic: failed to create message")
}
