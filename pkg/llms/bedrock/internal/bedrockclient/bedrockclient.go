package bedrockclient

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpclient/pkg/llms"
)

// ErrUnsupportedProvider is returned for model families other than Anthropic.
var ErrUnsupportedProvider = errors.New("bedrock: unsupported provider")

// InvokeModelAPI is the subset of the bedrockruntime client used to call models.
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Client is a Bedrock client.
type Client struct {
	client InvokeModelAPI
}

// Message is a chunk of text or a tool exchange
// that will be sent to the provider.
//
// The provider may then transform the message to its own
// format before sending it to the LLM model API.
type Message struct {
	Role    llms.Role
	Content string
	// Type may be "text", "tool_use", "tool_result"
	Type string
	// Tool-specific fields
	ToolCallID string // For tool use and tool results
	ToolName   string // For tool use
	ToolInput  string // For tool use (JSON)
}

// getProvider returns the model family of the model ID.
// Inference profiles carry a region prefix, e.g. "us.anthropic.claude-3-5-sonnet-20241022-v2:0".
func getProvider(modelID string) string {
	parts := strings.Split(modelID, ".")
	if len(parts) >= 2 {
		if len(parts[0]) == 2 && strings.ToLower(parts[0]) == parts[0] {
			return parts[1]
		}
		return parts[0]
	}
	return parts[0]
}

// NewClient creates a new Bedrock client.
func NewClient(client InvokeModelAPI) *Client {
	return &Client{
		client: client,
	}
}

// CreateCompletion creates a new completion response from the provider
// after sending the messages to the provider.
func (c *Client) CreateCompletion(ctx context.Context,
	modelID string,
	messages []Message,
	options llms.CallOptions,
) (*llms.ContentResponse, error) {
	provider := getProvider(modelID)
	switch provider {
	case "anthropic":
		return createAnthropicCompletion(ctx, c.client, modelID, messages, options)
	default:
		return nil, errors.WithMessagef(ErrUnsupportedProvider, "bedrock: %s", provider)
	}
}

func getMaxTokens(maxTokens, defaultValue int) int {
	if maxTokens <= 0 {
		return defaultValue
	}
	return maxTokens
}
