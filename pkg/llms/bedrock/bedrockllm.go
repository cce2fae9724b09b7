package bedrock

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpclient/pkg/llms"
	"github.com/effective-security/mcpclient/pkg/llms/bedrock/internal/bedrockclient"
)

// DefaultModel is used when no model is configured.
const DefaultModel = ModelAnthropicClaudeV35Sonnet

var _ llms.Model = (*LLM)(nil)

// LLM is a Bedrock LLM implementation.
type LLM struct {
	modelID string
	client  *bedrockclient.Client
}

// New creates a new Bedrock LLM implementation.
// AWS credentials are resolved by the default credential chain.
func New(ctx context.Context, opts ...Option) (*LLM, error) {
	o, c, err := newClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &LLM{
		client:  c,
		modelID: o.modelID,
	}, nil
}

func newClient(ctx context.Context, opts ...Option) (*options, *bedrockclient.Client, error) {
	options := &options{
		modelID: DefaultModel,
	}

	for _, opt := range opts {
		opt(options)
	}

	if options.client == nil {
		var loadOpts []func(*config.LoadOptions) error
		if options.region != "" {
			loadOpts = append(loadOpts, config.WithRegion(options.region))
		}
		cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return options, nil, errors.Wrap(err, "bedrock: failed to load AWS config")
		}
		options.client = bedrockruntime.NewFromConfig(cfg)
	}

	return options, bedrockclient.NewClient(options.client), nil
}

// GetName implements the Model interface.
func (l *LLM) GetName() string {
	return l.modelID
}

// GetProviderType implements the Model interface.
func (l *LLM) GetProviderType() llms.ProviderType {
	return llms.ProviderBedrock
}

// GenerateContent implements llms.Model.
func (l *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(append([]llms.CallOption{llms.WithModel(l.modelID)}, options...)...)

	m, err := processMessages(messages)
	if err != nil {
		return nil, err
	}

	return l.client.CreateCompletion(ctx, opts.Model, m, opts)
}

func processMessages(messages []llms.Message) ([]bedrockclient.Message, error) {
	bedrockMsgs := make([]bedrockclient.Message, 0, len(messages))

	for _, m := range messages {
		for _, part := range m.Parts {
			switch part := part.(type) {
			case llms.TextContent:
				bedrockMsgs = append(bedrockMsgs, bedrockclient.Message{
					Role:    m.Role,
					Content: part.Text,
					Type:    "text",
				})
			case llms.ToolCall:
				bedrockMsgs = append(bedrockMsgs, bedrockclient.Message{
					Role:       m.Role,
					Type:       "tool_use",
					ToolCallID: part.ID,
					ToolName:   part.Name(),
					ToolInput:  part.Arguments(),
				})
			case llms.ToolCallResponse:
				bedrockMsgs = append(bedrockMsgs, bedrockclient.Message{
					Role:       m.Role,
					Content:    part.Content,
					Type:       "tool_result",
					ToolCallID: part.ToolCallID,
				})
			default:
				return nil, errors.Newf("bedrock: unsupported message part %T", part)
			}
		}
	}
	return bedrockMsgs, nil
}
