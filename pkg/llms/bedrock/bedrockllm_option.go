package bedrock

import (
	"github.com/effective-security/mcpclient/pkg/llms/bedrock/internal/bedrockclient"
)

// Anthropic models available on Bedrock.
const (
	ModelAnthropicClaudeV3Haiku   = "anthropic.claude-3-haiku-20240307-v1:0"
	ModelAnthropicClaudeV35Sonnet = "anthropic.claude-3-5-sonnet-20240620-v1:0"
	ModelAnthropicClaudeV37Sonnet = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"
)

// Option is an option for the Bedrock LLM.
type Option func(*options)

type options struct {
	modelID string
	region  string
	client  bedrockclient.InvokeModelAPI
}

// WithModel allows setting a custom modelId.
// If not set, the default model ModelAnthropicClaudeV35Sonnet is used.
func WithModel(modelID string) Option {
	return func(o *options) {
		o.modelID = modelID
	}
}

// WithRegion sets the AWS region.
// If not set, the region of the default AWS config is used.
func WithRegion(region string) Option {
	return func(o *options) {
		o.region = region
	}
}

// WithClient allows setting a custom bedrockruntime client.
// If not set, the client is created from the default AWS config.
func WithClient(client bedrockclient.InvokeModelAPI) Option {
	return func(o *options) {
		o.client = client
	}
}
