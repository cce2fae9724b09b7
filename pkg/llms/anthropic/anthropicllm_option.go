package anthropic

import (
	"github.com/anthropics/anthropic-sdk-go/option"
)

// EnvAPIKey is the environment variable read when no token is given.
const EnvAPIKey = "ANTHROPIC_API_KEY" //nolint:gosec

// Options configures the Anthropic client.
type Options struct {
	// Token is the API key, EnvAPIKey is used when empty.
	Token string
	// Model is the default model of the calls.
	Model string
	// BaseURL overrides the SDK endpoint.
	BaseURL string
	// HTTPClient sends the requests, http.DefaultClient when nil.
	HTTPClient option.HTTPClient
}

// Option sets a field of Options.
type Option func(*Options)

// WithToken sets the API key.
func WithToken(token string) Option {
	return func(o *Options) { o.Token = token }
}

// WithModel sets the model, an empty value fails New.
func WithModel(model string) Option {
	return func(o *Options) { o.Model = model }
}

// WithBaseURL sets the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(o *Options) { o.BaseURL = baseURL }
}

// WithHTTPClient sets the client used to send requests.
func WithHTTPClient(client option.HTTPClient) Option {
	return func(o *Options) { o.HTTPClient = client }
}
