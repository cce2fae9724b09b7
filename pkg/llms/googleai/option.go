package googleai

import (
	"net/http"
	"os"

	"google.golang.org/genai"
)

const (
	APIKeyEnvVarName = "GOOGLE_API_KEY" //nolint:gosec
	DefaultModel     = "gemini-2.5-flash"
)

// Options is a set of options for GoogleAI clients.
type Options struct {
	DefaultModel          string
	DefaultCandidateCount int
	DefaultMaxTokens      int
	DefaultTemperature    *float64
	HarmThreshold         genai.HarmBlockThreshold
	APIKey                string
	BaseURL               string
	HTTPClient            *http.Client
}

func DefaultOptions() Options {
	return Options{
		DefaultModel:          DefaultModel,
		DefaultCandidateCount: 1,
		DefaultMaxTokens:      8192,
		HarmThreshold:         genai.HarmBlockThresholdBlockOnlyHigh,
	}
}

// EnsureAuthPresent uses the GOOGLE_API_KEY environment variable
// when no API key is configured.
func (o *Options) EnsureAuthPresent() {
	if o.APIKey == "" {
		if key := os.Getenv(APIKeyEnvVarName); key != "" {
			WithAPIKey(key)(o)
		}
	}
}

type Option func(*Options)

// WithAPIKey passes the API KEY (token) to the client.
func WithAPIKey(apiKey string) Option {
	return func(opts *Options) {
		opts.APIKey = apiKey
	}
}

// WithBaseURL overrides the Gemini API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(opts *Options) {
		opts.BaseURL = baseURL
	}
}

// WithHTTPClient uses the provided HTTP client to make requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(opts *Options) {
		opts.HTTPClient = httpClient
	}
}

// WithDefaultModel passes a default content model name to the client. This
// model name is used if not explicitly provided in specific client invocations.
func WithDefaultModel(defaultModel string) Option {
	return func(opts *Options) {
		opts.DefaultModel = defaultModel
	}
}

// WithDefaultCandidateCount sets the candidate count for the model.
func WithDefaultCandidateCount(defaultCandidateCount int) Option {
	return func(opts *Options) {
		opts.DefaultCandidateCount = defaultCandidateCount
	}
}

// WithDefaultMaxTokens sets the maximum token count for the model.
func WithDefaultMaxTokens(maxTokens int) Option {
	return func(opts *Options) {
		opts.DefaultMaxTokens = maxTokens
	}
}

// WithDefaultTemperature sets the temperature for the model,
// the API default is used when not set.
func WithDefaultTemperature(defaultTemperature float64) Option {
	return func(opts *Options) {
		opts.DefaultTemperature = &defaultTemperature
	}
}

// WithHarmThreshold sets the safety/harm setting for the model, potentially
// limiting any harmful content it may generate.
func WithHarmThreshold(ht genai.HarmBlockThreshold) Option {
	return func(opts *Options) {
		opts.HarmThreshold = ht
	}
}
