package processor

import (
	"github.com/effective-security/mcpclient/pkg/llms"
	"github.com/effective-security/mcpclient/tools"
)

// Option is a function that can be used to modify the behavior of the processor Config.
type Option func(*Config)

// Config of the Processor
type Config struct {
	// Model overrides the model name in an LLM call.
	Model    string
	modelSet bool

	// MaxTokens is the maximum number of tokens to generate in an LLM call.
	MaxTokens    int
	maxTokensSet bool

	// Temperature is the temperature for sampling in an LLM call, between 0 and 1.
	Temperature    float64
	temperatureSet bool

	// SchemaMode controls the parameters advertised for the tools.
	SchemaMode tools.SchemaMode

	// CallbackHandler receives the processing events, optional.
	CallbackHandler Callback
}

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
		c.modelSet = true
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(maxTokens int) Option {
	return func(c *Config) {
		c.MaxTokens = maxTokens
		c.maxTokensSet = true
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) Option {
	return func(c *Config) {
		c.Temperature = temperature
		c.temperatureSet = true
	}
}

// WithSchemaMode sets the schema mode of the tool definitions.
func WithSchemaMode(mode tools.SchemaMode) Option {
	return func(c *Config) {
		c.SchemaMode = mode
	}
}

// WithCallback sets the callback handler.
func WithCallback(callback Callback) Option {
	return func(c *Config) {
		c.CallbackHandler = callback
	}
}

// NewConfig returns the Config with the options applied.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// GetCallOptions returns the LLM call options,
// the extra options are appended last.
func (c *Config) GetCallOptions(extra ...llms.CallOption) []llms.CallOption {
	var callOptions []llms.CallOption
	if c.modelSet {
		callOptions = append(callOptions, llms.WithModel(c.Model))
	}
	if c.maxTokensSet {
		callOptions = append(callOptions, llms.WithMaxTokens(c.MaxTokens))
	}
	if c.temperatureSet {
		callOptions = append(callOptions, llms.WithTemperature(c.Temperature))
	}
	return append(callOptions, extra...)
}
