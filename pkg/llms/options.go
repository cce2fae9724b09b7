package llms

// CallOption configures a single GenerateContent call.
type CallOption func(*CallOptions)

// CallOptions are the per-call settings understood by every provider.
type CallOptions struct {
	// Model overrides the model of the client, empty uses the client default.
	Model string
	// MaxTokens limits the generated tokens, 0 uses the provider default.
	MaxTokens int
	// Temperature is the sampling temperature, nil uses the provider default.
	Temperature *float64
	// Tools offered to the model, none when empty.
	Tools []Tool
}

// Tool is a tool that can be used by the model.
type Tool struct {
	// Type is the type of the tool, only "function" is supported.
	Type string `json:"type"`
	// Function is the function to call.
	Function *FunctionDefinition `json:"function,omitempty"`
}

// FunctionDefinition is a definition of a function that can be called by the model.
type FunctionDefinition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// Parameters is a JSON-schema shaped object describing the arguments.
	// Values are either map[string]any or *jsonschema.Schema.
	Parameters any `json:"parameters"`
}

// NewCallOptions returns the options with opts applied.
func NewCallOptions(opts ...CallOption) CallOptions {
	var o CallOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithModel specifies which model name to use.
func WithModel(model string) CallOption {
	return func(o *CallOptions) {
		o.Model = model
	}
}

// WithMaxTokens specifies the max number of tokens to generate.
func WithMaxTokens(maxTokens int) CallOption {
	return func(o *CallOptions) {
		o.MaxTokens = maxTokens
	}
}

// WithTemperature specifies the sampling temperature, 0 is sent as is.
func WithTemperature(temperature float64) CallOption {
	return func(o *CallOptions) {
		o.Temperature = &temperature
	}
}

// WithTools sets the tools offered to the model.
func WithTools(tools []Tool) CallOption {
	return func(o *CallOptions) {
		o.Tools = tools
	}
}
