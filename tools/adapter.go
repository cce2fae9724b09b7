package tools

import (
	"github.com/effective-security/mcpclient/mcp"
	"github.com/effective-security/mcpclient/pkg/llms"
	"github.com/effective-security/mcpclient/pkg/metricskey"
	"github.com/effective-security/mcpclient/pkg/schema"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/mcpclient", "tools")

// SchemaMode controls how the input schema of a tool is passed to the model.
type SchemaMode int

const (
	// SchemaModeDefault advertises every tool with DefaultParameters.
	SchemaModeDefault SchemaMode = iota
	// SchemaModeFull advertises the normalized input schema of the tool.
	SchemaModeFull
)

func (m SchemaMode) String() string {
	switch m {
	case SchemaModeDefault:
		return "default"
	case SchemaModeFull:
		return "full"
	}
	return "unknown"
}

// Option configures Adapt.
type Option func(*options)

type options struct {
	mode SchemaMode
}

// WithSchemaMode sets the schema mode.
func WithSchemaMode(mode SchemaMode) Option {
	return func(o *options) {
		o.mode = mode
	}
}

// DefaultParameters returns the empty object schema.
func DefaultParameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
		"required":   []any{},
	}
}

// Adapt returns one function definition per descriptor, in the same order.
// Duplicate names are passed through.
func Adapt(list []mcp.ToolDescriptor, opts ...Option) []llms.Tool {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	defs := make([]llms.Tool, 0, len(list))
	for _, d := range list {
		defs = append(defs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  parameters(d, o.mode),
			},
		})
	}
	return defs
}

func parameters(d mcp.ToolDescriptor, mode SchemaMode) map[string]any {
	if mode != SchemaModeFull || d.InputSchema == nil {
		return DefaultParameters()
	}

	s, err := schema.Normalize(d.InputSchema)
	if err == nil {
		var m map[string]any
		if m, err = schema.ToMap(s); err == nil {
			return m
		}
	}

	logger.KV(xlog.WARNING,
		"reason", "schema_fallback",
		"tool", d.Name,
		"err", err.Error())
	metricskey.StatsToolSchemaFallbacks.IncrCounter(1, d.Name)
	return DefaultParameters()
}
