package genaiutils

import (
	"testing"

	"github.com/effective-security/mcpclient/pkg/llms"
	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"google.golang.org/genai"
)

func TestConvertJSONSchemaDefinition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		definition *jsonschema.Schema
		validate   func(t *testing.T, result *genai.Schema)
	}{
		{
			name: "object with properties",
			definition: &jsonschema.Schema{
				Type:        "object",
				Description: "Weather request",
				Properties: orderedmap.New[string, *jsonschema.Schema](
					orderedmap.WithInitialData(
						orderedmap.Pair[string, *jsonschema.Schema]{
							Key:   "city",
							Value: &jsonschema.Schema{Type: "string", Description: "City name"},
						},
						orderedmap.Pair[string, *jsonschema.Schema]{
							Key:   "days",
							Value: &jsonschema.Schema{Type: "integer"},
						},
					),
				),
				Required: []string{"city"},
			},
			validate: func(t *testing.T, result *genai.Schema) {
				assert.Equal(t, genai.TypeObject, result.Type)
				assert.Equal(t, "Weather request", result.Description)
				assert.Equal(t, []string{"city"}, result.Required)
				require.Len(t, result.Properties, 2)
				assert.Equal(t, genai.TypeString, result.Properties["city"].Type)
				assert.Equal(t, "City name", result.Properties["city"].Description)
				assert.Equal(t, genai.TypeInteger, result.Properties["days"].Type)
			},
		},
		{
			name: "array of enums",
			definition: &jsonschema.Schema{
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "string",
					Enum: []any{"celsius", "fahrenheit"},
				},
			},
			validate: func(t *testing.T, result *genai.Schema) {
				assert.Equal(t, genai.TypeArray, result.Type)
				require.NotNil(t, result.Items)
				assert.Equal(t, []string{"celsius", "fahrenheit"}, result.Items.Enum)
			},
		},
		{
			name:       "empty object",
			definition: &jsonschema.Schema{Type: "object", Properties: jsonschema.NewProperties()},
			validate: func(t *testing.T, result *genai.Schema) {
				assert.Equal(t, genai.TypeObject, result.Type)
				assert.Nil(t, result.Properties)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := ConvertJSONSchemaDefinition(tt.definition)
			require.NoError(t, err)
			tt.validate(t, result)
		})
	}

	res, err := ConvertJSONSchemaDefinition(nil)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestConvertJSONSchemaType(t *testing.T) {
	t.Parallel()

	tests := map[string]genai.Type{
		"object":  genai.TypeObject,
		"string":  genai.TypeString,
		"number":  genai.TypeNumber,
		"integer": genai.TypeInteger,
		"boolean": genai.TypeBoolean,
		"array":   genai.TypeArray,
		"null":    genai.TypeUnspecified,
	}
	for in, exp := range tests {
		assert.Equal(t, exp, ConvertJSONSchemaType(in), in)
	}
}

func TestConvertTools(t *testing.T) {
	t.Parallel()

	res, err := ConvertTools(nil)
	require.NoError(t, err)
	assert.Nil(t, res)

	res, err = ConvertTools([]llms.Tool{
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        "get_weather",
				Description: "Get weather information",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"city": map[string]any{"type": "string", "description": "City name"},
						"unit": map[string]any{"type": "string", "enum": []any{"celsius", "fahrenheit"}},
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

	decl := res[0].FunctionDeclarations[0]
	assert.Equal(t, "get_weather", decl.Name)
	assert.Equal(t, "Get weather information", decl.Description)
	require.NotNil(t, decl.Parameters)
	assert.Equal(t, genai.TypeObject, decl.Parameters.Type)
	assert.Equal(t, []string{"city"}, decl.Parameters.Required)
	require.Len(t, decl.Parameters.Properties, 2)
	assert.Equal(t, []string{"celsius", "fahrenheit"}, decl.Parameters.Properties["unit"].Enum)

	decl = res[1].FunctionDeclarations[0]
	assert.Equal(t, "ping", decl.Name)
	assert.Empty(t, decl.Parameters.Properties)

	_, err = ConvertTools([]llms.Tool{{Type: "unsupported", Function: &llms.FunctionDefinition{Name: "x"}}})
	assert.EqualError(t, err, `tool [0]: unsupported type "unsupported", want 'function'`)

	_, err = ConvertTools([]llms.Tool{{Type: "function", Function: &llms.FunctionDefinition{Name: "x", Parameters: "{oops"}}})
	assert.Error(t, err)
}
