package llmfactory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpclient/pkg/llms"
	"github.com/effective-security/mcpclient/pkg/llms/anthropic"
	"github.com/effective-security/mcpclient/pkg/llms/bedrock"
	"github.com/effective-security/mcpclient/pkg/llms/googleai"
	"github.com/effective-security/mcpclient/pkg/llms/openai"
	"github.com/effective-security/x/configloader"
	"github.com/effective-security/x/values"
	"github.com/go-playground/validator/v10"
)

// Environment variables holding the API key of each provider.
const (
	EnvGroqAPIKey      = "GROQ_API_KEY"      //nolint:gosec
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"    //nolint:gosec
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY" //nolint:gosec
	EnvGoogleAPIKey    = "GOOGLE_API_KEY"    //nolint:gosec
)

// Config of the language model.
type Config struct {
	// Provider specifies the LLM provider:
	// GROQ|OPENAI|ANTHROPIC|BEDROCK|GOOGLEAI
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty" toml:"provider,omitempty" validate:"omitempty,oneof=GROQ OPENAI ANTHROPIC BEDROCK GOOGLEAI"`
	// APIKey is required for all providers except BEDROCK,
	// which uses the default AWS credential chain.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" toml:"api_key,omitempty" validate:"required_unless=Provider BEDROCK"`
	// Model is the model name, the provider default is used if empty.
	Model string `json:"model,omitempty" yaml:"model,omitempty" toml:"model,omitempty"`
	// BaseURL overrides the API endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" toml:"base_url,omitempty" validate:"omitempty,url"`
	// Region is the AWS region, BEDROCK only.
	Region string `json:"region,omitempty" yaml:"region,omitempty" toml:"region,omitempty"`
	// MaxTokens limits the generated tokens, 0 uses the provider default.
	MaxTokens int `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty" toml:"max_tokens,omitempty" validate:"gte=0"`
	// Temperature is the sampling temperature, nil uses the provider default.
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty" toml:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
}

// LoadConfig from file.
// YAML and JSON files are loaded with environment expansion,
// `.toml` files are expanded and decoded with TOML.
// An empty file name returns an empty config.
func LoadConfig(file string) (*Config, error) {
	cfg := new(Config)
	if file == "" {
		return cfg, nil
	}

	if strings.EqualFold(filepath.Ext(file), ".toml") {
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if _, err = toml.Decode(os.ExpandEnv(string(raw)), cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to decode %s", file)
		}
		return cfg, nil
	}

	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetDefaults fills Provider, Model and APIKey when they are not set.
// The API key is read from the provider environment variable.
func (c *Config) SetDefaults() {
	c.Provider = strings.ToUpper(values.StringsCoalesce(c.Provider, string(llms.ProviderGroq)))

	switch llms.ProviderType(c.Provider) {
	case llms.ProviderGroq:
		c.Model = values.StringsCoalesce(c.Model, openai.DefaultGroqModel)
		c.APIKey = values.StringsCoalesce(c.APIKey, os.Getenv(EnvGroqAPIKey))
	case llms.ProviderOpenAI:
		c.Model = values.StringsCoalesce(c.Model, openai.DefaultModel)
		c.APIKey = values.StringsCoalesce(c.APIKey, os.Getenv(EnvOpenAIAPIKey))
	case llms.ProviderAnthropic:
		c.Model = values.StringsCoalesce(c.Model, anthropic.DefaultModel)
		c.APIKey = values.StringsCoalesce(c.APIKey, os.Getenv(EnvAnthropicAPIKey))
	case llms.ProviderBedrock:
		c.Model = values.StringsCoalesce(c.Model, bedrock.DefaultModel)
	case llms.ProviderGoogleAI:
		c.Model = values.StringsCoalesce(c.Model, googleai.DefaultModel)
		c.APIKey = values.StringsCoalesce(c.APIKey, os.Getenv(EnvGoogleAPIKey))
	}
}

// Validate returns an error if the config is not valid.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errors.Newf("invalid LLM config: %s", describe(verrs[0]))
		}
		return errors.Wrap(err, "invalid LLM config")
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required_unless":
		return "api_key is required"
	case "oneof":
		return fmt.Sprintf("unsupported provider: %v", fe.Value())
	}
	return strings.ToLower(fe.Field()) + " failed on " + fe.Tag()
}
