package llmfactory

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpclient/pkg/llms"
	"github.com/effective-security/mcpclient/pkg/llms/anthropic"
	"github.com/effective-security/mcpclient/pkg/llms/bedrock"
	"github.com/effective-security/mcpclient/pkg/llms/googleai"
	"github.com/effective-security/mcpclient/pkg/llms/openai"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/mcpclient", "llmfactory")

// NewLLM is a wrapper for CreateLLM to allow for overriding the default implementation.
var NewLLM = CreateLLM

// Load returns the model for the config file.
func Load(ctx context.Context, location string) (llms.Model, error) {
	cfg, err := LoadConfig(location)
	if err != nil {
		return nil, err
	}
	return NewLLM(ctx, cfg)
}

// CreateLLM creates the model client for the configured provider.
// Defaults are applied and the config is validated before the client is created.
func CreateLLM(ctx context.Context, cfg *Config) (llms.Model, error) {
	if cfg == nil {
		cfg = new(Config)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var model llms.Model
	var err error

	provType := llms.ProviderType(strings.ToUpper(cfg.Provider))
	switch provType {
	case llms.ProviderGroq:
		model, err = newOpenAI(cfg, openai.ProviderGroq)
	case llms.ProviderOpenAI:
		model, err = newOpenAI(cfg, openai.ProviderOpenAI)
	case llms.ProviderAnthropic:
		model, err = newAnthropic(cfg)
	case llms.ProviderGoogleAI:
		model, err = newGoogleAI(ctx, cfg)
	case llms.ProviderBedrock:
		model, err = newBedrock(ctx, cfg)
	default:
		return nil, errors.Errorf("unsupported provider type: %s", provType)
	}
	if err != nil {
		return nil, err
	}

	logger.KV(xlog.DEBUG,
		"status", "created_llm",
		"provider", provType,
		"model", model.GetName(),
	)
	return model, nil
}

func newOpenAI(cfg *Config, provider openai.ProviderType) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithProvider(provider),
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	return openai.New(opts...)
}

func newAnthropic(cfg *Config) (llms.Model, error) {
	opts := []anthropic.Option{
		anthropic.WithModel(cfg.Model),
		anthropic.WithToken(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}
	return anthropic.New(opts...)
}

func newGoogleAI(ctx context.Context, cfg *Config) (llms.Model, error) {
	opts := []googleai.Option{
		googleai.WithDefaultModel(cfg.Model),
		googleai.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, googleai.WithBaseURL(cfg.BaseURL))
	}
	return googleai.New(ctx, opts...)
}

func newBedrock(ctx context.Context, cfg *Config) (llms.Model, error) {
	opts := []bedrock.Option{
		bedrock.WithModel(cfg.Model),
	}
	if cfg.Region != "" {
		opts = append(opts, bedrock.WithRegion(cfg.Region))
	}
	return bedrock.New(ctx, opts...)
}
