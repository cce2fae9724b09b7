package googleai

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpclient/pkg/llms"
	"github.com/effective-security/mcpclient/pkg/llms/googleai/internal/genaiutils"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

var (
	ErrNoContentInResponse   = errors.New("no content in generation response")
	ErrUnknownPartInResponse = errors.New("unknown part type in generation response")
)

const (
	CITATIONS = "citations"
	SAFETY    = "safety"
	RoleModel = "model"
	RoleUser  = "user"
)

// GetName implements the Model interface.
func (g *GoogleAI) GetName() string {
	return g.opts.DefaultModel
}

// GetProviderType implements the Model interface.
func (g *GoogleAI) GetProviderType() llms.ProviderType {
	return llms.ProviderGoogleAI
}

// GenerateContent implements the [llms.Model] interface.
func (g *GoogleAI) GenerateContent(
	ctx context.Context,
	messages []llms.Message,
	options ...llms.CallOption,
) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(append([]llms.CallOption{
		llms.WithModel(g.opts.DefaultModel),
		llms.WithMaxTokens(g.opts.DefaultMaxTokens),
	}, options...)...)
	if opts.Temperature == nil {
		opts.Temperature = g.opts.DefaultTemperature
	}

	callCfg, err := g.generateConfig(&opts)
	if err != nil {
		return nil, err
	}

	return g.generateFromMessages(ctx, opts.Model, messages, callCfg)
}

func (g *GoogleAI) generateConfig(opts *llms.CallOptions) (*genai.GenerateContentConfig, error) {
	callCfg := &genai.GenerateContentConfig{
		CandidateCount:  int32(g.opts.DefaultCandidateCount),
		MaxOutputTokens: int32(opts.MaxTokens),
	}
	if opts.Temperature != nil {
		temperature := float32(*opts.Temperature)
		callCfg.Temperature = &temperature
	}

	threshold := g.opts.HarmThreshold
	for _, category := range []genai.HarmCategory{
		genai.HarmCategoryDangerousContent,
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
	} {
		callCfg.SafetySettings = append(callCfg.SafetySettings, &genai.SafetySetting{
			Category:  category,
			Threshold: threshold,
		})
	}

	var err error
	if callCfg.Tools, err = genaiutils.ConvertTools(opts.Tools); err != nil {
		return nil, err
	}
	return callCfg, nil
}

// convertCandidates converts a sequence of genai.Candidate to a response.
// Function calls without an ID get a generated one.
func convertCandidates(candidates []*genai.Candidate, usage *genai.GenerateContentResponseUsageMetadata) (*llms.ContentResponse, error) {
	var contentResponse llms.ContentResponse

	for _, candidate := range candidates {
		buf := strings.Builder{}
		var toolCalls []llms.ToolCall

		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				switch {
				case part.Text != "":
					if part.Thought {
						continue
					}
					_, _ = buf.WriteString(part.Text)
				case part.FunctionCall != nil:
					b, err := json.Marshal(part.FunctionCall.Args)
					if err != nil {
						return nil, errors.WithStack(err)
					}
					id := part.FunctionCall.ID
					if id == "" {
						id = "call_" + uuid.NewString()
					}
					toolCalls = append(toolCalls, llms.ToolCall{
						ID:   id,
						Type: "function",
						FunctionCall: &llms.FunctionCall{
							Name:      part.FunctionCall.Name,
							Arguments: string(b),
						},
					})
				case part.Thought:
				default:
					return nil, errors.Wrapf(ErrUnknownPartInResponse, "not text or tool")
				}
			}
		}

		metadata := make(map[string]any)
		metadata[CITATIONS] = candidate.CitationMetadata
		metadata[SAFETY] = candidate.SafetyRatings

		if usage != nil {
			metadata["InputTokens"] = usage.PromptTokenCount
			metadata["CacheReadTokens"] = usage.CachedContentTokenCount
			metadata["OutputTokens"] = usage.CandidatesTokenCount + usage.ToolUsePromptTokenCount + usage.ThoughtsTokenCount
			metadata["TotalTokens"] = usage.TotalTokenCount
		}

		contentResponse.Choices = append(contentResponse.Choices,
			&llms.ContentChoice{
				Content:        buf.String(),
				StopReason:     string(candidate.FinishReason),
				GenerationInfo: metadata,
				ToolCalls:      toolCalls,
			})
	}
	return &contentResponse, nil
}

// convertParts converts message parts to genai parts.
func convertParts(parts []llms.ContentPart) ([]*genai.Part, error) {
	convertedParts := make([]*genai.Part, 0, len(parts))
	for _, part := range parts {
		out := new(genai.Part)

		switch p := part.(type) {
		case llms.TextContent:
			out.Text = p.Text
		case llms.ToolCall:
			args, err := p.Args()
			if err != nil {
				return nil, err
			}
			out.FunctionCall = &genai.FunctionCall{
				ID:   p.ID,
				Name: p.Name(),
				Args: args,
			}
		case llms.ToolCallResponse:
			out.FunctionResponse = &genai.FunctionResponse{
				ID:   p.ToolCallID,
				Name: p.Name,
				Response: map[string]any{
					"output": p.Content,
				},
			}
		default:
			return nil, errors.Errorf("part %T not supported", part)
		}

		convertedParts = append(convertedParts, out)
	}
	return convertedParts, nil
}

// convertContent converts a message to genai content.
// Tool results are sent by the user role.
func convertContent(content llms.Message) (*genai.Content, error) {
	parts, err := convertParts(content.Parts)
	if err != nil {
		return nil, err
	}

	c := &genai.Content{
		Parts: parts,
	}

	switch content.Role {
	case llms.RoleSystem, llms.RoleHuman, llms.RoleTool:
		c.Role = RoleUser
	case llms.RoleAI:
		c.Role = RoleModel
	default:
		return nil, errors.WithMessagef(llms.ErrUnexpectedRole, "role %v not supported", content.Role)
	}

	return c, nil
}

func (g *GoogleAI) generateFromMessages(
	ctx context.Context,
	model string,
	messages []llms.Message,
	config *genai.GenerateContentConfig,
) (*llms.ContentResponse, error) {
	history := make([]*genai.Content, 0, len(messages))
	for _, mc := range messages {
		content, err := convertContent(mc)
		if err != nil {
			return nil, err
		}
		if mc.Role == llms.RoleSystem {
			config.SystemInstruction = content
			continue
		}
		history = append(history, content)
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, history, config)
	if err != nil {
		return nil, errors.Wrap(err, "googleai: failed to generate content")
	}

	if len(resp.Candidates) == 0 {
		return nil, errors.WithStack(ErrNoContentInResponse)
	}
	return convertCandidates(resp.Candidates, resp.UsageMetadata)
}
