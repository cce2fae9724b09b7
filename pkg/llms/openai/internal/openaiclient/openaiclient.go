package openaiclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/openai/openai-go/v3"
)

const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
	DefaultChatModel   = "gpt-4o-mini"
	DefaultGroqModel   = "llama3-70b-8192"
)

// ErrEmptyResponse is returned when the API returns an empty response.
var ErrEmptyResponse = errors.New("empty response")

type ProviderType string

const (
	ProviderOpenAI ProviderType = "OPENAI"
	ProviderGroq   ProviderType = "GROQ"
)

// Client is a client for the OpenAI compatible Chat Completions API.
type Client struct {
	Model    string
	Provider ProviderType

	token        string
	baseURL      string
	organization string
	httpClient   Doer
}

// Option is an option for the client.
type Option func(*Client) error

// Doer performs a HTTP request.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// New returns a new client.
func New(provider ProviderType, model string, token string, baseURL string, organization string,
	httpClient Doer,
	opts ...Option,
) (*Client, error) {
	c := &Client{
		Model:        model,
		Provider:     provider,
		token:        token,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		organization: organization,
		httpClient:   httpClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
		if provider == ProviderGroq {
			c.baseURL = DefaultGroqBaseURL
		}
	}
	if c.Model == "" {
		c.Model = DefaultChatModel
		if provider == ProviderGroq {
			c.Model = DefaultGroqModel
		}
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// CreateChat sends the chat completion request,
// the client model is used when the request has none.
func (c *Client) CreateChat(ctx context.Context, r *openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	if r.Model == "" {
		r.Model = c.Model
	}
	resp, err := c.createChat(ctx, r)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.WithStack(ErrEmptyResponse)
	}
	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if c.organization != "" {
		req.Header.Set("OpenAI-Organization", c.organization)
	}
}

func (c *Client) buildURL(suffix string) string {
	return fmt.Sprintf("%s%s", c.baseURL, suffix)
}

type errorMessage struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
