package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nexusdash/analyst-service/internal/model"
)

// ChatVendor describes one OpenAI-wire-compatible chat-completion vendor.
// DeepSeek, Kimi (Moonshot) and Zhipu all speak the same /chat/completions
// dialect, so a single client parameterized by this struct replaces what
// would otherwise be near-duplicate per-vendor call functions.
type ChatVendor struct {
	ID           model.ProviderID
	BaseURL      string
	DefaultModel string
	// Reasoning marks the variant whose responses carry a separate
	// reasoning trace alongside the answer.
	Reasoning bool
}

var (
	VendorDeepSeek = ChatVendor{
		ID:           model.ProviderDeepSeek,
		BaseURL:      "https://api.deepseek.com/v1",
		DefaultModel: "deepseek-chat",
	}
	VendorDeepSeekReasoner = ChatVendor{
		ID:           model.ProviderDeepSeekReasoner,
		BaseURL:      "https://api.deepseek.com/v1",
		DefaultModel: "deepseek-reasoner",
		Reasoning:    true,
	}
	VendorKimi = ChatVendor{
		ID:           model.ProviderKimi,
		BaseURL:      "https://api.moonshot.cn/v1",
		DefaultModel: "kimi-k2-0905-preview",
	}
	VendorZhipu = ChatVendor{
		ID:           model.ProviderZhipu,
		BaseURL:      "https://open.bigmodel.cn/api/paas/v4",
		DefaultModel: "glm-4.6",
	}
)

// ChatClient implements Client for all OpenAI-compatible chat vendors.
type ChatClient struct {
	client *openai.Client
	vendor ChatVendor
	model  string
}

// NewChatClient creates an adapter for the given vendor. An empty modelName
// selects the vendor's default model.
func NewChatClient(vendor ChatVendor, apiKey, modelName string) *ChatClient {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = vendor.BaseURL
	if modelName == "" {
		modelName = vendor.DefaultModel
	}
	return &ChatClient{
		client: openai.NewClientWithConfig(cfg),
		vendor: vendor,
		model:  modelName,
	}
}

// WithBaseURL returns a copy of the vendor pointed at a different endpoint.
// Used by tests to target an httptest server.
func (v ChatVendor) WithBaseURL(baseURL string) ChatVendor {
	v.BaseURL = baseURL
	return v
}

func (c *ChatClient) ProviderName() string { return string(c.vendor.ID) }
func (c *ChatClient) ModelName() string    { return c.model }

// Generate posts the role-structured message list and reads the assistant's
// text from choices[0].message.content. JSON output mode is requested so the
// vendor returns a bare object rather than prose.
func (c *ChatClient) Generate(ctx context.Context, query string, searchContext string) (*Result, error) {
	prompt := BuildPrompt(PromptParams{
		Query:         query,
		SearchContext: searchContext,
		Now:           time.Now(),
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPersona},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.4,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, &ProviderError{
				Provider:   c.ProviderName(),
				StatusCode: apiErr.HTTPStatusCode,
				Message:    apiErr.Message,
			}
		}
		return nil, fmt.Errorf("%s chat completion: %w", c.ProviderName(), err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("%s: %w", c.ProviderName(), ErrEmptyResponse)
	}

	result := &Result{Text: resp.Choices[0].Message.Content}
	if c.vendor.Reasoning {
		result.Reasoning = resp.Choices[0].Message.ReasoningContent
	}
	return result, nil
}
