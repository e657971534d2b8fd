// Package llm provides a provider-agnostic interface for generating
// financial analysis reports via LLM vendors. One vendor (Gemini) performs
// live web search itself and returns grounding citations; the chat-completion
// vendors receive a pre-formatted search-context block in their prompt.
//
// Clients are stateless and safe for concurrent use. They return the raw
// response text; extracting the embedded JSON report is the normalizer's
// job, not theirs.
package llm

import (
	"context"
	"fmt"

	"github.com/nexusdash/analyst-service/internal/model"
)

// Result is the raw outcome of one provider call.
type Result struct {
	// Text is the vendor's answer, expected (but not guaranteed) to contain
	// a JSON report object.
	Text string
	// Reasoning is the separate reasoning trace, present only for the
	// reasoner vendor variant.
	Reasoning string
	// Sources are cited documents from grounding metadata, present only for
	// the search-augmented vendor.
	Sources []model.Source
}

// Client is the interface every provider adapter implements.
// Keep it small: one call method plus identification for logging and
// call-ledger records.
type Client interface {
	Generate(ctx context.Context, query string, searchContext string) (*Result, error)
	ProviderName() string
	ModelName() string
}

// NewClient constructs the adapter for a provider with the resolved API key.
// Adapters are built per request because the key may be a per-call override
// rather than process-wide configuration.
func NewClient(ctx context.Context, id model.ProviderID, apiKey, modelName string) (Client, error) {
	switch id {
	case model.ProviderGemini:
		return NewGeminiClient(ctx, apiKey, modelName)
	case model.ProviderDeepSeek:
		return NewChatClient(VendorDeepSeek, apiKey, modelName), nil
	case model.ProviderDeepSeekReasoner:
		return NewChatClient(VendorDeepSeekReasoner, apiKey, modelName), nil
	case model.ProviderKimi:
		return NewChatClient(VendorKimi, apiKey, modelName), nil
	case model.ProviderZhipu:
		return NewChatClient(VendorZhipu, apiKey, modelName), nil
	case model.ProviderBaidu:
		return NewBaiduClient(apiKey, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", id)
	}
}
