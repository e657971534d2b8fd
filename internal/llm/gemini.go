package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/nexusdash/analyst-service/internal/model"
)

// callTimeout bounds the search-augmented call. Search plus generation can
// take a while, so the deadline is generous; past it the call is abandoned
// and the orchestrator falls back.
const callTimeout = 90 * time.Second

// GeminiClient is the search-augmented adapter. It bundles a mandatory live
// web search into every call and reads both the answer text and the
// grounding-metadata citations from the response.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates the adapter with the resolved API key.
func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	return &GeminiClient{client: client, model: modelName}, nil
}

func (g *GeminiClient) ProviderName() string { return string(model.ProviderGemini) }
func (g *GeminiClient) ModelName() string    { return g.model }

// Generate runs a grounded generation call. The searchContext argument is
// ignored: this vendor performs its own search via the GoogleSearch tool.
func (g *GeminiClient) Generate(ctx context.Context, query string, _ string) (*Result, error) {
	prompt := BuildPrompt(PromptParams{
		Query:        query,
		Now:          time.Now(),
		NativeSearch: true,
	})

	config := &genai.GenerateContentConfig{
		Tools:       []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		Temperature: genai.Ptr(float32(0.4)),
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(callCtx, g.model, genai.Text(prompt), config)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("gemini: %w", ErrTimeout)
		}
		return nil, fmt.Errorf("gemini generation: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}

	result := &Result{Text: text}

	// Map grounding chunks into source entries. Chunks without web metadata
	// are skipped.
	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
			if chunk.Web != nil {
				result.Sources = append(result.Sources, model.Source{
					Title: chunk.Web.Title,
					URI:   chunk.Web.URI,
				})
			}
		}
	}

	return result, nil
}
