package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nexusdash/analyst-service/internal/model"
)

const baiduEndpoint = "https://aip.baidubce.com/rpc/2.0/ai_custom/v1/wenxinworkshop/chat/completions"

// BaiduClient is the one chat vendor whose envelope is not OpenAI-compatible:
// the answer text lives in a top-level "result" field instead of the choices
// array, so it gets a hand-rolled HTTP adapter rather than the shared
// ChatClient.
type BaiduClient struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

// NewBaiduClient creates the adapter with the resolved API key.
func NewBaiduClient(apiKey, modelName string) *BaiduClient {
	if modelName == "" {
		modelName = "ernie-bot-4"
	}
	return &BaiduClient{
		apiKey:   apiKey,
		model:    modelName,
		endpoint: baiduEndpoint,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// WithEndpoint overrides the vendor endpoint. Used by tests.
func (b *BaiduClient) WithEndpoint(endpoint string) *BaiduClient {
	b.endpoint = endpoint
	return b
}

func (b *BaiduClient) ProviderName() string { return string(model.ProviderBaidu) }
func (b *BaiduClient) ModelName() string    { return b.model }

type baiduMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type baiduRequest struct {
	Model          string         `json:"model"`
	Messages       []baiduMessage `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type baiduResponse struct {
	Result       string `json:"result"`
	ErrorMessage string `json:"error_msg"`
}

func (b *BaiduClient) Generate(ctx context.Context, query string, searchContext string) (*Result, error) {
	prompt := BuildPrompt(PromptParams{
		Query:         query,
		SearchContext: searchContext,
		Now:           time.Now(),
	})

	reqBody := baiduRequest{
		Model: b.model,
		Messages: []baiduMessage{
			{Role: "system", Content: systemPersona},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.4,
	}
	reqBody.ResponseFormat.Type = "json_object"

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("baidu: marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("baidu: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("baidu: sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("baidu: reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Provider:   b.ProviderName(),
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	var parsed baiduResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("baidu: decoding response: %w", err)
	}
	if parsed.Result == "" {
		return nil, fmt.Errorf("baidu: %w", ErrEmptyResponse)
	}

	return &Result{Text: parsed.Result}, nil
}
