package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestChatClient_Generate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			ResponseFormat struct {
				Type string `json:"type"`
			} `json:"response_format"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Model != "kimi-k2-0905-preview" {
			t.Errorf("expected default model, got %q", req.Model)
		}
		if req.ResponseFormat.Type != "json_object" {
			t.Errorf("expected json_object response format, got %q", req.ResponseFormat.Type)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("expected system+user messages, got %+v", req.Messages)
		}
		if !strings.Contains(req.Messages[1].Content, "宁德时代") {
			t.Error("expected query in user prompt")
		}
		if !strings.Contains(req.Messages[1].Content, "最新搜索结果") {
			t.Error("expected search context in user prompt")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "{\"title\":\"研报\"}"}}]
		}`))
	}))
	defer ts.Close()

	client := NewChatClient(VendorKimi.WithBaseURL(ts.URL), "test-key", "")

	result, err := client.Generate(context.Background(), "宁德时代", "最新搜索结果：\n1. 测试\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != `{"title":"研报"}` {
		t.Errorf("unexpected text: %q", result.Text)
	}
	if result.Reasoning != "" {
		t.Errorf("non-reasoning vendor must not set reasoning, got %q", result.Reasoning)
	}
}

func TestChatClient_ReasonerCapturesTrace(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{"message": {
				"role": "assistant",
				"content": "{\"title\":\"研报\"}",
				"reasoning_content": "先核对营收，再看估值。"
			}}]
		}`))
	}))
	defer ts.Close()

	client := NewChatClient(VendorDeepSeekReasoner.WithBaseURL(ts.URL), "test-key", "")

	result, err := client.Generate(context.Background(), "陕西建工", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Reasoning != "先核对营收，再看估值。" {
		t.Errorf("expected reasoning trace, got %q", result.Reasoning)
	}
}

func TestChatClient_APIErrorMapped(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limit reached", "type": "rate_limit_error"}}`))
	}))
	defer ts.Close()

	client := NewChatClient(VendorDeepSeek.WithBaseURL(ts.URL), "test-key", "")

	_, err := client.Generate(context.Background(), "宁德时代", "")
	if err == nil {
		t.Fatal("expected error")
	}

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected *ProviderError, got %T: %v", err, err)
	}
	if provErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", provErr.StatusCode)
	}
	if provErr.Provider != "deepseek" {
		t.Errorf("expected provider deepseek, got %q", provErr.Provider)
	}
}

func TestChatClient_EmptyChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": []}`))
	}))
	defer ts.Close()

	client := NewChatClient(VendorZhipu.WithBaseURL(ts.URL), "test-key", "")

	_, err := client.Generate(context.Background(), "宁德时代", "")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestChatClient_ModelOverride(t *testing.T) {
	client := NewChatClient(VendorDeepSeek, "k", "deepseek-chat-v2")
	if client.ModelName() != "deepseek-chat-v2" {
		t.Errorf("expected override, got %q", client.ModelName())
	}

	client = NewChatClient(VendorDeepSeek, "k", "")
	if client.ModelName() != "deepseek-chat" {
		t.Errorf("expected vendor default, got %q", client.ModelName())
	}
}
