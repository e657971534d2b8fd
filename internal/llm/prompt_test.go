package llm

import (
	"strings"
	"testing"
	"time"
)

func TestBuildPrompt_AnchorsDate(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	prompt := BuildPrompt(PromptParams{Query: "宁德时代", Now: now})

	if !strings.Contains(prompt, "2026-03-15") {
		t.Error("expected explicit date anchor")
	}
	if !strings.Contains(prompt, "2026") {
		t.Error("expected current year anchor")
	}
	if !strings.Contains(prompt, `"宁德时代"`) {
		t.Error("expected quoted query")
	}
}

func TestBuildPrompt_IncludesSchema(t *testing.T) {
	prompt := BuildPrompt(PromptParams{Query: "q", Now: time.Now()})

	for _, field := range []string{`"ratingScore"`, `"swot"`, `"chartType"`, `"keyMetrics"`, "简体中文"} {
		if !strings.Contains(prompt, field) {
			t.Errorf("expected prompt to contain %s", field)
		}
	}
	if !strings.Contains(prompt, "Do not output Markdown formatting") {
		t.Error("expected no-fencing instruction")
	}
	if !strings.Contains(prompt, "未披露") {
		t.Error("expected competitor data requirement")
	}
}

func TestBuildPrompt_NativeSearchWording(t *testing.T) {
	native := BuildPrompt(PromptParams{Query: "q", Now: time.Now(), NativeSearch: true})
	if !strings.Contains(native, "googleSearch") {
		t.Error("expected search tool instruction for native-search vendors")
	}

	chat := BuildPrompt(PromptParams{Query: "q", Now: time.Now(), SearchContext: "最新搜索结果：\n1. x\n"})
	if strings.Contains(chat, "googleSearch") {
		t.Error("chat vendors must not get the search tool instruction")
	}
	if !strings.Contains(chat, "最新搜索结果") {
		t.Error("expected search context embedded in prompt")
	}
}
