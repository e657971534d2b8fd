package service

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/nexusdash/analyst-service/internal/config"
	"github.com/nexusdash/analyst-service/internal/llm"
	"github.com/nexusdash/analyst-service/internal/model"
	"github.com/nexusdash/analyst-service/internal/report"
	"github.com/nexusdash/analyst-service/internal/search"
	"github.com/nexusdash/analyst-service/internal/validation"
)

// fakeClient stands in for a provider adapter and records what it was
// called with.
type fakeClient struct {
	provider  model.ProviderID
	result    *llm.Result
	err       error
	gotQuery  string
	gotSearch string
	gotKey    string
}

func (f *fakeClient) Generate(ctx context.Context, query, searchContext string) (*llm.Result, error) {
	f.gotQuery = query
	f.gotSearch = searchContext
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeClient) ProviderName() string { return string(f.provider) }
func (f *fakeClient) ModelName() string    { return "fake-model" }

func factoryFor(fake *fakeClient) ClientFactory {
	return func(ctx context.Context, id model.ProviderID, apiKey, modelName string) (llm.Client, error) {
		fake.provider = id
		fake.gotKey = apiKey
		return fake, nil
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Providers: config.ProvidersConfig{
			Gemini:   config.ProviderConfig{APIKey: "gemini-key", Model: "gemini-2.5-flash"},
			DeepSeek: config.ProviderConfig{APIKey: "deepseek-key", Model: "deepseek-chat"},
		},
		Analysis: config.AnalysisConfig{
			DefaultProvider:  "deepseek",
			MissingKeyPolicy: config.PolicyFallback,
			RatePerMinute:    6000,
		},
	}
}

func newTestService(t *testing.T, cfg *config.Config, fake *fakeClient) *AnalysisService {
	t.Helper()
	logger := zap.NewNop()
	searchSvc := search.NewService("", "", logger, search.WithSimulation())
	validator := validation.NewEngine(validation.StaticReference{}, logger)

	opts := []Option{WithMockSource(report.NewInstantMockSource())}
	if fake != nil {
		opts = append(opts, WithClientFactory(factoryFor(fake)))
	}
	return NewAnalysisService(cfg, searchSvc, validator, nil, logger, opts...)
}

const validReportJSON = `{"title":"陕西建工研报","ticker":"600248.SH","rating":"HOLD","ratingScore":62,` +
	`"summary":"稳健","keyMetrics":[{"label":"营收","value":"872.9亿元","trend":"neutral"}]}`

func TestAnalyze_SuccessPath(t *testing.T) {
	fake := &fakeClient{result: &llm.Result{Text: validReportJSON}}
	svc := newTestService(t, testConfig(), fake)

	outcome := svc.Analyze(context.Background(), model.AnalysisRequest{Query: "陕西建工"})

	rpt := outcome.Report
	if rpt.IsMock {
		t.Fatal("expected live report, got fallback")
	}
	if rpt.Ticker != "600248.SH" || rpt.Rating != model.RatingHold {
		t.Errorf("unexpected report: %+v", rpt)
	}
	if rpt.QuotaExceeded || rpt.ErrorMessage != "" {
		t.Errorf("success must not carry degraded-mode flags: %+v", rpt)
	}
	if rpt.ConfidenceScore == nil {
		t.Fatal("expected confidence score attached")
	}
	if len(outcome.Validation) != 15 {
		t.Errorf("expected 15 validation rows, got %d", len(outcome.Validation))
	}
	if fake.gotKey != "deepseek-key" {
		t.Errorf("expected configured key, got %q", fake.gotKey)
	}
}

func TestAnalyze_ChatVendorGetsSearchContext(t *testing.T) {
	fake := &fakeClient{result: &llm.Result{Text: validReportJSON}}
	svc := newTestService(t, testConfig(), fake)

	svc.Analyze(context.Background(), model.AnalysisRequest{
		Query:    "陕西建工",
		Provider: model.ProviderDeepSeek,
	})

	if !strings.Contains(fake.gotSearch, "最新搜索结果") {
		t.Errorf("expected formatted search context, got %q", fake.gotSearch)
	}
	if !strings.Contains(fake.gotSearch, "陕西建工") {
		t.Error("expected query reflected in search context")
	}
}

func TestAnalyze_GeminiSkipsSearchContext(t *testing.T) {
	fake := &fakeClient{result: &llm.Result{Text: validReportJSON}}
	svc := newTestService(t, testConfig(), fake)

	svc.Analyze(context.Background(), model.AnalysisRequest{
		Query:    "陕西建工",
		Provider: model.ProviderGemini,
	})

	if fake.gotSearch != "" {
		t.Errorf("search-native provider must not get external context, got %q", fake.gotSearch)
	}
}

func TestAnalyze_PerRequestKeyOverride(t *testing.T) {
	fake := &fakeClient{result: &llm.Result{Text: validReportJSON}}
	svc := newTestService(t, testConfig(), fake)

	svc.Analyze(context.Background(), model.AnalysisRequest{
		Query:  "陕西建工",
		APIKey: "override-key",
	})

	if fake.gotKey != "override-key" {
		t.Errorf("expected per-request key to win, got %q", fake.gotKey)
	}
}

func TestAnalyze_MissingKeyFallbackPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.Providers.DeepSeek.APIKey = ""
	svc := newTestService(t, cfg, nil)

	rpt := svc.Analyze(context.Background(), model.AnalysisRequest{Query: "陕西建工"}).Report

	if !rpt.IsMock {
		t.Fatal("expected fallback report without credentials")
	}
	if rpt.QuotaExceeded || rpt.ErrorMessage != "" {
		t.Errorf("fallback policy must serve the demo silently: %+v", rpt)
	}
}

func TestAnalyze_MissingKeyErrorPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.Providers.DeepSeek.APIKey = ""
	cfg.Analysis.MissingKeyPolicy = config.PolicyError
	svc := newTestService(t, cfg, nil)

	rpt := svc.Analyze(context.Background(), model.AnalysisRequest{Query: "陕西建工"}).Report

	if !rpt.IsMock || !rpt.QuotaExceeded {
		t.Fatalf("expected flagged fallback, got %+v", rpt)
	}
	if !strings.Contains(rpt.ErrorMessage, "API 密钥") {
		t.Errorf("expected missing-key message, got %q", rpt.ErrorMessage)
	}
}

func TestAnalyze_ProviderFailureDegrades(t *testing.T) {
	fake := &fakeClient{err: &llm.ProviderError{Provider: "deepseek", StatusCode: 429, Message: "quota"}}
	svc := newTestService(t, testConfig(), fake)

	rpt := svc.Analyze(context.Background(), model.AnalysisRequest{Query: "陕西建工"}).Report

	if !rpt.IsMock || !rpt.QuotaExceeded {
		t.Fatalf("expected degraded fallback, got %+v", rpt)
	}
	if !strings.Contains(rpt.ErrorMessage, "额度") {
		t.Errorf("expected quota message, got %q", rpt.ErrorMessage)
	}
	if rpt.ConfidenceScore == nil {
		t.Error("fallback report metrics are validated too")
	}
}

func TestAnalyze_UnparseableResponseDegrades(t *testing.T) {
	fake := &fakeClient{result: &llm.Result{Text: "模型超载，请稍后再试。"}}
	svc := newTestService(t, testConfig(), fake)

	rpt := svc.Analyze(context.Background(), model.AnalysisRequest{Query: "陕西建工"}).Report

	if !rpt.IsMock || !rpt.QuotaExceeded {
		t.Fatalf("expected fallback on unparseable response, got %+v", rpt)
	}
	if rpt.ErrorMessage == "" {
		t.Error("expected cause recorded on the report")
	}
}

func TestAnalyze_ReasoningTracePrefixed(t *testing.T) {
	fake := &fakeClient{result: &llm.Result{
		Text:      validReportJSON,
		Reasoning: "先核对营收规模，再评估负债风险。",
	}}
	svc := newTestService(t, testConfig(), fake)

	rpt := svc.Analyze(context.Background(), model.AnalysisRequest{
		Query:    "陕西建工",
		Provider: model.ProviderDeepSeekReasoner,
	}).Report

	if !strings.HasPrefix(rpt.Reasoning, "【模型推理过程】") {
		t.Errorf("expected reasoning trace prefixed, got %q", rpt.Reasoning)
	}
	if !strings.Contains(rpt.Reasoning, "先核对营收规模") {
		t.Error("expected trace content present")
	}
}

func TestAnalyze_GroundingSourcesAttached(t *testing.T) {
	fake := &fakeClient{result: &llm.Result{
		Text:    validReportJSON,
		Sources: []model.Source{{Title: "巨潮资讯网", URI: "http://www.cninfo.com.cn"}},
	}}
	svc := newTestService(t, testConfig(), fake)

	rpt := svc.Analyze(context.Background(), model.AnalysisRequest{
		Query:    "陕西建工",
		Provider: model.ProviderGemini,
	}).Report

	if len(rpt.Sources) != 1 || rpt.Sources[0].Title != "巨潮资讯网" {
		t.Errorf("expected grounding sources attached, got %+v", rpt.Sources)
	}
}

func TestAnalyze_MockArchetypeFollowsQuery(t *testing.T) {
	cfg := testConfig()
	cfg.Providers.DeepSeek.APIKey = ""
	svc := newTestService(t, cfg, nil)

	tech := svc.Analyze(context.Background(), model.AnalysisRequest{Query: "宁德时代"}).Report
	if tech.Ticker != "300750.SZ" {
		t.Errorf("expected tech archetype, got %s", tech.Ticker)
	}

	other := svc.Analyze(context.Background(), model.AnalysisRequest{Query: "某某地产"}).Report
	if other.Ticker != "600248.SH" {
		t.Errorf("expected construction archetype, got %s", other.Ticker)
	}
}
