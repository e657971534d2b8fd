// Package service contains the core business logic for report generation.
// AnalysisService orchestrates the full pipeline:
//
//	1. Resolve the provider and its API key (per-request override wins)
//	2. Fetch search context for vendors without built-in search
//	3. Call the provider and normalize its response into a Report
//	4. Validate key metrics against a reference snapshot
//
// Every failure along the way degrades to the static demo report instead of
// surfacing an error: a request that reaches Analyze always gets a report.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nexusdash/analyst-service/internal/config"
	"github.com/nexusdash/analyst-service/internal/llm"
	"github.com/nexusdash/analyst-service/internal/model"
	"github.com/nexusdash/analyst-service/internal/report"
	"github.com/nexusdash/analyst-service/internal/search"
	"github.com/nexusdash/analyst-service/internal/storage"
	"github.com/nexusdash/analyst-service/internal/validation"
)

// ClientFactory builds a provider adapter for one call. Swappable in tests.
type ClientFactory func(ctx context.Context, id model.ProviderID, apiKey, modelName string) (llm.Client, error)

// Outcome is the result of one analysis: the report plus the per-metric
// validation detail behind its confidence score.
type Outcome struct {
	Report     *model.Report
	Validation []model.ValidationResult
}

// AnalysisService runs the report pipeline end to end.
type AnalysisService struct {
	providers config.ProvidersConfig
	analysis  config.AnalysisConfig
	search    *search.Service
	validator *validation.Engine
	mock      *report.MockSource
	calls     storage.AnalysisCallRepository // nil disables call recording
	limiter   *rate.Limiter
	factory   ClientFactory
	logger    *zap.Logger
}

// Option configures the service.
type Option func(*AnalysisService)

// WithClientFactory replaces the provider adapter constructor, used by tests
// to inject fake clients.
func WithClientFactory(f ClientFactory) Option {
	return func(s *AnalysisService) { s.factory = f }
}

// WithMockSource replaces the fallback report source.
func WithMockSource(m *report.MockSource) Option {
	return func(s *AnalysisService) { s.mock = m }
}

// NewAnalysisService wires up the pipeline. calls can be nil; recording is
// best-effort and the service works without a database.
func NewAnalysisService(
	cfg *config.Config,
	searchSvc *search.Service,
	validator *validation.Engine,
	calls storage.AnalysisCallRepository,
	logger *zap.Logger,
	opts ...Option,
) *AnalysisService {
	perMinute := cfg.Analysis.RatePerMinute
	if perMinute <= 0 {
		perMinute = 10
	}

	s := &AnalysisService{
		providers: cfg.Providers,
		analysis:  cfg.Analysis,
		search:    searchSvc,
		validator: validator,
		mock:      report.NewMockSource(),
		calls:     calls,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		factory:   llm.NewClient,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze generates a report for the query. It never returns an error:
// missing keys, provider failures and unparseable responses all degrade to
// the fallback report with the cause recorded on it.
func (s *AnalysisService) Analyze(ctx context.Context, req model.AnalysisRequest) *Outcome {
	started := time.Now()

	provider := req.Provider
	if provider == "" {
		provider = model.ProviderID(s.analysis.DefaultProvider)
	}

	slot := s.providers.ForProvider(provider)
	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = slot.APIKey
	}
	s.logger.Info("resolved analysis request",
		zap.String("query", req.Query),
		zap.String("provider", string(provider)),
		zap.Bool("key_present", apiKey != ""),
	)

	if apiKey == "" {
		rpt := s.mock.Report(ctx, req.Query)
		if s.analysis.MissingKeyPolicy == config.PolicyError {
			rpt.QuotaExceeded = true
			rpt.ErrorMessage = fmt.Sprintf("未配置 %s 的 API 密钥，当前展示演示报告。请在配置或请求中提供密钥。", provider)
		}
		s.logger.Info("no api key, serving fallback report",
			zap.String("provider", string(provider)),
			zap.String("policy", string(s.analysis.MissingKeyPolicy)),
		)
		outcome := s.finish(rpt)
		s.record(req, provider, slot.Model, outcome, nil, started)
		return outcome
	}

	searchContext := ""
	if provider.NeedsSearchContext() {
		snippets := s.search.SearchFinancialData(ctx, req.Query)
		searchContext = search.FormatSearchResults(snippets)
		s.logger.Info("fetched search context",
			zap.String("query", req.Query),
			zap.Int("snippets", len(snippets)),
		)
	}

	rpt, callErr := s.callProvider(ctx, provider, apiKey, slot.Model, req.Query, searchContext)
	if callErr != nil {
		s.logger.Warn("provider call failed, serving fallback report",
			zap.String("provider", string(provider)),
			zap.Error(callErr),
		)
		rpt = s.mock.Report(ctx, req.Query)
		rpt.QuotaExceeded = true
		rpt.ErrorMessage = userFacingError(provider, callErr)
	}

	outcome := s.finish(rpt)
	s.record(req, provider, slot.Model, outcome, callErr, started)
	return outcome
}

// callProvider runs one rate-limited provider call and normalizes the
// response into a report.
func (s *AnalysisService) callProvider(ctx context.Context, provider model.ProviderID, apiKey, modelName, query, searchContext string) (*model.Report, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	client, err := s.factory(ctx, provider, apiKey, modelName)
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", provider, err)
	}

	result, err := client.Generate(ctx, query, searchContext)
	if err != nil {
		return nil, err
	}
	s.logger.Info("provider responded",
		zap.String("provider", client.ProviderName()),
		zap.String("model", client.ModelName()),
		zap.Int("chars", len(result.Text)),
	)

	rpt, err := report.Parse(result.Text)
	if err != nil {
		return nil, fmt.Errorf("normalizing %s response: %w", provider, err)
	}

	if result.Reasoning != "" {
		rpt.Reasoning = "【模型推理过程】\n" + result.Reasoning + "\n\n" + rpt.Reasoning
	}
	if len(rpt.Sources) == 0 && len(result.Sources) > 0 {
		rpt.Sources = result.Sources
	}
	return rpt, nil
}

// finish runs metric validation and attaches the confidence score.
// Fallback reports are validated too; their static metrics score against
// the same reference data as live ones.
func (s *AnalysisService) finish(rpt *model.Report) *Outcome {
	results := s.validator.Validate(rpt.Ticker, rpt)
	if len(results) > 0 {
		score := validation.OverallConfidence(results)
		rpt.ConfidenceScore = &score
		s.logger.Info("validated report metrics",
			zap.String("ticker", rpt.Ticker),
			zap.Int("metrics", len(results)),
			zap.Int("confidence", score),
		)
	}
	return &Outcome{Report: rpt, Validation: results}
}

// record persists one ledger row. Failures are logged, never propagated.
func (s *AnalysisService) record(req model.AnalysisRequest, provider model.ProviderID, modelName string, outcome *Outcome, callErr error, started time.Time) {
	if s.calls == nil {
		return
	}

	durationMs := time.Since(started).Milliseconds()
	call := &model.AnalysisCall{
		Query:           req.Query,
		Ticker:          outcome.Report.Ticker,
		Provider:        string(provider),
		Model:           modelName,
		Success:         callErr == nil && !outcome.Report.IsMock,
		IsMock:          outcome.Report.IsMock,
		ConfidenceScore: outcome.Report.ConfidenceScore,
		DurationMs:      &durationMs,
	}
	if callErr != nil {
		msg := callErr.Error()
		call.ErrorMessage = &msg
	}

	// Recording must not block or fail the request path.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.calls.Create(ctx, call); err != nil {
		s.logger.Warn("failed to record analysis call", zap.Error(err))
	}
}

// userFacingError turns an adapter error into the Chinese message shown on
// the degraded report.
func userFacingError(provider model.ProviderID, err error) string {
	var provErr *llm.ProviderError
	switch {
	case errors.Is(err, llm.ErrTimeout):
		return fmt.Sprintf("%s 请求超时，当前展示演示报告。", provider)
	case errors.Is(err, llm.ErrEmptyResponse):
		return fmt.Sprintf("%s 返回了空响应，当前展示演示报告。", provider)
	case errors.As(err, &provErr):
		if provErr.StatusCode == 429 {
			return fmt.Sprintf("%s API 额度已用尽或请求过于频繁，当前展示演示报告。", provider)
		}
		return fmt.Sprintf("%s API 调用失败（%s），当前展示演示报告。", provider, provErr.Message)
	default:
		return fmt.Sprintf("%s 分析失败（%v），当前展示演示报告。", provider, err)
	}
}
