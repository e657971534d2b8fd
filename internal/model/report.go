// Package model defines the core data types for the analyst service.
// The Report struct mirrors the JSON schema every provider is instructed
// to emit; its `json:"..."` tags are the wire contract between the LLM
// response and the rest of the system.
package model

import "time"

// ProviderID identifies one external LLM vendor integration.
// The set is closed: each value maps to exactly one adapter and one
// credential slot in the configuration.
type ProviderID string

const (
	// ProviderGemini is the search-augmented vendor: it performs live web
	// search itself and returns grounding metadata with cited documents.
	ProviderGemini ProviderID = "gemini"

	// Chat-completion vendors. These have no built-in search and receive a
	// pre-formatted search-context block in their prompt instead.
	ProviderDeepSeek         ProviderID = "deepseek"
	ProviderDeepSeekReasoner ProviderID = "deepseek_reasoner"
	ProviderKimi             ProviderID = "kimi"
	ProviderZhipu            ProviderID = "zhipu"
	ProviderBaidu            ProviderID = "baidu"
)

// AllProviders is the ordered list of supported providers.
var AllProviders = []ProviderID{
	ProviderGemini,
	ProviderDeepSeek,
	ProviderDeepSeekReasoner,
	ProviderKimi,
	ProviderZhipu,
	ProviderBaidu,
}

// ValidProvider checks whether a string names a supported provider.
func ValidProvider(s string) bool {
	for _, p := range AllProviders {
		if string(p) == s {
			return true
		}
	}
	return false
}

// NeedsSearchContext reports whether the provider requires an externally
// fetched search-context block. Gemini searches on its own; everyone else
// gets snippets injected into the prompt.
func (p ProviderID) NeedsSearchContext() bool {
	return p != ProviderGemini
}

// Rating is the investment call attached to a report.
type Rating string

const (
	RatingBuy  Rating = "BUY"
	RatingHold Rating = "HOLD"
	RatingSell Rating = "SELL"
)

// AnalysisRequest is one user action: a company name or ticker, an optional
// per-call API key override and the provider to use.
type AnalysisRequest struct {
	Query    string     `json:"query"`
	APIKey   string     `json:"api_key,omitempty"`
	Provider ProviderID `json:"provider,omitempty"`
}

// SearchSnippet is one web-search result used as prompt context.
// Snippets are only ever rendered into text for the prompt, never parsed back.
type SearchSnippet struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SwotAnalysis holds the four ordered SWOT lists.
type SwotAnalysis struct {
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Opportunities []string `json:"opportunities"`
	Threats       []string `json:"threats"`
}

// Competitor carries display strings, not parsed numbers: the values are
// shown as-is and only coerced to numerics inside the validation engine.
type Competitor struct {
	Name      string `json:"name"`
	Revenue   string `json:"revenue"`
	MarketCap string `json:"marketCap"`
	PERatio   string `json:"peRatio"`
}

// Section is one free-text chapter of the report.
type Section struct {
	Heading string `json:"heading"`
	Content string `json:"content"`
}

// ChartPoint is one data point of the report's headline chart.
type ChartPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// KeyMetric is one labelled financial figure with a trend direction
// ("up", "down" or "neutral").
type KeyMetric struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Trend string `json:"trend"`
}

// Source is one cited document from the provider's grounding metadata.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Report is the canonical analysis output. A report either came from a
// successfully parsed provider response (IsMock=false) or from the static
// fallback source (IsMock=true, no guarantee of numeric consistency).
// ConfidenceScore is only ever set by the validation engine, never by the
// provider itself.
type Report struct {
	Title       string       `json:"title"`
	Ticker      string       `json:"ticker"`
	Rating      Rating       `json:"rating"`
	RatingScore int          `json:"ratingScore"`
	Summary     string       `json:"summary"`
	Reasoning   string       `json:"reasoning"`
	Swot        SwotAnalysis `json:"swot"`
	Competitors []Competitor `json:"competitors"`
	Sections    []Section    `json:"sections"`
	ChartType   string       `json:"chartType"` // "bar", "line" or "area"
	ChartData   []ChartPoint `json:"chartData"`
	KeyMetrics  []KeyMetric  `json:"keyMetrics"`

	// Sources is present only when the provider grounded its answer in
	// retrieved documents.
	Sources []Source `json:"sources,omitempty"`

	// Degraded-mode flags. QuotaExceeded is set on any fallback triggered
	// by an error; ErrorMessage summarizes the underlying cause.
	QuotaExceeded bool   `json:"quotaExceeded,omitempty"`
	ErrorMessage  string `json:"errorMessage,omitempty"`

	// ConfidenceScore in [0,100], derived from KeyMetrics vs a reference
	// snapshot for the same ticker. Nil when validation produced no results.
	ConfidenceScore *int `json:"confidenceScore,omitempty"`

	IsMock bool `json:"isMock"`
}

// ValidationResult is the outcome of checking one report metric against the
// reference snapshot. Computed per request, never persisted.
type ValidationResult struct {
	Metric          string  `json:"metric"`
	AIValue         string  `json:"aiValue"`
	ActualValue     string  `json:"actualValue"`
	Difference      float64 `json:"difference"` // percent, capped at 100
	IsAccurate      bool    `json:"isAccurate"`
	ConfidenceScore float64 `json:"confidenceScore"`
}

// AnalysisCall tracks each orchestrated request for cost monitoring and the
// admin stats endpoint.
type AnalysisCall struct {
	ID              int64     `db:"id" json:"id"`
	Query           string    `db:"query" json:"query"`
	Ticker          string    `db:"ticker" json:"ticker"`
	Provider        string    `db:"provider" json:"provider"`
	Model           string    `db:"model" json:"model"`
	Success         bool      `db:"success" json:"success"`
	IsMock          bool      `db:"is_mock" json:"is_mock"`
	ConfidenceScore *int      `db:"confidence_score" json:"confidence_score,omitempty"`
	ErrorMessage    *string   `db:"error_message" json:"error_message,omitempty"`
	DurationMs      *int64    `db:"duration_ms" json:"duration_ms,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
