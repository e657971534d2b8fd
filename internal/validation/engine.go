package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nexusdash/analyst-service/internal/model"
)

// metricDef names one validated metric: its display name (matched against
// the report's keyMetrics labels), the reference-snapshot key, and the
// tolerance in percentage points within which the AI value counts as
// accurate. Volatile metrics (P/E, growth, turnover) get looser tolerances.
type metricDef struct {
	Name      string
	Key       string
	Threshold float64
}

// metricTable covers 15 metrics across five categories: core financials,
// growth, profitability, risk, turnover.
var metricTable = []metricDef{
	{"营收", "revenue", 10},
	{"净利润", "netProfit", 10},
	{"毛利率", "grossMargin", 5},
	{"资产负债率", "debtRatio", 5},
	{"市盈率", "peRatio", 15},
	{"营收同比增长", "revenueGrowth", 10},
	{"净利润同比增长", "netProfitGrowth", 15},
	{"净资产收益率", "roe", 10},
	{"总资产收益率", "roa", 5},
	{"净利率", "netMargin", 5},
	{"流动比率", "currentRatio", 5},
	{"速动比率", "quickRatio", 5},
	{"存货周转率", "inventoryTurnover", 15},
	{"应收账款周转率", "accountsReceivableTurnover", 15},
	{"总资产周转率", "totalAssetTurnover", 15},
}

// metricWeights drives the overall-confidence weighted mean. Headline
// figures weigh most, turnover ratios least; unlisted metrics default to 1.0.
var metricWeights = map[string]float64{
	"营收":      1.5,
	"净利润":     1.5,
	"毛利率":     1.2,
	"资产负债率":   1.2,
	"市盈率":     1.0,
	"营收同比增长":  1.0,
	"净利润同比增长": 1.0,
	"净资产收益率":  1.2,
	"总资产收益率":  1.0,
	"净利率":     1.0,
	"流动比率":    1.0,
	"速动比率":    1.0,
	"存货周转率":   0.8,
	"应收账款周转率": 0.8,
	"总资产周转率":  0.8,
}

// Engine compares a report's key metrics against a reference snapshot.
type Engine struct {
	reference ReferenceProvider
	logger    *zap.Logger
}

// NewEngine creates a validation engine backed by the given reference data.
func NewEngine(reference ReferenceProvider, logger *zap.Logger) *Engine {
	return &Engine{reference: reference, logger: logger}
}

// Validate computes one ValidationResult per defined metric. It never fails:
// any internal trouble yields an empty slice, which the orchestrator treats
// as "no opinion" (confidence score absent, not zero).
func (e *Engine) Validate(ticker string, rpt *model.Report) []model.ValidationResult {
	if rpt == nil {
		return nil
	}
	actual := e.reference.Snapshot(ticker)
	if actual == nil {
		return nil
	}

	results := make([]model.ValidationResult, 0, len(metricTable))
	for _, def := range metricTable {
		aiValue := findMetricValue(rpt.KeyMetrics, def.Name)
		actualValue := actual[def.Key]
		if actualValue == "" {
			actualValue = "0"
		}

		aiNum := coerceNumber(aiValue)
		actualNum := coerceNumber(actualValue)
		diff := difference(aiNum, actualNum)

		results = append(results, model.ValidationResult{
			Metric:          def.Name,
			AIValue:         aiValue,
			ActualValue:     actualValue,
			Difference:      diff,
			IsAccurate:      diff <= def.Threshold,
			ConfidenceScore: clamp(100-diff*5, 0, 100),
		})
	}
	return results
}

// findMetricValue locates a metric in the report by case-insensitive
// substring match in either direction. Absent metrics count as "0".
func findMetricValue(metrics []model.KeyMetric, name string) string {
	lower := strings.ToLower(name)
	for _, km := range metrics {
		label := strings.ToLower(km.Label)
		if strings.Contains(label, lower) || strings.Contains(lower, label) {
			return km.Value
		}
	}
	return "0"
}

// coerceNumber extracts the face numeric value from a display string. A
// trailing percent sign is treated as already scaled: percentages and
// absolute magnitudes are compared on their literal values, no /100.
func coerceNumber(value string) float64 {
	s := strings.TrimSpace(value)
	if strings.Contains(s, "%") {
		s = strings.ReplaceAll(s, "%", "")
	}

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}

	n, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return n
}

// difference is the percent deviation |ai-actual|/actual*100, capped at 100.
// A zero actual yields 0 only when ai is also zero, else 100: no division
// by zero, and false agreement still gets penalized.
func difference(ai, actual float64) float64 {
	if actual == 0 {
		if ai == 0 {
			return 0
		}
		return 100
	}
	return math.Min(100, math.Abs((ai-actual)/actual*100))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// OverallConfidence aggregates per-metric confidence into one [0,100] score
// via a weighted mean. An empty result list returns 50: no opinion, not
// false confidence.
func OverallConfidence(results []model.ValidationResult) int {
	if len(results) == 0 {
		return 50
	}

	var totalScore, totalWeight float64
	for _, r := range results {
		w, ok := metricWeights[r.Metric]
		if !ok {
			w = 1.0
		}
		totalScore += r.ConfidenceScore * w
		totalWeight += w
	}
	return int(math.Round(totalScore / totalWeight))
}

// FormatResults renders a grouped human-readable validation summary, used by
// the CLI output.
func FormatResults(results []model.ValidationResult, ticker string) string {
	var b strings.Builder
	b.WriteString("数据验证结果\n")
	fmt.Fprintf(&b, "验证时间：%s\n", time.Now().Format("2006-01-02 15:04:05"))
	if ticker != "" {
		fmt.Fprintf(&b, "股票代码：%s\n", ticker)
	}
	fmt.Fprintf(&b, "验证指标数量：%d\n\n", len(results))

	groups := map[string][]string{}
	order := []string{"核心财务指标", "成长能力指标", "盈利能力指标", "财务风险指标", "营运能力指标"}

	for _, r := range results {
		mark := "✓"
		if !r.IsAccurate {
			mark = "✗"
		}
		line := fmt.Sprintf("%s  AI值: %s  实际值: %s  差异: %.2f%% %s",
			r.Metric, r.AIValue, r.ActualValue, r.Difference, mark)

		var group string
		switch {
		case strings.Contains(r.Metric, "增长"):
			group = "成长能力指标"
		case strings.Contains(r.Metric, "周转"):
			group = "营运能力指标"
		case strings.Contains(r.Metric, "负债") || strings.Contains(r.Metric, "流动") || strings.Contains(r.Metric, "速动"):
			group = "财务风险指标"
		case strings.Contains(r.Metric, "利润") && strings.Contains(r.Metric, "率"),
			strings.Contains(r.Metric, "收益率"),
			strings.Contains(r.Metric, "净利率"):
			group = "盈利能力指标"
		default:
			group = "核心财务指标"
		}
		groups[group] = append(groups[group], line)
	}

	for _, g := range order {
		if len(groups[g]) == 0 {
			continue
		}
		b.WriteString(g + "\n")
		b.WriteString(strings.Join(groups[g], "\n"))
		b.WriteString("\n\n")
	}

	overall := OverallConfidence(results)
	fmt.Fprintf(&b, "整体可信度评分：%d%%\n", overall)

	grade := "低可信度"
	switch {
	case overall >= 80:
		grade = "高可信度"
	case overall >= 60:
		grade = "中可信度"
	}
	fmt.Fprintf(&b, "可信度等级：%s\n", grade)

	return b.String()
}
