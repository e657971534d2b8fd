// Package validation cross-checks LLM-reported metrics against a reference
// snapshot and computes a weighted confidence score for the report.
package validation

// ReferenceProvider supplies the reference snapshot for a ticker: metric key
// to display value (strings carry units, e.g. "872.9亿元", "10.04%"). The
// engine only depends on this interface so a live data feed can replace the
// static table without touching the scoring math.
type ReferenceProvider interface {
	Snapshot(ticker string) map[string]string
}

// StaticReference is the built-in snapshot table: one real entry plus a
// generic default for unknown tickers. Figures for 600248 are the Q3 2025
// Eastmoney published values.
type StaticReference struct{}

func (StaticReference) Snapshot(ticker string) map[string]string {
	if ticker == "600248" || ticker == "600248.SH" {
		return map[string]string{
			"revenue":                    "872.9亿元",
			"netProfit":                  "11.21亿元",
			"grossMargin":                "10.04%",
			"debtRatio":                  "88.13%",
			"peRatio":                    "7.8倍",
			"revenueGrowth":              "-14.27%",
			"netProfitGrowth":            "-62.28%",
			"roe":                        "4.18%",
			"roa":                        "0.34%",
			"netMargin":                  "1.37%",
			"currentRatio":               "1.093",
			"quickRatio":                 "1.085",
			"inventoryTurnover":          "0.917次",
			"accountsReceivableTurnover": "0.497次",
			"totalAssetTurnover":         "0.250次",
		}
	}

	return map[string]string{
		"revenue":                    "100亿元",
		"netProfit":                  "5亿元",
		"grossMargin":                "10%",
		"debtRatio":                  "70%",
		"peRatio":                    "10倍",
		"revenueGrowth":              "5%",
		"netProfitGrowth":            "8%",
		"roe":                        "10%",
		"roa":                        "5%",
		"netMargin":                  "5%",
		"currentRatio":               "1.5",
		"quickRatio":                 "1.2",
		"inventoryTurnover":          "5次",
		"accountsReceivableTurnover": "6次",
		"totalAssetTurnover":         "1次",
	}
}
