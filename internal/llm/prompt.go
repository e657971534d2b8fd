package llm

import (
	"fmt"
	"strings"
	"time"
)

// systemPersona is the system message sent to every chat-completion vendor.
const systemPersona = "You are a professional financial analyst with access to the latest financial data."

// reportSchema is the JSON structure every vendor is instructed to emit.
// This block is the wire contract with the normalizer; field names must stay
// in sync with model.Report's json tags.
const reportSchema = `{
  "title": "string (e.g., Company Name (Ticker) Report)",
  "ticker": "string",
  "rating": "BUY" | "HOLD" | "SELL",
  "ratingScore": number (0-100),
  "summary": "string (brief executive summary)",
  "reasoning": "string (brief logical summary of the analysis)",
  "swot": {
    "strengths": ["string", "string", "string"],
    "weaknesses": ["string", "string", "string"],
    "opportunities": ["string", "string", "string"],
    "threats": ["string", "string", "string"]
  },
  "competitors": [
    { "name": "string", "revenue": "string", "marketCap": "string", "peRatio": "string" }
  ],
  "sections": [
    { "heading": "string", "content": "string" },
    { "heading": "string", "content": "string" }
  ],
  "chartType": "line" | "bar",
  "chartData": [
    { "name": "string (e.g., Q1)", "value": number }
  ],
  "keyMetrics": [
    { "label": "string", "value": "string", "trend": "up" | "down" | "neutral" }
  ]
}`

// PromptParams parameterizes the shared prompt. NativeSearch selects the
// wording for vendors with a built-in search tool; otherwise SearchContext
// carries the pre-fetched snippet block.
type PromptParams struct {
	Query         string
	SearchContext string
	Now           time.Time
	NativeSearch  bool
}

// BuildPrompt renders the analyst prompt shared by all vendors. The current
// date and year are anchored explicitly so models do not fall back to a stale
// year from their training data.
func BuildPrompt(p PromptParams) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Role: You are Nexus, a professional institutional financial analyst.\n")
	fmt.Fprintf(&b, "User Query: %q\n\n", p.Query)
	fmt.Fprintf(&b, "Today's date is %s and the current year is %d. Anchor ALL temporal reasoning (latest quarter, fiscal year, \"recent\" news) to this date. NEVER assume an earlier year from training data.\n\n",
		p.Now.Format("2006-01-02"), p.Now.Year())

	if p.SearchContext != "" {
		b.WriteString(p.SearchContext)
		b.WriteString("\n")
	}

	b.WriteString("Task:\n")
	if p.NativeSearch {
		b.WriteString("1. MANDATORY: Use the 'googleSearch' tool to find the LATEST, REAL-TIME financial data, news, and stock price for the requested company.\n")
		b.WriteString("2. Generate a comprehensive investment dashboard report in Simplified Chinese (简体中文).\n")
		b.WriteString("3. IMPORTANT: The data in the JSON (Price, P/E, Competitor Stats) MUST come from the search results.\n\n")
	} else {
		b.WriteString("1. Generate a comprehensive investment dashboard report in Simplified Chinese (简体中文).\n")
		b.WriteString("2. IMPORTANT: Provide the LATEST, REAL-TIME financial data and analysis based on the provided search results.\n\n")
	}

	b.WriteString("Output Format:\n")
	b.WriteString("You MUST output a strictly valid JSON object. Do not output Markdown formatting like ```json.\n")
	b.WriteString("The JSON must match this structure:\n")
	b.WriteString(reportSchema)
	b.WriteString("\n\n")

	b.WriteString("Content Requirements:\n")
	b.WriteString("- Ensure all financial metrics (Revenue, P/E, Price) are up-to-date based on the search results.\n")
	b.WriteString("- Compare against 2-3 real competitors with REAL, SPECIFIC data found in the search results.\n")
	b.WriteString("- For competitors, MUST provide actual values for revenue, marketCap, and peRatio - NEVER use \"未披露\" or similar vague terms.\n")
	b.WriteString("- If no specific data is available for a competitor, use realistic estimates based on industry benchmarks.\n")
	b.WriteString("- Include the most recent stock price and market trends from the search results.\n")
	b.WriteString("- Language: Simplified Chinese.\n")

	return b.String()
}
