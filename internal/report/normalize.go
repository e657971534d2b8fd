// Package report turns raw provider text into the canonical Report and
// supplies the static fallback reports used when no live analysis is
// available.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"

	"github.com/nexusdash/analyst-service/internal/model"
)

// ParseError means the text payload did not contain a recoverable JSON
// object. Raw is retained for diagnostic logging only and must never be
// shown to the end user.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing provider response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// CleanJSON strips markdown code fences and slices out the outermost brace
// pair. Text without braces is returned unmodified; it will fail JSON
// parsing downstream, which is the intended signal.
func CleanJSON(raw string) string {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	first := strings.Index(cleaned, "{")
	last := strings.LastIndex(cleaned, "}")
	if first == -1 || last == -1 || last < first {
		return raw
	}
	return cleaned[first : last+1]
}

// Parse extracts the report object from raw provider text. Fields the
// provider omitted stay at their zero value; only a missing or unrecoverable
// outer JSON object is fatal. Malformed JSON gets one repair attempt before
// the parse is declared failed.
func Parse(raw string) (*model.Report, error) {
	cleaned := CleanJSON(raw)

	var rpt model.Report
	if err := json.Unmarshal([]byte(cleaned), &rpt); err == nil {
		return &rpt, nil
	}

	// LLMs routinely emit trailing commas, single quotes or unterminated
	// arrays; repair salvages those before giving up.
	repaired, repairErr := jsonrepair.RepairJSON(cleaned)
	if repairErr != nil {
		return nil, &ParseError{Raw: raw, Err: repairErr}
	}
	if err := json.Unmarshal([]byte(repaired), &rpt); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	return &rpt, nil
}
