package querygen

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyperjump/apiquery/internal/models"
)

// noQueryMessage is returned by Explain for empty input.
const noQueryMessage = "No query was generated."

const heuristicNote = "Note: This query was produced by the heuristic generator without a language model. Check it against the API documentation before use."

// Explain renders a human-readable summary of q.
func Explain(q *models.GeneratedQuery) string {
	if q.IsZero() {
		return noQueryMessage
	}
	method := orDefault(q.Method, "UNKNOWN")
	url := orDefault(q.URL, "unknown URL")
	purpose := orDefault(q.Explanation, "No explanation provided")

	var b strings.Builder
	b.WriteString("API Query Explanation:\n")
	fmt.Fprintf(&b, "- Method: %s\n", method)
	fmt.Fprintf(&b, "- URL: %s\n", url)
	fmt.Fprintf(&b, "- Purpose: %s\n", purpose)
	fmt.Fprintf(&b, "- Confidence: %.2f/1.00\n", q.Confidence)
	if len(q.Headers) > 0 {
		fmt.Fprintf(&b, "- Headers: %s\n", indentJSON(q.Headers))
	}
	if q.HasBody() {
		fmt.Fprintf(&b, "- Body: %s\n", indentJSON(q.Body))
	}
	if len(q.ParametersUsed) > 0 {
		fmt.Fprintf(&b, "- Parameters Used: %s\n", strings.Join(q.ParametersUsed, ", "))
	}
	if q.MockResponse {
		b.WriteString("\n" + heuristicNote + "\n")
	}
	return strings.TrimSpace(b.String())
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// indentJSON renders v with two-space indentation; map keys come out sorted.
func indentJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
