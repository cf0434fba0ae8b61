// Package ranking scores reconstructed endpoints against a natural-language query.
package ranking

import "github.com/hyperjump/apiquery/internal/models"

// Matcher picks the endpoint that best answers a query.
type Matcher interface {
	// BestMatch returns the best candidate, or nil when none scores.
	BestMatch(query string, candidates []*models.Endpoint) *models.Endpoint
}

// Field names an endpoint field a rule inspects.
type Field string

const (
	FieldSummary     Field = "summary"
	FieldPath        Field = "path"
	FieldDescription Field = "description"
)

// KeywordRule awards the keyword weight when QueryTerm occurs in the query and
// FieldTerm occurs in the endpoint's Field.
type KeywordRule struct {
	QueryTerm string `yaml:"query_term"`
	Field     Field  `yaml:"field"`
	FieldTerm string `yaml:"field_term"`
}

// MethodRule awards the method weight when QueryTerm occurs in the query and the
// endpoint uses one of Methods.
type MethodRule struct {
	QueryTerm string   `yaml:"query_term"`
	Methods   []string `yaml:"methods"`
}

// ScoreBreakdown provides detailed scoring information for debugging.
type ScoreBreakdown struct {
	// Total is the sum of all components.
	Total float64 `json:"total"`
	// Keyword is the score from matched keyword rules.
	Keyword float64 `json:"keyword"`
	// Method is the score from verb to HTTP method alignment.
	Method float64 `json:"method"`
	// Path, Summary and Description are the per-word substring scores.
	Path        float64 `json:"path"`
	Summary     float64 `json:"summary"`
	Description float64 `json:"description"`
	// Rules lists the keyword and method rules that fired.
	Rules []string `json:"rules,omitempty"`
}
