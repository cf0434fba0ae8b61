package ranking

import "strings"

// AnalyzedQuery holds the normalized form of a query.
type AnalyzedQuery struct {
	// Original is the original query string.
	Original string
	// Lower is the lower-cased query used for substring checks.
	Lower string
	// Words are the whitespace-separated tokens of Lower, punctuation included.
	Words []string
}

// Analyze normalizes query for matching.
func Analyze(query string) *AnalyzedQuery {
	lower := strings.ToLower(query)
	return &AnalyzedQuery{
		Original: query,
		Lower:    lower,
		Words:    strings.Fields(lower),
	}
}

// Contains reports whether term occurs anywhere in the query, case-insensitively.
func (q *AnalyzedQuery) Contains(term string) bool {
	return term != "" && strings.Contains(q.Lower, strings.ToLower(term))
}
