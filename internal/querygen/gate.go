package querygen

import (
	"strings"

	"github.com/hyperjump/apiquery/internal/models"
)

// Intent is a keyword class shared by a query and a matched endpoint summary.
type Intent string

const (
	IntentNone   Intent = ""
	IntentStatus Intent = "status"
	IntentTag    Intent = "tag"
)

// intentOf returns the first keyword class present in both query and ep's summary.
// Only the status and tag classes are recognized.
func intentOf(query string, ep *models.Endpoint) Intent {
	if ep == nil {
		return IntentNone
	}
	q := strings.ToLower(query)
	summary := strings.ToLower(ep.Summary)
	for _, in := range []Intent{IntentStatus, IntentTag} {
		if strings.Contains(q, string(in)) && strings.Contains(summary, string(in)) {
			return in
		}
	}
	return IntentNone
}

// Relevant reports whether ep passes the relevance gate for query.
func Relevant(query string, ep *models.Endpoint) bool {
	return intentOf(query, ep) != IntentNone
}

// alternateTable lists the rephrasings tried when the first match fails the gate.
var alternateTable = []struct {
	requires []string
	queries  []string
}{
	{
		requires: []string{"find", "pets", "status"},
		queries:  []string{"Finds Pets by status", "pet findByStatus", "GET /pet/findByStatus"},
	},
	{
		requires: []string{"find", "pets", "tag"},
		queries:  []string{"Finds Pets by tags", "pet findByTags", "GET /pet/findByTags"},
	},
}

// Alternates returns the rephrased queries for query, in the order they are tried.
func Alternates(query string) []string {
	q := strings.ToLower(query)
	var out []string
	for _, row := range alternateTable {
		ok := true
		for _, term := range row.requires {
			if !strings.Contains(q, term) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, row.queries...)
		}
	}
	return out
}
