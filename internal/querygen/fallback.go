package querygen

import (
	"strings"

	"github.com/hyperjump/apiquery/internal/models"
)

// defaultDocName stands in for records that carry no document name.
const defaultDocName = "api.json"

// sniffRule builds a canned query when the first context record mentions content and
// the query mentions any of queryTerms.
type sniffRule struct {
	content    string
	queryTerms []string
	build      func(docName string) *models.GeneratedQuery
}

// sniffRules is the last resort when no endpoint passes the relevance gate.
// Rules are evaluated in order.
var sniffRules = []sniffRule{
	{
		content:    "weather",
		queryTerms: []string{"current"},
		build: func(docName string) *models.GeneratedQuery {
			return &models.GeneratedQuery{
				Method:         "GET",
				URL:            "https://api.weather.com/v1/current?city=Tokyo&units=metric",
				Headers:        map[string]string{"Accept": "application/json"},
				Explanation:    "Get current weather data based on API documentation in " + docName,
				ParametersUsed: []string{"city", "units"},
				Confidence:     0.8,
			}
		},
	},
	{
		content:    "weather",
		queryTerms: []string{"forecast"},
		build: func(docName string) *models.GeneratedQuery {
			return &models.GeneratedQuery{
				Method:         "GET",
				URL:            "https://api.weather.com/v1/forecast?city=Tokyo&days=7",
				Headers:        map[string]string{"Accept": "application/json"},
				Explanation:    "Get weather forecast based on API documentation in " + docName,
				ParametersUsed: []string{"city", "days"},
				Confidence:     0.8,
			}
		},
	},
	{
		content:    "user",
		queryTerms: []string{"get", "list"},
		build: func(docName string) *models.GeneratedQuery {
			return &models.GeneratedQuery{
				Method:         "GET",
				URL:            "https://api.example.com/users",
				Headers:        map[string]string{"Authorization": "Bearer YOUR_TOKEN"},
				Explanation:    "Get users based on API documentation in " + docName,
				ParametersUsed: []string{},
				Confidence:     0.7,
			}
		},
	},
	{
		content:    "user",
		queryTerms: []string{"create"},
		build: func(docName string) *models.GeneratedQuery {
			return &models.GeneratedQuery{
				Method: "POST",
				URL:    "https://api.example.com/users",
				Headers: map[string]string{
					"Content-Type":  "application/json",
					"Authorization": "Bearer YOUR_TOKEN",
				},
				Body: map[string]any{
					"name":  "John Doe",
					"email": "john@example.com",
				},
				Explanation:    "Create a new user based on API documentation in " + docName,
				ParametersUsed: []string{"name", "email"},
				Confidence:     0.7,
			}
		},
	},
}

// sniff answers from the text of the first context record.
func sniff(query string, first *models.Record) *models.GeneratedQuery {
	content := strings.ToLower(first.Text)
	q := strings.ToLower(query)
	docName := first.DocName()
	if docName == "" {
		docName = defaultDocName
	}
	for _, rule := range sniffRules {
		if !strings.Contains(content, rule.content) {
			continue
		}
		for _, term := range rule.queryTerms {
			if strings.Contains(q, term) {
				gq := rule.build(docName)
				gq.MockResponse = true
				gq.Source = models.SourceContentFallback
				return gq
			}
		}
	}
	return &models.GeneratedQuery{
		Method:         "GET",
		URL:            "https://api.example.com/query",
		Headers:        map[string]string{"Accept": "application/json"},
		Explanation:    "API query generated from documentation in " + docName,
		ParametersUsed: []string{},
		Confidence:     0.5,
		MockResponse:   true,
		Source:         models.SourceGenericFallback,
	}
}

// noContext is the answer when retrieval found nothing.
func noContext(query string) *models.GeneratedQuery {
	return &models.GeneratedQuery{
		Method:         "GET",
		URL:            "https://api.example.com/search",
		Headers:        map[string]string{},
		Explanation:    "No relevant API documentation found for: " + query,
		ParametersUsed: []string{},
		Confidence:     0.1,
		MockResponse:   true,
		Source:         models.SourceNoContext,
	}
}
