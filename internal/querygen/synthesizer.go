package querygen

import (
	"context"
	"strings"

	"github.com/hyperjump/apiquery/internal/endpoint"
	"github.com/hyperjump/apiquery/internal/models"
	"github.com/hyperjump/apiquery/internal/ranking"
)

// DefaultBaseURL is used when no base URL rule matches the document name.
const DefaultBaseURL = "https://api.example.com"

// Synthesizer builds a call from the user's query and the retrieved context.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, records []*models.Record) (*models.GeneratedQuery, error)
}

// BaseURLRule maps documents whose name contains Match to URL.
type BaseURLRule struct {
	Match string `yaml:"match" json:"match"`
	URL   string `yaml:"url" json:"url"`
}

// DefaultBaseURLRules returns the built-in base URL table.
func DefaultBaseURLRules() []BaseURLRule {
	return []BaseURLRule{
		{Match: "petstore", URL: "https://petstore.swagger.io/v2"},
		{Match: "github", URL: "https://api.github.com"},
	}
}

// HeuristicSynthesizer answers from the gated endpoint match, then from content
// sniffing on the first record, then with a generic call.
type HeuristicSynthesizer struct {
	matcher        ranking.Matcher
	baseURLs       []BaseURLRule
	defaultBaseURL string
}

// NewHeuristicSynthesizer creates a synthesizer. Nil rules use DefaultBaseURLRules and an
// empty default uses DefaultBaseURL.
func NewHeuristicSynthesizer(matcher ranking.Matcher, rules []BaseURLRule, defaultBaseURL string) *HeuristicSynthesizer {
	if rules == nil {
		rules = DefaultBaseURLRules()
	}
	if defaultBaseURL == "" {
		defaultBaseURL = DefaultBaseURL
	}
	return &HeuristicSynthesizer{matcher: matcher, baseURLs: rules, defaultBaseURL: defaultBaseURL}
}

// Synthesize implements Synthesizer.
func (s *HeuristicSynthesizer) Synthesize(_ context.Context, query string, records []*models.Record) (*models.GeneratedQuery, error) {
	if len(records) == 0 {
		return noContext(query), nil
	}
	best := s.matcher.BestMatch(query, endpoint.FromRecords(records))
	if intent := intentOf(query, best); intent != IntentNone {
		return s.fromEndpoint(best, intent), nil
	}
	return sniff(query, records[0]), nil
}

func (s *HeuristicSynthesizer) fromEndpoint(ep *models.Endpoint, intent Intent) *models.GeneratedQuery {
	url := s.BaseURL(ep.DocName) + ep.Path
	switch intent {
	case IntentStatus:
		url += "?status=available"
	case IntentTag:
		url += "?tags=tag1"
	}
	var body any
	if ep.Method != "GET" {
		body = map[string]any{}
	}
	params := ep.Parameters
	if params == nil {
		params = []string{}
	}
	matched := *ep
	return &models.GeneratedQuery{
		Method:          ep.Method,
		URL:             url,
		Headers:         map[string]string{"Accept": "application/json"},
		Body:            body,
		Explanation:     "Found matching endpoint: " + ep.Method + " " + ep.Path + " - " + ep.Summary,
		ParametersUsed:  params,
		Confidence:      0.85,
		MockResponse:    true,
		Source:          models.SourceEndpointMatch,
		MatchedEndpoint: &matched,
	}
}

// BaseURL returns the base URL for a document name.
func (s *HeuristicSynthesizer) BaseURL(docName string) string {
	name := strings.ToLower(docName)
	for _, r := range s.baseURLs {
		if r.Match != "" && strings.Contains(name, strings.ToLower(r.Match)) {
			return strings.TrimRight(r.URL, "/")
		}
	}
	return s.defaultBaseURL
}
