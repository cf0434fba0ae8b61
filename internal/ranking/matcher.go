package ranking

import (
	"strings"

	"github.com/hyperjump/apiquery/internal/models"
)

// KeywordMatcher scores endpoints additively from keyword rules, method rules and
// per-word substring matches. It is deterministic and safe for concurrent use.
type KeywordMatcher struct {
	config *MatchConfig
}

// NewKeywordMatcher creates a matcher. A nil config uses DefaultMatchConfig.
func NewKeywordMatcher(config *MatchConfig) *KeywordMatcher {
	if config == nil {
		config = DefaultMatchConfig()
	}
	config.ApplyDefaults()
	return &KeywordMatcher{config: config}
}

// Config returns the matcher configuration.
func (m *KeywordMatcher) Config() *MatchConfig {
	return m.config
}

// BestMatch returns the highest scoring candidate. Ties keep the first-seen candidate;
// a candidate needs a positive score to be returned.
func (m *KeywordMatcher) BestMatch(query string, candidates []*models.Endpoint) *models.Endpoint {
	if len(candidates) == 0 {
		return nil
	}
	q := Analyze(query)
	var best *models.Endpoint
	bestScore := 0.0
	for _, ep := range candidates {
		if ep == nil {
			continue
		}
		if s := m.score(q, ep).Total; s > bestScore {
			best, bestScore = ep, s
		}
	}
	return best
}

// Score returns the score breakdown of one candidate.
func (m *KeywordMatcher) Score(query string, ep *models.Endpoint) *ScoreBreakdown {
	return m.score(Analyze(query), ep)
}

func (m *KeywordMatcher) score(q *AnalyzedQuery, ep *models.Endpoint) *ScoreBreakdown {
	b := &ScoreBreakdown{}
	path := strings.ToLower(ep.Path)
	summary := strings.ToLower(ep.Summary)
	description := strings.ToLower(ep.Description)

	for _, rule := range m.config.KeywordRules {
		var text string
		switch rule.Field {
		case FieldSummary:
			text = summary
		case FieldPath:
			text = path
		case FieldDescription:
			text = description
		default:
			continue
		}
		if q.Contains(rule.QueryTerm) && rule.FieldTerm != "" && strings.Contains(text, strings.ToLower(rule.FieldTerm)) {
			b.Keyword += m.config.KeywordWeight
			b.Rules = append(b.Rules, rule.QueryTerm+"~"+string(rule.Field)+":"+rule.FieldTerm)
		}
	}

	for _, rule := range m.config.MethodRules {
		if !q.Contains(rule.QueryTerm) {
			continue
		}
		for _, method := range rule.Methods {
			if strings.EqualFold(ep.Method, method) {
				b.Method += m.config.MethodWeight
				b.Rules = append(b.Rules, rule.QueryTerm+"~"+strings.ToUpper(method))
				break
			}
		}
	}

	for _, word := range q.Words {
		if strings.Contains(path, word) {
			b.Path += m.config.PathWordWeight
		}
		if strings.Contains(summary, word) {
			b.Summary += m.config.SummaryWordWeight
		}
		if strings.Contains(description, word) {
			b.Description += m.config.DescriptionWordWeight
		}
	}

	b.Total = b.Keyword + b.Method + b.Path + b.Summary + b.Description
	return b
}
