package ranking

// MatchConfig holds the weights and rules of the keyword matcher.
type MatchConfig struct {
	KeywordWeight         float64 `yaml:"keyword_weight"`          // default: 10
	MethodWeight          float64 `yaml:"method_weight"`           // default: 5
	PathWordWeight        float64 `yaml:"path_word_weight"`        // default: 3
	SummaryWordWeight     float64 `yaml:"summary_word_weight"`     // default: 2
	DescriptionWordWeight float64 `yaml:"description_word_weight"` // default: 1

	KeywordRules []KeywordRule `yaml:"keyword_rules"`
	MethodRules  []MethodRule  `yaml:"method_rules"`
}

// DefaultKeywordRules are the domain keyword co-occurrences scored by default.
func DefaultKeywordRules() []KeywordRule {
	return []KeywordRule{
		{QueryTerm: "find", Field: FieldSummary, FieldTerm: "find"},
		{QueryTerm: "status", Field: FieldSummary, FieldTerm: "status"},
		{QueryTerm: "pets", Field: FieldPath, FieldTerm: "pet"},
	}
}

// DefaultMethodRules map query verbs to HTTP methods.
func DefaultMethodRules() []MethodRule {
	return []MethodRule{
		{QueryTerm: "get", Methods: []string{"GET"}},
		{QueryTerm: "create", Methods: []string{"POST"}},
		{QueryTerm: "update", Methods: []string{"PUT", "PATCH"}},
		{QueryTerm: "delete", Methods: []string{"DELETE"}},
	}
}

// DefaultMatchConfig returns the default matcher configuration.
func DefaultMatchConfig() *MatchConfig {
	return &MatchConfig{
		KeywordWeight:         10,
		MethodWeight:          5,
		PathWordWeight:        3,
		SummaryWordWeight:     2,
		DescriptionWordWeight: 1,
		KeywordRules:          DefaultKeywordRules(),
		MethodRules:           DefaultMethodRules(),
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *MatchConfig) ApplyDefaults() {
	defaults := DefaultMatchConfig()

	if c.KeywordWeight == 0 {
		c.KeywordWeight = defaults.KeywordWeight
	}
	if c.MethodWeight == 0 {
		c.MethodWeight = defaults.MethodWeight
	}
	if c.PathWordWeight == 0 {
		c.PathWordWeight = defaults.PathWordWeight
	}
	if c.SummaryWordWeight == 0 {
		c.SummaryWordWeight = defaults.SummaryWordWeight
	}
	if c.DescriptionWordWeight == 0 {
		c.DescriptionWordWeight = defaults.DescriptionWordWeight
	}
	if c.KeywordRules == nil {
		c.KeywordRules = defaults.KeywordRules
	}
	if c.MethodRules == nil {
		c.MethodRules = defaults.MethodRules
	}
}
