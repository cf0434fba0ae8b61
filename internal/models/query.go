package models

// Endpoint is an API operation reconstructed from retrieved text.
type Endpoint struct {
	Method      string   `json:"method"`
	Path        string   `json:"path"`
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	Parameters  []string `json:"parameters"`
	DocID       string   `json:"doc_id,omitempty"`
	DocName     string   `json:"doc_name"`
	DocType     string   `json:"doc_type"`
}

// QuerySource tells which synthesis strategy produced a GeneratedQuery.
type QuerySource string

const (
	SourceEndpointMatch   QuerySource = "endpoint_match"
	SourceContentFallback QuerySource = "content_fallback"
	SourceGenericFallback QuerySource = "generic_fallback"
	SourceNoContext       QuerySource = "no_context"
)

// GeneratedQuery is a synthesized HTTP call.
type GeneratedQuery struct {
	Method          string            `json:"method"`
	URL             string            `json:"url"`
	Headers         map[string]string `json:"headers,omitempty"`
	Body            any               `json:"body"`
	Explanation     string            `json:"explanation"`
	ParametersUsed  []string          `json:"parameters_used"`
	Confidence      float64           `json:"confidence"`
	MockResponse    bool              `json:"mock_response"`
	Source          QuerySource       `json:"source,omitempty"`
	MatchedEndpoint *Endpoint         `json:"matched_endpoint,omitempty"`
}

// IsZero reports whether q carries no generated call.
func (q *GeneratedQuery) IsZero() bool {
	return q == nil || (q.Method == "" && q.URL == "" && q.Explanation == "" && len(q.Headers) == 0 &&
		!q.HasBody() && len(q.ParametersUsed) == 0 && q.Confidence == 0)
}

// HasBody reports whether q carries a non-empty body. Bodies decoded from JSON may be
// objects, arrays or scalars; null, empty containers, "", false and 0 count as empty.
func (q *GeneratedQuery) HasBody() bool {
	switch b := q.Body.(type) {
	case nil:
		return false
	case map[string]any:
		return len(b) > 0
	case []any:
		return len(b) > 0
	case string:
		return b != ""
	case bool:
		return b
	case float64:
		return b != 0
	default:
		return true
	}
}

// RelevantDocument describes one retrieved record in a generate result.
type RelevantDocument struct {
	Document       string  `json:"document"`
	DocType        string  `json:"doc_type"`
	RelevanceScore float64 `json:"relevance_score"`
}

// GenerateResult is the outcome of a query generation request.
type GenerateResult struct {
	Success           bool               `json:"success"`
	UserQuery         string             `json:"user_query"`
	GeneratedQuery    *GeneratedQuery    `json:"generated_query,omitempty"`
	Error             string             `json:"error,omitempty"`
	ContextUsed       int                `json:"context_used"`
	RelevantDocuments []RelevantDocument `json:"relevant_documents"`
	RetrievalMethod   string             `json:"retrieval_method"`
	AlternateQuery    string             `json:"alternate_query,omitempty"`
}
