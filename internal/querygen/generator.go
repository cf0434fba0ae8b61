// Package querygen turns natural-language requests into HTTP calls grounded in retrieved
// API documentation.
package querygen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/apiquery/internal/endpoint"
	"github.com/hyperjump/apiquery/internal/metrics"
	"github.com/hyperjump/apiquery/internal/models"
	"github.com/hyperjump/apiquery/internal/ranking"
	"github.com/hyperjump/apiquery/internal/search"
	"go.uber.org/zap"
)

// ErrEmptyQuery is returned for a blank query. No retrieval is attempted.
var ErrEmptyQuery = errors.New("query cannot be empty")

const (
	// DefaultMaxResults is the retrieval depth when the caller gives none.
	DefaultMaxResults = 3
	// DefaultMaxResultsLimit caps caller-provided retrieval depth.
	DefaultMaxResultsLimit = 20
)

// Generator sequences retrieval, endpoint extraction, matching, the relevance gate,
// the alternate-query retry and synthesis.
type Generator struct {
	retriever   search.Retriever
	matcher     ranking.Matcher
	synthesizer Synthesizer
	maxResults  int
	limit       int
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// Option configures a Generator.
type Option func(*Generator)

// WithMaxResults sets the default and maximum retrieval depth. Non-positive values keep
// the defaults.
func WithMaxResults(def, limit int) Option {
	return func(g *Generator) {
		if def > 0 {
			g.maxResults = def
		}
		if limit > 0 {
			g.limit = limit
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithMetrics records generation outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// NewGenerator creates a Generator.
func NewGenerator(retriever search.Retriever, matcher ranking.Matcher, synthesizer Synthesizer, opts ...Option) *Generator {
	g := &Generator{
		retriever:   retriever,
		matcher:     matcher,
		synthesizer: synthesizer,
		maxResults:  DefaultMaxResults,
		limit:       DefaultMaxResultsLimit,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds an API call for query from the top maxResults retrieved records.
// Only a blank query or a cancelled context produce an error; every other failure is
// reported in the result.
func (g *Generator) Generate(ctx context.Context, query string, maxResults int) (*models.GenerateResult, error) {
	start := time.Now()
	if strings.TrimSpace(query) == "" {
		g.metrics.ObserveGenerate("invalid", time.Since(start))
		return nil, ErrEmptyQuery
	}
	if maxResults <= 0 {
		maxResults = g.maxResults
	}
	if maxResults > g.limit {
		maxResults = g.limit
	}

	records, alternate := g.retrieve(ctx, query, maxResults)
	if err := ctx.Err(); err != nil {
		g.metrics.ObserveGenerate("cancelled", time.Since(start))
		return nil, err
	}

	result := &models.GenerateResult{
		UserQuery:         query,
		ContextUsed:       len(records),
		RelevantDocuments: relevantDocuments(records),
		RetrievalMethod:   g.retriever.Method(),
		AlternateQuery:    alternate,
	}
	gq, err := g.synthesize(ctx, query, records)
	if err != nil {
		g.logger.Error("synthesis failed", zap.String("query", query), zap.Error(err))
		result.Error = "Failed to generate query: " + err.Error()
		g.metrics.ObserveGenerate("failure", time.Since(start))
		return result, nil
	}
	result.Success = true
	result.GeneratedQuery = gq
	g.metrics.ObserveSynthesis(string(gq.Source))
	g.metrics.ObserveGenerate("success", time.Since(start))
	g.logger.Debug("query generated",
		zap.String("query", query),
		zap.String("method", gq.Method),
		zap.String("url", gq.URL),
		zap.Float64("confidence", gq.Confidence),
		zap.String("source", string(gq.Source)),
		zap.Int("context_used", len(records)))
	return result, nil
}

// retrieve runs the literal query and, when its match fails the relevance gate, the
// alternates in order. It returns the working context and the accepted alternate.
func (g *Generator) retrieve(ctx context.Context, query string, k int) ([]*models.Record, string) {
	records := g.retriever.Retrieve(ctx, query, k)
	best := g.matcher.BestMatch(query, endpoint.FromRecords(records))
	if Relevant(query, best) {
		return records, ""
	}
	for _, alt := range Alternates(query) {
		if ctx.Err() != nil {
			break
		}
		altRecords := g.retriever.Retrieve(ctx, alt, k)
		// Alternates only change retrieval; candidates are still scored against the user's query.
		altBest := g.matcher.BestMatch(query, endpoint.FromRecords(altRecords))
		accepted := Relevant(query, altBest)
		g.metrics.ObserveAlternate(accepted)
		g.logger.Debug("alternate query", zap.String("alternate", alt), zap.Bool("accepted", accepted))
		if accepted {
			return altRecords, alt
		}
	}
	return records, ""
}

// synthesize calls the synthesizer, turning a panic into an error.
func (g *Generator) synthesize(ctx context.Context, query string, records []*models.Record) (gq *models.GeneratedQuery, err error) {
	defer func() {
		if r := recover(); r != nil {
			gq, err = nil, fmt.Errorf("%v", r)
		}
	}()
	gq, err = g.synthesizer.Synthesize(ctx, query, records)
	if err == nil && gq == nil {
		err = errors.New("synthesizer returned no query")
	}
	return gq, err
}

func relevantDocuments(records []*models.Record) []models.RelevantDocument {
	out := make([]models.RelevantDocument, len(records))
	for i, r := range records {
		out[i] = models.RelevantDocument{
			Document:       r.DocName(),
			DocType:        r.DocType(),
			RelevanceScore: r.Distance,
		}
	}
	return out
}
