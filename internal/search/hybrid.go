package search

import (
	"context"

	"github.com/hyperjump/apiquery/internal/keyword"
	"github.com/hyperjump/apiquery/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultKeywordWeight and DefaultSemanticWeight are the fusion weights.
	DefaultKeywordWeight  = 0.4
	DefaultSemanticWeight = 0.6

	// candidateFactor widens each lookup so fusion has more than k candidates.
	candidateFactor = 3
)

// HybridRetriever runs keyword and vector lookups in parallel and fuses their scores.
type HybridRetriever struct {
	index          RecordIndex
	keywords       keyword.KeywordIndex
	keywordWeight  float64
	semanticWeight float64
	keywordOpts    *keyword.SearchOptions
	logger         *zap.Logger
}

// HybridOption configures a HybridRetriever.
type HybridOption func(*HybridRetriever)

// WithWeights sets the fusion weights, scaled to sum to 1. Negative or all-zero
// weights are ignored.
func WithWeights(keywordWeight, semanticWeight float64) HybridOption {
	return func(r *HybridRetriever) {
		sum := keywordWeight + semanticWeight
		if keywordWeight < 0 || semanticWeight < 0 || sum == 0 {
			return
		}
		r.keywordWeight = keywordWeight / sum
		r.semanticWeight = semanticWeight / sum
	}
}

// WithKeywordOptions sets the options passed to every keyword search.
func WithKeywordOptions(opts *keyword.SearchOptions) HybridOption {
	return func(r *HybridRetriever) { r.keywordOpts = opts }
}

// WithHybridLogger sets the logger for keyword faults.
func WithHybridLogger(l *zap.Logger) HybridOption {
	return func(r *HybridRetriever) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewHybridRetriever creates a retriever fusing index and keywords.
func NewHybridRetriever(index RecordIndex, keywords keyword.KeywordIndex, opts ...HybridOption) *HybridRetriever {
	r := &HybridRetriever{
		index:          index,
		keywords:       keywords,
		keywordWeight:  DefaultKeywordWeight,
		semanticWeight: DefaultSemanticWeight,
		keywordOpts:    &keyword.SearchOptions{CoveragePenalty: true},
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Method returns MethodHybrid.
func (r *HybridRetriever) Method() string { return MethodHybrid }

// Retrieve returns the k best records by fused score. Each record's Distance is
// 1 - fused score so results keep ascending-distance order.
func (r *HybridRetriever) Retrieve(ctx context.Context, query string, k int) []*models.Record {
	if k <= 0 {
		return nil
	}
	candidates := k * candidateFactor

	var (
		keywordResults []*keyword.KeywordResult
		vectorResults  []*models.Record
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		results, err := r.keywords.Search(gctx, query, candidates, r.keywordOpts)
		if err != nil {
			// Keyword faults degrade to vector-only ranking.
			r.logger.Warn("keyword search failed", zap.String("query", query), zap.Error(err))
			return nil
		}
		keywordResults = results
		return nil
	})
	g.Go(func() error {
		vectorResults = r.index.Search(gctx, query, candidates, "")
		return nil
	})
	_ = g.Wait()

	fused := Fuse(NormalizeKeywordScores(keywordResults), NormalizeSemanticScores(vectorResults), r.keywordWeight, r.semanticWeight)
	if len(fused) > k {
		fused = fused[:k]
	}

	byID := make(map[string]*models.Record, len(vectorResults))
	for _, rec := range vectorResults {
		byID[rec.ID] = rec
	}
	var missing []string
	for _, f := range fused {
		if _, ok := byID[f.ID]; !ok {
			missing = append(missing, f.ID)
		}
	}
	for _, rec := range r.index.Get(ctx, missing) {
		byID[rec.ID] = rec
	}

	out := make([]*models.Record, 0, len(fused))
	for _, f := range fused {
		rec, ok := byID[f.ID]
		if !ok {
			// Keyword hit whose record is gone from the embedding index.
			continue
		}
		rec = rec.Clone()
		rec.Distance = 1 - f.Score
		out = append(out, rec)
	}
	r.logger.Debug("hybrid retrieval",
		zap.String("query", query),
		zap.Int("keyword_hits", len(keywordResults)),
		zap.Int("vector_hits", len(vectorResults)),
		zap.Int("returned", len(out)))
	return out
}
