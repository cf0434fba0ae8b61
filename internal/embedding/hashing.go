package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/hyperjump/apiquery/pkg/utils"
)

// DefaultDimensions is the hashing embedder's vector length when none is configured.
const DefaultDimensions = 384

// HashingEmbedder is a deterministic bag-of-terms embedder. Each term of the text is hashed
// into one of Dimensions buckets with a hash-derived sign, weighted by 1+log(tf), and the
// vector is L2-normalized. Texts sharing vocabulary end up close under cosine similarity,
// which is all retrieval over API documentation needs; no model files are required.
type HashingEmbedder struct {
	dimensions int
	cache      *EmbeddingCache
}

// NewHashingEmbedder returns a hashing embedder. cacheSize 0 disables caching.
func NewHashingEmbedder(dimensions, cacheSize int) *HashingEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	e := &HashingEmbedder{dimensions: dimensions}
	if cacheSize > 0 {
		e.cache = NewEmbeddingCache(cacheSize)
	}
	return e
}

// Embed returns the embedding of text. Text without any term maps to a fixed unit vector
// so that every embedding can be normalized.
func (e *HashingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(text); ok {
			return cached, nil
		}
	}

	counts := make(map[string]int)
	for _, term := range Terms(text) {
		counts[term]++
	}
	emb := make([]float32, e.dimensions)
	for term, tf := range counts {
		h := fnv.New64a()
		_, _ = h.Write([]byte(term))
		sum := h.Sum64()
		bucket := int(sum % uint64(e.dimensions))
		weight := float32(1 + math.Log(float64(tf)))
		if sum&(1<<63) != 0 {
			weight = -weight
		}
		emb[bucket] += weight
	}
	if len(counts) == 0 {
		emb[0] = 1
	}
	utils.NormalizeL2(emb)

	if e.cache != nil {
		e.cache.Set(text, emb)
	}
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *HashingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedAll(ctx, texts, e.Embed)
}

// Dimensions returns the embedding dimension.
func (e *HashingEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op.
func (e *HashingEmbedder) Close() error {
	return nil
}
