// Package vector provides an in-memory vector index with brute-force cosine search.
package vector

import "context"

// Filter decides whether an id takes part in a search. A nil Filter admits every id.
type Filter func(id string) bool

// VectorIndex stores vectors by id and answers nearest-neighbour queries.
type VectorIndex interface {
	// Add inserts vectors, replacing any existing vector with the same id.
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int, filter Filter) ([]*VectorResult, error)
	Remove(ctx context.Context, ids []string) error
	Save(path string) error
	Load(path string) error
	Size() int
	Close() error
}

// VectorResult is a single search hit. Score is the cosine similarity, so vectors from
// embedders that do not normalize rank the same as normalized ones.
type VectorResult struct {
	ID    string
	Score float64
}

// Distance returns the cosine distance of the hit.
func (r *VectorResult) Distance() float64 {
	return 1 - r.Score
}
