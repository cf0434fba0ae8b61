// Package search retrieves the chunk records that ground query generation.
package search

import (
	"context"

	"github.com/hyperjump/apiquery/internal/models"
)

// Retrieval method names reported in generate results.
const (
	MethodVector = "vector_similarity"
	MethodHybrid = "hybrid"
)

// Retriever returns up to k records relevant to a query, best first.
// Faults are absorbed: a failing lookup yields fewer or no records.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) []*models.Record
	Method() string
}

// RecordIndex is the part of index.Index the retrievers use.
type RecordIndex interface {
	Search(ctx context.Context, query string, k int, docID string) []*models.Record
	Get(ctx context.Context, ids []string) []*models.Record
}

// VectorRetriever ranks records by embedding distance only.
type VectorRetriever struct {
	index RecordIndex
}

// NewVectorRetriever creates a retriever over index.
func NewVectorRetriever(index RecordIndex) *VectorRetriever {
	return &VectorRetriever{index: index}
}

// Retrieve returns the k nearest records.
func (r *VectorRetriever) Retrieve(ctx context.Context, query string, k int) []*models.Record {
	return r.index.Search(ctx, query, k, "")
}

// Method returns MethodVector.
func (r *VectorRetriever) Method() string { return MethodVector }
