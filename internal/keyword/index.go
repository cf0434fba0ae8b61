// Package keyword provides BM25 keyword search over chunk text.
package keyword

import (
	"context"
)

// Entry is one indexed chunk.
type Entry struct {
	// ID is the chunk's record id in the embedding index.
	ID      string
	DocID   string
	DocName string
	Text    string
}

// SearchOptions optional parameters for keyword search. Nil means use defaults.
type SearchOptions struct {
	// Fuzziness is the maximum edit distance tolerated per query term (0 disables fuzzy matching).
	Fuzziness int
	// CoveragePenalty scales hits down by the share of query terms they miss, squared.
	CoveragePenalty bool
}

// KeywordIndex defines keyword search operations.
type KeywordIndex interface {
	Index(ctx context.Context, entries []Entry) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*KeywordResult, error)
	// DeleteDocument removes every entry of docID and returns how many were removed.
	DeleteDocument(ctx context.Context, docID string) (int, error)
	DocCount() (uint64, error)
	Close() error
}

// KeywordResult is a single keyword search hit.
type KeywordResult struct {
	ID    string
	Score float64
}
