package index

import (
	"context"

	"github.com/hyperjump/apiquery/internal/models"
)

// Backend is the storage engine behind an Index. Records passed to Upsert carry their
// embedding; records returned by Query carry their distance.
type Backend interface {
	Name() string
	Upsert(ctx context.Context, records []*models.Record) error
	Query(ctx context.Context, embedding []float32, k int, docID string) ([]*models.Record, error)
	DeleteDocument(ctx context.Context, docID string) (int, error)
	Count(ctx context.Context) (int, error)
	Sample(ctx context.Context, n int) ([]*models.Record, error)
	Get(ctx context.Context, ids []string) ([]*models.Record, error)
	Close() error
}

// Backend names accepted by NewBackend.
const (
	BackendChromem = "chromem"
	BackendLocal   = "local"
)
