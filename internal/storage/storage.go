// Package storage persists the document registry and index records.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/apiquery/internal/models"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("not found")

// DocumentStore keeps metadata about ingested documents.
type DocumentStore interface {
	SaveDocument(ctx context.Context, doc *models.DocumentInfo) error
	GetDocument(ctx context.Context, id string) (*models.DocumentInfo, error)
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.DocumentInfo, error)
	DeleteDocument(ctx context.Context, id string) error
	CountDocuments(ctx context.Context) (int64, error)
}

// RecordStore keeps the text and metadata of index records.
type RecordStore interface {
	PutRecords(ctx context.Context, records []*models.Record) error
	GetRecords(ctx context.Context, ids []string) ([]*models.Record, error)
	RecordIDsByDocument(ctx context.Context, docID string) ([]string, error)
	DeleteRecordsByDocument(ctx context.Context, docID string) (int64, error)
	CountRecords(ctx context.Context) (int64, error)
	SampleRecords(ctx context.Context, n int) ([]*models.Record, error)
}

// Storage is both stores behind one connection.
type Storage interface {
	DocumentStore
	RecordStore
	Close() error
}
