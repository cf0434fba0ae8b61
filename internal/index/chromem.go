package index

import (
	"context"
	"fmt"
	"runtime"

	"github.com/hyperjump/apiquery/internal/embedding"
	"github.com/hyperjump/apiquery/internal/models"
	chromem "github.com/philippgille/chromem-go"
)

// ChromemBackend stores records in a chromem-go collection.
type ChromemBackend struct {
	db         *chromem.DB
	collection *chromem.Collection
	// probe is the query vector used to draw stats samples.
	probe []float32
}

// NewChromemBackend opens the collection name in a persistent database at path, or in
// memory when path is empty. Queries are embedded by the caller; embedder only serves
// chromem's own text queries.
func NewChromemBackend(path, name string, embedder embedding.Embedder) (*ChromemBackend, error) {
	var db *chromem.DB
	if path == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open chromem database: %w", err)
		}
	}
	if name == "" {
		name = DefaultCollectionName
	}
	collection, err := db.GetOrCreateCollection(name, nil, embedder.Embed)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	probe, err := embedder.Embed(context.Background(), "")
	if err != nil {
		return nil, fmt.Errorf("embed sample probe: %w", err)
	}
	return &ChromemBackend{db: db, collection: collection, probe: probe}, nil
}

// Name returns BackendChromem.
func (b *ChromemBackend) Name() string { return BackendChromem }

// Upsert adds records; an existing id is overwritten.
func (b *ChromemBackend) Upsert(ctx context.Context, records []*models.Record) error {
	docs := make([]chromem.Document, len(records))
	for i, r := range records {
		docs[i] = chromem.Document{
			ID:        r.ID,
			Metadata:  r.Metadata,
			Embedding: r.Embedding,
			Content:   r.Text,
		}
	}
	if err := b.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// Query returns up to k nearest records, optionally restricted to docID.
func (b *ChromemBackend) Query(ctx context.Context, emb []float32, k int, docID string) ([]*models.Record, error) {
	count := b.collection.Count()
	if count == 0 || k <= 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}
	var where map[string]string
	if docID != "" {
		where = map[string]string{models.MetaDocID: docID}
	}
	results, err := b.collection.QueryEmbedding(ctx, emb, k, where, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}
	out := make([]*models.Record, len(results))
	for i, res := range results {
		out[i] = fromResult(res)
	}
	return out, nil
}

func fromResult(res chromem.Result) *models.Record {
	meta := make(map[string]string, len(res.Metadata))
	for k, v := range res.Metadata {
		meta[k] = v
	}
	return &models.Record{
		ID:       res.ID,
		Text:     res.Content,
		Metadata: meta,
		Distance: 1 - float64(res.Similarity),
	}
}

// DeleteDocument removes every record whose doc_id is docID.
func (b *ChromemBackend) DeleteDocument(ctx context.Context, docID string) (int, error) {
	before := b.collection.Count()
	if err := b.collection.Delete(ctx, map[string]string{models.MetaDocID: docID}, nil); err != nil {
		return 0, fmt.Errorf("failed to delete documents: %w", err)
	}
	return before - b.collection.Count(), nil
}

// Count returns the number of records.
func (b *ChromemBackend) Count(context.Context) (int, error) {
	return b.collection.Count(), nil
}

// Sample returns n records nearest to a fixed probe vector.
func (b *ChromemBackend) Sample(ctx context.Context, n int) ([]*models.Record, error) {
	return b.Query(ctx, b.probe, n, "")
}

// Get resolves ids; unknown ids are skipped.
func (b *ChromemBackend) Get(ctx context.Context, ids []string) ([]*models.Record, error) {
	out := make([]*models.Record, 0, len(ids))
	for _, id := range ids {
		doc, err := b.collection.GetByID(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, &models.Record{
			ID:        doc.ID,
			Text:      doc.Content,
			Metadata:  doc.Metadata,
			Embedding: doc.Embedding,
		})
	}
	return out, nil
}

// Close is a no-op; persistent chromem databases write through on every change.
func (b *ChromemBackend) Close() error { return nil }
