package index

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyperjump/apiquery/internal/embedding"
	"github.com/hyperjump/apiquery/internal/models"
	"github.com/hyperjump/apiquery/internal/storage"
	"github.com/hyperjump/apiquery/internal/vector"
)

// LocalBackend keeps vectors in a vector.MemoryIndex and record text and metadata in a
// storage.RecordStore. The vector file is rewritten after every change.
type LocalBackend struct {
	vectors    *vector.MemoryIndex
	store      storage.RecordStore
	vectorPath string
	mu         sync.Mutex // serializes writers so the vector file matches the store
}

// NewLocalBackend loads the vectors at vectorPath (if any) and re-embeds stored records
// that have no vector, e.g. after the vector file was removed.
func NewLocalBackend(ctx context.Context, store storage.RecordStore, vectorPath string, embedder embedding.Embedder) (*LocalBackend, error) {
	vectors, err := vector.NewMemoryIndex(embedder.Dimensions())
	if err != nil {
		return nil, err
	}
	if err := vectors.Load(vectorPath); err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}
	b := &LocalBackend{vectors: vectors, store: store, vectorPath: vectorPath}
	if err := b.rebuild(ctx, embedder); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *LocalBackend) rebuild(ctx context.Context, embedder embedding.Embedder) error {
	count, err := b.store.CountRecords(ctx)
	if err != nil {
		return fmt.Errorf("count records: %w", err)
	}
	if int(count) == b.vectors.Size() {
		return nil
	}
	records, err := b.store.SampleRecords(ctx, int(count))
	if err != nil {
		return fmt.Errorf("read records: %w", err)
	}
	var ids []string
	var texts []string
	for _, r := range records {
		if _, ok := b.vectors.Vector(r.ID); !ok {
			ids = append(ids, r.ID)
			texts = append(texts, r.Text)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	embeddings, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("re-embed records: %w", err)
	}
	if err := b.vectors.Add(ctx, ids, embeddings); err != nil {
		return err
	}
	return b.vectors.Save(b.vectorPath)
}

// Name returns BackendLocal.
func (b *LocalBackend) Name() string { return BackendLocal }

// Upsert stores records and their vectors.
func (b *LocalBackend) Upsert(ctx context.Context, records []*models.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]string, len(records))
	vecs := make([][]float32, len(records))
	for i, r := range records {
		ids[i] = r.ID
		vecs[i] = r.Embedding
	}
	if err := b.vectors.Add(ctx, ids, vecs); err != nil {
		return fmt.Errorf("add vectors: %w", err)
	}
	if err := b.store.PutRecords(ctx, records); err != nil {
		_ = b.vectors.Remove(ctx, ids)
		return fmt.Errorf("store records: %w", err)
	}
	return b.vectors.Save(b.vectorPath)
}

// Query returns up to k nearest records, optionally restricted to docID.
func (b *LocalBackend) Query(ctx context.Context, emb []float32, k int, docID string) ([]*models.Record, error) {
	var filter vector.Filter
	if docID != "" {
		ids, err := b.store.RecordIDsByDocument(ctx, docID)
		if err != nil {
			return nil, err
		}
		allowed := make(map[string]bool, len(ids))
		for _, id := range ids {
			allowed[id] = true
		}
		filter = func(id string) bool { return allowed[id] }
	}
	hits, err := b.vectors.Search(ctx, emb, k, filter)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(hits))
	distance := make(map[string]float64, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
		distance[h.ID] = h.Distance()
	}
	records, err := b.store.GetRecords(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		r.Distance = distance[r.ID]
	}
	return records, nil
}

// DeleteDocument removes the records and vectors of docID.
func (b *LocalBackend) DeleteDocument(ctx context.Context, docID string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids, err := b.store.RecordIDsByDocument(ctx, docID)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := b.vectors.Remove(ctx, ids); err != nil {
		return 0, err
	}
	n, err := b.store.DeleteRecordsByDocument(ctx, docID)
	if err != nil {
		return 0, err
	}
	return int(n), b.vectors.Save(b.vectorPath)
}

// Count returns the number of stored records.
func (b *LocalBackend) Count(ctx context.Context) (int, error) {
	n, err := b.store.CountRecords(ctx)
	return int(n), err
}

// Sample returns up to n stored records.
func (b *LocalBackend) Sample(ctx context.Context, n int) ([]*models.Record, error) {
	return b.store.SampleRecords(ctx, n)
}

// Get resolves ids; unknown ids are skipped.
func (b *LocalBackend) Get(ctx context.Context, ids []string) ([]*models.Record, error) {
	return b.store.GetRecords(ctx, ids)
}

// Close writes the vector file. The record store is owned by the caller.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.vectors.Save(b.vectorPath)
}
