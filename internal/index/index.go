// Package index is the embedding index: chunks go in with their metadata, nearest records come out.
//
// Backend faults never escape the Index. They are logged and reported as false or an
// empty result so that callers degrade to low-confidence answers instead of failing.
package index

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hyperjump/apiquery/internal/embedding"
	"github.com/hyperjump/apiquery/internal/metrics"
	"github.com/hyperjump/apiquery/internal/models"
	"go.uber.org/zap"
)

const (
	// DefaultOpTimeout bounds every index operation.
	DefaultOpTimeout = 5 * time.Second
	// DefaultSampleSize is how many records Stats inspects.
	DefaultSampleSize = 10
	// DefaultCollectionName names the collection in stats output.
	DefaultCollectionName = "api_documentation"
)

// Index embeds chunks and answers similarity queries through a Backend.
type Index struct {
	backend    Backend
	embedder   embedding.Embedder
	timeout    time.Duration
	sampleSize int
	collection string
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger used for backend faults.
func WithLogger(l *zap.Logger) Option {
	return func(x *Index) { x.logger = l }
}

// WithTimeout sets the per-operation timeout.
func WithTimeout(d time.Duration) Option {
	return func(x *Index) {
		if d > 0 {
			x.timeout = d
		}
	}
}

// WithSampleSize sets how many records Stats looks at.
func WithSampleSize(n int) Option {
	return func(x *Index) {
		if n > 0 {
			x.sampleSize = n
		}
	}
}

// WithCollectionName sets the collection name reported by Stats.
func WithCollectionName(name string) Option {
	return func(x *Index) {
		if name != "" {
			x.collection = name
		}
	}
}

// WithMetrics records operation outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(x *Index) { x.metrics = m }
}

// New creates an Index over backend using embedder for chunks and queries.
func New(backend Backend, embedder embedding.Embedder, opts ...Option) *Index {
	x := &Index{
		backend:    backend,
		embedder:   embedder,
		timeout:    DefaultOpTimeout,
		sampleSize: DefaultSampleSize,
		collection: DefaultCollectionName,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(x)
	}
	if x.logger == nil {
		x.logger = zap.NewNop()
	}
	return x
}

// RecordID returns the id of a document's chunk.
func RecordID(docID string, ordinal int) string {
	return fmt.Sprintf("%s_chunk_%d", docID, ordinal)
}

// Add embeds and stores chunks under docID. An empty chunk list succeeds trivially.
func (x *Index) Add(ctx context.Context, chunks []*models.Chunk, docID string) bool {
	if len(chunks) == 0 {
		return true
	}
	err := x.run(ctx, "add", func(ctx context.Context) error {
		texts := make([]string, len(chunks))
		for i, ch := range chunks {
			texts[i] = ch.Text
		}
		embeddings, err := x.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed chunks: %w", err)
		}
		records := make([]*models.Record, len(chunks))
		for i, ch := range chunks {
			meta := make(map[string]string, len(ch.Metadata)+3)
			for k, v := range ch.Metadata {
				meta[k] = v
			}
			meta[models.MetaDocID] = docID
			meta[models.MetaChunkID] = strconv.Itoa(ch.Index)
			meta[models.MetaTotalChunks] = strconv.Itoa(ch.Total)
			records[i] = &models.Record{
				ID:        RecordID(docID, ch.Index),
				Text:      ch.Text,
				Metadata:  meta,
				Embedding: embeddings[i],
			}
		}
		return x.backend.Upsert(ctx, records)
	})
	if err != nil {
		x.logger.Error("index add failed", zap.String("doc_id", docID), zap.Int("chunks", len(chunks)), zap.Error(err))
		return false
	}
	x.logger.Debug("index add", zap.String("doc_id", docID), zap.Int("chunks", len(chunks)))
	return true
}

// Search returns up to k records nearest to query by ascending cosine distance. A non-empty
// docID restricts the search to that document.
func (x *Index) Search(ctx context.Context, query string, k int, docID string) []*models.Record {
	if k <= 0 {
		return nil
	}
	var out []*models.Record
	err := x.run(ctx, "search", func(ctx context.Context) error {
		emb, err := x.embedder.Embed(ctx, query)
		if err != nil {
			return fmt.Errorf("embed query: %w", err)
		}
		out, err = x.backend.Query(ctx, emb, k, docID)
		return err
	})
	if err != nil {
		x.logger.Warn("index search failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	return out
}

// Delete removes every record of docID. Deleting an unknown document succeeds.
func (x *Index) Delete(ctx context.Context, docID string) bool {
	var removed int
	err := x.run(ctx, "delete", func(ctx context.Context) error {
		var err error
		removed, err = x.backend.DeleteDocument(ctx, docID)
		return err
	})
	if err != nil {
		x.logger.Error("index delete failed", zap.String("doc_id", docID), zap.Error(err))
		return false
	}
	x.logger.Debug("index delete", zap.String("doc_id", docID), zap.Int("removed", removed))
	return true
}

// Get returns the records with the given ids; unknown ids are skipped.
func (x *Index) Get(ctx context.Context, ids []string) []*models.Record {
	if len(ids) == 0 {
		return nil
	}
	var out []*models.Record
	err := x.run(ctx, "get", func(ctx context.Context) error {
		var err error
		out, err = x.backend.Get(ctx, ids)
		return err
	})
	if err != nil {
		x.logger.Warn("index get failed", zap.Int("ids", len(ids)), zap.Error(err))
		return nil
	}
	return out
}

// Stats reports the record count and document breakdown of a bounded sample.
func (x *Index) Stats(ctx context.Context) *models.IndexStats {
	stats := &models.IndexStats{
		DocumentTypes:  map[string]int{},
		CollectionName: x.collection,
		Backend:        x.backend.Name(),
	}
	var count int
	var sample []*models.Record
	err := x.run(ctx, "stats", func(ctx context.Context) error {
		n, err := x.backend.Count(ctx)
		if err != nil {
			return err
		}
		size := x.sampleSize
		if n < size {
			size = n
		}
		s, err := x.backend.Sample(ctx, size)
		if err != nil {
			return err
		}
		count, sample = n, s
		return nil
	})
	if err != nil {
		x.logger.Warn("index stats failed", zap.Error(err))
		stats.Error = err.Error()
		return stats
	}
	names := make(map[string]struct{})
	for _, r := range sample {
		stats.DocumentTypes[r.DocType()]++
		names[r.DocName()] = struct{}{}
	}
	stats.TotalChunks = count
	stats.UniqueDocuments = len(names)
	return stats
}

// Close releases the backend.
func (x *Index) Close() error {
	return x.backend.Close()
}

// run executes fn under the operation timeout. A timed-out operation returns the
// context error immediately; the backend call finishes in the background.
func (x *Index) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%s panicked: %v", op, r)
			}
		}()
		done <- fn(ctx)
	}()
	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = fmt.Errorf("%s: %w", op, ctx.Err())
	}
	x.metrics.ObserveIndexOp(op, err == nil)
	return err
}
