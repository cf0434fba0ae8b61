package main

import (
	"context"
	"fmt"

	"github.com/hyperjump/apiquery/internal/config"
	"github.com/hyperjump/apiquery/internal/embedding"
	"github.com/hyperjump/apiquery/internal/index"
	"github.com/hyperjump/apiquery/internal/indexer"
	"github.com/hyperjump/apiquery/internal/keyword"
	"github.com/hyperjump/apiquery/internal/metrics"
	"github.com/hyperjump/apiquery/internal/querygen"
	"github.com/hyperjump/apiquery/internal/ranking"
	"github.com/hyperjump/apiquery/internal/search"
	"github.com/hyperjump/apiquery/internal/storage"
	"go.uber.org/zap"
)

// Components holds initialized services.
type Components struct {
	Storage   *storage.SQLiteStorage
	Embedder  embedding.Embedder
	Index     *index.Index
	Keywords  keyword.KeywordIndex
	Generator *querygen.Generator
	Indexer   *indexer.Indexer
	Metrics   *metrics.Metrics
}

// Close releases every component that holds files or native resources.
func (c *Components) Close() {
	if c.Index != nil {
		_ = c.Index.Close()
	}
	if c.Keywords != nil {
		_ = c.Keywords.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func newEmbedder(cfg *config.EmbeddingConfig, logger *zap.Logger) (embedding.Embedder, error) {
	e, err := embedding.New(embedding.Options{
		Provider:   cfg.Provider,
		ModelPath:  cfg.ModelPath,
		Dimensions: cfg.Dimensions,
		MaxTokens:  cfg.MaxTokens,
		CacheSize:  cfg.CacheSize,
	})
	if err == nil || cfg.Provider != embedding.ProviderONNX {
		return e, err
	}
	logger.Warn("onnx embedder unavailable, falling back to hashing embedder",
		zap.String("model_path", cfg.ModelPath), zap.Error(err))
	return embedding.NewHashingEmbedder(cfg.Dimensions, cfg.CacheSize), nil
}

func baseURLRules(rules []config.BaseURLRule) []querygen.BaseURLRule {
	if len(rules) == 0 {
		return nil
	}
	out := make([]querygen.BaseURLRule, len(rules))
	for i, r := range rules {
		out[i] = querygen.BaseURLRule{Match: r.Match, URL: r.URL}
	}
	return out
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{Metrics: metrics.New()}
	ok := false
	defer func() {
		if !ok {
			c.Close()
		}
	}()

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.Storage = store

	c.Embedder, err = newEmbedder(&cfg.Embedding, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	backend, err := index.NewBackend(ctx, index.BackendOptions{
		Name:           cfg.Index.Backend,
		CollectionName: cfg.Index.CollectionName,
		ChromemPath:    cfg.Storage.ChromemPath,
		VectorPath:     cfg.Storage.VectorIndexPath,
		Records:        store,
	}, c.Embedder)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s index: %w", cfg.Index.Backend, err)
	}
	c.Index = index.New(backend, c.Embedder,
		index.WithLogger(logger),
		index.WithTimeout(cfg.Index.OpTimeout),
		index.WithSampleSize(cfg.Index.StatsSampleSize),
		index.WithCollectionName(cfg.Index.CollectionName),
		index.WithMetrics(c.Metrics),
	)
	logger.Info("embedding index initialized",
		zap.String("backend", cfg.Index.Backend),
		zap.String("embedder", cfg.Embedding.Provider),
		zap.Int("dimensions", c.Embedder.Dimensions()))

	var retriever search.Retriever = search.NewVectorRetriever(c.Index)
	if cfg.Search.Hybrid {
		kw, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
		}
		c.Keywords = kw
		retriever = search.NewHybridRetriever(c.Index, kw,
			search.WithWeights(cfg.Search.KeywordWeight, cfg.Search.SemanticWeight),
			search.WithHybridLogger(logger),
		)
	}

	matcher := ranking.NewKeywordMatcher(&cfg.Matching)
	synth := querygen.NewHeuristicSynthesizer(matcher, baseURLRules(cfg.Synthesis.BaseURLs), cfg.Synthesis.DefaultBaseURL)
	c.Generator = querygen.NewGenerator(retriever, matcher, synth,
		querygen.WithMaxResults(cfg.Search.DefaultMaxResults, cfg.Search.MaxResultsLimit),
		querygen.WithLogger(logger),
		querygen.WithMetrics(c.Metrics),
	)

	idxOpts := []indexer.IndexerOption{
		indexer.WithLogger(logger),
		indexer.WithDocumentStore(store),
		indexer.WithChunker(indexer.NewChunker(cfg.Search.ChunkSize, cfg.Search.ChunkOverlap)),
	}
	if c.Keywords != nil {
		idxOpts = append(idxOpts, indexer.WithKeywordIndex(c.Keywords))
	}
	c.Indexer = indexer.NewIndexer(c.Index, idxOpts...)

	ok = true
	return c, nil
}
