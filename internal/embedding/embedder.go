// Package embedding turns text into fixed-dimension vectors for the embedding index.
package embedding

import (
	"context"
	"fmt"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// Providers accepted by New.
const (
	ProviderHashing = "hashing"
	ProviderONNX    = "onnx"
)

// Options configures New.
type Options struct {
	Provider   string
	ModelPath  string
	Dimensions int
	MaxTokens  int
	CacheSize  int
}

// New builds the embedder named by opts.Provider. An empty provider selects the hashing embedder.
func New(opts Options) (Embedder, error) {
	switch opts.Provider {
	case "", ProviderHashing:
		return NewHashingEmbedder(opts.Dimensions, opts.CacheSize), nil
	case ProviderONNX:
		e, err := NewONNXEmbedder(opts.ModelPath, opts.Dimensions, opts.MaxTokens, opts.CacheSize)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", opts.Provider)
	}
}

// embedAll calls embed for each text, stopping at the first error or cancellation.
func embedAll(ctx context.Context, texts []string, embed func(context.Context, string) ([]float32, error)) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		emb, err := embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}
