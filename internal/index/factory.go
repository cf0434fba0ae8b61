package index

import (
	"context"
	"fmt"

	"github.com/hyperjump/apiquery/internal/embedding"
	"github.com/hyperjump/apiquery/internal/storage"
)

// BackendOptions selects and locates a backend.
type BackendOptions struct {
	Name           string
	CollectionName string
	// ChromemPath is the chromem persistence directory; empty keeps it in memory.
	ChromemPath string
	// VectorPath is the local backend's vector file; empty keeps it in memory.
	VectorPath string
	// Records is required by the local backend.
	Records storage.RecordStore
}

// NewBackend creates the backend named by opts.Name (chromem when empty).
func NewBackend(ctx context.Context, opts BackendOptions, embedder embedding.Embedder) (Backend, error) {
	switch opts.Name {
	case "", BackendChromem:
		b, err := NewChromemBackend(opts.ChromemPath, opts.CollectionName, embedder)
		if err != nil {
			return nil, err
		}
		return b, nil
	case BackendLocal:
		if opts.Records == nil {
			return nil, fmt.Errorf("local backend requires a record store")
		}
		b, err := NewLocalBackend(ctx, opts.Records, opts.VectorPath, embedder)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown index backend %q (use %q or %q)", opts.Name, BackendChromem, BackendLocal)
	}
}
