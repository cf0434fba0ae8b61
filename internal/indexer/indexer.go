package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/apiquery/internal/extract"
	"github.com/hyperjump/apiquery/internal/fileid"
	"github.com/hyperjump/apiquery/internal/index"
	"github.com/hyperjump/apiquery/internal/keyword"
	"github.com/hyperjump/apiquery/internal/models"
	"github.com/hyperjump/apiquery/internal/storage"
	"go.uber.org/zap"
)

// ErrIndexRejected is returned when the embedding index fails to store a document's chunks.
var ErrIndexRejected = errors.New("embedding index rejected the document")

// IngestResult describes an indexed document.
type IngestResult struct {
	Document *models.DocumentInfo
	Chunks   int
}

// Indexer moves documents through extraction, chunking and indexing.
type Indexer struct {
	index     *index.Index
	docs      storage.DocumentStore // optional registry
	keywords  keyword.KeywordIndex  // optional; enables hybrid retrieval
	extractor *extract.Extractor
	chunker   *Chunker
	logger    *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for ingestion events.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithKeywordIndex also indexes chunk text for keyword search.
func WithKeywordIndex(k keyword.KeywordIndex) IndexerOption {
	return func(idx *Indexer) { idx.keywords = k }
}

// WithDocumentStore records every ingested document in docs.
func WithDocumentStore(docs storage.DocumentStore) IndexerOption {
	return func(idx *Indexer) { idx.docs = docs }
}

// WithChunker replaces the default chunker.
func WithChunker(c *Chunker) IndexerOption {
	return func(idx *Indexer) {
		if c != nil {
			idx.chunker = c
		}
	}
}

// NewIndexer creates an indexer writing into x.
func NewIndexer(x *index.Index, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		index:     x,
		extractor: extract.NewExtractor(),
		chunker:   NewChunker(DefaultChunkSize, DefaultChunkOverlap),
	}
	for _, opt := range opts {
		opt(idx)
	}
	if idx.logger == nil {
		idx.logger = zap.NewNop()
	}
	return idx
}

// Chunks flattens doc and splits it into chunks stamped with the document metadata.
// A document with no text yields no chunks.
func (idx *Indexer) Chunks(doc *models.Document) ([]*models.Chunk, error) {
	text, err := idx.extractor.Text(doc)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	text = Preprocess(text)
	if text == "" {
		return nil, nil
	}
	pieces := idx.chunker.Split(text)
	chunks := make([]*models.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = &models.Chunk{
			ID:         index.RecordID(doc.ID, i),
			DocumentID: doc.ID,
			Index:      i,
			Total:      len(pieces),
			Text:       piece,
			Metadata: map[string]string{
				models.MetaDocName:        doc.Name,
				models.MetaDocType:        string(doc.Type),
				models.MetaUploadedAt:     doc.UploadedAt.UTC().Format(time.RFC3339),
				models.MetaEndpointsCount: strconv.Itoa(doc.EndpointsCount),
			},
		}
	}
	return chunks, nil
}

// IndexDocument chunks doc and writes it to the embedding index, the keyword index and
// the registry. A document without an id gets a fresh one.
func (idx *Indexer) IndexDocument(ctx context.Context, doc *models.Document) (*IngestResult, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	chunks, err := idx.Chunks(doc)
	if err != nil {
		return nil, err
	}
	if !idx.index.Add(ctx, chunks, doc.ID) {
		return nil, fmt.Errorf("%w: %s", ErrIndexRejected, doc.ID)
	}
	if idx.keywords != nil && len(chunks) > 0 {
		entries := make([]keyword.Entry, len(chunks))
		for i, ch := range chunks {
			entries[i] = keyword.Entry{ID: ch.ID, DocID: doc.ID, DocName: doc.Name, Text: ch.Text}
		}
		if err := idx.keywords.Index(ctx, entries); err != nil {
			idx.rollback(ctx, doc.ID)
			return nil, fmt.Errorf("failed to index keywords: %w", err)
		}
	}
	info := doc.Info()
	info.ChunkCount = len(chunks)
	if idx.docs != nil {
		if err := idx.docs.SaveDocument(ctx, info); err != nil {
			idx.rollback(ctx, doc.ID)
			return nil, fmt.Errorf("failed to register document: %w", err)
		}
	}
	idx.logger.Info("document indexed",
		zap.String("doc_id", doc.ID),
		zap.String("name", doc.Name),
		zap.String("type", string(doc.Type)),
		zap.Int("endpoints", doc.EndpointsCount),
		zap.Int("chunks", len(chunks)))
	return &IngestResult{Document: info, Chunks: len(chunks)}, nil
}

// rollback removes the chunks of a document whose ingestion failed part way, so no
// index record exists without a registry entry.
func (idx *Indexer) rollback(ctx context.Context, docID string) {
	ctx = context.WithoutCancel(ctx)
	if !idx.index.Delete(ctx, docID) {
		idx.logger.Error("indexer rollback left chunks in the embedding index", zap.String("doc_id", docID))
	}
	if idx.keywords != nil {
		if _, err := idx.keywords.DeleteDocument(ctx, docID); err != nil {
			idx.logger.Error("indexer rollback left keyword entries", zap.String("doc_id", docID), zap.Error(err))
		}
	}
}

// IndexFile loads the API document at path and indexes it under an id derived from the
// absolute path, replacing any previous version. A file whose registry entry is newer
// than its modification time and has the same size is left alone; the result's Chunks is
// then the registered chunk count.
func (idx *Indexer) IndexFile(ctx context.Context, path string) (*IngestResult, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	if !extract.IsSupported(absPath) {
		return nil, fmt.Errorf("%s: %w", absPath, extract.ErrUnsupportedFormat)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", absPath)
	}
	docID := fileid.FileDocID(absPath)
	if existing := idx.unchanged(ctx, docID, info); existing != nil {
		idx.logger.Debug("indexer skipping unchanged file", zap.String("path", absPath))
		return &IngestResult{Document: existing, Chunks: existing.ChunkCount}, nil
	}
	doc, err := extract.LoadFile(absPath)
	if err != nil {
		return nil, err
	}
	doc.ID = docID
	if err := idx.DeleteDocument(ctx, docID); err != nil {
		idx.logger.Warn("indexer could not clear previous version", zap.String("path", absPath), zap.Error(err))
	}
	return idx.IndexDocument(ctx, doc)
}

func (idx *Indexer) unchanged(ctx context.Context, docID string, info os.FileInfo) *models.DocumentInfo {
	if idx.docs == nil {
		return nil
	}
	doc, err := idx.docs.GetDocument(ctx, docID)
	if err != nil {
		return nil
	}
	if doc.FileSize != info.Size() || info.ModTime().After(doc.UploadedAt) {
		return nil
	}
	return doc
}

// IndexDirectory walks dir and indexes every file whose extension is in exts (the loadable
// extensions when exts is empty). A file that fails does not stop the walk; the returned
// error joins every failure.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string, exts []string, recursive bool) (int, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	if len(exts) == 0 {
		exts = extract.SupportedExtensions
	}
	var n int
	var errs []error
	walkErr := filepath.WalkDir(absDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != absDir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !extensionAllowed(filepath.Ext(path), exts) || !extract.IsSupported(path) {
			return nil
		}
		if _, err := idx.IndexFile(ctx, path); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			return nil
		}
		n++
		return nil
	})
	if walkErr != nil {
		errs = append(errs, walkErr)
	}
	return n, errors.Join(errs...)
}

// DeleteDocument removes a document from the embedding index, the keyword index and the
// registry. Unknown ids are not an error.
func (idx *Indexer) DeleteDocument(ctx context.Context, id string) error {
	if !idx.index.Delete(ctx, id) {
		return fmt.Errorf("failed to delete %s from the embedding index", id)
	}
	if idx.keywords != nil {
		if _, err := idx.keywords.DeleteDocument(ctx, id); err != nil {
			return fmt.Errorf("failed to delete from keyword index: %w", err)
		}
	}
	if idx.docs != nil {
		if err := idx.docs.DeleteDocument(ctx, id); err != nil {
			return fmt.Errorf("failed to delete document: %w", err)
		}
	}
	idx.logger.Debug("indexer document deleted", zap.String("id", id))
	return nil
}

// DeleteFile removes the document indexed from path.
func (idx *Indexer) DeleteFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	return idx.DeleteDocument(ctx, fileid.FileDocID(absPath))
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
