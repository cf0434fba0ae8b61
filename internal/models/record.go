package models

import "strconv"

// Metadata keys stamped on every index record.
const (
	MetaDocID          = "doc_id"
	MetaDocName        = "doc_name"
	MetaDocType        = "doc_type"
	MetaUploadedAt     = "uploaded_at"
	MetaEndpointsCount = "endpoints_count"
	MetaChunkID        = "chunk_id"
	MetaTotalChunks    = "total_chunks"
)

// Record is a chunk as stored in the embedding index.
type Record struct {
	ID        string            `json:"id"`
	Text      string            `json:"text"`
	Metadata  map[string]string `json:"metadata"`
	Embedding []float32         `json:"-"`
	// Distance is 1 - cosine similarity; only set on search results.
	Distance float64 `json:"distance"`
}

// DocID returns the owning document id.
func (r *Record) DocID() string { return r.Metadata[MetaDocID] }

// DocName returns the owning document name.
func (r *Record) DocName() string { return r.Metadata[MetaDocName] }

// DocType returns the owning document type.
func (r *Record) DocType() string { return r.Metadata[MetaDocType] }

// ChunkOrdinal returns the chunk position within its document, or -1 when unknown.
func (r *Record) ChunkOrdinal() int {
	n, err := strconv.Atoi(r.Metadata[MetaChunkID])
	if err != nil {
		return -1
	}
	return n
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	out := *r
	if r.Metadata != nil {
		out.Metadata = make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = v
		}
	}
	if r.Embedding != nil {
		out.Embedding = append([]float32(nil), r.Embedding...)
	}
	return &out
}

// IndexStats summarizes the embedding index.
type IndexStats struct {
	TotalChunks     int            `json:"total_chunks"`
	UniqueDocuments int            `json:"unique_documents"`
	DocumentTypes   map[string]int `json:"document_types"`
	CollectionName  string         `json:"collection_name"`
	Backend         string         `json:"backend"`
	Error           string         `json:"error,omitempty"`
}
