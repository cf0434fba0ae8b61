// Package models defines core data structures for API documents, chunks, index records and generated queries.
package models

import "time"

// DocumentType identifies the flavour of an ingested API document.
type DocumentType string

const (
	DocumentTypeOpenAPI DocumentType = "openapi"
	DocumentTypeSwagger DocumentType = "swagger"
	DocumentTypePostman DocumentType = "postman"
	DocumentTypeText    DocumentType = "text"
)

// Valid reports whether t is one of the known document types.
func (t DocumentType) Valid() bool {
	switch t {
	case DocumentTypeOpenAPI, DocumentTypeSwagger, DocumentTypePostman, DocumentTypeText:
		return true
	}
	return false
}

// Document is an ingested API specification. Content holds the parsed spec tree.
type Document struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Type           DocumentType   `json:"type"`
	Content        map[string]any `json:"content"`
	EndpointsCount int            `json:"endpoints_count"`
	FileSize       int64          `json:"file_size"`
	UploadedAt     time.Time      `json:"uploaded_at"`
}

// Info returns the registry view of the document (everything except Content).
func (d *Document) Info() *DocumentInfo {
	return &DocumentInfo{
		ID:             d.ID,
		Name:           d.Name,
		Type:           d.Type,
		EndpointsCount: d.EndpointsCount,
		FileSize:       d.FileSize,
		UploadedAt:     d.UploadedAt,
	}
}

// DocumentInfo is the stored metadata of a document.
type DocumentInfo struct {
	ID             string       `json:"id" db:"id"`
	Name           string       `json:"name" db:"name"`
	Type           DocumentType `json:"type" db:"type"`
	EndpointsCount int          `json:"endpoints_count" db:"endpoints_count"`
	FileSize       int64        `json:"file_size" db:"file_size"`
	UploadedAt     time.Time    `json:"uploaded_at" db:"uploaded_at"`
	ChunkCount     int          `json:"chunk_count" db:"chunk_count"`
}

// Chunk is a contiguous text window of a flattened document.
type Chunk struct {
	ID         string            `json:"id"`
	DocumentID string            `json:"document_id"`
	Index      int               `json:"chunk_index"`
	Total      int               `json:"total_chunks"`
	Text       string            `json:"text"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}
