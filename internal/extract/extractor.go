// Package extract flattens API documents (OpenAPI, Swagger, Postman) into labelled text.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyperjump/apiquery/internal/doctext"
	"github.com/hyperjump/apiquery/internal/models"
)

// Extractor turns parsed API documents into indexable text.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Text returns the flattened text of doc. OpenAPI and Swagger documents become
// info, server and endpoint blocks; Postman collections become request and folder
// blocks; anything else is rendered as indented JSON.
func (e *Extractor) Text(doc *models.Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("nil document")
	}
	switch doc.Type {
	case models.DocumentTypeOpenAPI, models.DocumentTypeSwagger:
		return openAPIText(doc.Content), nil
	case models.DocumentTypePostman:
		return postmanText(doc.Content), nil
	default:
		data, err := json.MarshalIndent(doc.Content, "", "  ")
		if err != nil {
			return "", fmt.Errorf("render text document: %w", err)
		}
		return string(data), nil
	}
}

func joinBlocks(parts []string) string {
	return strings.Join(parts, doctext.BlockSeparator)
}
