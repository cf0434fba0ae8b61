package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/apiquery/internal/models"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for files that are neither JSON nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported file format: expected JSON or YAML")

// SupportedExtensions lists the file extensions Load accepts.
var SupportedExtensions = []string{".json", ".yaml", ".yml"}

// IsSupported reports whether name has a loadable extension.
func IsSupported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Load parses data as a JSON or YAML API document named name, detects its type and
// counts its endpoints. The returned document gets a fresh UUID.
func Load(name string, data []byte) (*models.Document, error) {
	content, err := Parse(name, data)
	if err != nil {
		return nil, err
	}
	typ := DetectType(content, name)
	return &models.Document{
		ID:             uuid.New().String(),
		Name:           name,
		Type:           typ,
		Content:        content,
		EndpointsCount: CountEndpoints(content, typ),
		FileSize:       int64(len(data)),
		UploadedAt:     time.Now().UTC(),
	}, nil
}

// LoadFile reads and loads the document at path. The document name is the file's base name.
func LoadFile(path string) (*models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Load(filepath.Base(path), data)
}

// Parse decodes data according to the extension of name. The top level must be a mapping.
func Parse(name string, data []byte) (map[string]any, error) {
	data = validUTF8(data)
	var raw any
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("invalid file format: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("invalid file format: %w", err)
		}
		raw = normalize(raw)
	default:
		return nil, ErrUnsupportedFormat
	}
	content, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid file format: top level of %s is not an object", name)
	}
	return content, nil
}

// DetectType classifies a parsed document. filename breaks the tie for Postman exports
// without items.
func DetectType(content map[string]any, filename string) models.DocumentType {
	_, hasInfo := content["info"]
	_, hasPaths := content["paths"]
	_, hasItem := content["item"]
	lower := strings.ToLower(filename)
	switch {
	case has(content, "openapi"):
		return models.DocumentTypeOpenAPI
	case has(content, "swagger") || (hasInfo && hasPaths):
		return models.DocumentTypeSwagger
	case hasInfo && (hasItem || strings.Contains(lower, "collection") || strings.Contains(lower, "postman")):
		return models.DocumentTypePostman
	default:
		return models.DocumentTypeText
	}
}

// CountEndpoints counts operations (OpenAPI/Swagger) or requests (Postman).
func CountEndpoints(content map[string]any, typ models.DocumentType) int {
	switch typ {
	case models.DocumentTypeOpenAPI, models.DocumentTypeSwagger:
		return countOpenAPIEndpoints(content)
	case models.DocumentTypePostman:
		return countPostmanRequests(sliceOf(content["item"]))
	}
	return 0
}

func has(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}
