// Package cli renders apiquery results for the terminal and talks to a running server.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/hyperjump/apiquery/internal/models"
	"github.com/hyperjump/apiquery/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates an --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputJSON:
		return OutputFormat(s), nil
	case "":
		return OutputText, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text or json", s)
}

// GenerateResponse is the body of POST /api/v1/query/generate.
type GenerateResponse struct {
	models.GenerateResult
	Explanation string `json:"explanation,omitempty"`
}

// StatusConfig is the configuration section of a status report.
type StatusConfig struct {
	IndexBackend        string `json:"index_backend"`
	EmbeddingProvider   string `json:"embedding_provider"`
	EmbeddingDimensions int    `json:"embedding_dimensions,omitempty"`
	ChunkSize           int    `json:"chunk_size,omitempty"`
	ChunkOverlap        int    `json:"chunk_overlap,omitempty"`
	Hybrid              bool   `json:"hybrid"`
	DatabasePath        string `json:"database_path,omitempty"`
}

// Status is the body of GET /api/v1/status.
type Status struct {
	Version        string             `json:"version,omitempty"`
	UptimeSeconds  int64              `json:"uptime_seconds,omitempty"`
	Documents      int64              `json:"documents"`
	Index          *models.IndexStats `json:"index,omitempty"`
	DiskUsageBytes *int64             `json:"disk_usage_bytes,omitempty"`
	Config         *StatusConfig      `json:"config,omitempty"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteGenerateResult writes a generation result to w in the given format.
func WriteGenerateResult(w io.Writer, res *GenerateResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	fmt.Fprintf(w, "\nQuery: %s\n", res.UserQuery)
	if !res.Success {
		fmt.Fprintf(w, "Generation failed: %s\n", res.Error)
		return nil
	}
	q := res.GeneratedQuery
	fmt.Fprintf(w, "\n%s %s\n", q.Method, q.URL)
	if len(q.Headers) > 0 {
		keys := make([]string, 0, len(q.Headers))
		for k := range q.Headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%s: %s\n", k, q.Headers[k])
		}
	}
	if q.HasBody() {
		body, err := json.MarshalIndent(q.Body, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\n%s\n", body)
	}
	fmt.Fprintf(w, "\nConfidence: %.2f | Source: %s | Retrieval: %s | Context: %d chunk(s)\n",
		q.Confidence, q.Source, res.RetrievalMethod, res.ContextUsed)
	if res.AlternateQuery != "" {
		fmt.Fprintf(w, "Alternate query: %s\n", res.AlternateQuery)
	}
	if len(res.RelevantDocuments) > 0 {
		fmt.Fprintln(w, "\nRelevant documents:")
		for _, d := range res.RelevantDocuments {
			fmt.Fprintf(w, "  %-30s %-10s %.4f\n", d.Document, d.DocType, d.RelevanceScore)
		}
	}
	if res.Explanation != "" {
		fmt.Fprintf(w, "\n%s\n", res.Explanation)
	}
	fmt.Fprintln(w)
	return nil
}

// WriteDocuments writes the registered documents to w.
func WriteDocuments(w io.Writer, docs []*models.DocumentInfo, format OutputFormat) error {
	if format == OutputJSON {
		if docs == nil {
			docs = []*models.DocumentInfo{}
		}
		return writeJSON(w, map[string]any{"documents": docs})
	}
	if len(docs) == 0 {
		fmt.Fprintln(w, "No documents indexed.")
		return nil
	}
	for _, d := range docs {
		fmt.Fprintf(w, "%s  %-8s %3d endpoint(s) %3d chunk(s)  %s\n",
			d.ID, d.Type, d.EndpointsCount, d.ChunkCount, utils.Truncate(d.Name, 60))
	}
	return nil
}

// WriteStatus writes a status report to w.
func WriteStatus(w io.Writer, s *Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, s)
	}
	if s.Version != "" {
		fmt.Fprintf(w, "version:            %s\n", s.Version)
	}
	fmt.Fprintf(w, "documents:          %d   # registered API documents\n", s.Documents)
	if s.Index != nil {
		fmt.Fprintf(w, "chunks:             %d   # records in the embedding index\n", s.Index.TotalChunks)
		fmt.Fprintf(w, "backend:            %s\n", s.Index.Backend)
		fmt.Fprintf(w, "collection:         %s\n", s.Index.CollectionName)
		if s.Index.Error != "" {
			fmt.Fprintf(w, "index_error:        %s\n", s.Index.Error)
		}
	}
	if s.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # storage + indices on disk\n", *s.DiskUsageBytes)
	}
	if c := s.Config; c != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		fmt.Fprintf(w, "embedding_provider: %s\n", c.EmbeddingProvider)
		if c.EmbeddingDimensions > 0 {
			fmt.Fprintf(w, "embedding_dims:     %d\n", c.EmbeddingDimensions)
		}
		if c.ChunkSize > 0 {
			fmt.Fprintf(w, "chunk_size:         %d\n", c.ChunkSize)
		}
		if c.ChunkOverlap > 0 {
			fmt.Fprintf(w, "chunk_overlap:      %d\n", c.ChunkOverlap)
		}
		fmt.Fprintf(w, "hybrid:             %t\n", c.Hybrid)
		if c.DatabasePath != "" {
			fmt.Fprintf(w, "database_path:      %s\n", c.DatabasePath)
		}
	}
	return nil
}
