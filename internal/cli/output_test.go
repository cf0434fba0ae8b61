package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/apiquery/internal/models"
)

func sampleResult() *GenerateResponse {
	return &GenerateResponse{
		GenerateResult: models.GenerateResult{
			Success:   true,
			UserQuery: "Create a new user named John",
			GeneratedQuery: &models.GeneratedQuery{
				Method:     "POST",
				URL:        "https://jsonplaceholder.typicode.com/users",
				Headers:    map[string]string{"Content-Type": "application/json", "Accept": "application/json"},
				Body:       map[string]any{"name": "John"},
				Confidence: 0.7,
				Source:     models.SourceContentFallback,
			},
			ContextUsed:       1,
			RelevantDocuments: []models.RelevantDocument{{Document: "users.json", DocType: "openapi", RelevanceScore: 0.42}},
			RetrievalMethod:   "vector",
		},
		Explanation: "API Query Explanation:\n- Method: POST",
	}
}

func TestParseOutputFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"": OutputText, "text": OutputText, "json": OutputJSON} {
		got, err := ParseOutputFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseOutputFormat("compact"); err == nil {
		t.Error("expected error for an unknown format")
	}
}

func TestWriteGenerateResult_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteGenerateResult(&buf, sampleResult(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Query: Create a new user named John",
		"POST https://jsonplaceholder.typicode.com/users",
		"Accept: application/json\nContent-Type: application/json",
		`"name": "John"`,
		"Confidence: 0.70 | Source: content_fallback | Retrieval: vector | Context: 1 chunk(s)",
		"users.json",
		"API Query Explanation:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestWriteGenerateResult_Failure(t *testing.T) {
	res := &GenerateResponse{GenerateResult: models.GenerateResult{UserQuery: "q", Error: "Failed to generate query: boom"}}
	var buf bytes.Buffer
	if err := WriteGenerateResult(&buf, res, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Generation failed: Failed to generate query: boom") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWriteGenerateResult_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteGenerateResult(&buf, sampleResult(), OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded["user_query"] != "Create a new user named John" || decoded["explanation"] == nil {
		t.Errorf("embedded fields should be flattened: %v", decoded)
	}
	gq, _ := decoded["generated_query"].(map[string]any)
	if gq["method"] != "POST" {
		t.Errorf("generated_query = %v", gq)
	}
}

func TestWriteDocuments(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteDocuments(&buf, nil, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No documents indexed.") {
		t.Errorf("empty output = %q", buf.String())
	}

	buf.Reset()
	if err := WriteDocuments(&buf, nil, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "{\n  \"documents\": []\n}" {
		t.Errorf("empty JSON = %q", buf.String())
	}

	buf.Reset()
	docs := []*models.DocumentInfo{{ID: "doc-1", Name: "petstore.json", Type: models.DocumentTypeSwagger, EndpointsCount: 2, ChunkCount: 1, UploadedAt: time.Now()}}
	if err := WriteDocuments(&buf, docs, OutputText); err != nil {
		t.Fatal(err)
	}
	if out := buf.String(); !strings.Contains(out, "doc-1") || !strings.Contains(out, "petstore.json") || !strings.Contains(out, "2 endpoint(s)") {
		t.Errorf("output = %q", out)
	}
}

func TestWriteStatus(t *testing.T) {
	disk := int64(4096)
	s := &Status{
		Version:        "1.0.0",
		Documents:      2,
		Index:          &models.IndexStats{TotalChunks: 5, Backend: "chromem", CollectionName: "api_documentation"},
		DiskUsageBytes: &disk,
		Config:         &StatusConfig{EmbeddingProvider: "hashing", EmbeddingDimensions: 384, Hybrid: true},
	}
	var buf bytes.Buffer
	if err := WriteStatus(&buf, s, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"documents:          2", "chunks:             5", "backend:            chromem", "disk_usage_bytes:   4096", "embedding_dims:     384", "hybrid:             true"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output lacks %q:\n%s", want, out)
		}
	}
}
