package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperjump/apiquery/internal/models"
)

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/query/generate", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query      string `json:"query"`
			MaxContext int    `json:"max_context"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || r.Method != http.MethodPost {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Query) == "" {
			http.Error(w, `{"error":"Query cannot be empty"}`, http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":            true,
			"user_query":         req.Query,
			"context_used":       req.MaxContext,
			"relevant_documents": []any{},
			"generated_query":    map[string]any{"method": "GET", "url": "https://api.example.com/search", "confidence": 0.1},
			"explanation":        "API Query Explanation:",
		})
	})
	mux.HandleFunc("/api/v1/query/explain", func(w http.ResponseWriter, r *http.Request) {
		var q models.GeneratedQuery
		_ = json.NewDecoder(r.Body).Decode(&q)
		_ = json.NewEncoder(w).Encode(map[string]any{"explanation": "explained " + q.Method, "success": true})
	})
	mux.HandleFunc("/api/v1/status", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version":"1.0.0","documents":3,"index":{"total_chunks":7,"backend":"local"},"disk_usage_bytes":10,"config":{"index_backend":"local","hybrid":true}}`))
	})
	mux.HandleFunc("/api/v1/documents", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"documents":[{"id":"a","name":"a.json","type":"openapi","chunk_count":2}]}`))
	})
	var watched []string
	mux.HandleFunc("/api/v1/watch/directories", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{"directories": watched})
		case http.MethodPost:
			var req struct {
				Path string `json:"path"`
				Sync bool   `json:"sync"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			watched = append(watched, req.Path)
			w.WriteHeader(http.StatusCreated)
		case http.MethodDelete:
			if r.URL.Query().Get("path") == "" {
				http.Error(w, "path is required", http.StatusBadRequest)
				return
			}
			watched = nil
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Generate(t *testing.T) {
	c := NewClient(newTestAPI(t).URL + "/")
	res, err := c.Generate(context.Background(), "search users", 4)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.UserQuery != "search users" || res.ContextUsed != 4 {
		t.Errorf("result = %+v", res)
	}
	if res.GeneratedQuery.URL != "https://api.example.com/search" || res.Explanation != "API Query Explanation:" {
		t.Errorf("generated = %+v, explanation %q", res.GeneratedQuery, res.Explanation)
	}

	_, err = c.Generate(context.Background(), " ", 0)
	if err == nil || !strings.Contains(err.Error(), "server returned 400") || !strings.Contains(err.Error(), "Query cannot be empty") {
		t.Errorf("blank query error = %v", err)
	}
}

func TestClient_ExplainStatusDocuments(t *testing.T) {
	c := NewClient(newTestAPI(t).URL)
	ctx := context.Background()

	text, err := c.Explain(ctx, &models.GeneratedQuery{Method: "DELETE"})
	if err != nil || text != "explained DELETE" {
		t.Errorf("Explain = %q, %v", text, err)
	}

	s, err := c.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.Documents != 3 || s.Index.TotalChunks != 7 || *s.DiskUsageBytes != 10 || !s.Config.Hybrid {
		t.Errorf("status = %+v", s)
	}

	docs, err := c.Documents(ctx)
	if err != nil || len(docs) != 1 || docs[0].ChunkCount != 2 {
		t.Errorf("Documents = %+v, %v", docs, err)
	}
}

func TestClient_Watch(t *testing.T) {
	c := NewClient(newTestAPI(t).URL)
	ctx := context.Background()
	if err := c.WatchAdd(ctx, "/tmp/specs"); err != nil {
		t.Fatal(err)
	}
	dirs, err := c.WatchList(ctx)
	if err != nil || len(dirs) != 1 || dirs[0] != "/tmp/specs" {
		t.Errorf("WatchList = %v, %v", dirs, err)
	}
	if err := c.WatchRemove(ctx, "/tmp/specs"); err != nil {
		t.Fatal(err)
	}
	if dirs, _ := c.WatchList(ctx); len(dirs) != 0 {
		t.Errorf("after remove = %v", dirs)
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	if _, err := NewClient(url).Status(context.Background()); err == nil || !strings.Contains(err.Error(), "request failed") {
		t.Errorf("err = %v", err)
	}
}
