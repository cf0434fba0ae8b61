package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/apiquery/internal/config"
	"github.com/hyperjump/apiquery/internal/extract"
	"github.com/hyperjump/apiquery/internal/index"
	"github.com/hyperjump/apiquery/internal/models"
	"github.com/hyperjump/apiquery/internal/querygen"
	"github.com/hyperjump/apiquery/internal/storage"
	"github.com/hyperjump/apiquery/pkg/utils"
	"go.uber.org/zap"
)

// maxUploadBytes bounds the size of an uploaded spec.
const maxUploadBytes = 32 << 20

// chunkPreviewLen is how much of each chunk the chunks endpoint shows.
const chunkPreviewLen = 200

type generateRequest struct {
	Query              string `json:"query"`
	MaxContext         int    `json:"max_context"`
	IncludeExplanation *bool  `json:"include_explanation,omitempty"`
}

type generateResponse struct {
	Success           bool                      `json:"success"`
	UserQuery         string                    `json:"user_query"`
	GeneratedQuery    *models.GeneratedQuery    `json:"generated_query,omitempty"`
	ContextUsed       int                       `json:"context_used"`
	RelevantDocuments []models.RelevantDocument `json:"relevant_documents"`
	RetrievalMethod   string                    `json:"retrieval_method,omitempty"`
	AlternateQuery    string                    `json:"alternate_query,omitempty"`
	Explanation       string                    `json:"explanation,omitempty"`
	Error             string                    `json:"error,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("generate request", zap.String("query", req.Query), zap.Int("max_context", req.MaxContext))
	res, err := s.generator.Generate(r.Context(), req.Query, req.MaxContext)
	switch {
	case errors.Is(err, querygen.ErrEmptyQuery):
		s.respondError(w, http.StatusBadRequest, "Query cannot be empty")
		return
	case err != nil:
		s.logger.Warn("generate aborted", zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, "Failed to generate query: "+err.Error())
		return
	}
	resp := generateResponse{
		Success:           res.Success,
		UserQuery:         res.UserQuery,
		ContextUsed:       res.ContextUsed,
		RelevantDocuments: res.RelevantDocuments,
		RetrievalMethod:   res.RetrievalMethod,
		AlternateQuery:    res.AlternateQuery,
		Error:             res.Error,
	}
	if res.Success {
		resp.GeneratedQuery = res.GeneratedQuery
		if req.IncludeExplanation == nil || *req.IncludeExplanation {
			resp.Explanation = querygen.Explain(res.GeneratedQuery)
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var gq models.GeneratedQuery
	if err := json.NewDecoder(r.Body).Decode(&gq); err != nil {
		s.respondError(w, http.StatusBadRequest, "Failed to explain query: "+err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"query":       &gq,
		"explanation": querygen.Explain(&gq),
		"success":     true,
	})
}

func (s *Server) handleExamples(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, querygen.Examples())
}

func (s *Server) handleQueryHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.index.Stats(r.Context())
	if stats.Error != "" {
		s.respondJSON(w, http.StatusOK, map[string]any{
			"status":  "unhealthy",
			"service": "query_generation",
			"error":   stats.Error,
		})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":              "healthy",
		"service":             "query_generation",
		"vector_store_status": "connected",
		"available_documents": stats.TotalChunks,
		"rag_service":         "operational",
		"index":               stats,
	})
}

type uploadResponse struct {
	ID              string              `json:"id"`
	Message         string              `json:"message"`
	Type            models.DocumentType `json:"type"`
	EndpointsParsed int                 `json:"endpoints_parsed"`
	FileSize        int64               `json:"file_size"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		s.respondError(w, http.StatusBadRequest, "No file provided")
		return
	}
	if !extract.IsSupported(name) {
		s.respondError(w, http.StatusBadRequest, "Unsupported file format. Please upload JSON or YAML files.")
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		s.respondError(w, http.StatusRequestEntityTooLarge, "upload too large or unreadable")
		return
	}
	doc, err := extract.Load(name, data)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("upload request", zap.String("name", name), zap.Int("bytes", len(data)))
	res, err := s.indexer.IndexDocument(r.Context(), doc)
	if err != nil {
		s.logger.Error("indexing failed", zap.String("name", name), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Error processing file: "+err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, uploadResponse{
		ID:              doc.ID,
		Message:         fmt.Sprintf("Successfully uploaded, parsed, and processed %s into %d chunks", name, res.Chunks),
		Type:            doc.Type,
		EndpointsParsed: doc.EndpointsCount,
		FileSize:        doc.FileSize,
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if offset < 0 {
		offset = 0
	}
	docs, err := s.docs.ListDocuments(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if docs == nil {
		docs = []*models.DocumentInfo{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// lookup writes the error response and returns nil when the document cannot be read.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) *models.DocumentInfo {
	id := chi.URLParam(r, "id")
	doc, err := s.docs.GetDocument(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "Documentation not found")
		return nil
	}
	if err != nil {
		s.logger.Error("get document failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return nil
	}
	return doc
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	if doc := s.lookup(w, r); doc != nil {
		s.respondJSON(w, http.StatusOK, doc)
	}
}

type chunkView struct {
	ChunkID  string            `json:"chunk_id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

func (s *Server) handleDocumentChunks(w http.ResponseWriter, r *http.Request) {
	doc := s.lookup(w, r)
	if doc == nil {
		return
	}
	ids := make([]string, doc.ChunkCount)
	for i := range ids {
		ids[i] = index.RecordID(doc.ID, i)
	}
	records := s.index.Get(r.Context(), ids)
	chunks := make([]chunkView, len(records))
	for i, rec := range records {
		chunks[i] = chunkView{
			ChunkID:  rec.Metadata[models.MetaChunkID],
			Content:  utils.Truncate(rec.Text, chunkPreviewLen),
			Metadata: rec.Metadata,
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"doc_id":       doc.ID,
		"total_chunks": len(chunks),
		"chunks":       chunks,
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	doc := s.lookup(w, r)
	if doc == nil {
		return
	}
	s.logger.Debug("delete document request", zap.String("id", doc.ID))
	if err := s.indexer.DeleteDocument(r.Context(), doc.ID); err != nil {
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Successfully deleted " + doc.Name})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy", "message": "API is operational"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount, err := s.docs.CountDocuments(ctx)
	if err != nil {
		s.logger.Error("status: count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]any{
		"version":        s.version,
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"documents":      docCount,
		"index":          s.index.Stats(ctx),
	}
	if cfg := s.snapshotConfig(); cfg != nil {
		resp["config"] = map[string]any{
			"index_backend":        cfg.Index.Backend,
			"embedding_provider":   cfg.Embedding.Provider,
			"embedding_dimensions": cfg.Embedding.Dimensions,
			"chunk_size":           cfg.Search.ChunkSize,
			"chunk_overlap":        cfg.Search.ChunkOverlap,
			"hybrid":               cfg.Search.Hybrid,
			"database_path":        cfg.Storage.DatabasePath,
		}
		diskBytes, err := storage.DiskUsageBytes(
			cfg.Storage.DatabasePath,
			cfg.Storage.VectorIndexPath,
			cfg.Storage.ChromemPath,
			cfg.Storage.BleveIndexPath,
		)
		if err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) snapshotConfig() *config.Config {
	s.appConfigMu.Lock()
	defer s.appConfigMu.Unlock()
	if s.appConfig == nil {
		return nil
	}
	cfg := *s.appConfig
	return &cfg
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"directories": s.watch.Directories()})
}

type watchAddRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := true
	if req.Sync != nil {
		syncExisting = *req.Sync
	}
	s.logger.Debug("watch add directory request", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.logger.Error("watch add directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var body struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.Path != "" {
			path = body.Path
		}
	}
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required (query or body)")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	s.logger.Debug("watch remove directory request", zap.String("path", abs))
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.logger.Error("watch remove directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

// persistWatchDirectories writes the current watch roots back to the config file.
func (s *Server) persistWatchDirectories() {
	if s.configPath == "" || s.appConfig == nil {
		return
	}
	s.appConfigMu.Lock()
	s.appConfig.Watch.Directories = s.watch.Directories()
	err := config.Save(s.configPath, s.appConfig)
	s.appConfigMu.Unlock()
	if err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
