package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/apiquery/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "db", "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStorage_Documents(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	doc := &models.DocumentInfo{
		ID:             "doc1",
		Name:           "petstore.json",
		Type:           models.DocumentTypeOpenAPI,
		EndpointsCount: 19,
		FileSize:       1234,
		ChunkCount:     4,
		UploadedAt:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if err := store.SaveDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetDocument(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "petstore.json" || got.Type != models.DocumentTypeOpenAPI || got.EndpointsCount != 19 || got.ChunkCount != 4 {
		t.Errorf("got %+v", got)
	}

	doc.ChunkCount = 5
	if err := store.SaveDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	list, err := store.ListDocuments(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ChunkCount != 5 {
		t.Errorf("expected one replaced doc, got %+v", list)
	}

	if err := store.DeleteDocument(ctx, "doc1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetDocument(ctx, "doc1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if n, _ := store.CountDocuments(ctx); n != 0 {
		t.Errorf("CountDocuments = %d", n)
	}
}

func record(docID, ordinal, text string) *models.Record {
	return &models.Record{
		ID:   docID + "_chunk_" + ordinal,
		Text: text,
		Metadata: map[string]string{
			models.MetaDocID:   docID,
			models.MetaChunkID: ordinal,
		},
	}
}

func TestSQLiteStorage_Records(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	records := []*models.Record{
		record("a", "1", "second"),
		record("a", "0", "first"),
		record("b", "0", "other"),
	}
	if err := store.PutRecords(ctx, records); err != nil {
		t.Fatal(err)
	}
	if n, _ := store.CountRecords(ctx); n != 3 {
		t.Errorf("CountRecords = %d", n)
	}

	ids, err := store.RecordIDsByDocument(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "a_chunk_0" || ids[1] != "a_chunk_1" {
		t.Errorf("RecordIDsByDocument = %v", ids)
	}

	got, err := store.GetRecords(ctx, []string{"b_chunk_0", "missing", "a_chunk_0"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Text != "other" || got[1].Text != "first" {
		t.Errorf("GetRecords kept order and skipped unknown ids? got %+v", got)
	}
	if got[1].DocID() != "a" {
		t.Errorf("metadata not restored: %v", got[1].Metadata)
	}

	sample, err := store.SampleRecords(ctx, 2)
	if err != nil || len(sample) != 2 {
		t.Errorf("SampleRecords = %d, %v", len(sample), err)
	}

	n, err := store.DeleteRecordsByDocument(ctx, "a")
	if err != nil || n != 2 {
		t.Errorf("DeleteRecordsByDocument = %d, %v", n, err)
	}
	n, err = store.DeleteRecordsByDocument(ctx, "a")
	if err != nil || n != 0 {
		t.Errorf("second delete = %d, %v", n, err)
	}
}

func TestSQLiteStorage_InMemory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if err := store.PutRecords(context.Background(), []*models.Record{record("m", "0", "x")}); err != nil {
		t.Fatal(err)
	}
	if n, _ := store.CountRecords(context.Background()); n != 1 {
		t.Errorf("CountRecords = %d", n)
	}
}
