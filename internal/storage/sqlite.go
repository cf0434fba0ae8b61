package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/apiquery/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist. ":memory:" opens a private in-memory database.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		endpoints_count INTEGER NOT NULL DEFAULT 0,
		file_size INTEGER NOT NULL DEFAULT 0,
		chunk_count INTEGER NOT NULL DEFAULT 0,
		uploaded_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_uploaded_at ON documents(uploaded_at);

	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		doc_id TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		content TEXT NOT NULL,
		metadata TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_doc_id ON records(doc_id, chunk_index);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveDocument inserts or replaces a registry entry.
func (s *SQLiteStorage) SaveDocument(ctx context.Context, doc *models.DocumentInfo) error {
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO documents (id, name, type, endpoints_count, file_size, chunk_count, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Name, string(doc.Type), doc.EndpointsCount, doc.FileSize, doc.ChunkCount, doc.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("save document %s: %w", doc.ID, err)
	}
	return nil
}

const documentColumns = `id, name, type, endpoints_count, file_size, chunk_count, uploaded_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*models.DocumentInfo, error) {
	var doc models.DocumentInfo
	var typ string
	if err := row.Scan(&doc.ID, &doc.Name, &typ, &doc.EndpointsCount, &doc.FileSize, &doc.ChunkCount, &doc.UploadedAt); err != nil {
		return nil, err
	}
	doc.Type = models.DocumentType(typ)
	return &doc, nil
}

// GetDocument returns a registry entry by id, or ErrNotFound.
func (s *SQLiteStorage) GetDocument(ctx context.Context, id string) (*models.DocumentInfo, error) {
	doc, err := scanDocument(s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocuments returns registry entries, newest first.
func (s *SQLiteStorage) ListDocuments(ctx context.Context, offset, limit int) ([]*models.DocumentInfo, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY uploaded_at DESC, id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.DocumentInfo
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a registry entry. Deleting an unknown id is not an error.
func (s *SQLiteStorage) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	return err
}

// CountDocuments returns the number of registered documents.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// PutRecords upserts records in one transaction.
func (s *SQLiteStorage) PutRecords(ctx context.Context, records []*models.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO records (id, doc_id, chunk_index, content, metadata) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		meta, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.DocID(), r.ChunkOrdinal(), r.Text, string(meta)); err != nil {
			return fmt.Errorf("insert record %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// GetRecords returns the records with the given ids in the order requested. Unknown ids are skipped.
func (s *SQLiteStorage) GetRecords(ctx context.Context, ids []string) ([]*models.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, metadata FROM records WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.Record, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}
	out := make([]*models.Record, 0, len(records))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func scanRecords(rows *sql.Rows) ([]*models.Record, error) {
	defer rows.Close()
	var out []*models.Record
	for rows.Next() {
		var r models.Record
		var meta string
		if err := rows.Scan(&r.ID, &r.Text, &meta); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(meta), &r.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata of %s: %w", r.ID, err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// RecordIDsByDocument returns the record ids of a document ordered by chunk index.
func (s *SQLiteStorage) RecordIDsByDocument(ctx context.Context, docID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM records WHERE doc_id = ? ORDER BY chunk_index`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteRecordsByDocument removes every record of a document and returns how many were removed.
func (s *SQLiteStorage) DeleteRecordsByDocument(ctx context.Context, docID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE doc_id = ?`, docID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountRecords returns the total number of records.
func (s *SQLiteStorage) CountRecords(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&count)
	return count, err
}

// SampleRecords returns up to n records in id order.
func (s *SQLiteStorage) SampleRecords(ctx context.Context, n int) ([]*models.Record, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, content, metadata FROM records ORDER BY id LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
