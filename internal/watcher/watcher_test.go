package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/apiquery/internal/embedding"
	"github.com/hyperjump/apiquery/internal/index"
	"github.com/hyperjump/apiquery/internal/indexer"
	"github.com/hyperjump/apiquery/internal/storage"
)

const specJSON = `{"openapi": "3.0.0", "info": {"title": "Users"}, "paths": {"/users": {"get": {"summary": "List users"}}}}`

type recordingSink struct {
	mu      sync.Mutex
	indexed []string
	deleted []string
}

func (s *recordingSink) IndexFile(_ context.Context, path string) (*indexer.IngestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexed = append(s.indexed, path)
	return &indexer.IngestResult{Chunks: 1}, nil
}

func (s *recordingSink) DeleteFile(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, path)
	return nil
}

func (s *recordingSink) snapshot() (indexed, deleted []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.indexed...), append([]string(nil), s.deleted...)
}

func hasSuffix(paths []string, suffix string) bool {
	for _, p := range paths {
		if strings.HasSuffix(p, suffix) {
			return true
		}
	}
	return false
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func startWatcher(t *testing.T, sink Sink, roots []string, opts ...Option) *Watcher {
	t.Helper()
	opts = append([]Option{WithDebounce(50 * time.Millisecond)}, opts...)
	w := New(sink, roots, opts...)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Stop)
	return w
}

func TestWatcher_AddRemoveDirectories(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, &recordingSink{}, nil)

	if err := w.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	if err := w.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	dirs := w.Directories()
	if len(dirs) != 1 || filepath.Clean(dirs[0]) != filepath.Clean(dir) {
		t.Errorf("Directories() = %v", dirs)
	}
	if err := w.RemoveDirectory(dir); err != nil {
		t.Fatal(err)
	}
	if len(w.Directories()) != 0 {
		t.Errorf("after remove: %v", w.Directories())
	}
}

func TestWatcher_IndexesAndRemovesSpecFiles(t *testing.T) {
	dir := t.TempDir()
	sink := &recordingSink{}
	startWatcher(t, sink, []string{dir})

	spec := filepath.Join(dir, "users.json")
	if err := os.WriteFile(spec, []byte(specJSON), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0600); err != nil {
		t.Fatal(err)
	}
	if !eventually(t, func() bool { idx, _ := sink.snapshot(); return hasSuffix(idx, "users.json") }) {
		t.Fatal("users.json was not indexed")
	}

	if err := os.Remove(spec); err != nil {
		t.Fatal(err)
	}
	if !eventually(t, func() bool { _, del := sink.snapshot(); return hasSuffix(del, "users.json") }) {
		t.Fatal("users.json was not removed")
	}
	indexed, deleted := sink.snapshot()
	if hasSuffix(indexed, "notes.txt") || hasSuffix(deleted, "notes.txt") {
		t.Errorf("non-spec file reached the sink: %v %v", indexed, deleted)
	}
}

func TestWatcher_RenameRemovesOldName(t *testing.T) {
	dir := t.TempDir()
	spec := filepath.Join(dir, "old.yaml")
	if err := os.WriteFile(spec, []byte("openapi: 3.0.0\n"), 0600); err != nil {
		t.Fatal(err)
	}
	sink := &recordingSink{}
	startWatcher(t, sink, []string{dir})

	if err := os.Rename(spec, filepath.Join(dir, "new.yaml")); err != nil {
		t.Fatal(err)
	}
	if !eventually(t, func() bool {
		idx, del := sink.snapshot()
		return hasSuffix(del, "old.yaml") && hasSuffix(idx, "new.yaml")
	}) {
		idx, del := sink.snapshot()
		t.Errorf("rename: indexed %v, deleted %v", idx, del)
	}
}

func TestWatcher_DebounceCoalescesWrites(t *testing.T) {
	dir := t.TempDir()
	sink := &recordingSink{}
	startWatcher(t, sink, []string{dir}, WithDebounce(300*time.Millisecond))

	spec := filepath.Join(dir, "api.json")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(spec, []byte(specJSON), 0600); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !eventually(t, func() bool { idx, _ := sink.snapshot(); return len(idx) > 0 }) {
		t.Fatal("api.json was not indexed")
	}
	time.Sleep(400 * time.Millisecond)
	if idx, _ := sink.snapshot(); len(idx) != 1 {
		t.Errorf("bursty writes should index once, got %v", idx)
	}
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.json", []string{".json"}, true},
		{"/a/b.YAML", []string{".yaml"}, true},
		{"/a/b.yml", []string{"yml"}, true},
		{"/a/b.md", []string{".json"}, false},
		{"/a/b", nil, true},
		{"/a/b", []string{}, true},
	}
	for _, tt := range tests {
		if got := matchExtension(tt.path, tt.extensions); got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir  string
		path string
		want bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/b.json", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
	}
	for _, tt := range tests {
		if got := inDir(tt.dir, tt.path); got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}

func TestWatcher_SyncExistingFiles(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{"a.json": specJSON, "b.yml": "openapi: 3.0.0\n", "ignore.xyz": "x"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0600); err != nil {
			t.Fatal(err)
		}
	}
	sink := &recordingSink{}
	w := startWatcher(t, sink, []string{dir})
	w.SyncExistingFiles()

	indexed, _ := sink.snapshot()
	if len(indexed) != 2 || !hasSuffix(indexed, "a.json") || !hasSuffix(indexed, "b.yml") {
		t.Errorf("indexed = %v", indexed)
	}
}

func TestWatcher_SyncExistingFiles_NonRecursive(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "nested")
	if err := os.Mkdir(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "top.json"), []byte(specJSON), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nested, "deep.json"), []byte(specJSON), 0600); err != nil {
		t.Fatal(err)
	}
	sink := &recordingSink{}
	w := startWatcher(t, sink, []string{dir}, WithRecursive(false))
	w.SyncExistingFiles()

	indexed, _ := sink.snapshot()
	if len(indexed) != 1 || !hasSuffix(indexed, "top.json") {
		t.Errorf("indexed = %v", indexed)
	}
}

func TestWatcher_Start_CreatesMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "watch", "me")
	startWatcher(t, &recordingSink{}, []string{root})
	if _, err := os.Stat(root); err != nil {
		t.Errorf("root directory should exist after Start: %v", err)
	}
}

func TestWatcher_NewDirectoryIsIndexed(t *testing.T) {
	dir := t.TempDir()
	sink := &recordingSink{}
	startWatcher(t, sink, []string{dir})

	nested := filepath.Join(dir, "level1", "level2")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nested, "deep.json"), []byte(specJSON), 0600); err != nil {
		t.Fatal(err)
	}
	if !eventually(t, func() bool { idx, _ := sink.snapshot(); return hasSuffix(idx, "deep.json") }) {
		idx, _ := sink.snapshot()
		t.Errorf("expected deep.json to be indexed, got %v", idx)
	}
}

func TestWatcher_FeedsIndexer(t *testing.T) {
	dir := t.TempDir()
	embedder := embedding.NewHashingEmbedder(64, 0)
	backend, err := index.NewChromemBackend("", "watch", embedder)
	if err != nil {
		t.Fatal(err)
	}
	x := index.New(backend, embedder)
	defer x.Close()
	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ix := indexer.NewIndexer(x, indexer.WithDocumentStore(store))
	startWatcher(t, ix, []string{dir})

	spec := filepath.Join(dir, "users.json")
	if err := os.WriteFile(spec, []byte(specJSON), 0600); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if !eventually(t, func() bool { n, _ := store.CountDocuments(ctx); return n == 1 }) {
		t.Fatal("document was not registered")
	}
	if stats := x.Stats(ctx); stats.TotalChunks != 1 {
		t.Errorf("index chunks = %d", stats.TotalChunks)
	}

	if err := os.Remove(spec); err != nil {
		t.Fatal(err)
	}
	if !eventually(t, func() bool { n, _ := store.CountDocuments(ctx); return n == 0 }) {
		t.Error("document was not removed")
	}
}
