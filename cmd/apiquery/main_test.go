package main

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hyperjump/apiquery/internal/config"
	"github.com/hyperjump/apiquery/internal/models"
	"github.com/hyperjump/apiquery/internal/search"
	"go.uber.org/zap"
)

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after query are moved first",
			args:     []string{"list all users", "-max-results", "5"},
			expected: []string{"-max-results", "5", "list all users"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-output", "json", "list all users"},
			expected: []string{"-output", "json", "list all users"},
		},
		{
			name:     "query only returns unchanged",
			args:     []string{"list all users"},
			expected: []string{"list all users"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"get", "weather", "-output", "json"},
			expected: []string{"-output", "json", "get", "weather"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := argsReorder(tt.args); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"weather"}, "weather"},
		{"multiple words", []string{"get", "current", "weather"}, "get current weather"},
		{"single quoted phrase", []string{"get current weather"}, "get current weather"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildQuery(tt.args); got != tt.expected {
				t.Errorf("buildQuery(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  port: 8080
storage:
  database_path: "./test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// t.TempDir may sit behind a symlink (macOS /var -> /private/var).
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(configPath, []byte("server:\n  host: 127.0.0.1\n  port: 9000\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Addr() != "127.0.0.1:9000" {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
}

func TestBaseURLRules(t *testing.T) {
	if got := baseURLRules(nil); got != nil {
		t.Errorf("no configured rules should keep the built-in table, got %v", got)
	}
	got := baseURLRules([]config.BaseURLRule{{Match: "billing", URL: "https://billing.example.com"}})
	if len(got) != 1 || got[0].Match != "billing" || got[0].URL != "https://billing.example.com" {
		t.Errorf("baseURLRules = %+v", got)
	}
}

func TestReadQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.json")
	if err := os.WriteFile(path, []byte(`{"method": "GET", "url": "https://api.example.com/users", "confidence": 0.5}`), 0600); err != nil {
		t.Fatal(err)
	}
	q, err := readQuery(path)
	if err != nil {
		t.Fatal(err)
	}
	if q.Method != "GET" || q.Confidence != 0.5 {
		t.Errorf("query = %+v", q)
	}
	if _, err := readQuery(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func testConfig(t *testing.T, backend string, hybrid bool) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Index.Backend = backend
	cfg.Search.Hybrid = hybrid
	cfg.Storage.DatabasePath = filepath.Join(dir, "db", "apiquery.db")
	cfg.Storage.VectorIndexPath = filepath.Join(dir, "vectors.bin")
	cfg.Storage.ChromemPath = filepath.Join(dir, "chromem")
	cfg.Storage.BleveIndexPath = filepath.Join(dir, "bleve")
	cfg.Embedding.Dimensions = 128
	config.ApplyDefaults(cfg)
	return cfg
}

const weatherSpec = `{
  "openapi": "3.0.0",
  "info": {"title": "Weather API", "version": "1"},
  "paths": {"/current": {"get": {"summary": "Get current weather for a city"}}}
}`

func TestInitializeComponents_EndToEnd(t *testing.T) {
	tests := []struct {
		backend string
		hybrid  bool
		method  string
	}{
		{"chromem", false, search.MethodVector},
		{"local", true, search.MethodHybrid},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := testConfig(t, tt.backend, tt.hybrid)
			c, err := initializeComponents(context.Background(), cfg, zap.NewNop())
			if err != nil {
				t.Fatal(err)
			}
			defer c.Close()
			if (c.Keywords != nil) != tt.hybrid {
				t.Errorf("keyword index present = %v, want %v", c.Keywords != nil, tt.hybrid)
			}

			spec := filepath.Join(t.TempDir(), "weather.json")
			if err := os.WriteFile(spec, []byte(weatherSpec), 0600); err != nil {
				t.Fatal(err)
			}
			ctx := context.Background()
			if _, err := c.Indexer.IndexFile(ctx, spec); err != nil {
				t.Fatal(err)
			}

			res, err := c.Generator.Generate(ctx, "Get current weather in Tokyo", 0)
			if err != nil {
				t.Fatal(err)
			}
			if !res.Success || res.RetrievalMethod != tt.method || res.ContextUsed != 1 {
				t.Errorf("result = %+v", res)
			}
			if res.GeneratedQuery.Source != models.SourceContentFallback {
				t.Errorf("source = %s", res.GeneratedQuery.Source)
			}

			s, err := localStatus(ctx, cfg, c)
			if err != nil {
				t.Fatal(err)
			}
			if s.Documents != 1 || s.Index.TotalChunks != 1 || s.Index.Backend != tt.backend || s.DiskUsageBytes == nil {
				t.Errorf("status = %+v", s)
			}
		})
	}
}

func TestInitializeComponents_UnknownBackend(t *testing.T) {
	cfg := testConfig(t, "faiss", false)
	if _, err := initializeComponents(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Error("expected error for an unknown index backend")
	}
}
