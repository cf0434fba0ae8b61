// Package config provides configuration loading and structs for the apiquery server and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/apiquery/internal/ranking"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool                `yaml:"debug"`
	Server    ServerConfig        `yaml:"server"`
	Storage   StorageConfig       `yaml:"storage"`
	Embedding EmbeddingConfig     `yaml:"embedding"`
	Index     IndexConfig         `yaml:"index"`
	Search    SearchConfig        `yaml:"search"`
	Matching  ranking.MatchConfig `yaml:"matching"`
	Synthesis SynthesisConfig     `yaml:"synthesis"`
	Watch     WatchConfig         `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig holds paths for the registry database and the indices.
type StorageConfig struct {
	DatabasePath    string `yaml:"database_path"`
	VectorIndexPath string `yaml:"vector_index_path"`
	ChromemPath     string `yaml:"chromem_path"`
	BleveIndexPath  string `yaml:"bleve_index_path"`
}

// EmbeddingConfig selects and sizes the embedder.
type EmbeddingConfig struct {
	// Provider is "hashing" or "onnx".
	Provider   string `yaml:"provider"`
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// IndexConfig configures the embedding index.
type IndexConfig struct {
	// Backend is "chromem" or "local".
	Backend         string        `yaml:"backend"`
	CollectionName  string        `yaml:"collection_name"`
	OpTimeout       time.Duration `yaml:"op_timeout"`
	StatsSampleSize int           `yaml:"stats_sample_size"`
}

// SearchConfig holds chunking and retrieval settings.
type SearchConfig struct {
	ChunkSize         int  `yaml:"chunk_size"`
	ChunkOverlap      int  `yaml:"chunk_overlap"`
	DefaultMaxResults int  `yaml:"default_max_results"`
	MaxResultsLimit   int  `yaml:"max_results_limit"`
	Hybrid            bool `yaml:"hybrid"`
	// Fusion weights for hybrid retrieval; normalized to sum to 1.
	KeywordWeight  float64 `yaml:"keyword_weight"`
	SemanticWeight float64 `yaml:"semantic_weight"`
}

// BaseURLRule maps document names containing Match to a base URL.
type BaseURLRule struct {
	Match string `yaml:"match"`
	URL   string `yaml:"url"`
}

// SynthesisConfig configures call synthesis.
type SynthesisConfig struct {
	// BaseURLs replaces the built-in base URL table when set.
	BaseURLs       []BaseURLRule `yaml:"base_urls"`
	DefaultBaseURL string        `yaml:"default_base_url"`
}

// WatchConfig holds directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, applies defaults and expands paths.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.VectorIndexPath = expandPath(cfg.Storage.VectorIndexPath, configDir)
	cfg.Storage.ChromemPath = expandPath(cfg.Storage.ChromemPath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths and ":memory:" are kept.
func expandPath(path string, configDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
