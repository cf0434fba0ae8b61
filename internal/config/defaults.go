package config

import "time"

const dataDir = "/usr/local/var/apiquery/data"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = dataDir + "/db/apiquery.db"
	}
	if cfg.Storage.VectorIndexPath == "" {
		cfg.Storage.VectorIndexPath = dataDir + "/indices/vectors.bin"
	}
	if cfg.Storage.ChromemPath == "" {
		cfg.Storage.ChromemPath = dataDir + "/indices/chromem"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = dataDir + "/indices/bleve"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "hashing"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = dataDir + "/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Index.Backend == "" {
		cfg.Index.Backend = "chromem"
	}
	if cfg.Index.CollectionName == "" {
		cfg.Index.CollectionName = "api_documentation"
	}
	if cfg.Index.OpTimeout == 0 {
		cfg.Index.OpTimeout = 5 * time.Second
	}
	if cfg.Index.StatsSampleSize == 0 {
		cfg.Index.StatsSampleSize = 10
	}
	if cfg.Search.ChunkSize == 0 {
		cfg.Search.ChunkSize = 1000
	}
	if cfg.Search.ChunkOverlap == 0 {
		cfg.Search.ChunkOverlap = 200
	}
	if cfg.Search.DefaultMaxResults == 0 {
		cfg.Search.DefaultMaxResults = 3
	}
	if cfg.Search.MaxResultsLimit == 0 {
		cfg.Search.MaxResultsLimit = 20
	}
	if cfg.Search.KeywordWeight == 0 && cfg.Search.SemanticWeight == 0 {
		cfg.Search.KeywordWeight = 0.4
		cfg.Search.SemanticWeight = 0.6
	}
	cfg.Matching.ApplyDefaults()
	if cfg.Synthesis.DefaultBaseURL == "" {
		cfg.Synthesis.DefaultBaseURL = "https://api.example.com"
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".json", ".yaml", ".yml"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
