// Package main is the apiquery CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/apiquery/internal/cli"
	"github.com/hyperjump/apiquery/internal/config"
	"github.com/hyperjump/apiquery/internal/models"
	"github.com/hyperjump/apiquery/internal/querygen"
	"github.com/hyperjump/apiquery/internal/server"
	"github.com/hyperjump/apiquery/internal/storage"
	"github.com/hyperjump/apiquery/internal/watcher"
	"github.com/hyperjump/apiquery/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/apiquery/config.yaml"
	defaultServerURL  = "http://localhost:8000"
)

// loadConfig loads config from path. When path is the default and ./config.yaml exists,
// that file wins so commands run from a project directory use the project's config.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				cfg, err := config.Load(fallback)
				if err != nil {
					return nil, "", err
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "generate":
		runGenerate()
	case "explain":
		runExplain()
	case "examples":
		runExamples()
	case "index":
		runIndex()
	case "delete":
		runDelete()
	case "documents":
		runDocuments()
	case "watch":
		runWatch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("apiquery version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// setup loads config, builds the logger and initializes every component.
func setup(configPath string, debugFlag bool) (*config.Config, string, *zap.Logger, *Components) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fail("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fail("Failed to create logger: %v", err)
	}
	logger.Info("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))
	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return cfg, resolved, logger, components
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, logger, components := setup(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()

	watchSvc := watcher.New(components.Indexer, cfg.Watch.Directories,
		watcher.WithExtensions(cfg.Watch.Extensions),
		watcher.WithRecursive(cfg.Watch.RecursiveOrDefault()),
		watcher.WithLogger(logger),
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	go watchSvc.SyncExistingFiles()

	srv := server.NewServer(
		components.Generator,
		components.Indexer,
		components.Index,
		components.Storage,
		&cfg.Server,
		logger,
		server.WithMetrics(components.Metrics),
		server.WithWatch(watchSvc, resolvedConfigPath, cfg),
		server.WithVersion(version),
	)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildQuery joins the positional args so multi-word queries work with or without quotes.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves flags that follow the query to the front so flag.Parse sees them;
// the flag package stops at the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func outputFormat(s string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(s)
	if err != nil {
		fail("%v", err)
	}
	return format
}

func runGenerate() {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (used when --server is empty)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use local storage when the server is not running)")
	maxResults := fs.Int("max-results", 0, "retrieval depth (0 = configured default)")
	noExplain := fs.Bool("no-explain", false, "omit the explanation")
	output := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: apiquery generate [flags] <request>\n\n")
		fs.PrintDefaults()
		fmt.Fprintf(fs.Output(), "\nExamples:\n  apiquery generate Get current weather in Tokyo\n  apiquery generate --output json \"Find pets with status available\"\n")
	}
	_ = fs.Parse(argsReorder(os.Args[2:]))
	query := buildQuery(fs.Args())
	if query == "" {
		fs.Usage()
		os.Exit(1)
	}
	format := outputFormat(*output)

	ctx := context.Background()
	var res *cli.GenerateResponse
	if *serverURL != "" {
		// The server holds the index files; going through it avoids lock conflicts.
		r, err := cli.NewClient(*serverURL).Generate(ctx, query, *maxResults)
		if err != nil {
			fail("Generate failed: %v", err)
		}
		res = r
	} else {
		_, _, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		r, err := components.Generator.Generate(ctx, query, *maxResults)
		if err != nil {
			fail("Generate failed: %v", err)
		}
		res = &cli.GenerateResponse{GenerateResult: *r}
		if r.Success {
			res.Explanation = querygen.Explain(r.GeneratedQuery)
		}
	}
	if *noExplain {
		res.Explanation = ""
	}
	if err := cli.WriteGenerateResult(os.Stdout, res, format); err != nil {
		fail("Output failed: %v", err)
	}
}

// readQuery decodes a generated query from path, or stdin when path is "-".
func readQuery(path string) (*models.GeneratedQuery, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var q models.GeneratedQuery
	if err := json.NewDecoder(r).Decode(&q); err != nil {
		return nil, fmt.Errorf("decode query: %w", err)
	}
	return &q, nil
}

func runExplain() {
	fs := flag.NewFlagSet("explain", flag.ExitOnError)
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() < 1 {
		fmt.Println("Usage: apiquery explain <query.json|->")
		os.Exit(1)
	}
	q, err := readQuery(fs.Arg(0))
	if err != nil {
		fail("Failed to read query: %v", err)
	}
	fmt.Println(querygen.Explain(q))
}

func runExamples() {
	set := querygen.Examples()
	for _, cat := range set.Examples {
		fmt.Printf("%s:\n", cat.Category)
		for _, q := range cat.Queries {
			fmt.Printf("  %s\n", q)
		}
	}
	fmt.Println("\nTips:")
	for _, tip := range set.Tips {
		fmt.Printf("  - %s\n", tip)
	}
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	recursive := fs.Bool("recursive", true, "descend into subdirectories")
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() < 1 {
		fmt.Println("Usage: apiquery index [flags] <file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, _, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fail("Failed to stat path: %v", err)
	}
	if info.IsDir() {
		n, err := components.Indexer.IndexDirectory(ctx, path, cfg.Watch.Extensions, *recursive)
		fmt.Printf("Indexed %d file(s) from %s\n", n, path)
		if err != nil {
			fail("Some files failed:\n%v", err)
		}
		return
	}
	res, err := components.Indexer.IndexFile(ctx, path)
	if err != nil {
		fail("Indexing failed: %v", err)
	}
	fmt.Printf("Document indexed successfully: %s (%s, %d endpoint(s), %d chunk(s))\n",
		res.Document.ID, res.Document.Type, res.Document.EndpointsCount, res.Chunks)
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() < 1 {
		fmt.Println("Usage: apiquery delete [flags] <document-id>")
		os.Exit(1)
	}
	docID := fs.Arg(0)

	_, _, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	if err := components.Indexer.DeleteDocument(context.Background(), docID); err != nil {
		fail("Deletion failed: %v", err)
	}
	fmt.Printf("Document deleted: %s\n", docID)
}

func runDocuments() {
	fs := flag.NewFlagSet("documents", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (used when --server is empty)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use local storage)")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := outputFormat(*output)

	ctx := context.Background()
	var docs []*models.DocumentInfo
	if *serverURL != "" {
		d, err := cli.NewClient(*serverURL).Documents(ctx)
		if err != nil {
			fail("List failed: %v", err)
		}
		docs = d
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fail("Failed to load config: %v", err)
		}
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			fail("Failed to open storage: %v", err)
		}
		defer store.Close()
		docs, err = store.ListDocuments(ctx, 0, 0)
		if err != nil {
			fail("List failed: %v", err)
		}
	}
	if err := cli.WriteDocuments(os.Stdout, docs, format); err != nil {
		fail("Output failed: %v", err)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (used when --server is empty)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use local storage)")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := outputFormat(*output)

	ctx := context.Background()
	var status *cli.Status
	if *serverURL != "" {
		s, err := cli.NewClient(*serverURL).Status(ctx)
		if err != nil {
			fail("Status failed: %v", err)
		}
		status = s
	} else {
		cfg, _, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		s, err := localStatus(ctx, cfg, components)
		if err != nil {
			fail("Status failed: %v", err)
		}
		status = s
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fail("Output failed: %v", err)
	}
}

func localStatus(ctx context.Context, cfg *config.Config, c *Components) (*cli.Status, error) {
	docCount, err := c.Storage.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	s := &cli.Status{
		Version:   version,
		Documents: docCount,
		Index:     c.Index.Stats(ctx),
		Config: &cli.StatusConfig{
			IndexBackend:        cfg.Index.Backend,
			EmbeddingProvider:   cfg.Embedding.Provider,
			EmbeddingDimensions: cfg.Embedding.Dimensions,
			ChunkSize:           cfg.Search.ChunkSize,
			ChunkOverlap:        cfg.Search.ChunkOverlap,
			Hybrid:              cfg.Search.Hybrid,
			DatabasePath:        cfg.Storage.DatabasePath,
		},
	}
	diskBytes, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.VectorIndexPath,
		cfg.Storage.ChromemPath, cfg.Storage.BleveIndexPath)
	if err == nil {
		s.DiskUsageBytes = &diskBytes
	}
	return s, nil
}

func runWatch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: apiquery watch <add|remove|list> [path]")
		fmt.Println("  apiquery watch add <path>     Add directory to watch")
		fmt.Println("  apiquery watch remove <path>  Remove directory from watch")
		fmt.Println("  apiquery watch list           List watched directories")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	_ = fs.Parse(os.Args[3:])
	client := cli.NewClient(*serverURL)
	ctx := context.Background()

	switch sub {
	case "add", "remove":
		if fs.NArg() < 1 {
			fmt.Printf("Usage: apiquery watch %s <path>\n", sub)
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		if sub == "add" {
			if err := client.WatchAdd(ctx, path); err != nil {
				fail("Add failed: %v", err)
			}
			fmt.Printf("Added: %s\n", path)
			return
		}
		if err := client.WatchRemove(ctx, path); err != nil {
			fail("Remove failed: %v", err)
		}
		fmt.Printf("Removed: %s\n", path)
	case "list":
		dirs, err := client.WatchList(ctx)
		if err != nil {
			fail("List failed: %v", err)
		}
		for _, d := range dirs {
			fmt.Println(d)
		}
	default:
		fail("Unknown watch subcommand: %s", sub)
	}
}

func printUsage() {
	fmt.Println(`apiquery - Turn natural-language requests into HTTP API calls using indexed API docs

Usage:
  apiquery server [flags]                Start the HTTP server
  apiquery generate [flags] <request>    Generate an API call for a request
  apiquery explain <query.json|->        Explain a generated query
  apiquery examples                      Show example requests
  apiquery index [flags] <file-or-dir>   Index OpenAPI, Swagger or Postman documents
  apiquery delete [flags] <id>           Delete a document
  apiquery documents [flags]             List indexed documents
  apiquery status [flags]                Show index and storage status
  apiquery watch <add|remove|list>       Manage watched directories
  apiquery version                       Show version
  apiquery help                          Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/apiquery/config.yaml)
  --debug            Enable debug logging

Generate Flags:
  --server string    Server URL (default: http://localhost:8000). Use --server "" to run locally.
  --max-results int  Retrieval depth (default from config)
  --no-explain       Omit the explanation
  --output string    Output format: text or json (default: text)

Index Flags:
  --config string    Config file path
  --recursive        Descend into subdirectories (default: true)

Status and Documents Flags:
  --server string    Server URL (default: http://localhost:8000). Use --server "" for local storage.
  --output string    Output format: text or json (default: text)

Examples:
  apiquery server
  apiquery index ./specs
  apiquery generate Get current weather in Tokyo
  apiquery generate --output json "Create a new user named John"
  apiquery status --output json
  apiquery watch add /path/to/specs`)
}
