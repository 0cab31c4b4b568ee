// Package main is the kioku CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/cli"
	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/server"
	"github.com/hyperjump/kioku/internal/watcher"
	"github.com/hyperjump/kioku/pkg/utils"
)

var version = "dev"

const (
	defaultServerURL  = "http://localhost:8080"
	configFileName    = "config.yaml"
	defaultConfigHome = ".kioku"
)

func defaultConfigPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, defaultConfigHome, configFileName)
	}
	return configFileName
}

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory takes precedence so running from a project directory uses the project's config.
// Returns the config and the path actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath() {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, configFileName)
			if _, statErr := os.Stat(fallback); statErr == nil {
				path = fallback
			}
		}
	}
	cfg, created, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	if created {
		fmt.Fprintf(os.Stderr, "Wrote default configuration to %s\n", path)
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
	case "search":
		runSearch()
	case "add":
		runAdd()
	case "pin":
		runPin(true)
	case "unpin":
		runPin(false)
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kioku version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// openDirect loads config and initializes components for commands that bypass the server.
func openDirect(configPath string) (*Components, *zap.Logger) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	return components, logger
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath(), "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	noReload := fs.Bool("no-reload", false, "do not watch the config file for ranking changes")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	if !*noReload {
		w := watcher.NewConfigWatcher(
			[]string{resolvedConfigPath, cfg.Ranking.ProfilesFile},
			nil,
			watcher.WithLogger(logger),
		)
		w.OnReload(watcher.RankingReloader(resolvedConfigPath, components.Retriever, w, logger))
		if err := w.Start(ctx); err != nil {
			logger.Warn("config hot reload disabled", zap.Error(err))
		} else {
			defer w.Stop()
		}
	}

	srv := server.NewServer(
		components.Retriever,
		components.Indexer,
		components.Storage,
		components.VectorIndex,
		cfg,
		logger,
		server.WithGatherer(components.Registry),
		server.WithExecutor(components.Executor),
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server stopped", zap.Error(err))
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: kioku search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Filters such as "high utility", "low-risk" or "safe" in the query down-rank memories whose
dimension scores disagree. Words like "research", "market" or "compliance" pick a profile
unless --profile is given.

Examples:
  kioku search vendor onboarding notes
  kioku search "low-risk vendors"                 # soft filter on danger
  kioku search --profile researcher new methods   # weight novelty and depth
  kioku search --strategy vector_only --limit 3 standup
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
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

// splitTags parses a comma-separated tag list.
func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath(), "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage when server is not running)")
	limit := fs.Int("limit", models.DefaultMaxResults, "number of results")
	profile := fs.String("profile", "", "profile: general, researcher, business or legal (default: inferred from the query)")
	strategy := fs.String("strategy", string(models.StrategyHybrid), "ranking strategy: hybrid or vector_only")
	filters := fs.String("filters", "", "natural-language filters parsed separately from the query, e.g. \"low risk\"")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}

	req := models.SearchRequest{
		Query:                  queryStr,
		MaxResults:             *limit,
		Profile:                *profile,
		Strategy:               models.Strategy(strings.ToUpper(*strategy)),
		NaturalLanguageFilters: *filters,
	}

	var resp *models.SearchResponse
	if *serverURL != "" {
		resp, err = cli.NewClient(*serverURL).Search(context.Background(), req)
		if err != nil {
			fatalf("Search failed: %v", err)
		}
	} else {
		components, logger := openDirect(*configPath)
		defer logger.Sync()
		defer components.Close()
		r := components.Retriever.SearchWithStatus(context.Background(), req)
		resp = &r
	}
	if err := cli.WriteResults(os.Stdout, resp, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runAdd() {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath(), "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage)")
	id := fs.String("id", "", "memory ID (default: generated)")
	source := fs.String("source", "cli", "memory source")
	tags := fs.String("tags", "", "comma-separated tags")
	importance := fs.Float64("importance", models.DefaultImportance, "importance score in [0,1]")
	pinned := fs.Bool("pinned", false, "pin the memory")
	metadata := fs.String("metadata", "", "JSON object merged into the memory metadata, e.g. '{\"dimension_scores\":{\"utility\":0.8}}'")
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	content := buildSearchQuery(fs.Args())
	if content == "" {
		fatalf("Usage: kioku add [flags] <content>")
	}
	input := models.MemoryInput{
		ID:              *id,
		Content:         content,
		Source:          *source,
		Tags:            splitTags(*tags),
		ImportanceScore: importance,
		Pinned:          *pinned,
	}
	if *metadata != "" {
		if err := json.Unmarshal([]byte(*metadata), &input.Metadata); err != nil {
			fatalf("Invalid --metadata: %v", err)
		}
	}

	var m *models.MemoryChunk
	var err error
	if *serverURL != "" {
		m, err = cli.NewClient(*serverURL).AddMemory(context.Background(), input)
	} else {
		components, logger := openDirect(*configPath)
		defer logger.Sync()
		defer components.Close()
		m, err = components.Indexer.AddMemory(context.Background(), input)
	}
	if err != nil {
		fatalf("Add failed: %v", err)
	}
	fmt.Printf("Memory added: %s\n", m.ID)
}

func runPin(pinned bool) {
	name := "pin"
	if !pinned {
		name = "unpin"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath(), "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage)")
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))
	if fs.NArg() != 1 {
		fatalf("Usage: kioku %s [flags] <id>", name)
	}
	id := fs.Arg(0)

	var err error
	if *serverURL != "" {
		err = cli.NewClient(*serverURL).SetPinned(context.Background(), id, pinned)
	} else {
		components, logger := openDirect(*configPath)
		defer logger.Sync()
		defer components.Close()
		if pinned {
			err = components.Indexer.Pin(context.Background(), id)
		} else {
			err = components.Indexer.Unpin(context.Background(), id)
		}
	}
	if err != nil {
		fatalf("%s failed: %v", name, err)
	}
	fmt.Printf("Memory %sned: %s\n", name, id)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath(), "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status map[string]interface{}
	if *serverURL != "" {
		var err error
		status, err = cli.NewClient(*serverURL).Status(context.Background())
		if err != nil {
			fatalf("Status failed: %v", err)
		}
	} else {
		components, logger := openDirect(*configPath)
		defer logger.Sync()
		defer components.Close()
		count, err := components.Storage.CountMemories(context.Background())
		if err != nil {
			fatalf("Status failed: %v", err)
		}
		snap := components.Retriever.Snapshot()
		status = map[string]interface{}{
			"memories":          count,
			"vector_index_size": components.VectorIndex.Size(),
			"ranking": map[string]interface{}{
				"weights":        snap.Engine.Weights(),
				"blend_ratio":    snap.BlendRatio,
				"filter_penalty": snap.FilterPenalty,
			},
		}
	}

	if *outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(status)
		return
	}
	writeStatusText(status)
}

func writeStatusText(status map[string]interface{}) {
	keys := make([]string, 0, len(status))
	for k := range status {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if nested, ok := status[k].(map[string]interface{}); ok {
			fmt.Printf("%s:\n", k)
			inner := make([]string, 0, len(nested))
			for ik := range nested {
				inner = append(inner, ik)
			}
			sort.Strings(inner)
			for _, ik := range inner {
				fmt.Printf("  %s: %v\n", ik, nested[ik])
			}
			continue
		}
		fmt.Printf("%s: %v\n", k, status[k])
	}
}

func printUsage() {
	fmt.Printf(`kioku - Dimension-aware memory retrieval

Usage:
  kioku server [flags]            Start the HTTP server
  kioku search [flags] <query>    Search memories
  kioku add [flags] <content>     Store a memory
  kioku pin [flags] <id>          Pin a memory
  kioku unpin [flags] <id>        Unpin a memory
  kioku status [flags]            Show store, index and ranking status
  kioku version                   Show version
  kioku help                      Show this help

Server Flags:
  --config string    Config file path (default: %s)
  --debug            Enable debug logging
  --no-reload        Do not hot-reload ranking settings when the config changes

Search Flags:
  --server string    Server URL (default: %s). Use --server "" for direct storage.
  --limit int        Number of results (default: 10)
  --profile string   general, researcher, business or legal
  --strategy string  hybrid or vector_only
  --filters string   Natural-language filters parsed separately from the query
  --output string    text, compact, or json

Add Flags:
  --id, --source, --tags, --importance, --pinned, --metadata

Examples:
  kioku server
  kioku add --tags vendors --metadata '{"dimension_scores":{"danger":0.1}}' "Acme passed the audit"
  kioku search "low-risk vendors"
  kioku search --output json --profile business pricing ideas
  kioku pin 3f2a...
  kioku status --output json
`, defaultConfigPath(), defaultServerURL)
}
