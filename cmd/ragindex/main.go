package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"ragindex/internal/chunker"
	"ragindex/internal/config"
	"ragindex/internal/embedding"
	"ragindex/internal/embedding/ollama"
	"ragindex/internal/embedding/openai"
	"ragindex/internal/index"
	"ragindex/internal/logger"
	"ragindex/internal/service"
	"ragindex/internal/summarizer"
	"ragindex/internal/tui"
	"ragindex/internal/watcher"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath    string
		collection string
		watchDir   string
		query      string
		verbose    bool
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/ragindex/config.yaml if not provided)")
	flag.StringVar(&collection, "collection", "default", "Collection to index into and search")
	flag.StringVar(&watchDir, "watch", "", "Directory to watch for file changes instead of starting the console")
	flag.StringVar(&query, "query", "", "Run a single search and print results instead of starting the console")
	flag.BoolVar(&verbose, "verbose", false, "Enable debug logging")
	flag.Parse()
	inputs := flag.Args()

	logger.SetVerbose(verbose)

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Assemble components
	var provider embedding.Provider
	switch cfg.Embedder.Type {
	case "ollama", "":
		provider = ollama.NewClient(ollama.Config{
			BaseURL:    cfg.Embedder.Ollama.BaseURL,
			Model:      cfg.Embedder.Ollama.Model,
			Dimensions: cfg.Embedder.Ollama.Dimensions,
			Timeout:    time.Duration(cfg.Embedder.Ollama.TimeoutSecs) * time.Second,
		})
	case "openai":
		client, err := openai.NewClient(openai.Config{
			APIKeyEnv:  cfg.Embedder.OpenAI.APIKeyEnv,
			Model:      cfg.Embedder.OpenAI.Model,
			BaseURL:    cfg.Embedder.OpenAI.BaseURL,
			Dimensions: cfg.Embedder.OpenAI.Dimensions,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
		provider = client
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}
	emb := embedding.NewClient(provider,
		embedding.WithMaxInputChars(cfg.Embedder.MaxInputChars),
		embedding.WithBatchSize(cfg.Embedder.BatchSize),
		embedding.WithBatchPause(time.Duration(cfg.Embedder.BatchPauseMS)*time.Millisecond),
		embedding.WithRequestTimeout(time.Duration(cfg.Embedder.TimeoutSecs)*time.Second),
	)

	ch, err := chunker.NewWordChunker(cfg.Chunker.WordsPerChunk, cfg.Chunker.OverlapWords)
	if err != nil {
		log.Fatalf("invalid chunker config: %v", err)
	}

	registry := index.NewRegistry(cfg.Index.Dir)
	svc := service.NewIndexService(ch, emb, registry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Index any files passed on the command line before doing
	// anything else.
	var digestSource strings.Builder
	for _, path := range inputs {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("read %s: %v", path, err)
		}
		stored, err := svc.IndexDocument(ctx, watcher.DocumentRefFor(path), string(data), collection)
		if err != nil {
			log.Fatalf("index %s: %v", path, err)
		}
		if stored {
			digestSource.WriteString(string(data))
			digestSource.WriteString(" ")
		}
	}

	// The watcher runs alongside whichever mode follows, feeding the
	// same collection.
	if watchDir != "" {
		w, err := watcher.New(svc, collection, cfg.Watch.Extensions)
		if err != nil {
			log.Fatalf("watcher init failed: %v", err)
		}
		defer w.Close()
		go func() {
			if err := w.Run(ctx, watchDir); err != nil && ctx.Err() == nil {
				logger.Warn("watcher stopped: %v", err)
			}
		}()
	}

	if query != "" {
		runQuery(ctx, svc, cfg, collection, query)
		return
	}

	summary := summarizer.Digest(digestSource.String(), summarizer.DefaultMaxSentences)
	m := tui.New(svc, tui.Options{
		CollectionID:  collection,
		MaxResults:    cfg.Search.MaxResults,
		Threshold:     cfg.Search.Threshold,
		ContextChunks: cfg.Search.ContextChunks,
		Summary:       summary,
	})
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}

func runQuery(ctx context.Context, svc *service.IndexServiceImpl, cfg *config.AppConfig, collection, query string) {
	results, err := svc.Search(ctx, query, collection, cfg.Search.MaxResults, cfg.Search.Threshold)
	if err != nil {
		log.Fatalf("search failed: %v", err)
	}
	if len(results) == 0 {
		fmt.Println("No results.")
		return
	}
	for i, r := range results {
		fmt.Printf("%d. %s (chunk %d, score %.3f)\n%s\n\n",
			i+1, r.Chunk.DocumentName, r.Chunk.ChunkIndex, r.Score, r.Chunk.Text)
	}
}
