// Package main provides the policy assistant MCP server entry point.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/verdana-ai/verdana/internal/agent"
	"github.com/verdana-ai/verdana/internal/chunker"
	"github.com/verdana-ai/verdana/internal/config"
	"github.com/verdana-ai/verdana/internal/embedding"
	"github.com/verdana-ai/verdana/internal/retriever"
	"github.com/verdana-ai/verdana/internal/server"
	"github.com/verdana-ai/verdana/internal/session"
	"github.com/verdana-ai/verdana/internal/storage"
	"github.com/verdana-ai/verdana/internal/websearch"
)

func main() {
	// Load .env if present (local development), ignore if missing.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize vector store: %v", err)
	}
	defer store.Close()

	embeddingClient, err := embedding.NewClient()
	if err != nil {
		log.Fatalf("failed to create embedding client: %v", err)
	}
	embedder := embedding.NewEmbedder(embeddingClient, 0)

	ch, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		log.Fatalf("invalid chunker configuration: %v", err)
	}

	ret := retriever.New(ch, embedder, store, cfg.SimilarityFloor, nil)

	var web agent.WebSearcher
	var webHealth server.HealthChecker
	if cfg.WebSearchEnabled {
		searcher := websearch.New(cfg.TavilyAPIKey, 0, nil)
		web = searcher
		webHealth = searcher
	}

	orch := agent.NewOrchestrator(agent.Params{
		Retriever:     ret,
		Web:           web,
		Sessions:      session.NewMemoryStore(cfg.HistoryCap),
		Completer:     agent.NewOpenAICompleter(embeddingClient, cfg.ChatModel),
		MaxChunks:     cfg.MaxChunks,
		ContextBudget: cfg.ContextBudget,
	})

	srv := server.NewServer(&server.Config{
		Orchestrator: orch,
		Retriever:    ret,
		WebEnabled:   cfg.WebSearchEnabled,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/", server.NewLandingHandler())
	mux.HandleFunc("/health", server.NewHealthHandler(store, webHealth))
	mux.Handle("/mcp", server.NewHTTPHandler(srv, nil))

	if cfg.ServerMode {
		addr := "0.0.0.0:" + cfg.Port
		log.Printf("Starting HTTP server on %s (MCP at /mcp, health at /health)", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
		return
	}

	// Stdio mode for local clients; health endpoint still served in the
	// background for probes.
	go func() {
		addr := "0.0.0.0:" + cfg.Port
		log.Printf("Starting health server on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("Health server error: %v", err)
		}
	}()

	log.Println("Starting Verdana Policy MCP Server (stdio mode)...")
	if err := srv.Run(ctx); err != nil {
		log.Printf("server error: %v", err)
		os.Exit(1)
	}
}

// newStore selects the vector backend. Qdrant is the production path;
// the in-memory store serves tests and credential-free local runs.
func newStore(ctx context.Context, cfg *config.Config) (storage.VectorStore, error) {
	if cfg.VectorBackend == config.BackendMemory {
		return storage.NewMemoryStore(storage.VectorDimension), nil
	}

	store, err := storage.NewQdrantStore(cfg.QdrantHost, cfg.QdrantPort)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureCollection(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
