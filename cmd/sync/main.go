// Package main provides the knowledge-base sync CLI.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/verdana-ai/verdana/internal/chunker"
	"github.com/verdana-ai/verdana/internal/config"
	"github.com/verdana-ai/verdana/internal/corpus"
	"github.com/verdana-ai/verdana/internal/embedding"
	"github.com/verdana-ai/verdana/internal/retriever"
	"github.com/verdana-ai/verdana/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "verdana-sync",
	Short: "Verdana knowledge base management tool",
	Long:  "CLI tool for loading and managing EU policy documents in the vector store",
}

var (
	ingestDir  string
	clearFirst bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest policy documents from a local directory",
	Long: `Walks a directory and ingests every markdown and text file.

Documents already present (matched by content hash) are skipped.

Environment variables:
  QDRANT_HOST    Qdrant hostname (default: localhost)
  QDRANT_PORT    Qdrant gRPC port (default: 6334)
  OPENAI_API_KEY OpenAI API key for embeddings (required)`,
	RunE: runIngest,
}

var syncCmd = &cobra.Command{
	Use:   "sync <owner/repo> [path]",
	Short: "Ingest policy documents from a GitHub repository",
	Long: `Fetches all markdown and text files under a repository path and
ingests them. Content-hash dedupe makes repeated syncs incremental.

Environment variables:
  GITHUB_TOKEN   GitHub token for higher rate limits (optional)`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSync,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge base document and chunk counts",
	RunE:  runStats,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Delete a document and all of its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "", "directory containing policy documents (required)")
	ingestCmd.MarkFlagRequired("dir")
	ingestCmd.Flags().BoolVar(&clearFirst, "clear", false, "clear the collection before ingesting (full re-index)")
	syncCmd.Flags().BoolVar(&clearFirst, "clear", false, "clear the collection before syncing (full re-index)")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(deleteCmd)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newRetriever wires the ingestion pipeline against the configured
// vector backend.
func newRetriever(ctx context.Context) (*retriever.Retriever, storage.VectorStore, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	var store storage.VectorStore
	if cfg.VectorBackend == config.BackendMemory {
		store = storage.NewMemoryStore(storage.VectorDimension)
	} else {
		qs, err := storage.NewQdrantStore(cfg.QdrantHost, cfg.QdrantPort)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to Qdrant: %w", err)
		}
		if err := qs.EnsureCollection(ctx); err != nil {
			qs.Close()
			return nil, nil, fmt.Errorf("ensure collection: %w", err)
		}
		store = qs
	}

	embeddingClient, err := embedding.NewClient()
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(embeddingClient, 0)

	ch, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	return retriever.New(ch, embedder, store, cfg.SimilarityFloor, nil), store, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	ret, store, err := newRetriever(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if clearFirst {
		fmt.Println("Clearing existing collection...")
		if err := store.ClearCollection(ctx); err != nil {
			return fmt.Errorf("clear collection: %w", err)
		}
	}

	var files []string
	err = filepath.WalkDir(ingestDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".md", ".markdown", ".txt":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", ingestDir, err)
	}

	fmt.Printf("Ingesting %d documents from %s...\n\n", len(files), ingestDir)

	var ingested, skipped, failed, chunks int
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("  FAIL %s: %v\n", path, err)
			failed++
			continue
		}

		result, err := ret.Ingest(ctx, retriever.IngestDocument{
			Filename: filepath.Base(path),
			Text:     string(data),
			Language: "en",
		})
		if err != nil {
			fmt.Printf("  FAIL %s: %v\n", path, err)
			failed++
			continue
		}
		if result.Deduplicated {
			fmt.Printf("  skip %s (already indexed)\n", filepath.Base(path))
			skipped++
			continue
		}
		fmt.Printf("  ok   %s (%d chunks)\n", filepath.Base(path), result.ChunksStored)
		ingested++
		chunks += result.ChunksStored
	}

	fmt.Println()
	fmt.Println("Ingest complete!")
	fmt.Printf("  Ingested: %d\n", ingested)
	fmt.Printf("  Skipped:  %d\n", skipped)
	fmt.Printf("  Failed:   %d\n", failed)
	fmt.Printf("  Chunks:   %d\n", chunks)
	fmt.Printf("  Duration: %s\n", time.Since(start).Round(time.Second))

	if failed > 0 {
		return fmt.Errorf("%d documents failed", failed)
	}
	return nil
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	owner, repo, ok := strings.Cut(args[0], "/")
	if !ok {
		return fmt.Errorf("repository must be owner/repo, got %q", args[0])
	}
	basePath := ""
	if len(args) > 1 {
		basePath = args[1]
	}

	ret, store, err := newRetriever(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if clearFirst {
		fmt.Println("Clearing existing collection...")
		if err := store.ClearCollection(ctx); err != nil {
			return fmt.Errorf("clear collection: %w", err)
		}
	}

	ghClient, err := corpus.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("create GitHub client: %w", err)
	}
	fetcher := corpus.NewFetcher(ghClient, owner, repo, basePath)

	fmt.Printf("Listing documents in %s/%s/%s...\n", owner, repo, basePath)
	paths, err := fetcher.ListDocs(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	fmt.Printf("Found %d documents\n\n", len(paths))

	var ingested, skipped, failed, chunks int
	for _, p := range paths {
		doc, err := fetcher.FetchDoc(ctx, p)
		if err != nil {
			fmt.Printf("  FAIL %s: %v\n", p, err)
			failed++
			continue
		}

		result, err := ret.Ingest(ctx, retriever.IngestDocument{
			Filename: filepath.Base(doc.Path),
			Text:     doc.Content,
			Language: "en",
		})
		if err != nil {
			fmt.Printf("  FAIL %s: %v\n", p, err)
			failed++
			continue
		}
		if result.Deduplicated {
			fmt.Printf("  skip %s (already indexed)\n", p)
			skipped++
			continue
		}
		fmt.Printf("  ok   %s (%d chunks)\n", p, result.ChunksStored)
		ingested++
		chunks += result.ChunksStored
	}

	fmt.Println()
	fmt.Println("Sync complete!")
	fmt.Printf("  Ingested: %d\n", ingested)
	fmt.Printf("  Skipped:  %d\n", skipped)
	fmt.Printf("  Failed:   %d\n", failed)
	fmt.Printf("  Chunks:   %d\n", chunks)
	fmt.Printf("  Duration: %s\n", time.Since(start).Round(time.Second))

	if failed > 0 {
		return fmt.Errorf("%d documents failed", failed)
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	ret, store, err := newRetriever(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := ret.Stats(ctx)
	if err != nil {
		return fmt.Errorf("read stats: %w", err)
	}

	fmt.Printf("Collection: %s\n", storage.CollectionName)
	fmt.Printf("Documents:  %d\n", stats.TotalDocuments)
	fmt.Printf("Chunks:     %d\n", stats.TotalChunks)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	ret, store, err := newRetriever(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	deleted, err := ret.Delete(ctx, args[0])
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	fmt.Printf("Deleted document %s (%d chunks)\n", args[0], deleted)
	return nil
}
