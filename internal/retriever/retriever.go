// Package retriever orchestrates chunking, embedding and vector storage
// into the ingest and context-retrieval operations of the knowledge base.
package retriever

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verdana-ai/verdana/internal/chunker"
	"github.com/verdana-ai/verdana/internal/corpus"
	"github.com/verdana-ai/verdana/internal/storage"
)

// DefaultSimilarityFloor filters out weakly related chunks at query time.
// Tunable; values much above 0.5 starve the context on paraphrased
// queries.
const DefaultSimilarityFloor = 0.3

// PolicyPortalURL is the reference page attached to knowledge-base
// sources, since individual corpus PDFs are not directly linkable.
const PolicyPortalURL = "https://commission.europa.eu/publications/legal-documents-delivering-european-green-deal_en"

// Embedder is the embedding capability the retriever depends on.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// IngestDocument is a document delivered by the (external) ingestion
// pipeline: text already extracted, language already detected.
type IngestDocument struct {
	ID       string // assigned when empty
	Filename string
	Text     string
	Language string
}

// Context is the assembled retrieval context for one query.
type Context struct {
	Text        string
	Sources     []storage.SearchResult
	ChunkCount  int
	TotalTokens int
}

// Retriever implements ingest and retrieve_context over a vector store.
type Retriever struct {
	chunker  *chunker.Chunker
	embedder Embedder
	store    storage.VectorStore
	floor    float64
	logger   *slog.Logger
}

// New creates a Retriever. A zero floor selects DefaultSimilarityFloor;
// a nil logger selects slog.Default().
func New(c *chunker.Chunker, embedder Embedder, store storage.VectorStore, floor float64, logger *slog.Logger) *Retriever {
	if floor <= 0 {
		floor = DefaultSimilarityFloor
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		chunker:  c,
		embedder: embedder,
		store:    store,
		floor:    floor,
		logger:   logger,
	}
}

// IngestResult reports what Ingest stored.
type IngestResult struct {
	DocumentID   string
	ChunksStored int
	Deduplicated bool
}

// Ingest chunks, embeds and stores a document. Re-ingesting content with
// an identical hash is a no-op that reports the existing document.
// Per-chunk failures are logged and skipped so one bad chunk never
// aborts a bulk upload.
func (r *Retriever) Ingest(ctx context.Context, doc IngestDocument) (IngestResult, error) {
	title := FormatDocumentTitle(doc.Filename)
	if corpus.IsMarkdown(doc.Filename) {
		if t := corpus.MarkdownTitle(doc.Text); t != "" {
			title = t
		}
	}

	text := corpus.ExtractText(doc.Filename, doc.Text)
	hash := ContentHash(text)

	if existing, err := r.store.GetDocumentByHash(ctx, hash); err == nil {
		count, err := r.store.ChunkCount(ctx, existing.ID)
		if err != nil {
			return IngestResult{}, fmt.Errorf("count existing chunks: %w", err)
		}
		r.logger.Info("Document already ingested, skipping",
			"filename", doc.Filename, "document_id", existing.ID, "chunks", count)
		return IngestResult{DocumentID: existing.ID, ChunksStored: count, Deduplicated: true}, nil
	} else if !errors.Is(err, storage.ErrDocumentNotFound) {
		return IngestResult{}, fmt.Errorf("hash lookup: %w", err)
	}

	texts := r.chunker.Split(text)
	if len(texts) == 0 {
		r.logger.Warn("Document produced no chunks", "filename", doc.Filename)
		return IngestResult{}, nil
	}

	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}

	// Embed before writing the document point: the point carries the
	// content hash, and a hash record without chunks would dedupe away
	// every retry after a transient embedding failure.
	embeddings, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return IngestResult{}, fmt.Errorf("embeddings: %w", err)
	}

	if err := r.store.UpsertDocument(ctx, &storage.Document{
		ID:        doc.ID,
		Filename:  doc.Filename,
		Title:     title,
		Content:   text,
		Hash:      hash,
		Language:  doc.Language,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return IngestResult{}, fmt.Errorf("store document: %w", err)
	}

	// Insert in chunk-index order, one at a time: a failing chunk is
	// logged and skipped rather than blocking the rest of the document.
	stored := 0
	for i, chunkText := range texts {
		err := r.store.UpsertChunks(ctx, []*storage.Chunk{{
			ID:          uuid.New().String(),
			DocumentID:  doc.ID,
			ChunkIndex:  i,
			TotalChunks: len(texts),
			Filename:    doc.Filename,
			Content:     chunkText,
			Embedding:   embeddings[i],
		}})
		if err != nil {
			r.logger.Warn("Failed to store chunk", "filename", doc.Filename, "chunk", i, "error", err)
			continue
		}
		stored++
	}

	r.logger.Info("Ingested document", "filename", doc.Filename, "document_id", doc.ID, "chunks", stored)
	return IngestResult{DocumentID: doc.ID, ChunksStored: stored}, nil
}

// Delete removes a document and its chunks.
func (r *Retriever) Delete(ctx context.Context, documentID string) (int, error) {
	return r.store.DeleteByDocument(ctx, documentID)
}

// Stats reports knowledge base totals.
func (r *Retriever) Stats(ctx context.Context) (*storage.Stats, error) {
	return r.store.Stats(ctx)
}

// RetrieveContext embeds the query, searches the vector store and
// greedily packs chunk texts into a token budget in descending-similarity
// order. Chunks that would overflow the budget are dropped whole rather
// than truncated. Retrieval is best-effort: any failure yields an empty
// context so the conversation is never blocked.
func (r *Retriever) RetrieveContext(ctx context.Context, query string, maxChunks, budget int) Context {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		r.logger.Error("Failed to embed query", "error", err)
		return Context{}
	}

	results, err := r.store.Search(ctx, vector, maxChunks, r.floor)
	if err != nil {
		r.logger.Error("Vector search failed", "error", err)
		return Context{}
	}

	var parts []string
	var sources []storage.SearchResult
	total := 0

	for _, result := range results {
		tokens := EstimateTokens(result.Content)
		if total+tokens > budget {
			break
		}
		parts = append(parts, result.Content)
		total += tokens

		source := result
		source.Title = FormatDocumentTitle(result.Filename)
		source.URL = PolicyPortalURL
		sources = append(sources, source)
	}

	r.logger.Info("Retrieved knowledge base context",
		"query_chars", len(query), "chunks", len(parts), "tokens", total)

	return Context{
		Text:        strings.Join(parts, "\n\n"),
		Sources:     sources,
		ChunkCount:  len(parts),
		TotalTokens: total,
	}
}

// EstimateTokens approximates the token count of a text with the common
// 4-characters-per-token heuristic.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// ContentHash returns the hex sha256 of the normalized document text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
