package storage

import "context"

// VectorStore persists documents, chunks and their embeddings, and
// answers nearest-neighbor similarity queries. Two implementations
// exist: the Qdrant backend (native ANN index) and an in-memory linear
// scan for small corpora and tests. The backend is selected once at
// startup by configuration, never by catching errors from the native
// path.
type VectorStore interface {
	// UpsertDocument stores document-level metadata.
	UpsertDocument(ctx context.Context, doc *Document) error

	// UpsertChunks stores chunks with embeddings. Fails with
	// ErrDimensionMismatch when any embedding has the wrong dimension.
	// Backends that can detect an id collision fail with
	// ErrDuplicateChunk; Qdrant overwrites by point id.
	UpsertChunks(ctx context.Context, chunks []*Chunk) error

	// GetDocumentByHash returns the stored document whose content hash
	// matches, or ErrDocumentNotFound. Used for idempotent ingest.
	GetDocumentByHash(ctx context.Context, hash string) (*Document, error)

	// ChunkCount returns the number of stored chunks for a document.
	ChunkCount(ctx context.Context, documentID string) (int, error)

	// Search returns up to k results ordered by strictly non-increasing
	// similarity, excluding results below floor. Similarity is cosine
	// similarity clamped to [0,1]; ties break by insertion order.
	Search(ctx context.Context, vector []float32, k int, floor float64) ([]SearchResult, error)

	// DeleteByDocument removes a document and all of its chunks,
	// returning the number of chunks deleted.
	DeleteByDocument(ctx context.Context, documentID string) (int, error)

	// Stats reports totals for the stored corpus.
	Stats(ctx context.Context) (*Stats, error)

	// ClearCollection removes every stored document and chunk. Used by
	// full re-index runs.
	ClearCollection(ctx context.Context) error

	// Health verifies the backend is reachable.
	Health(ctx context.Context) error

	// Close releases the backend connection.
	Close() error
}

// clampSimilarity guards against floating-point drift past exact 1.0 or
// below 0.0.
func clampSimilarity(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
