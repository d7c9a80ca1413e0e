package storage

import "time"

// Document represents an ingested policy document. Documents are
// immutable after ingest; reprocessing replaces all derived chunks.
type Document struct {
	ID        string // UUID
	Filename  string
	Title     string
	Content   string // extracted plain text
	Hash      string // sha256 of normalized content, for ingest dedupe
	Language  string // BCP 47 tag of the source text
	CreatedAt time.Time
}

// Chunk is a bounded, overlapping substring of a Document and the unit
// of embedding and retrieval. Chunks are write-once and deleted with
// their document.
type Chunk struct {
	ID          string // UUID
	DocumentID  string // owning Document.ID
	ChunkIndex  int    // position within document (0, 1, 2...)
	TotalChunks int    // chunk count of the owning document
	Filename    string // denormalized for source attribution
	Content     string
	Embedding   []float32 // 1536-dim vector (text-embedding-3-small)
}

// SourceType tags where a SearchResult came from.
type SourceType string

const (
	SourceKnowledgeBase   SourceType = "knowledge_base"
	SourceWebSearch       SourceType = "web_search"
	SourceWebVerification SourceType = "web_verification"
	SourceFallback        SourceType = "fallback"
	SourceOfficial        SourceType = "official_source"
)

// SearchResult is a transient projection of a stored chunk or web item,
// consumed by the context composer and discarded after response assembly.
type SearchResult struct {
	Title      string
	Content    string
	Similarity float64 // clamped to [0,1]
	Type       SourceType
	URL        string
	Filename   string
	ChunkIndex int
}

// Stats summarizes the stored knowledge base.
type Stats struct {
	TotalDocuments int
	TotalChunks    int
}

// CollectionName is the single Qdrant collection for all chunks.
const CollectionName = "policy_documents"

// VectorDimension is the embedding size for text-embedding-3-small.
const VectorDimension = 1536
