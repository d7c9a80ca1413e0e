package storage

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryStore implements VectorStore with a brute-force cosine scan.
// Search is O(n) over all stored chunks, which is acceptable only for
// small corpora; larger deployments select the Qdrant backend instead.
// This is a documented scaling limit, selected by configuration.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int

	documents map[string]*Document // by id
	byHash    map[string]string    // content hash -> document id
	chunks    []*Chunk             // insertion order preserved for tie breaks
	chunkIDs  map[string]struct{}
}

var _ VectorStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store expecting vectors of
// the given dimension. A dimension of 0 uses the default.
func NewMemoryStore(dimension int) *MemoryStore {
	if dimension <= 0 {
		dimension = VectorDimension
	}
	return &MemoryStore{
		dimension: dimension,
		documents: make(map[string]*Document),
		byHash:    make(map[string]string),
		chunkIDs:  make(map[string]struct{}),
	}
}

func (s *MemoryStore) UpsertDocument(ctx context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *doc
	s.documents[doc.ID] = &copied
	s.byHash[doc.Hash] = doc.ID
	return nil
}

func (s *MemoryStore) UpsertChunks(ctx context.Context, chunks []*Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, chunk := range chunks {
		if len(chunk.Embedding) != s.dimension {
			return &dimError{index: i, got: len(chunk.Embedding), want: s.dimension}
		}
		if _, exists := s.chunkIDs[chunk.ID]; exists {
			return ErrDuplicateChunk
		}
	}
	for _, chunk := range chunks {
		copied := *chunk
		s.chunks = append(s.chunks, &copied)
		s.chunkIDs[chunk.ID] = struct{}{}
	}
	return nil
}

func (s *MemoryStore) GetDocumentByHash(ctx context.Context, hash string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byHash[hash]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	copied := *s.documents[id]
	return &copied, nil
}

func (s *MemoryStore) ChunkCount(ctx context.Context, documentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, chunk := range s.chunks {
		if chunk.DocumentID == documentID {
			count++
		}
	}
	return count, nil
}

// Search computes cosine similarity against every stored chunk. Results
// below floor are dropped, the rest sorted by descending similarity with
// insertion order breaking ties, truncated to k.
func (s *MemoryStore) Search(ctx context.Context, vector []float32, k int, floor float64) ([]SearchResult, error) {
	if len(vector) != s.dimension {
		return nil, &dimError{got: len(vector), want: s.dimension}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		order      int
		similarity float64
		chunk      *Chunk
	}

	var matches []scored
	for i, chunk := range s.chunks {
		sim := clampSimilarity(cosineSimilarity(vector, chunk.Embedding))
		if sim < floor {
			continue
		}
		matches = append(matches, scored{order: i, similarity: sim, chunk: chunk})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].similarity > matches[j].similarity
	})
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}

	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, SearchResult{
			Title:      m.chunk.Filename,
			Content:    m.chunk.Content,
			Similarity: m.similarity,
			Type:       SourceKnowledgeBase,
			Filename:   m.chunk.Filename,
			ChunkIndex: m.chunk.ChunkIndex,
		})
	}
	return results, nil
}

func (s *MemoryStore) DeleteByDocument(ctx context.Context, documentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.chunks[:0]
	deleted := 0
	for _, chunk := range s.chunks {
		if chunk.DocumentID == documentID {
			delete(s.chunkIDs, chunk.ID)
			deleted++
			continue
		}
		kept = append(kept, chunk)
	}
	s.chunks = kept

	if doc, ok := s.documents[documentID]; ok {
		delete(s.byHash, doc.Hash)
		delete(s.documents, documentID)
	}
	return deleted, nil
}

func (s *MemoryStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &Stats{
		TotalDocuments: len(s.documents),
		TotalChunks:    len(s.chunks),
	}, nil
}

func (s *MemoryStore) ClearCollection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = make(map[string]*Document)
	s.byHash = make(map[string]string)
	s.chunks = nil
	s.chunkIDs = make(map[string]struct{})
	return nil
}

func (s *MemoryStore) Health(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// cosineSimilarity computes cosine similarity (1 - cosine distance) with
// an explicit dot product and magnitudes. Callers clamp the result to
// [0,1], matching what the native backend reports.
func cosineSimilarity(a, b []float32) float64 {
	var dot, magA, magB float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		magA += av * av
		magB += bv * bv
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// dimError wraps ErrDimensionMismatch with the offending sizes.
type dimError struct {
	index int
	got   int
	want  int
}

func (e *dimError) Error() string {
	return ErrDimensionMismatch.Error()
}

func (e *dimError) Unwrap() error { return ErrDimensionMismatch }
