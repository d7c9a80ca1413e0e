package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
)

// QdrantStore implements VectorStore on a Qdrant collection with a named
// cosine-distance vector. Qdrant scores cosine queries in [0,1] already;
// results are still clamped to guard against drift.
type QdrantStore struct {
	client *qdrant.Client
	host   string
	port   int
}

var _ VectorStore = (*QdrantStore)(nil)

// NewQdrantStore creates a Qdrant-backed store with health validation.
// It fails fast if Qdrant is unreachable after bounded retry.
func NewQdrantStore(host string, port int) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	store := &QdrantStore{
		client: client,
		host:   host,
		port:   port,
	}

	if err := store.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	return store, nil
}

// healthCheckWithRetry performs health check with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (s *QdrantStore) healthCheckWithRetry(ctx context.Context) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, backoff.WithContext(exponentialBackoff, ctx))
}

// Health performs a single health check against Qdrant.
func (s *QdrantStore) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// EnsureCollection creates the collection with 1536-dimension cosine
// vectors and payload indexes if it does not exist. Idempotent.
func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	for _, name := range collections {
		if name == CollectionName {
			return nil
		}
	}

	// Named vectors let document-level points (no vector) and chunk
	// points (with a "content" vector) share the collection.
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: CollectionName,
		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			"content": {
				Size:     VectorDimension,
				Distance: qdrant.Distance_Cosine,
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return s.createPayloadIndexes(ctx)
}

// createPayloadIndexes creates indexes for the filterable fields.
// Without these, document-id filtering degrades badly at scale.
func (s *QdrantStore) createPayloadIndexes(ctx context.Context) error {
	fields := []string{
		"type",        // "document" vs "chunk"
		"document_id", // cascade delete and chunk counting
		"hash",        // ingest dedupe lookup
		"filename",
	}

	for _, field := range fields {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: CollectionName,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("failed to create index for field %s: %w", field, err)
		}
	}

	return nil
}

// Close closes the Qdrant client connection.
func (s *QdrantStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// upsertWithRetry performs an upsert with exponential backoff retry.
func (s *QdrantStore) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: CollectionName,
			Points:         points,
		})
		return err
	}, backoff.WithContext(exponentialBackoff, ctx))
}

// UpsertDocument stores a document-level point. Document points carry no
// vector; they exist for hash dedupe and metadata.
func (s *QdrantStore) UpsertDocument(ctx context.Context, doc *Document) error {
	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(doc.ID),
		Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{}),
		Payload: qdrant.NewValueMap(map[string]any{
			"type":        "document",
			"document_id": doc.ID,
			"filename":    doc.Filename,
			"title":       doc.Title,
			"content":     doc.Content,
			"hash":        doc.Hash,
			"language":    doc.Language,
			"created_at":  doc.CreatedAt.Format(time.RFC3339),
		}),
	}

	return s.upsertWithRetry(ctx, []*qdrant.PointStruct{point})
}

// UpsertChunks stores chunks with embeddings, batched in groups of 100.
func (s *QdrantStore) UpsertChunks(ctx context.Context, chunks []*Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for i, chunk := range chunks {
		if len(chunk.Embedding) != VectorDimension {
			return fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(chunk.Embedding), VectorDimension)
		}
	}

	batchSize := 100
	for i := 0; i < len(chunks); i += batchSize {
		end := min(i+batchSize, len(chunks))
		batch := chunks[i:end]
		points := make([]*qdrant.PointStruct, len(batch))

		for j, chunk := range batch {
			points[j] = &qdrant.PointStruct{
				Id: qdrant.NewIDUUID(chunk.ID),
				Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
					"content": qdrant.NewVector(chunk.Embedding...),
				}),
				Payload: qdrant.NewValueMap(map[string]any{
					"type":         "chunk",
					"document_id":  chunk.DocumentID,
					"chunk_index":  chunk.ChunkIndex,
					"total_chunks": chunk.TotalChunks,
					"filename":     chunk.Filename,
					"content":      chunk.Content,
				}),
			}
		}

		if err := s.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("failed to upsert batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// GetDocumentByHash returns the document point with the given content
// hash, or ErrDocumentNotFound.
func (s *QdrantStore) GetDocumentByHash(ctx context.Context, hash string) (*Document, error) {
	results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: CollectionName,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("type", "document"),
				qdrant.NewMatch("hash", hash),
			},
		},
		Limit:       qdrant.PtrOf(uint32(1)),
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query document by hash: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrDocumentNotFound
	}

	point := results[0]
	payload := point.Payload

	createdAt, err := time.Parse(time.RFC3339, payload["created_at"].GetStringValue())
	if err != nil {
		createdAt = time.Time{}
	}

	return &Document{
		ID:        point.Id.GetUuid(),
		Filename:  payload["filename"].GetStringValue(),
		Title:     payload["title"].GetStringValue(),
		Content:   payload["content"].GetStringValue(),
		Hash:      payload["hash"].GetStringValue(),
		Language:  payload["language"].GetStringValue(),
		CreatedAt: createdAt,
	}, nil
}

// ChunkCount counts stored chunk points belonging to a document.
func (s *QdrantStore) ChunkCount(ctx context.Context, documentID string) (int, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: CollectionName,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("type", "chunk"),
				qdrant.NewMatch("document_id", documentID),
			},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return int(count), nil
}

// Search performs vector similarity search over chunk points.
func (s *QdrantStore) Search(ctx context.Context, vector []float32, k int, floor float64) ([]SearchResult, error) {
	if len(vector) != VectorDimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), VectorDimension)
	}

	vectorName := "content"
	scoreThreshold := float32(floor)
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: CollectionName,
		Query:          qdrant.NewQuery(vector...),
		Using:          &vectorName,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("type", "chunk"),
			},
		},
		Limit:          qdrant.PtrOf(uint64(k)),
		ScoreThreshold: &scoreThreshold,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}

	out := make([]SearchResult, 0, len(results))
	for _, result := range results {
		payload := result.Payload
		out = append(out, SearchResult{
			Title:      payload["filename"].GetStringValue(),
			Content:    payload["content"].GetStringValue(),
			Similarity: clampSimilarity(float64(result.Score)),
			Type:       SourceKnowledgeBase,
			Filename:   payload["filename"].GetStringValue(),
			ChunkIndex: int(payload["chunk_index"].GetIntegerValue()),
		})
	}

	return out, nil
}

// DeleteByDocument removes the document point and all of its chunks.
func (s *QdrantStore) DeleteByDocument(ctx context.Context, documentID string) (int, error) {
	count, err := s.ChunkCount(ctx, documentID)
	if err != nil {
		return 0, err
	}

	_, err = s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: CollectionName,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("document_id", documentID),
			},
		}),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete document %s: %w", documentID, err)
	}

	return count, nil
}

// Stats reports corpus totals from point counts.
func (s *QdrantStore) Stats(ctx context.Context) (*Stats, error) {
	docs, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: CollectionName,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("type", "document")},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	chunks, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: CollectionName,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("type", "chunk")},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}

	return &Stats{
		TotalDocuments: int(docs),
		TotalChunks:    int(chunks),
	}, nil
}

// ClearCollection deletes all points and recreates the collection.
// Useful for re-indexing scenarios.
func (s *QdrantStore) ClearCollection(ctx context.Context) error {
	if err := s.client.DeleteCollection(ctx, CollectionName); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return s.EnsureCollection(ctx)
}
