package graphstore

import (
	"context"
	"errors"

	"GraphRAG/internal/models"
)

// ErrNodeNotFound is returned by UpsertEdge when one of the endpoints has
// not been persisted yet. Builders treat it as a data error: the edge is
// skipped and the batch continues.
var ErrNodeNotFound = errors.New("graphstore: endpoint node not found")

// ChunkStore is the persistence contract the core requires from the graph
// database. Every write is an individual idempotent upsert; there are no
// multi-statement transactions.
type ChunkStore interface {
	// UpsertChunk merges a chunk node by its stable id. Re-ingesting the
	// same id overwrites content, modality, embedding and metadata.
	UpsertChunk(ctx context.Context, chunk models.Chunk) error

	// UpsertDocument merges a document node by doc id (the file name).
	UpsertDocument(ctx context.Context, docID string) error

	// LinkDocumentToChunk merges a HAS_CHUNK edge from document to chunk.
	LinkDocumentToChunk(ctx context.Context, docID, chunkID string) error

	// UpsertEdge merges a typed, weighted edge between two chunks. The
	// merge key is (fromID, toID, relType); the weight is updated on
	// match. Returns ErrNodeNotFound when an endpoint is missing.
	UpsertEdge(ctx context.Context, fromID, toID string, relType models.RelationType, weight float64) error

	// ChunksWithEmbedding returns every chunk carrying a non-empty
	// embedding.
	ChunksWithEmbedding(ctx context.Context) ([]models.ChunkRecord, error)

	// ChunksWithTopic returns every chunk carrying a topic id, with or
	// without an embedding.
	ChunksWithTopic(ctx context.Context) ([]models.ChunkRecord, error)

	// ChunksByTopic returns up to limit chunks sharing the given topic id.
	ChunksByTopic(ctx context.Context, topicID string, limit int) ([]models.ChunkRecord, error)

	// ClearAll removes every node and relationship. Used only by full
	// re-ingestion flows.
	ClearAll(ctx context.Context) error
}
