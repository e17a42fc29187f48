package graphstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"GraphRAG/internal/models"
)

// MemoryStore is a thread-safe, in-memory implementation of ChunkStore.
// It mirrors the Neo4j store's semantics (idempotent merges, missing-node
// errors, chunks returned in id order) so builder and retriever tests run
// against the same contract the production store honors.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks map[string]models.Chunk
	docs   map[string]bool
	links  map[string]bool
	edges  map[edgeKey]float64
}

type edgeKey struct {
	From string
	To   string
	Type models.RelationType
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chunks: make(map[string]models.Chunk),
		docs:   make(map[string]bool),
		links:  make(map[string]bool),
		edges:  make(map[edgeKey]float64),
	}
}

func (s *MemoryStore) UpsertChunk(ctx context.Context, chunk models.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[chunk.ID] = chunk
	return nil
}

func (s *MemoryStore) UpsertDocument(ctx context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[docID] = true
	return nil
}

func (s *MemoryStore) LinkDocumentToChunk(ctx context.Context, docID, chunkID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.docs[docID] {
		return fmt.Errorf("link %s -> %s: %w", docID, chunkID, ErrNodeNotFound)
	}
	if _, ok := s.chunks[chunkID]; !ok {
		return fmt.Errorf("link %s -> %s: %w", docID, chunkID, ErrNodeNotFound)
	}
	s.links[docID+"->"+chunkID] = true
	return nil
}

func (s *MemoryStore) UpsertEdge(ctx context.Context, fromID, toID string, relType models.RelationType, weight float64) error {
	if err := validateRelationType(relType); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chunks[fromID]; !ok {
		return fmt.Errorf("edge %s -> %s: %w", fromID, toID, ErrNodeNotFound)
	}
	if _, ok := s.chunks[toID]; !ok {
		return fmt.Errorf("edge %s -> %s: %w", fromID, toID, ErrNodeNotFound)
	}
	s.edges[edgeKey{From: fromID, To: toID, Type: relType}] = weight
	return nil
}

func (s *MemoryStore) ChunksWithEmbedding(ctx context.Context) ([]models.ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ChunkRecord
	for _, chunk := range s.chunks {
		if chunk.HasEmbedding() {
			out = append(out, toRecord(chunk))
		}
	}
	sortRecords(out)
	return out, nil
}

func (s *MemoryStore) ChunksWithTopic(ctx context.Context) ([]models.ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ChunkRecord
	for _, chunk := range s.chunks {
		if chunk.TopicID != nil {
			out = append(out, toRecord(chunk))
		}
	}
	sortRecords(out)
	return out, nil
}

func (s *MemoryStore) ChunksByTopic(ctx context.Context, topicID string, limit int) ([]models.ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ChunkRecord
	for _, chunk := range s.chunks {
		if chunk.TopicID != nil && *chunk.TopicID == topicID {
			out = append(out, toRecord(chunk))
		}
	}
	sortRecords(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = make(map[string]models.Chunk)
	s.docs = make(map[string]bool)
	s.links = make(map[string]bool)
	s.edges = make(map[edgeKey]float64)
	return nil
}

// Edges returns a snapshot of all chunk-to-chunk edges of the given type.
func (s *MemoryStore) Edges(relType models.RelationType) []models.Relationship {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Relationship
	for key, weight := range s.edges {
		if key.Type == relType {
			out = append(out, models.Relationship{
				FromID: key.From,
				ToID:   key.To,
				Type:   key.Type,
				Weight: weight,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FromID != out[j].FromID {
			return out[i].FromID < out[j].FromID
		}
		return out[i].ToID < out[j].ToID
	})
	return out
}

// HasLink reports whether a document -> chunk link exists.
func (s *MemoryStore) HasLink(docID, chunkID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.links[docID+"->"+chunkID]
}

// DocumentCount returns the number of stored documents.
func (s *MemoryStore) DocumentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// ChunkCount returns the number of stored chunks.
func (s *MemoryStore) ChunkCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func toRecord(chunk models.Chunk) models.ChunkRecord {
	return models.ChunkRecord{
		ID:        chunk.ID,
		Modality:  chunk.Modality,
		Content:   chunk.Content,
		Embedding: chunk.Embedding,
		TopicID:   chunk.TopicID,
	}
}

func sortRecords(records []models.ChunkRecord) {
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
}
