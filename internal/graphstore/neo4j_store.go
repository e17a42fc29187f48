package graphstore

import (
	"context"
	"encoding/json"
	"fmt"

	neo4jdb "GraphRAG/internal/database/neo4j"
	"GraphRAG/internal/models"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jStore implements ChunkStore on top of the shared Neo4j client.
// Node and relationship shapes follow the graph schema:
//
//	(:Document {doc_id})-[:HAS_CHUNK]->(:Chunk {chunk_id, modality, content,
//	    embedding, topic_id, metadata})
//	(:Chunk)-[:<RelationType> {weight}]->(:Chunk)
type Neo4jStore struct {
	client *neo4jdb.Client
}

// NewNeo4jStore wraps an already-connected Neo4j client.
func NewNeo4jStore(client *neo4jdb.Client) *Neo4jStore {
	return &Neo4jStore{client: client}
}

// EnsureConstraints creates the uniqueness constraints for doc_id and
// chunk_id. Safe to run repeatedly.
func (s *Neo4jStore) EnsureConstraints(ctx context.Context) error {
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		constraints := []string{
			"CREATE CONSTRAINT IF NOT EXISTS FOR (d:Document) REQUIRE d.doc_id IS UNIQUE",
			"CREATE CONSTRAINT IF NOT EXISTS FOR (c:Chunk) REQUIRE c.chunk_id IS UNIQUE",
		}
		for _, stmt := range constraints {
			if _, err := tx.Run(ctx, stmt, nil); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to ensure constraints: %w", err)
	}
	return nil
}

// UpsertChunk merges the chunk node by chunk_id, overwriting its content
// properties on match. Metadata is stored as a JSON string.
func (s *Neo4jStore) UpsertChunk(ctx context.Context, chunk models.Chunk) error {
	metadata := "{}"
	if len(chunk.Metadata) > 0 {
		raw, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata for chunk %s: %w", chunk.ID, err)
		}
		metadata = string(raw)
	}

	params := map[string]interface{}{
		"chunk_id":  chunk.ID,
		"modality":  string(chunk.Modality),
		"content":   chunk.Content,
		"embedding": toFloat64Slice(chunk.Embedding),
		"metadata":  metadata,
	}
	query := `
		MERGE (c:Chunk { chunk_id: $chunk_id })
		ON CREATE SET c.created_at = timestamp()
		SET c.modality = $modality,
		    c.content = $content,
		    c.embedding = $embedding,
		    c.metadata = $metadata`
	if chunk.TopicID != nil {
		params["topic_id"] = *chunk.TopicID
		query += ",\n\t\t    c.topic_id = $topic_id"
	}

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		return tx.Run(ctx, query, params)
	})
	if err != nil {
		return fmt.Errorf("failed to upsert chunk %s: %w", chunk.ID, err)
	}
	return nil
}

// UpsertDocument merges the document node by doc_id.
func (s *Neo4jStore) UpsertDocument(ctx context.Context, docID string) error {
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		return tx.Run(ctx, `
			MERGE (d:Document { doc_id: $doc_id })
			ON CREATE SET d.created_at = timestamp()`,
			map[string]interface{}{"doc_id": docID})
	})
	if err != nil {
		return fmt.Errorf("failed to upsert document %s: %w", docID, err)
	}
	return nil
}

// LinkDocumentToChunk merges the HAS_CHUNK edge between an existing
// document and chunk.
func (s *Neo4jStore) LinkDocumentToChunk(ctx context.Context, docID, chunkID string) error {
	result, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, `
			MATCH (d:Document { doc_id: $doc_id })
			MATCH (c:Chunk { chunk_id: $chunk_id })
			MERGE (d)-[:HAS_CHUNK]->(c)
			RETURN c.chunk_id`,
			map[string]interface{}{"doc_id": docID, "chunk_id": chunkID})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return len(records), nil
	})
	if err != nil {
		return fmt.Errorf("failed to link document %s to chunk %s: %w", docID, chunkID, err)
	}
	if result.(int) == 0 {
		return fmt.Errorf("link %s -> %s: %w", docID, chunkID, ErrNodeNotFound)
	}
	return nil
}

// UpsertEdge merges a typed edge between two chunks. Merging on the bare
// relationship pattern keeps the edge unique per (from, to, type); the
// weight is written outside the merge key so re-runs update it in place.
func (s *Neo4jStore) UpsertEdge(ctx context.Context, fromID, toID string, relType models.RelationType, weight float64) error {
	if err := validateRelationType(relType); err != nil {
		return err
	}
	// The relationship type cannot be a Cypher parameter; relType is
	// restricted to the enum above, so the interpolation is safe.
	query := fmt.Sprintf(`
		MATCH (c1:Chunk { chunk_id: $from_id })
		MATCH (c2:Chunk { chunk_id: $to_id })
		MERGE (c1)-[r:%s]->(c2)
		SET r.weight = $weight
		RETURN type(r)`, relType)

	result, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, query, map[string]interface{}{
			"from_id": fromID,
			"to_id":   toID,
			"weight":  weight,
		})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return len(records), nil
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %s edge %s -> %s: %w", relType, fromID, toID, err)
	}
	if result.(int) == 0 {
		return fmt.Errorf("edge %s -> %s: %w", fromID, toID, ErrNodeNotFound)
	}
	return nil
}

// ChunksWithEmbedding returns every chunk whose embedding is non-empty.
func (s *Neo4jStore) ChunksWithEmbedding(ctx context.Context) ([]models.ChunkRecord, error) {
	return s.queryChunks(ctx, `
		MATCH (c:Chunk)
		WHERE c.embedding IS NOT NULL AND size(c.embedding) > 0
		RETURN c.chunk_id AS chunk_id, c.modality AS modality,
		       c.content AS content, c.embedding AS embedding,
		       c.topic_id AS topic_id
		ORDER BY c.chunk_id`, nil)
}

// ChunksWithTopic returns every chunk carrying a topic id.
func (s *Neo4jStore) ChunksWithTopic(ctx context.Context) ([]models.ChunkRecord, error) {
	return s.queryChunks(ctx, `
		MATCH (c:Chunk)
		WHERE c.topic_id IS NOT NULL
		RETURN c.chunk_id AS chunk_id, c.modality AS modality,
		       c.content AS content, c.embedding AS embedding,
		       c.topic_id AS topic_id
		ORDER BY c.chunk_id`, nil)
}

// ChunksByTopic returns up to limit chunks sharing the given topic id.
func (s *Neo4jStore) ChunksByTopic(ctx context.Context, topicID string, limit int) ([]models.ChunkRecord, error) {
	return s.queryChunks(ctx, `
		MATCH (c:Chunk)
		WHERE c.topic_id = $topic_id
		RETURN c.chunk_id AS chunk_id, c.modality AS modality,
		       c.content AS content, c.embedding AS embedding,
		       c.topic_id AS topic_id
		ORDER BY c.chunk_id
		LIMIT $limit`,
		map[string]interface{}{"topic_id": topicID, "limit": limit})
}

// ClearAll removes every node and relationship from the database.
func (s *Neo4jStore) ClearAll(ctx context.Context) error {
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		return tx.Run(ctx, "MATCH (n) DETACH DELETE n", nil)
	})
	if err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}
	return nil
}

func (s *Neo4jStore) queryChunks(ctx context.Context, query string, params map[string]interface{}) ([]models.ChunkRecord, error) {
	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}

	records := result.([]*neo4j.Record)
	chunks := make([]models.ChunkRecord, 0, len(records))
	for _, record := range records {
		chunks = append(chunks, recordToChunk(record))
	}
	return chunks, nil
}

func recordToChunk(record *neo4j.Record) models.ChunkRecord {
	chunk := models.ChunkRecord{}
	if v, ok := record.Get("chunk_id"); ok && v != nil {
		chunk.ID, _ = v.(string)
	}
	if v, ok := record.Get("modality"); ok && v != nil {
		if m, ok := v.(string); ok {
			chunk.Modality = models.Modality(m)
		}
	}
	if v, ok := record.Get("content"); ok && v != nil {
		chunk.Content, _ = v.(string)
	}
	if v, ok := record.Get("embedding"); ok && v != nil {
		if raw, ok := v.([]interface{}); ok {
			embedding := make([]float32, 0, len(raw))
			for _, item := range raw {
				if f, ok := item.(float64); ok {
					embedding = append(embedding, float32(f))
				}
			}
			chunk.Embedding = embedding
		}
	}
	if v, ok := record.Get("topic_id"); ok && v != nil {
		// Topic models emit ints; earlier ingestions may have stored
		// strings. Both normalize to string.
		var topic string
		switch t := v.(type) {
		case string:
			topic = t
		case int64:
			topic = fmt.Sprintf("%d", t)
		default:
			topic = fmt.Sprintf("%v", t)
		}
		chunk.TopicID = &topic
	}
	return chunk
}

func toFloat64Slice(vec []float32) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	return out
}

func validateRelationType(relType models.RelationType) error {
	switch relType {
	case models.RelationSemantic, models.RelationCrossModal,
		models.RelationEmbedding, models.RelationTopic:
		return nil
	}
	return fmt.Errorf("graphstore: unknown relation type %q", relType)
}
