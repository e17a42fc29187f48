package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"GraphRAG/internal/graphstore"
	"GraphRAG/internal/models"
	"GraphRAG/pkg/logger"
)

// embeddedFile mirrors one entry of the embedded-chunk JSON produced by
// the parsing and embedding pipeline.
type embeddedFile struct {
	FileName string          `json:"file_name"`
	Chunks   []embeddedChunk `json:"chunks"`
}

type embeddedChunk struct {
	ChunkID   string            `json:"chunk_id"`
	Modality  string            `json:"modality"`
	Content   string            `json:"content"`
	Embedding []float32         `json:"embedding"`
	TopicID   *flexibleString   `json:"topic_id"`
	Metadata  map[string]string `json:"-"`

	RawMetadata json.RawMessage `json:"metadata"`
}

type embeddedPayload struct {
	Files []embeddedFile `json:"files"`
}

// flexibleString accepts both JSON strings and numbers. Topic ids appear
// as either depending on which clustering step produced them.
type flexibleString string

func (f *flexibleString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexibleString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("topic_id must be string or number: %s", data)
	}
	*f = flexibleString(n.String())
	return nil
}

// Stats reports what one load pass did.
type Stats struct {
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
	Skipped   int `json:"skipped"`
}

// Loader stores embedded chunks and their document membership in the
// graph.
type Loader struct {
	store graphstore.ChunkStore
	log   *logger.Logger
}

func NewLoader(store graphstore.ChunkStore, log *logger.Logger) *Loader {
	return &Loader{store: store, log: log}
}

// LoadFile reads the embedded-chunk JSON at path and stores it.
func (l *Loader) LoadFile(ctx context.Context, path string) (Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Stats{}, fmt.Errorf("read embedded data: %w", err)
	}
	return l.Load(ctx, data)
}

// Load parses and stores one embedded-chunk JSON document. A chunk
// without a chunk_id is a data error: skipped and counted, never fatal.
// Store errors abort the load.
func (l *Loader) Load(ctx context.Context, data []byte) (Stats, error) {
	var payload embeddedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Stats{}, fmt.Errorf("parse embedded data: %w", err)
	}
	if payload.Files == nil {
		return Stats{}, fmt.Errorf("embedded data has no 'files' list")
	}

	var stats Stats
	for _, file := range payload.Files {
		if file.FileName == "" {
			l.log.Warn("Skipping file entry without file_name")
			stats.Skipped += len(file.Chunks)
			continue
		}

		if err := l.store.UpsertDocument(ctx, file.FileName); err != nil {
			return stats, fmt.Errorf("upsert document %s: %w", file.FileName, err)
		}
		stats.Documents++

		for _, raw := range file.Chunks {
			if raw.ChunkID == "" {
				l.log.Warn(fmt.Sprintf("Skipping chunk without chunk_id in %s", file.FileName))
				stats.Skipped++
				continue
			}

			chunk := models.Chunk{
				ID:        raw.ChunkID,
				DocID:     file.FileName,
				Modality:  models.Modality(raw.Modality),
				Content:   raw.Content,
				Embedding: raw.Embedding,
				Metadata:  decodeMetadata(raw.RawMetadata),
			}
			if raw.TopicID != nil {
				topicID := string(*raw.TopicID)
				chunk.TopicID = &topicID
			}

			if err := l.store.UpsertChunk(ctx, chunk); err != nil {
				return stats, fmt.Errorf("upsert chunk %s: %w", chunk.ID, err)
			}
			if err := l.store.LinkDocumentToChunk(ctx, file.FileName, chunk.ID); err != nil {
				return stats, fmt.Errorf("link %s -> %s: %w", file.FileName, chunk.ID, err)
			}
			stats.Chunks++
		}
	}

	l.log.WithPayload(map[string]interface{}{
		"documents": stats.Documents,
		"chunks":    stats.Chunks,
		"skipped":   stats.Skipped,
	}).Info("Embedded data loaded")
	return stats, nil
}

// decodeMetadata flattens the metadata object to string values. The
// upstream pipeline emits either an object or a pre-serialized string.
func decodeMetadata(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}

	var asMap map[string]interface{}
	if err := json.Unmarshal(raw, &asMap); err == nil {
		if len(asMap) == 0 {
			return nil
		}
		out := make(map[string]string, len(asMap))
		for k, v := range asMap {
			out[k] = stringifyValue(v)
		}
		return out
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil && asString != "" {
		return map[string]string{"raw": asString}
	}
	return nil
}

func stringifyValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(encoded)
	}
}
