package models

// Modality identifies the content type of a chunk.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityTable Modality = "table"
	ModalityImage Modality = "image"
)

// Chunk is a unit of extracted, embeddable content from a source document.
// The ID is stable across re-runs (derived from source file + positional
// index), so upserts by ID are idempotent.
type Chunk struct {
	ID        string            `json:"chunk_id"`
	DocID     string            `json:"doc_id,omitempty"`
	Modality  Modality          `json:"modality"`
	Content   string            `json:"content"`
	Embedding []float32         `json:"embedding,omitempty"`
	TopicID   *string           `json:"topic_id,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// HasEmbedding reports whether the chunk carries a non-empty embedding and
// is therefore eligible for similarity operations.
func (c Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// ChunkRecord is the projection the relationship builder and retriever work
// on. Content is carried so retrieval results can be rendered without a
// second store round-trip.
type ChunkRecord struct {
	ID        string    `json:"chunk_id"`
	Modality  Modality  `json:"modality"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding,omitempty"`
	TopicID   *string   `json:"topic_id,omitempty"`
}

// Document groups chunks originating from one source file. DocID is the
// file name and is unique; created_at is managed by the store.
type Document struct {
	DocID string `json:"doc_id"`
}
