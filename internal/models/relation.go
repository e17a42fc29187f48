package models

// RelationType is the label of a chunk-to-chunk edge in the graph.
type RelationType string

const (
	// RelationSemantic links same-corpus chunk pairs whose cosine
	// similarity meets the configured threshold.
	RelationSemantic RelationType = "SEMANTICALLY_RELATED"
	// RelationCrossModal links chunk pairs of different modalities whose
	// unified embeddings meet the cross-modal threshold.
	RelationCrossModal RelationType = "CROSS_MODAL_RELATED"
	// RelationEmbedding links each chunk to its top-K nearest neighbors.
	RelationEmbedding RelationType = "EMBEDDING_SIM"
	// RelationTopic links chunks sharing the same topic id.
	RelationTopic RelationType = "TOPIC_SIM"
)

// Relationship represents a directed, weighted edge between two chunks.
// For a given type and unordered pair at most one edge logically exists;
// the direction is a processing-order property (i before j), not a
// symmetry guarantee.
type Relationship struct {
	FromID string       `json:"source"`
	ToID   string       `json:"target"`
	Type   RelationType `json:"type"`
	Weight float64      `json:"weight"`
}
