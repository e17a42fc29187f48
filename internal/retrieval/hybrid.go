package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"GraphRAG/internal/graphstore"
	"GraphRAG/internal/models"
	"GraphRAG/internal/vectorops"
	"GraphRAG/pkg/logger"
)

// Config tunes the two retrieval phases and how their scores combine.
type Config struct {
	EmbeddingTopK int     // candidates kept from the embedding phase
	TopicTopN     int     // top candidates whose topics seed the expansion
	MaxPerTopic   int     // expansion chunks fetched per inferred topic
	TopicWeight   float64 // share of the final score owned by topic relevance
	FinalTopK     int     // results returned; 0 falls back to EmbeddingTopK
}

// Result is one retrieved chunk with its score breakdown. Sim is the raw
// cosine similarity to the query; TopicRel is 1 when the chunk belongs to
// one of the inferred topics, otherwise 0.
type Result struct {
	ChunkID    string          `json:"chunk_id"`
	Content    string          `json:"content"`
	TopicID    string          `json:"topic_id,omitempty"`
	Modality   models.Modality `json:"modality"`
	Sim        float64         `json:"sim"`
	TopicRel   float64         `json:"topic_rel"`
	FinalScore float64         `json:"final_score"`
}

// Retriever combines embedding similarity with topic-graph expansion.
// The embedding phase ranks every stored chunk against the query vector;
// the topics of the leading candidates then pull in chunks the embedding
// phase alone would have missed.
type Retriever struct {
	store graphstore.ChunkStore
	cfg   Config
	log   *logger.Logger
}

func NewRetriever(store graphstore.ChunkStore, cfg Config, log *logger.Logger) *Retriever {
	if cfg.FinalTopK <= 0 {
		cfg.FinalTopK = cfg.EmbeddingTopK
	}
	return &Retriever{store: store, cfg: cfg, log: log}
}

type scoredChunk struct {
	record models.ChunkRecord
	sim    float64
}

// Retrieve runs the hybrid pipeline for one query embedding.
func (r *Retriever) Retrieve(ctx context.Context, queryEmbedding []float32) ([]Result, error) {
	if len(queryEmbedding) == 0 {
		return nil, errors.New("query embedding is empty")
	}

	// 1. Embedding phase: score every chunk against the query.
	candidates, err := r.embeddingPhase(ctx, queryEmbedding)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		r.log.Info("No embedded chunks available for retrieval")
		return []Result{}, nil
	}

	// 2. Infer topics from the leading candidates.
	topics := r.inferTopics(candidates)

	// 3. Expand each inferred topic into its member chunks.
	merged := make(map[string]*Result, len(candidates))
	for _, cand := range candidates {
		merged[cand.record.ID] = &Result{
			ChunkID:  cand.record.ID,
			Content:  cand.record.Content,
			TopicID:  derefTopic(cand.record.TopicID),
			Modality: cand.record.Modality,
			Sim:      cand.sim,
		}
	}
	for _, topicID := range topics {
		members, err := r.store.ChunksByTopic(ctx, topicID, r.cfg.MaxPerTopic)
		if err != nil {
			return nil, fmt.Errorf("expand topic %s: %w", topicID, err)
		}
		for _, member := range members {
			if existing, ok := merged[member.ID]; ok {
				// Overlap keeps its similarity and gains topic relevance.
				existing.TopicRel = 1
				continue
			}
			merged[member.ID] = &Result{
				ChunkID:  member.ID,
				Content:  member.Content,
				TopicID:  derefTopic(member.TopicID),
				Modality: member.Modality,
				TopicRel: 1,
			}
		}
	}

	// 4. Combine the two signals and rank.
	results := make([]Result, 0, len(merged))
	for _, res := range merged {
		res.FinalScore = (1-r.cfg.TopicWeight)*res.Sim + r.cfg.TopicWeight*res.TopicRel
		results = append(results, *res)
	}
	sort.Slice(results, func(x, y int) bool {
		if results[x].FinalScore != results[y].FinalScore {
			return results[x].FinalScore > results[y].FinalScore
		}
		return results[x].ChunkID < results[y].ChunkID
	})
	if len(results) > r.cfg.FinalTopK {
		results = results[:r.cfg.FinalTopK]
	}

	r.log.Info(fmt.Sprintf("Hybrid retrieval produced %d results from %d candidates and %d topics",
		len(results), len(candidates), len(topics)))
	return results, nil
}

// embeddingPhase returns the EmbeddingTopK most similar chunks, ordered by
// similarity descending with chunk id as the tie break. Chunks whose
// embedding dimension does not match the query are skipped, not fatal.
func (r *Retriever) embeddingPhase(ctx context.Context, queryEmbedding []float32) ([]scoredChunk, error) {
	records, err := r.store.ChunksWithEmbedding(ctx)
	if err != nil {
		return nil, fmt.Errorf("load candidate chunks: %w", err)
	}

	scored := make([]scoredChunk, 0, len(records))
	skipped := 0
	for _, record := range records {
		sim, err := vectorops.CosineSimilarity(queryEmbedding, record.Embedding)
		if err != nil {
			skipped++
			continue
		}
		scored = append(scored, scoredChunk{record: record, sim: sim})
	}
	if skipped > 0 {
		r.log.Warn(fmt.Sprintf("Skipped %d chunks with mismatched embedding dimension", skipped))
	}

	sort.Slice(scored, func(x, y int) bool {
		if scored[x].sim != scored[y].sim {
			return scored[x].sim > scored[y].sim
		}
		return scored[x].record.ID < scored[y].record.ID
	})
	if len(scored) > r.cfg.EmbeddingTopK {
		scored = scored[:r.cfg.EmbeddingTopK]
	}
	return scored, nil
}

// inferTopics collects the distinct topic ids of the first TopicTopN
// candidates, preserving candidate order.
func (r *Retriever) inferTopics(candidates []scoredChunk) []string {
	limit := r.cfg.TopicTopN
	if limit > len(candidates) {
		limit = len(candidates)
	}
	seen := make(map[string]struct{}, limit)
	topics := make([]string, 0, limit)
	for _, cand := range candidates[:limit] {
		topicID := derefTopic(cand.record.TopicID)
		if topicID == "" {
			continue
		}
		if _, ok := seen[topicID]; ok {
			continue
		}
		seen[topicID] = struct{}{}
		topics = append(topics, topicID)
	}
	return topics
}

func derefTopic(topicID *string) string {
	if topicID == nil {
		return ""
	}
	return *topicID
}
