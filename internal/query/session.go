package query

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"GraphRAG/internal/embedding"
	"GraphRAG/internal/llm"
	"GraphRAG/internal/retrieval"
	"GraphRAG/pkg/logger"
)

// NoContextAnswer is returned without calling the model when retrieval
// finds nothing to ground an answer on.
const NoContextAnswer = "I could not find any relevant context to answer this question."

// Collaborator failure markers. Callers use these to separate upstream
// model outages from store problems.
var (
	ErrEmbeddingFailure  = errors.New("embedding failure")
	ErrGenerationFailure = errors.New("generation failure")
)

// Session wires the question-answering flow: embed the question, retrieve
// context chunks from the graph, and ask the model to answer from that
// context only. The embedding cache is optional; a nil cache disables it.
type Session struct {
	embedder  embedding.Embedding
	retriever *retrieval.Retriever
	generator llm.Generator
	cache     *redis.Client
	cacheTTL  time.Duration
	log       *logger.Logger
}

func NewSession(embedder embedding.Embedding, retriever *retrieval.Retriever, generator llm.Generator, cache *redis.Client, cacheTTL time.Duration, log *logger.Logger) *Session {
	return &Session{
		embedder:  embedder,
		retriever: retriever,
		generator: generator,
		cache:     cache,
		cacheTTL:  cacheTTL,
		log:       log,
	}
}

// Answer runs the full pipeline for one question.
func (s *Session) Answer(ctx context.Context, question string) (string, []retrieval.Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", nil, errors.New("question is empty")
	}

	results, err := s.Retrieve(ctx, question)
	if err != nil {
		return "", nil, err
	}
	if len(results) == 0 {
		s.log.Info("No context retrieved, skipping generation")
		return NoContextAnswer, results, nil
	}

	prompt := buildPrompt(question, results)
	s.log.Info("Sending prompt to LLM to generate answer...")
	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.log.Error(fmt.Sprintf("LLM failed to generate answer: %v", err))
		return "", nil, fmt.Errorf("generate answer: %w", errors.Join(ErrGenerationFailure, err))
	}

	s.log.Info("Successfully generated answer from LLM.")
	return answer, results, nil
}

// Retrieve embeds the question and returns the hybrid retrieval results
// without generating an answer.
func (s *Session) Retrieve(ctx context.Context, question string) ([]retrieval.Result, error) {
	queryEmbedding, err := s.embedQuestion(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", errors.Join(ErrEmbeddingFailure, err))
	}
	return s.retriever.Retrieve(ctx, queryEmbedding)
}

// embedQuestion returns the question embedding, consulting the cache
// first. Cache failures are logged and ignored; the embedder error is the
// only one that surfaces.
func (s *Session) embedQuestion(ctx context.Context, question string) ([]float32, error) {
	key := cacheKey(question)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key).Result()
		if err == nil {
			var vec []float32
			if jsonErr := json.Unmarshal([]byte(cached), &vec); jsonErr == nil && len(vec) > 0 {
				return vec, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.log.Warn(fmt.Sprintf("Embedding cache lookup failed: %v", err))
		}
	}

	vec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, jsonErr := json.Marshal(vec); jsonErr == nil {
			if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
				s.log.Warn(fmt.Sprintf("Embedding cache store failed: %v", err))
			}
		}
	}
	return vec, nil
}

func cacheKey(question string) string {
	sum := sha256.Sum256([]byte(question))
	return "graphrag:embedding:" + hex.EncodeToString(sum[:])
}

// buildPrompt combines the retrieved chunks and the question into the
// model prompt. Each chunk carries its id and similarity so the model can
// weigh sources.
func buildPrompt(question string, results []retrieval.Result) string {
	var sb strings.Builder

	sb.WriteString("You are a helpful AI. Use ONLY the context below to answer the question.\n\n")
	sb.WriteString("CONTEXT:\n")
	for i, res := range results {
		sb.WriteString(fmt.Sprintf("CHUNK #%d (id=%s, sim=%.3f):\n%s\n\n", i+1, res.ChunkID, res.Sim, res.Content))
	}
	sb.WriteString(fmt.Sprintf("QUESTION: %s\n\n", question))
	sb.WriteString("ANSWER:")

	return sb.String()
}
