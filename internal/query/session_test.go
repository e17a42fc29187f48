package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"GraphRAG/internal/graphstore"
	"GraphRAG/internal/models"
	"GraphRAG/internal/retrieval"
	"GraphRAG/pkg/logger"
)

type stubEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	return s.vec, s.err
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vec
	}
	return out, s.err
}

type stubGenerator struct {
	answer string
	err    error
	prompt string
	calls  int
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	s.calls++
	s.prompt = prompt
	return s.answer, s.err
}

func newTestSession(t *testing.T, embedder *stubEmbedder, generator *stubGenerator, chunks ...models.Chunk) *Session {
	t.Helper()
	store := graphstore.NewMemoryStore()
	for _, chunk := range chunks {
		if err := store.UpsertChunk(context.Background(), chunk); err != nil {
			t.Fatalf("UpsertChunk(%s) error = %v", chunk.ID, err)
		}
	}
	retriever := retrieval.NewRetriever(store, retrieval.Config{
		EmbeddingTopK: 5,
		TopicTopN:     3,
		MaxPerTopic:   5,
		TopicWeight:   0.3,
	}, logger.New("query-test", ""))
	return NewSession(embedder, retriever, generator, nil, 0, logger.New("query-test", ""))
}

func TestAnswerNoContext(t *testing.T) {
	embedder := &stubEmbedder{vec: []float32{1, 0}}
	generator := &stubGenerator{answer: "should not be called"}
	session := newTestSession(t, embedder, generator)

	answer, results, err := session.Answer(context.Background(), "what is this about?")
	if err != nil {
		t.Fatalf("Answer error = %v", err)
	}
	if answer != NoContextAnswer {
		t.Errorf("answer = %q, want canned no-context answer", answer)
	}
	if len(results) != 0 {
		t.Errorf("results = %v, want empty", results)
	}
	if generator.calls != 0 {
		t.Errorf("generator called %d times, want 0", generator.calls)
	}
}

func TestAnswerBuildsPromptFromContext(t *testing.T) {
	embedder := &stubEmbedder{vec: []float32{1, 0}}
	generator := &stubGenerator{answer: "42"}
	session := newTestSession(t, embedder, generator,
		models.Chunk{ID: "chunk1", Modality: models.ModalityText, Content: "the answer is forty-two", Embedding: []float32{1, 0}},
	)

	answer, results, err := session.Answer(context.Background(), "what is the answer?")
	if err != nil {
		t.Fatalf("Answer error = %v", err)
	}
	if answer != "42" {
		t.Errorf("answer = %q, want 42", answer)
	}
	if len(results) != 1 || results[0].ChunkID != "chunk1" {
		t.Errorf("results = %v, want chunk1", results)
	}

	for _, fragment := range []string{
		"Use ONLY the context below",
		"CHUNK #1 (id=chunk1, sim=1.000):",
		"the answer is forty-two",
		"QUESTION: what is the answer?",
		"ANSWER:",
	} {
		if !strings.Contains(generator.prompt, fragment) {
			t.Errorf("prompt missing %q:\n%s", fragment, generator.prompt)
		}
	}
}

func TestAnswerEmptyQuestion(t *testing.T) {
	session := newTestSession(t, &stubEmbedder{vec: []float32{1}}, &stubGenerator{})
	if _, _, err := session.Answer(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty question")
	}
}

func TestAnswerEmbeddingFailureSurfaces(t *testing.T) {
	wantErr := errors.New("embedding service down")
	embedder := &stubEmbedder{err: wantErr}
	session := newTestSession(t, embedder, &stubGenerator{})

	_, _, err := session.Answer(context.Background(), "question")
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want wrapped %v", err, wantErr)
	}
	if !errors.Is(err, ErrEmbeddingFailure) {
		t.Errorf("err = %v, want ErrEmbeddingFailure marker", err)
	}
}

func TestAnswerGenerationFailureSurfaces(t *testing.T) {
	wantErr := errors.New("model overloaded")
	generator := &stubGenerator{err: wantErr}
	session := newTestSession(t, &stubEmbedder{vec: []float32{1, 0}}, generator,
		models.Chunk{ID: "chunk1", Modality: models.ModalityText, Content: "context", Embedding: []float32{1, 0}},
	)

	_, _, err := session.Answer(context.Background(), "question")
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want wrapped %v", err, wantErr)
	}
	if !errors.Is(err, ErrGenerationFailure) {
		t.Errorf("err = %v, want ErrGenerationFailure marker", err)
	}
	if generator.calls != 1 {
		t.Errorf("generator called %d times, want exactly 1 (no retry)", generator.calls)
	}
}

func TestRetrieveDoesNotGenerate(t *testing.T) {
	generator := &stubGenerator{}
	session := newTestSession(t, &stubEmbedder{vec: []float32{1, 0}}, generator,
		models.Chunk{ID: "chunk1", Modality: models.ModalityText, Content: "context", Embedding: []float32{1, 0}},
	)

	results, err := session.Retrieve(context.Background(), "question")
	if err != nil {
		t.Fatalf("Retrieve error = %v", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
	if generator.calls != 0 {
		t.Errorf("generator called %d times, want 0", generator.calls)
	}
}
