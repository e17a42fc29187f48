package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"GraphRAG/internal/graphstore"
	"GraphRAG/internal/models"
	"GraphRAG/internal/query"
	"GraphRAG/internal/retrieval"
	"GraphRAG/pkg/logger"
)

type stubEmbedder struct {
	vec []float32
	err error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
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
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return s.answer, s.err
}

type stubHealth struct{ err error }

func (s *stubHealth) HealthCheck(ctx context.Context) error { return s.err }

func newTestRouter(t *testing.T, embedder *stubEmbedder, generator *stubGenerator, health *stubHealth, chunks ...models.Chunk) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

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
	}, logger.New("api-test", ""))
	session := query.NewSession(embedder, retriever, generator, nil, 0, logger.New("api-test", ""))
	return SetupRouter(NewHandler(session, health, "api-test"))
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthOK(t *testing.T) {
	router := newTestRouter(t, &stubEmbedder{vec: []float32{1}}, &stubGenerator{}, &stubHealth{})
	rec := doRequest(router, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestHealthUnavailable(t *testing.T) {
	router := newTestRouter(t, &stubEmbedder{vec: []float32{1}}, &stubGenerator{}, &stubHealth{err: errors.New("connection refused")})
	rec := doRequest(router, http.MethodGet, "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestQueryHappyPath(t *testing.T) {
	router := newTestRouter(t,
		&stubEmbedder{vec: []float32{1, 0}},
		&stubGenerator{answer: "the answer"},
		&stubHealth{},
		models.Chunk{ID: "chunk1", Modality: models.ModalityText, Content: "context", Embedding: []float32{1, 0}},
	)

	rec := doRequest(router, http.MethodPost, "/api/v1/query", `{"query": "what?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Answer string `json:"answer"`
		Chunks []struct {
			ChunkID string `json:"chunk_id"`
		} `json:"chunks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Answer != "the answer" {
		t.Errorf("answer = %q, want %q", resp.Answer, "the answer")
	}
	if len(resp.Chunks) != 1 || resp.Chunks[0].ChunkID != "chunk1" {
		t.Errorf("chunks = %v, want chunk1", resp.Chunks)
	}
}

func TestQueryBadPayload(t *testing.T) {
	router := newTestRouter(t, &stubEmbedder{vec: []float32{1}}, &stubGenerator{}, &stubHealth{})
	for _, body := range []string{`{}`, `{"query": ""}`, `not json`} {
		rec := doRequest(router, http.MethodPost, "/api/v1/query", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want %d", body, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestQueryEmbedderFailureIsBadGateway(t *testing.T) {
	router := newTestRouter(t,
		&stubEmbedder{err: errors.New("embedder down")},
		&stubGenerator{},
		&stubHealth{},
	)
	rec := doRequest(router, http.MethodPost, "/api/v1/query", `{"query": "what?"}`)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
}

func TestQueryGeneratorFailureIsBadGateway(t *testing.T) {
	router := newTestRouter(t,
		&stubEmbedder{vec: []float32{1, 0}},
		&stubGenerator{err: errors.New("model down")},
		&stubHealth{},
		models.Chunk{ID: "chunk1", Modality: models.ModalityText, Content: "context", Embedding: []float32{1, 0}},
	)
	rec := doRequest(router, http.MethodPost, "/api/v1/query", `{"query": "what?"}`)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
}

func TestRetrieveRespectsTopK(t *testing.T) {
	router := newTestRouter(t,
		&stubEmbedder{vec: []float32{1, 0}},
		&stubGenerator{},
		&stubHealth{},
		models.Chunk{ID: "a", Modality: models.ModalityText, Content: "a", Embedding: []float32{1, 0}},
		models.Chunk{ID: "b", Modality: models.ModalityText, Content: "b", Embedding: []float32{0.9, 0.1}},
		models.Chunk{ID: "c", Modality: models.ModalityText, Content: "c", Embedding: []float32{0.8, 0.2}},
	)

	rec := doRequest(router, http.MethodPost, "/api/v1/retrieve", `{"query": "what?", "top_k": 2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Results []struct {
			ChunkID string `json:"chunk_id"`
		} `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(resp.Results))
	}
	if resp.Results[0].ChunkID != "a" || resp.Results[1].ChunkID != "b" {
		t.Errorf("results = %v, want [a b]", resp.Results)
	}
}

func TestTraceIDPropagated(t *testing.T) {
	router := newTestRouter(t, &stubEmbedder{vec: []float32{1}}, &stubGenerator{}, &stubHealth{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Trace-ID", "trace-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Trace-ID"); got != "trace-123" {
		t.Errorf("X-Trace-ID = %q, want trace-123", got)
	}

	rec2 := doRequest(router, http.MethodGet, "/health", "")
	if rec2.Header().Get("X-Trace-ID") == "" {
		t.Error("expected generated X-Trace-ID header")
	}
}
