package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"GraphRAG/internal/query"
	"GraphRAG/internal/retrieval"
	"GraphRAG/pkg/logger"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler 持有查询服务的协作组件，并实现所有 HTTP 处理函数。
type Handler struct {
	session *query.Session
	health  HealthChecker
	service string
}

// NewHandler 创建一个新的 Handler 实例。
func NewHandler(session *query.Session, health HealthChecker, service string) *Handler {
	return &Handler{session: session, health: health, service: service}
}

type retrieveRequest struct {
	Query string `json:"query" binding:"required"`
	TopK  int    `json:"top_k"`
}

type queryRequest struct {
	Query string `json:"query" binding:"required"`
}

type queryResponse struct {
	Answer string             `json:"answer"`
	Chunks []retrieval.Result `json:"chunks"`
}

// Health 检查存储连通性并返回服务状态。
func (h *Handler) Health(c *gin.Context) {
	if err := h.health.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Retrieve 处理仅检索请求，返回带评分的上下文块。
func (h *Handler) Retrieve(c *gin.Context) {
	log := logger.New(h.service, traceID(c))

	var req retrieveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	results, err := h.session.Retrieve(c.Request.Context(), req.Query)
	if err != nil {
		log.Error(fmt.Sprintf("Retrieval failed: %v", err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	if req.TopK > 0 && req.TopK < len(results) {
		results = results[:req.TopK]
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// Query 处理完整的问答请求：检索上下文并调用 LLM 生成回答。
func (h *Handler) Query(c *gin.Context) {
	log := logger.New(h.service, traceID(c))

	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	answer, chunks, err := h.session.Answer(c.Request.Context(), req.Query)
	if err != nil {
		log.Error(fmt.Sprintf("Query failed: %v", err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, queryResponse{Answer: answer, Chunks: chunks})
}

// statusFor 将错误映射到 HTTP 状态码：上游模型故障返回 502，存储故障返回 500。
func statusFor(err error) int {
	if errors.Is(err, query.ErrEmbeddingFailure) || errors.Is(err, query.ErrGenerationFailure) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
