package api

import "github.com/gin-gonic/gin"

// SetupRouter 配置和返回一个 Gin 引擎实例。
func SetupRouter(h *Handler) *gin.Engine {
	// 使用默认中间件 (logger, recovery) 创建一个 Gin 引擎。
	r := gin.Default()

	// 为每个请求分配追踪 ID。
	r.Use(TraceMiddleware())

	r.GET("/health", h.Health)

	// 使用 v1 版本对 API 进行分组
	apiV1 := r.Group("/api/v1")
	{
		apiV1.POST("/retrieve", h.Retrieve)
		apiV1.POST("/query", h.Query)
	}

	return r
}
