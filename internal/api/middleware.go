package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TraceIDKey 是存储在 Gin 上下文中的追踪 ID 的键。
const TraceIDKey = "trace_id"

// TraceMiddleware 创建一个 Gin 中间件，为每个请求分配一个追踪 ID。
// 如果请求已携带 X-Trace-ID 标头，则复用它；否则生成一个新的 UUID。
// 追踪 ID 会写入响应标头并存储在上下文中，供后续处理函数记录日志使用。
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.NewString()
		}

		c.Set(TraceIDKey, traceID)
		c.Header("X-Trace-ID", traceID)

		// 进入下一个处理函数
		c.Next()
	}
}

// traceID 从 Gin 上下文中取出当前请求的追踪 ID。
func traceID(c *gin.Context) string {
	if v, ok := c.Get(TraceIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
