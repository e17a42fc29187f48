package embedding

import (
	"fmt"

	"GraphRAG/internal/config"
)

// NewEmdModel 根据配置中指定的提供商、模型、API 密钥和基础 URL 创建并返回一个新的 Embedding 模型实例。
//
// 参数:
//
//	cfg: Embedding 模型配置，包含提供商 (例如: "openai", "ollama")、模型名称、API 密钥和基础 URL。
//
// 返回值:
//
//	Embedding: 新创建的 Embedding 模型实例。
//	error: 如果提供商不支持或模型初始化失败，则返回错误。
func NewEmdModel(cfg config.EmbeddingConfig) (Embedding, error) {
	// 根据提供商类型创建相应的 Embedding 模型实例。
	switch cfg.Provider {
	case string(OpenAI):
		return NewOpenAIModel(cfg.Model, cfg.APIKey, cfg.BaseURL)
	case string(Ollama):
		return NewOllamaModel(cfg.Model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider) // 如果提供商不支持，返回错误。
	}
}
