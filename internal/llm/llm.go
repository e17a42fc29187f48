package llm

import (
	"context"
	"fmt"

	"GraphRAG/internal/config"
)

// Generator 定义了所有大型语言模型客户端必须实现的通用接口。
type Generator interface {
	// Generate 根据提示词生成一段文本回答。
	//
	// 参数:
	//   ctx: 上下文，用于控制请求的生命周期。
	//   prompt: 完整的提示词（包含检索到的上下文和用户问题）。
	//
	// 返回值:
	//   string: 生成的回答文本。
	//   error: 如果生成失败，则返回错误。
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewClient 是一个工厂函数，根据提供的配置创建并返回一个实现了 Generator 接口的客户端。
func NewClient(cfg config.LLMConfig) (Generator, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllama(cfg.Model, cfg.BaseURL)
	case "openai":
		return NewOpenAI(cfg.Model, cfg.APIKey, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
