package llm

import (
	"context"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenAI 是一个用于 OpenAI Chat Completion API 的 LLM 客户端。
type OpenAI struct {
	client *openai.Client // OpenAI 客户端实例。
	model  string         // 要使用的模型名称。
}

// NewOpenAI 创建一个新的 OpenAI 客户端。
//
// 参数:
//
//	model: 要使用的模型名称。
//	apiKey: OpenAI 的 API 密钥。
//	baseURL: 服务基础 URL (可选，用于 OpenAI 兼容服务)。
//
// 返回值:
//
//	*OpenAI: 新创建的 OpenAI 客户端实例。
//	error: 如果创建客户端失败，则返回错误。
func NewOpenAI(model, apiKey, baseURL string) (*OpenAI, error) {
	// 使用 API 密钥创建默认配置。
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	// 使用配置创建新的 OpenAI 客户端。
	client := openai.NewClientWithConfig(config)
	return &OpenAI{client: client, model: model}, nil
}

// Generate 使用 OpenAI Chat Completion API 生成回答文本。
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	// 构建 Chat Completion 请求。
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	// 调用 OpenAI API 生成回答。
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	// 检查是否返回了回答。
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}
