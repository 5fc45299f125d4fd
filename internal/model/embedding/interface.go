package embedding

import (
	"context"
	"fmt"
)

// Embedder 向量化接口。相同输入必须返回相同向量，维度在部署期固定。
type Embedder interface {
	// Embed 对文本做向量化，返回与 texts 一一对应的向量
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	// Dimension 返回向量维度
	Dimension() int
	// Model 返回模型名称
	Model() string
}

// NewEmbedder 创建 Embedder；hash 为本地确定性实现（离线/开发用）
func NewEmbedder(provider, model, apiKey, baseURL string, dimension int) (Embedder, error) {
	switch provider {
	case "hash":
		return NewHashEmbedder(dimension), nil
	case "openai", "qwen", "":
		return NewOpenAIAdapter(apiKey, model, baseURL, dimension), nil
	default:
		return nil, fmt.Errorf("不支持的 embedding provider: %s", provider)
	}
}
