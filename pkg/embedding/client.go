// Package embedding provides a client for interacting with embedding models.
package embedding

import (
	"context"
	"fmt"

	"doc-qa-go/internal/config"
)

// Client defines the interface for an embedding client.
type Client interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// NewClient 根据配置中的 provider 创建对应的 embedding 客户端。
// 每次部署只激活一种策略，策略之间不做单次调用内的自动回退。
func NewClient(cfg config.EmbeddingConfig) (Client, error) {
	switch cfg.Provider {
	case "huggingface":
		return newHuggingFaceClient(cfg), nil
	case "ollama":
		return newOllamaClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
