package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"doc-qa-go/internal/config"
	"doc-qa-go/pkg/log"
)

// ollamaClient 使用本地 Ollama 服务生成向量，作为远程推理 API 的本地替代策略。
// 模型在首次调用时惰性加载；加载结果（包括失败）在进程生命周期内缓存，
// 失败后所有后续请求快速失败，不再重试加载。
type ollamaClient struct {
	cfg    config.EmbeddingConfig
	client *http.Client

	loadOnce sync.Once
	loadErr  error
}

func newOllamaClient(cfg config.EmbeddingConfig) *ollamaClient {
	return &ollamaClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type ollamaShowRequest struct {
	Model string `json:"model"`
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// ensureModel 在首次调用时向 Ollama 确认模型可用，触发按需加载。
func (c *ollamaClient) ensureModel(ctx context.Context) error {
	c.loadOnce.Do(func() {
		log.Infof("[EmbeddingClient] 首次调用, 开始加载本地模型: %s", c.cfg.Model)
		reqBytes, err := json.Marshal(ollamaShowRequest{Model: c.cfg.Model})
		if err != nil {
			c.loadErr = fmt.Errorf("failed to marshal show request: %w", err)
			return
		}

		req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/api/show", bytes.NewReader(reqBytes))
		if err != nil {
			c.loadErr = fmt.Errorf("failed to create show request: %w", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			c.loadErr = fmt.Errorf("failed to reach ollama: %w", err)
			log.Errorf("[EmbeddingClient] 本地模型加载失败, 后续请求将直接失败: %v", c.loadErr)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			c.loadErr = fmt.Errorf("model %s not available: %s, body: %s", c.cfg.Model, resp.Status, string(body))
			log.Errorf("[EmbeddingClient] 本地模型加载失败, 后续请求将直接失败: %v", c.loadErr)
			return
		}
		log.Infof("[EmbeddingClient] 本地模型加载成功: %s", c.cfg.Model)
	})
	return c.loadErr
}

// CreateEmbedding 调用本地 Ollama 的 embeddings 接口为文本生成向量。
func (c *ollamaClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if err := c.ensureModel(ctx); err != nil {
		return nil, fmt.Errorf("embedding model unavailable: %w", err)
	}

	reqBytes, err := json.Marshal(ollamaEmbedRequest{Model: c.cfg.Model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/api/embeddings", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("[EmbeddingClient] 调用 Ollama embeddings 接口失败, error: %v", err)
		return nil, fmt.Errorf("failed to call ollama embeddings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Errorf("[EmbeddingClient] Ollama embeddings 接口返回非 200 状态码: %s", resp.Status)
		return nil, fmt.Errorf("ollama embeddings returned non-200 status: %s", resp.Status)
	}

	var embedResp ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}

	if len(embedResp.Embedding) == 0 {
		log.Warnf("[EmbeddingClient] Ollama 返回了空的向量数据")
		return nil, fmt.Errorf("received empty embedding from ollama")
	}

	return embedResp.Embedding, nil
}
