package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"doc-qa-go/internal/config"
	"doc-qa-go/pkg/log"
)

// huggingFaceClient 调用 Hugging Face feature-extraction 推理 API。
type huggingFaceClient struct {
	cfg    config.EmbeddingConfig
	client *http.Client
}

func newHuggingFaceClient(cfg config.EmbeddingConfig) *huggingFaceClient {
	return &huggingFaceClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type hfRequest struct {
	Inputs string `json:"inputs"`
}

// CreateEmbedding calls the Hugging Face Inference API to get the vector for a given text.
// 推理 API 对某些模型返回逐 token 向量，此时按元素取平均得到单一句向量；
// 返回已是单一向量时直接使用。
func (c *huggingFaceClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	log.Infof("[EmbeddingClient] 开始调用 HuggingFace API, model: %s, input_len: %d", c.cfg.Model, len(text))

	reqBytes, err := json.Marshal(hfRequest{Inputs: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/" + c.cfg.Model
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("[EmbeddingClient] 调用 HuggingFace API 失败, error: %v", err)
		return nil, fmt.Errorf("failed to call embedding api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Errorf("[EmbeddingClient] HuggingFace API 返回非 200 状态码: %s, body: %s", resp.Status, string(body))
		return nil, fmt.Errorf("embedding api returned non-200 status %s: %s", resp.Status, string(body))
	}

	vector, err := parseFeatureExtraction(body)
	if err != nil {
		log.Errorf("[EmbeddingClient] 解析 HuggingFace API 响应失败, error: %v", err)
		return nil, err
	}

	log.Infof("[EmbeddingClient] 成功从 HuggingFace API 获取向量, 维度: %d", len(vector))
	return vector, nil
}

// parseFeatureExtraction 解析 feature-extraction 响应。
// 逐 token 形态: [[[..] [..] ..]]，按元素平均；句向量形态: [[..]]，直接返回。
func parseFeatureExtraction(body []byte) ([]float32, error) {
	var tokenLevel [][][]float32
	if err := json.Unmarshal(body, &tokenLevel); err == nil {
		if len(tokenLevel) == 0 || len(tokenLevel[0]) == 0 {
			return nil, fmt.Errorf("received empty embedding from api")
		}
		return averageVectors(tokenLevel[0]), nil
	}

	var sentenceLevel [][]float32
	if err := json.Unmarshal(body, &sentenceLevel); err == nil {
		if len(sentenceLevel) == 0 || len(sentenceLevel[0]) == 0 {
			return nil, fmt.Errorf("received empty embedding from api")
		}
		return sentenceLevel[0], nil
	}

	return nil, fmt.Errorf("unexpected embedding response shape: %s", truncateForLog(body))
}

// averageVectors 对逐 token 向量按元素取平均，得到单一句向量。
func averageVectors(tokens [][]float32) []float32 {
	dim := len(tokens[0])
	sum := make([]float64, dim)
	for _, tok := range tokens {
		for i := 0; i < dim && i < len(tok); i++ {
			sum[i] += float64(tok[i])
		}
	}
	vector := make([]float32, dim)
	for i := range sum {
		vector[i] = float32(sum[i] / float64(len(tokens)))
	}
	return vector
}

func truncateForLog(body []byte) string {
	const maxLen = 200
	if len(body) > maxLen {
		return string(body[:maxLen]) + "..."
	}
	return string(body)
}
