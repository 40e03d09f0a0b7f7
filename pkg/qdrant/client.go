// Package qdrant 提供了与 Qdrant 向量数据库交互的 REST 客户端。
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"doc-qa-go/internal/config"
	"doc-qa-go/pkg/log"
)

// ErrNotConnected 表示客户端在启动时未能完成初始化，
// 依赖向量库的接口应返回该错误而不是崩溃。
var ErrNotConnected = errors.New("qdrant is not connected")

// Client 是 Qdrant 的轻量 REST 客户端，只封装本应用需要的
// collection 创建、批量 upsert 与相似度搜索三个操作。
type Client struct {
	baseURL    string
	apiKey     string
	collection string
	client     *http.Client
}

// Point 是写入向量库的一个点：随每个分块新生成的 UUID、定长向量
// 以及至少包含 filename 和 text 的 payload。
type Point struct {
	ID      string    `json:"id"`
	Vector  []float32 `json:"vector"`
	Payload Payload   `json:"payload"`
}

// Payload 是点上携带的元数据。
type Payload struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

// ScoredPoint 是一条搜索命中，按相似度分数降序返回。
type ScoredPoint struct {
	Score   float64 `json:"score"`
	Payload Payload `json:"payload"`
}

// NewClient 创建一个新的 Qdrant 客户端实例。
func NewClient(cfg config.QdrantConfig) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

// EnsureCollection 检查 collection 是否存在，不存在则按给定维度与
// cosine 距离创建。该操作是幂等的，可在每次启动时调用。
func (c *Client) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid vector dimension: %d", dimension)
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	status, _, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if status == http.StatusOK {
		log.Infof("[Qdrant] collection '%s' 已存在", c.collection)
		return nil
	}
	if status != http.StatusNotFound {
		return fmt.Errorf("unexpected status checking collection: %d", status)
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	status, respBody, err := c.do(ctx, http.MethodPut, url, body)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	if status >= 300 {
		return fmt.Errorf("create collection returned status %d: %s", status, respBody)
	}
	log.Infof("[Qdrant] 已创建 collection '%s', dim: %d, distance: Cosine", c.collection, dimension)
	return nil
}

// Upsert 将一批点持久化到 collection 中，任何存储端错误都作为
// 硬错误返回给调用方，不做请求级重试。
func (c *Client) Upsert(ctx context.Context, points []Point) error {
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	status, respBody, err := c.do(ctx, http.MethodPut, url, map[string]any{"points": points})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	if status >= 300 {
		return fmt.Errorf("qdrant upsert returned status %d: %s", status, respBody)
	}
	log.Infof("[Qdrant] upsert 成功, collection: %s, points: %d", c.collection, len(points))
	return nil
}

// Search 按向量做最近邻搜索，返回至多 limit 条命中，
// 顺序为相似度分数降序（并列顺序由存储端决定）。
func (c *Client) Search(ctx context.Context, vector []float32, limit int) ([]ScoredPoint, error) {
	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	body := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	status, respBody, err := c.do(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}
	if status >= 300 {
		return nil, fmt.Errorf("qdrant search returned status %d: %s", status, respBody)
	}

	var resp struct {
		Result []ScoredPoint `json:"result"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	if len(resp.Result) > limit {
		resp.Result = resp.Result[:limit]
	}
	return resp.Result, nil
}

// Healthy 做一次轻量连通性探测，不产生副作用。
func (c *Client) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	status, _, err := c.do(ctx, http.MethodGet, c.baseURL+"/collections", nil)
	return err == nil && status == http.StatusOK
}

// do 发送一次 JSON 请求并读回响应体。
func (c *Client) do(ctx context.Context, method, url string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, respBody, nil
}
