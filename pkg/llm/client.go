// Package llm provides a client for interacting with Large Language Models.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"doc-qa-go/internal/config"
	"doc-qa-go/internal/model"
	"doc-qa-go/pkg/log"
)

// promptTemplate 是答案生成使用的固定提示词模板。
const promptTemplate = "Answer the question based on the following context:\n%s\n\nQuestion: %s\nAnswer:"

// Client defines the interface for an LLM client.
type Client interface {
	// Generate 根据问题与检索到的上下文分块生成答案。
	// 所有失败路径都被吸收并转换为一段面向用户的文本，永远不返回错误。
	Generate(ctx context.Context, question string, contexts []model.SourceChunk) string
	// HealthCheck 对补全服务做一次轻量可达性探测。
	HealthCheck(ctx context.Context) bool
}

type completionClient struct {
	cfg    config.LLMConfig
	client *http.Client
	probe  *http.Client
}

// NewClient creates a new LLM client based on the config.
func NewClient(cfg config.LLMConfig) Client {
	return &completionClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		probe:  &http.Client{Timeout: 5 * time.Second},
	}
}

type completionRequest struct {
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}

type completionResponse struct {
	Completion string `json:"completion"`
	Choices    []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

// Generate calls the completions API and returns the generated answer text.
func (c *completionClient) Generate(ctx context.Context, question string, contexts []model.SourceChunk) string {
	texts := make([]string, 0, len(contexts))
	for _, chunk := range contexts {
		texts = append(texts, chunk.Text)
	}
	prompt := fmt.Sprintf(promptTemplate, strings.Join(texts, "\n\n"), question)

	reqBody := completionRequest{
		Model:     c.cfg.Model,
		Prompt:    prompt,
		MaxTokens: c.cfg.MaxTokens,
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		log.Errorf("[LLMClient] 序列化补全请求失败: %v", err)
		return fmt.Sprintf("LLM request failed: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/v1/completions", bytes.NewReader(reqBytes))
	if err != nil {
		log.Errorf("[LLMClient] 构建补全请求失败: %v", err)
		return fmt.Sprintf("LLM request failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// 连接类错误返回可操作的提示信息，而不是裸错误
		log.Errorf("[LLMClient] 连接补全服务失败, url: %s, error: %v", c.cfg.BaseURL, err)
		return c.unreachableMessage()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Errorf("[LLMClient] 补全服务返回非 200 状态码: %s", resp.Status)
		return fmt.Sprintf("LLM request failed: completion api returned status %s", resp.Status)
	}

	var completionResp completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completionResp); err != nil {
		log.Errorf("[LLMClient] 解析补全响应失败: %v", err)
		return fmt.Sprintf("LLM request failed: %v", err)
	}

	if completionResp.Completion != "" {
		return completionResp.Completion
	}
	if len(completionResp.Choices) > 0 {
		return completionResp.Choices[0].Text
	}
	log.Warnf("[LLMClient] 补全响应中既无 completion 也无 choices 字段")
	return "No answer generated."
}

// unreachableMessage 构造补全服务不可达时返回给用户的说明文本。
func (c *completionClient) unreachableMessage() string {
	return "LLM backend not available. The server attempted to contact the configured LLM at " +
		c.cfg.BaseURL + " but couldn't connect." +
		"\nActions you can take:" +
		"\n - Run Ollama locally (https://ollama.ai) or start your LLM service and ensure it listens on the configured URL." +
		"\n - Set the environment variable DOCQA_LLM_BASE_URL to a reachable endpoint (for Docker on Windows use http://host.docker.internal:11434)." +
		"\n - Or point the configuration at a hosted completion API instead."
}

// HealthCheck 对 {base}/health 做一次 GET 探测，返回是否可达。
func (c *completionClient) HealthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, "GET", c.cfg.BaseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.probe.Do(req)
	if err != nil {
		log.Warnf("[LLMClient] 补全服务健康检查失败, url: %s, error: %v", c.cfg.BaseURL, err)
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
