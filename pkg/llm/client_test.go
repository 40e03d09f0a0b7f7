package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"doc-qa-go/internal/config"
	"doc-qa-go/internal/model"
)

func newTestClient(baseURL string) Client {
	return NewClient(config.LLMConfig{
		BaseURL:   baseURL,
		Model:     "gemma3:270m",
		MaxTokens: 512,
	})
}

func TestGenerateCompletionField(t *testing.T) {
	var gotReq completionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/completions" {
			t.Errorf("path = %s, want /v1/completions", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("解析请求失败: %v", err)
		}
		w.Write([]byte(`{"completion": "42"}`))
	}))
	defer server.Close()

	contexts := []model.SourceChunk{
		{Filename: "a.txt", Text: "first chunk"},
		{Filename: "b.txt", Text: "second chunk"},
	}
	answer := newTestClient(server.URL).Generate(context.Background(), "what is the answer?", contexts)
	if answer != "42" {
		t.Errorf("answer = %q, want 42", answer)
	}

	wantPrompt := "Answer the question based on the following context:\n" +
		"first chunk\n\nsecond chunk" +
		"\n\nQuestion: what is the answer?\nAnswer:"
	if gotReq.Prompt != wantPrompt {
		t.Errorf("prompt = %q, want %q", gotReq.Prompt, wantPrompt)
	}
	if gotReq.MaxTokens != 512 {
		t.Errorf("max_tokens = %d, want 512", gotReq.MaxTokens)
	}
	if gotReq.Model != "gemma3:270m" {
		t.Errorf("model = %q", gotReq.Model)
	}
}

func TestGenerateChoicesField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": [{"text": "from choices"}]}`))
	}))
	defer server.Close()

	answer := newTestClient(server.URL).Generate(context.Background(), "q", nil)
	if answer != "from choices" {
		t.Errorf("answer = %q, want 'from choices'", answer)
	}
}

func TestGenerateNoAnswerFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"usage": {"total_tokens": 7}}`))
	}))
	defer server.Close()

	answer := newTestClient(server.URL).Generate(context.Background(), "q", nil)
	if answer != "No answer generated." {
		t.Errorf("answer = %q, want 'No answer generated.'", answer)
	}
}

// 连接失败时返回包含端点与处置建议的提示文本，而不是错误。
func TestGenerateUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	answer := newTestClient(baseURL).Generate(context.Background(), "q", nil)
	if !strings.Contains(answer, "LLM backend not available") {
		t.Errorf("缺少不可用提示: %q", answer)
	}
	if !strings.Contains(answer, baseURL) {
		t.Errorf("提示中应包含配置的端点地址: %q", answer)
	}
}

func TestGenerateNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	answer := newTestClient(server.URL).Generate(context.Background(), "q", nil)
	if !strings.Contains(answer, "LLM request failed") {
		t.Errorf("answer = %q, 应包含原始错误说明", answer)
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if !newTestClient(server.URL).HealthCheck(context.Background()) {
		t.Error("可达的服务应返回 true")
	}

	server.Close()
	if newTestClient(server.URL).HealthCheck(context.Background()) {
		t.Error("已关闭的服务应返回 false")
	}
}
