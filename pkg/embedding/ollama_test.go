package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"doc-qa-go/internal/config"
)

func TestOllamaCreateEmbedding(t *testing.T) {
	var showCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/show":
			showCalls.Add(1)
			w.WriteHeader(http.StatusOK)
		case "/api/embeddings":
			var req ollamaEmbedRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("解析请求失败: %v", err)
			}
			if req.Model != "all-minilm" || req.Prompt != "hello" {
				t.Errorf("请求参数不符: %+v", req)
			}
			json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{0.1, 0.2}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := newOllamaClient(config.EmbeddingConfig{
		Provider: "ollama",
		BaseURL:  server.URL,
		Model:    "all-minilm",
	})

	for i := 0; i < 3; i++ {
		vector, err := client.CreateEmbedding(context.Background(), "hello")
		if err != nil {
			t.Fatalf("CreateEmbedding 返回错误: %v", err)
		}
		if len(vector) != 2 {
			t.Fatalf("向量维度 = %d, want 2", len(vector))
		}
	}
	// 模型只在首次调用时加载一次
	if got := showCalls.Load(); got != 1 {
		t.Errorf("模型加载次数 = %d, want 1", got)
	}
}

// 首次加载失败被缓存，之后的请求快速失败且不再重试加载。
func TestOllamaLoadFailureCached(t *testing.T) {
	var showCalls atomic.Int32
	var modelReady atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/show":
			showCalls.Add(1)
			if modelReady.Load() {
				w.WriteHeader(http.StatusOK)
			} else {
				http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
			}
		case "/api/embeddings":
			json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{0.1}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := newOllamaClient(config.EmbeddingConfig{
		Provider: "ollama",
		BaseURL:  server.URL,
		Model:    "missing-model",
	})

	if _, err := client.CreateEmbedding(context.Background(), "hello"); err == nil {
		t.Fatal("模型缺失时应返回错误")
	}

	// 即使模型之后恢复可用，本进程内也不会再触发加载
	modelReady.Store(true)
	if _, err := client.CreateEmbedding(context.Background(), "hello"); err == nil {
		t.Fatal("加载失败已缓存, 后续请求应快速失败")
	}
	if got := showCalls.Load(); got != 1 {
		t.Errorf("模型加载次数 = %d, want 1", got)
	}
}
