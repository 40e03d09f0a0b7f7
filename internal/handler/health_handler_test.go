package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"doc-qa-go/internal/model"
)

func TestHealth(t *testing.T) {
	tests := []struct {
		name           string
		storeConnected bool
		llmHealthy     bool
		wantQdrant     string
		wantOllama     string
	}{
		{"全部可用", true, true, "connected", "available"},
		{"向量库断开", false, true, "disconnected", "available"},
		{"补全服务不可达", true, false, "connected", "unavailable"},
		{"全部不可用", false, false, "disconnected", "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(&mockLLM{healthy: tt.llmHealthy}, tt.storeConnected)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := performRequest(h.Health, http.MethodGet, "/health", req)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", w.Code)
			}

			var resp model.HealthResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("解析响应失败: %v", err)
			}
			if resp.Qdrant != tt.wantQdrant || resp.Ollama != tt.wantOllama {
				t.Errorf("resp = %+v, want qdrant=%s ollama=%s", resp, tt.wantQdrant, tt.wantOllama)
			}
		})
	}
}
