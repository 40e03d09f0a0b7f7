package handler

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"

	"doc-qa-go/internal/model"
	"doc-qa-go/pkg/qdrant"
)

// mockEmbedder 实现 embedding.Client 接口。
type mockEmbedder struct {
	embedFn func(text string) ([]float32, error)
	calls   int
}

func (m *mockEmbedder) CreateEmbedding(_ context.Context, text string) ([]float32, error) {
	m.calls++
	if m.embedFn != nil {
		return m.embedFn(text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

// mockStore 同时实现 pipeline.VectorStore 与 service.VectorSearcher 接口。
type mockStore struct {
	points      []qdrant.Point
	hits        []qdrant.ScoredPoint
	upsertErr   error
	searchErr   error
	searchCalls int
}

func (m *mockStore) Upsert(_ context.Context, points []qdrant.Point) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.points = append(m.points, points...)
	return nil
}

func (m *mockStore) Search(_ context.Context, _ []float32, limit int) ([]qdrant.ScoredPoint, error) {
	m.searchCalls++
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if len(m.hits) > limit {
		return m.hits[:limit], nil
	}
	return m.hits, nil
}

// mockLLM 实现 llm.Client 接口。
type mockLLM struct {
	answer        string
	healthy       bool
	generateCalls int
}

func (m *mockLLM) Generate(_ context.Context, _ string, _ []model.SourceChunk) string {
	m.generateCalls++
	return m.answer
}

func (m *mockLLM) HealthCheck(_ context.Context) bool {
	return m.healthy
}

// performRequest 构造路由并执行一次请求，返回响应记录器。
func performRequest(handlerFn gin.HandlerFunc, method, path string, req *http.Request) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Handle(method, path, handlerFn)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
