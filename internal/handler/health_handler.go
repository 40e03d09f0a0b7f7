// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"doc-qa-go/internal/model"
	"doc-qa-go/pkg/llm"
)

// HealthHandler 负责处理健康检查请求。
type HealthHandler struct {
	llmClient llm.Client
	// storeConnected 反映向量库客户端在启动时的初始化结果，
	// 与补全服务的可达性相互独立。
	storeConnected bool
}

// NewHealthHandler 创建一个新的 HealthHandler 实例。
func NewHealthHandler(llmClient llm.Client, storeConnected bool) *HealthHandler {
	return &HealthHandler{
		llmClient:      llmClient,
		storeConnected: storeConnected,
	}
}

// Health 返回关键子系统的状态。补全服务做一次短超时的同步探测，
// 无任何副作用。
func (h *HealthHandler) Health(c *gin.Context) {
	qdrantStatus := "disconnected"
	if h.storeConnected {
		qdrantStatus = "connected"
	}

	ollamaStatus := "unavailable"
	if h.llmClient.HealthCheck(c.Request.Context()) {
		ollamaStatus = "available"
	}

	c.JSON(http.StatusOK, model.HealthResponse{
		Qdrant: qdrantStatus,
		Ollama: ollamaStatus,
	})
}
