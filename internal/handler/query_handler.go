package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"doc-qa-go/internal/model"
	"doc-qa-go/internal/service"
	"doc-qa-go/pkg/log"
	"doc-qa-go/pkg/qdrant"
)

// QueryHandler 负责处理问答请求。
type QueryHandler struct {
	queryService service.QueryService
}

// NewQueryHandler 创建一个新的 QueryHandler 实例。
func NewQueryHandler(queryService service.QueryService) *QueryHandler {
	return &QueryHandler{queryService: queryService}
}

// Query 处理问答请求：校验问题 → 向量化 → 检索 → 生成答案。
// 问题缺失时不会产生任何对外部服务的调用。
func (h *QueryHandler) Query(c *gin.Context) {
	var req model.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("[QueryHandler] 请求校验失败: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Question is required"})
		return
	}

	resp, err := h.queryService.Ask(c.Request.Context(), req.Question)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmbedding):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate query embedding"})
		case errors.Is(err, qdrant.ErrNotConnected):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Vector store not connected"})
		default:
			log.Error("[QueryHandler] 问答服务返回错误", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Vector search failed"})
		}
		return
	}

	log.Infof("[QueryHandler] 问答成功, question: '%s', 引用 %d 个分块", req.Question, len(resp.Sources))
	c.JSON(http.StatusOK, resp)
}
