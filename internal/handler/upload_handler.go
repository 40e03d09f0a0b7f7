package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"doc-qa-go/internal/model"
	"doc-qa-go/internal/pipeline"
	"doc-qa-go/pkg/log"
	"doc-qa-go/pkg/qdrant"
)

// UploadHandler 负责处理文档上传请求。
type UploadHandler struct {
	processor *pipeline.Processor
}

// NewUploadHandler 创建一个新的 UploadHandler 实例。
func NewUploadHandler(processor *pipeline.Processor) *UploadHandler {
	return &UploadHandler{processor: processor}
}

// Upload 处理 multipart 文件上传：提取 → 分块 → 向量化 → 批量入库。
// 响应中区分提取失败与全部向量化失败两类错误。
func (h *UploadHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		log.Warnf("[UploadHandler] 未能获取上传文件: %v", err)
		c.JSON(http.StatusBadRequest, model.UploadResponse{
			Status:  "error",
			Message: "Missing file field",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Error("[UploadHandler] 打开上传文件失败", err)
		c.JSON(http.StatusInternalServerError, model.UploadResponse{
			Status:  "error",
			Message: "Failed to read uploaded file",
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Error("[UploadHandler] 读取上传文件失败", err)
		c.JSON(http.StatusInternalServerError, model.UploadResponse{
			Status:  "error",
			Message: "Failed to read uploaded file",
		})
		return
	}

	log.Infof("[UploadHandler] 收到上传请求, FileName: %s, Size: %d 字节", fileHeader.Filename, len(data))

	count, err := h.processor.Process(c.Request.Context(), fileHeader.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrNoText):
			c.JSON(http.StatusBadRequest, model.UploadResponse{
				Status:  "error",
				Message: "Failed to extract text",
			})
		case errors.Is(err, pipeline.ErrNoEmbeddings):
			c.JSON(http.StatusInternalServerError, model.UploadResponse{
				Status:  "error",
				Message: "Failed to generate embeddings",
			})
		case errors.Is(err, qdrant.ErrNotConnected):
			c.JSON(http.StatusServiceUnavailable, model.UploadResponse{
				Status:  "error",
				Message: "Vector store not connected",
			})
		default:
			log.Error("[UploadHandler] 上传处理失败", err)
			c.JSON(http.StatusInternalServerError, model.UploadResponse{
				Status:  "error",
				Message: "Failed to store document",
			})
		}
		return
	}

	c.JSON(http.StatusOK, model.UploadResponse{
		Status:         "success",
		ChunksUploaded: count,
	})
}
