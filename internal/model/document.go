// Package model 定义了应用内部与 API 边界使用的数据结构。
package model

// SourceChunk 是检索返回给客户端的一个文档分块，
// 字段来自向量点的 payload。
type SourceChunk struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

// QueryRequest 定义了 /query 接口的请求体结构。
type QueryRequest struct {
	Question string `json:"question" binding:"required"`
}

// QueryResponse 定义了 /query 接口的成功响应结构。
// Sources 按相似度从高到低排序，与生成答案时使用的上下文一致。
type QueryResponse struct {
	Answer  string        `json:"answer"`
	Sources []SourceChunk `json:"sources"`
}

// UploadResponse 定义了 /upload 接口的响应结构。
type UploadResponse struct {
	Status         string `json:"status"`
	ChunksUploaded int    `json:"chunks_uploaded,omitempty"`
	Message        string `json:"message,omitempty"`
}

// HealthResponse 定义了 /health 接口的响应结构。
type HealthResponse struct {
	Qdrant string `json:"qdrant"`
	Ollama string `json:"ollama"`
}
