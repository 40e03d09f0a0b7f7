// Package service 提供了问答相关的业务逻辑。
package service

import (
	"context"
	"errors"
	"fmt"

	"doc-qa-go/internal/model"
	"doc-qa-go/pkg/embedding"
	"doc-qa-go/pkg/llm"
	"doc-qa-go/pkg/log"
	"doc-qa-go/pkg/qdrant"
)

// ErrEmbedding 表示问题向量化失败；此时不会调用搜索与补全服务。
var ErrEmbedding = errors.New("failed to generate query embedding")

// VectorSearcher 是 QueryService 对向量库检索能力的最小依赖。
type VectorSearcher interface {
	Search(ctx context.Context, vector []float32, limit int) ([]qdrant.ScoredPoint, error)
}

// QueryService 接口定义了问答操作。
type QueryService interface {
	Ask(ctx context.Context, question string) (*model.QueryResponse, error)
}

type queryService struct {
	embeddingClient embedding.Client
	store           VectorSearcher
	llmClient       llm.Client
	topK            int
}

// NewQueryService 创建一个新的 QueryService 实例。
// store 为 nil 表示向量库在启动时初始化失败，所有查询都会返回
// qdrant.ErrNotConnected 而不是崩溃。
func NewQueryService(embeddingClient embedding.Client, store VectorSearcher, llmClient llm.Client, topK int) QueryService {
	return &queryService{
		embeddingClient: embeddingClient,
		store:           store,
		llmClient:       llmClient,
		topK:            topK,
	}
}

// Ask 执行完整的问答流程：向量化问题 → 相似度检索 → 生成答案。
func (s *queryService) Ask(ctx context.Context, question string) (*model.QueryResponse, error) {
	log.Infof("[QueryService] 开始处理问题, question: '%s', topK: %d", question, s.topK)

	if s.store == nil {
		return nil, qdrant.ErrNotConnected
	}

	// 1. 向量化问题
	vector, err := s.embeddingClient.CreateEmbedding(ctx, question)
	if err != nil {
		log.Errorf("[QueryService] 问题向量化失败: %v", err)
		return nil, ErrEmbedding
	}
	log.Infof("[QueryService] 步骤1: 问题向量化成功, 向量维度: %d", len(vector))

	// 2. 检索最相似的分块，结果按相似度降序
	hits, err := s.store.Search(ctx, vector, s.topK)
	if err != nil {
		log.Errorf("[QueryService] 向量检索失败: %v", err)
		return nil, fmt.Errorf("向量检索失败: %w", err)
	}
	log.Infof("[QueryService] 步骤2: 检索完成, 命中 %d 个分块", len(hits))

	sources := make([]model.SourceChunk, 0, len(hits))
	for _, hit := range hits {
		sources = append(sources, model.SourceChunk{
			Filename: hit.Payload.Filename,
			Text:     hit.Payload.Text,
		})
	}

	// 3. 生成答案；补全服务的失败已在客户端内被吸收为说明文本
	answer := s.llmClient.Generate(ctx, question, sources)
	log.Infof("[QueryService] 步骤3: 答案生成完成, 长度: %d 字符", len(answer))

	return &model.QueryResponse{
		Answer:  answer,
		Sources: sources,
	}, nil
}
