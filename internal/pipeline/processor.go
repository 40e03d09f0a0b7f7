// Package pipeline 定义了文档上传处理的核心流程。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"doc-qa-go/pkg/embedding"
	"doc-qa-go/pkg/extract"
	"doc-qa-go/pkg/log"
	"doc-qa-go/pkg/qdrant"
)

// ErrNoText 表示文本提取失败或提取结果为空。
var ErrNoText = errors.New("failed to extract text")

// ErrNoEmbeddings 表示所有分块的向量化都失败了，没有可写入的点。
var ErrNoEmbeddings = errors.New("failed to generate embeddings")

// VectorStore 是 Processor 对向量库写入能力的最小依赖。
type VectorStore interface {
	Upsert(ctx context.Context, points []qdrant.Point) error
}

// Processor 封装了上传文件处理的所有依赖：提取 → 分块 → 向量化 → 入库。
type Processor struct {
	embeddingClient embedding.Client
	store           VectorStore
	chunkSize       int
}

// NewProcessor 创建一个新的 Processor 实例。
// store 为 nil 表示向量库在启动时初始化失败，上传处理会直接
// 返回 qdrant.ErrNotConnected。
func NewProcessor(embeddingClient embedding.Client, store VectorStore, chunkSize int) *Processor {
	return &Processor{
		embeddingClient: embeddingClient,
		store:           store,
		chunkSize:       chunkSize,
	}
}

// Process 是文档处理的主函数，返回成功写入向量库的分块数。
// 提取失败返回 ErrNoText；全部向量化失败返回 ErrNoEmbeddings；
// 部分失败时只上传成功的分块，不做回滚。
func (p *Processor) Process(ctx context.Context, fileName string, data []byte) (int, error) {
	log.Infof("[Processor] 开始处理文件, FileName: %s, Size: %d 字节", fileName, len(data))

	if p.store == nil {
		return 0, qdrant.ErrNotConnected
	}

	// 1. 提取文本
	text, err := extract.Text(data, fileName)
	if err != nil {
		log.Warnf("[Processor] 步骤1: 文本提取失败, FileName: %s, Error: %v", fileName, err)
		return 0, ErrNoText
	}
	log.Infof("[Processor] 步骤1: 文本提取成功, 内容长度: %d 字符", len(text))

	// 2. 文本分块
	chunks := SplitWords(text, p.chunkSize)
	log.Infof("[Processor] 步骤2: 文本分块完成, chunkSize: %d, 共 %d 个分块", p.chunkSize, len(chunks))
	if len(chunks) == 0 {
		return 0, ErrNoText
	}

	// 3. 逐块向量化并构建向量点；单块失败时跳过该块并继续
	points := make([]qdrant.Point, 0, len(chunks))
	for i, chunk := range chunks {
		vector, err := p.embeddingClient.CreateEmbedding(ctx, chunk)
		if err != nil {
			log.Errorf("[Processor] 分块 %d/%d 向量化失败, 跳过该分块, Error: %v", i+1, len(chunks), err)
			continue
		}
		points = append(points, qdrant.Point{
			ID:     uuid.New().String(),
			Vector: vector,
			Payload: qdrant.Payload{
				Filename: fileName,
				Text:     chunk,
			},
		})
	}
	if len(points) == 0 {
		log.Errorf("[Processor] 所有分块向量化均失败, FileName: %s", fileName)
		return 0, ErrNoEmbeddings
	}

	// 4. 一次批量写入向量库
	if err := p.store.Upsert(ctx, points); err != nil {
		log.Errorf("[Processor] 批量写入向量库失败, FileName: %s, Error: %v", fileName, err)
		return 0, fmt.Errorf("写入向量库失败: %w", err)
	}

	log.Infof("[Processor] 文件处理成功完成, FileName: %s, 写入 %d 个分块", fileName, len(points))
	return len(points), nil
}

// SplitWords 按空白符把文本切分为单词，再按 chunkSize 个单词一组
// 重新用单个空格拼接成分块，最后一块可以不足 chunkSize 个单词。
// 分块之间无重叠，也不感知句子边界；空输入返回空序列。
func SplitWords(text string, chunkSize int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = 500
	}

	chunks := make([]string, 0, (len(words)+chunkSize-1)/chunkSize)
	for start := 0; start < len(words); start += chunkSize {
		end := start + chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}
