package answer

import (
	"context"
	"strings"

	"lokalomat/internal/infrastructure/genai"
)

// Retriever 对单个党派文档执行相关度查询
type Retriever struct {
	client CorpusClient
}

// NewRetriever 创建检索器
func NewRetriever(client CorpusClient) *Retriever {
	return &Retriever{client: client}
}

// Query 请求 topK 条候选段落，服务端可能返回更少。
// 命中按服务端给出的顺序透传，不做本地过滤或重排。
func (r *Retriever) Query(ctx context.Context, documentName, question string, topK int) ([]genai.RelevantChunk, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return nil, nil
	}
	if topK <= 0 {
		topK = 5
	}
	return r.client.QueryDocument(ctx, documentName, q, topK)
}
