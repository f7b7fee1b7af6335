package answer

import (
	"context"

	"lokalomat/internal/infrastructure/genai"
)

// CorpusClient 定义应用层对语料库检索服务的最小依赖（port）。
// 由基础设施层提供具体实现（genai.Client）。
type CorpusClient interface {
	ListDocuments(ctx context.Context, corpusName string) ([]genai.Document, error)
	QueryDocument(ctx context.Context, documentName, query string, resultsCount int) ([]genai.RelevantChunk, error)
}
