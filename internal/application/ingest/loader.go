// Package ingest 实现党纲语料的离线导入
package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/time/rate"

	"lokalomat/internal/config"
	"lokalomat/internal/infrastructure/genai"
	apperrors "lokalomat/pkg/errors"
	"lokalomat/pkg/logger"
	"lokalomat/pkg/metrics"
)

const (
	// maxLineBytes 单行记录的大小上限
	maxLineBytes = 1 << 20
)

// Record 行记录文件中的一条党纲段落
type Record struct {
	Party   string `json:"party"`
	Section string `json:"section"`
	Text    string `json:"text"`
}

// CorpusAdmin 定义导入流程对语料库管理接口的依赖（port）
type CorpusAdmin interface {
	ListCorpora(ctx context.Context) ([]genai.Corpus, error)
	CreateCorpus(ctx context.Context, displayName, corpusID string) (*genai.Corpus, error)
	ListDocuments(ctx context.Context, corpusName string) ([]genai.Document, error)
	CreateDocument(ctx context.Context, corpusName, displayName string, metadata []genai.CustomMetadata) (*genai.Document, error)
	BatchCreateChunks(ctx context.Context, documentName string, chunks []genai.Chunk) error
	CountTokens(ctx context.Context, model, text string) (int, error)
}

// Loader 语料导入器：归一化记录、按党派建档、分批上传
type Loader struct {
	client CorpusAdmin
	cfg    config.IngestConfig

	// tokenModel countTokens 诊断用的模型，空则跳过 token 统计
	tokenModel string
	limiter    *rate.Limiter
}

// NewLoader 创建导入器
func NewLoader(client CorpusAdmin, cfg config.IngestConfig, tokenModel string) *Loader {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	cfg.BatchSize = batchSize

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Loader{
		client:     client,
		cfg:        cfg,
		tokenModel: tokenModel,
		limiter:    limiter,
	}
}

// nfc 将字符串归一化为 Unicode NFC
func nfc(s string) string {
	return norm.NFC.String(s)
}

// LoadCorpus 从行记录文件构建语料库，返回语料库资源名。
// 批次被拒时先诊断再携原始错误返回，由上游修正后重试。
func (l *Loader) LoadCorpus(ctx context.Context, path string) (string, error) {
	corpusName, err := l.ensureCorpus(ctx)
	if err != nil {
		return "", err
	}
	ctx = logger.WithContext(ctx, logger.CorpusKey, corpusName)
	logger.Info(ctx, "using corpus", "corpus", corpusName)

	docByParty := make(map[string]string)
	pending := make(map[string][]genai.Chunk)
	partyByDoc := make(map[string]string)
	var docOrder []string

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open record file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return "", fmt.Errorf("invalid record on line %d: %w", lineNo, err)
		}

		// 文本与元数据统一 NFC，内容除归一化外不作改动
		party := nfc(rec.Party)
		section := nfc(rec.Section)
		text := nfc(rec.Text)

		docName, ok := docByParty[party]
		if !ok {
			docName, err = l.ensureDocument(ctx, corpusName, party)
			if err != nil {
				return "", err
			}
			docByParty[party] = docName
			partyByDoc[docName] = party
			docOrder = append(docOrder, docName)
		}

		// 一条记录对应一个 chunk
		pending[docName] = append(pending[docName], genai.Chunk{
			Data: genai.ChunkData{StringValue: text},
			CustomMetadata: []genai.CustomMetadata{
				{Key: "party", StringValue: party},
				{Key: "section", StringValue: section},
				{Key: "city", StringValue: l.cfg.City},
				{Key: "year", StringValue: l.cfg.Year},
			},
		})
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read record file: %w", err)
	}

	for _, docName := range docOrder {
		items := pending[docName]
		party := partyByDoc[docName]
		logger.Info(ctx, "uploading chunks", "document", docName, "party", party, "count", len(items))
		if err := l.uploadChunks(ctx, docName, party, items); err != nil {
			return "", err
		}
	}

	logger.Info(ctx, "corpus is ready", "documents", len(docOrder))
	return corpusName, nil
}

// ensureCorpus 创建语料库；409 冲突时到列表中回查，
// 冲突却查不到匹配项属于致命的不一致。
func (l *Loader) ensureCorpus(ctx context.Context) (string, error) {
	created, err := l.client.CreateCorpus(ctx, l.cfg.CorpusDisplayName, l.cfg.CorpusID)
	if err == nil {
		return created.Name, nil
	}
	if !errors.Is(err, genai.ErrConflict) {
		return "", fmt.Errorf("failed to create corpus: %w", err)
	}

	corpora, listErr := l.client.ListCorpora(ctx)
	if listErr != nil {
		return "", fmt.Errorf("failed to list corpora after conflict: %w", listErr)
	}
	for _, c := range corpora {
		if l.cfg.CorpusID != "" && c.Name == "corpora/"+l.cfg.CorpusID {
			return c.Name, nil
		}
		if c.DisplayName == l.cfg.CorpusDisplayName {
			return c.Name, nil
		}
	}
	return "", apperrors.Wrap(err, apperrors.CodeCorpusConflict, "corpus exists but not found via list")
}

// ensureDocument 按显示名查找党派文档，不存在则创建（幂等）
func (l *Loader) ensureDocument(ctx context.Context, corpusName, party string) (string, error) {
	docs, err := l.client.ListDocuments(ctx, corpusName)
	if err != nil {
		return "", fmt.Errorf("failed to list documents: %w", err)
	}
	for _, d := range docs {
		if d.DisplayName == party {
			return d.Name, nil
		}
	}

	doc, err := l.client.CreateDocument(ctx, corpusName, party, []genai.CustomMetadata{
		{Key: "party", StringValue: party},
		{Key: "city", StringValue: l.cfg.City},
		{Key: "year", StringValue: l.cfg.Year},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create document for %s: %w", party, err)
	}
	return doc.Name, nil
}

// uploadChunks 按固定批量上传；批次被拒时记录批次范围与响应体，
// 逐条重提定位问题项，然后携原始错误返回。
func (l *Loader) uploadChunks(ctx context.Context, documentName, party string, chunks []genai.Chunk) error {
	for i := 0; i < len(chunks); i += l.cfg.BatchSize {
		end := i + l.cfg.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[i:end]

		if err := l.wait(ctx); err != nil {
			return err
		}
		err := l.client.BatchCreateChunks(ctx, documentName, batch)
		if err == nil {
			metrics.IngestChunksTotal.WithLabelValues(party, "accepted").Add(float64(len(batch)))
			continue
		}

		metrics.IngestBatchRejections.Inc()
		logger.Warn(ctx, "chunk batch rejected",
			"document", documentName,
			"range_start", i,
			"range_end", end-1,
			"error", err.Error(),
		)

		results := l.DiagnoseBatch(ctx, documentName, i, batch)
		for _, r := range results {
			if r.Accepted {
				metrics.IngestChunksTotal.WithLabelValues(party, "accepted").Inc()
				logger.Info(ctx, "item accepted", "item", r.Index, "chars", r.Chars, "tokens", r.Tokens)
			} else {
				metrics.IngestChunksTotal.WithLabelValues(party, "rejected").Inc()
				logger.Warn(ctx, "item rejected",
					"item", r.Index,
					"reason", r.Reason,
					"chars", r.Chars,
					"tokens", r.Tokens,
					"head", r.Head,
					"tail", r.Tail,
				)
			}
		}

		// 诊断只用于定位问题项，修正发生在上游，原始错误原样上抛
		return apperrors.Wrap(err, apperrors.CodeIngestRejected, "chunk batch rejected").
			WithDetail(fmt.Sprintf("document %s, items %d-%d", documentName, i, end-1))
	}
	return nil
}

// wait 遵守上传限速
func (l *Loader) wait(ctx context.Context) error {
	if l.limiter == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}
