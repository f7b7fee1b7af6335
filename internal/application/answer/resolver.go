package answer

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"

	"lokalomat/internal/infrastructure/genai"
)

var (
	// ErrUnknownParty 表示党派标签在语料库中没有对应文档。
	ErrUnknownParty = errors.New("party has no document in corpus")
)

// NormalizeLabel 将党派标签归一化：去除首尾空白并转为 Unicode NFC。
// 大小写与重音保持原样，只容忍组合形式的差异。
func NormalizeLabel(label string) string {
	return norm.NFC.String(strings.TrimSpace(label))
}

// Resolver 将用户输入的党派标签解析为语料库中该党派的文档
type Resolver struct {
	client     CorpusClient
	corpusName string
}

// NewResolver 创建解析器
func NewResolver(client CorpusClient, corpusName string) *Resolver {
	return &Resolver{
		client:     client,
		corpusName: corpusName,
	}
}

// Resolve 按归一化后的显示名查找党派文档，未命中返回 ErrUnknownParty。
// 语料库规模很小（个位数到几十个文档），每次重新列出是可接受的。
func (r *Resolver) Resolve(ctx context.Context, label string) (*genai.Document, error) {
	docs, err := r.client.ListDocuments(ctx, r.corpusName)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*genai.Document, len(docs))
	for i := range docs {
		byName[NormalizeLabel(docs[i].DisplayName)] = &docs[i]
	}

	doc, ok := byName[NormalizeLabel(label)]
	if !ok {
		return nil, ErrUnknownParty
	}
	return doc, nil
}

// KnownLabels 返回语料库中全部文档显示名的归一化集合
func (r *Resolver) KnownLabels(ctx context.Context) (map[string]bool, error) {
	docs, err := r.client.ListDocuments(ctx, r.corpusName)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(docs))
	for _, d := range docs {
		known[NormalizeLabel(d.DisplayName)] = true
	}
	return known, nil
}
