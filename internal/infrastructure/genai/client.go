// Package genai 提供 Generative Language API 客户端
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lokalomat/internal/config"
	"lokalomat/pkg/metrics"
)

const (
	apiKeyHeader = "x-goog-api-key"

	// documentsPageSize 文档列表分页大小
	documentsPageSize = 20
)

var (
	// ErrNotFound 上游返回 404
	ErrNotFound = errors.New("genai: resource not found")
	// ErrConflict 上游返回 409，资源已存在
	ErrConflict = errors.New("genai: resource conflict")
)

// APIError 上游非 2xx 响应，保留响应体供诊断
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

// Error 实现 error 接口
func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 800 {
		body = body[:800]
	}
	return fmt.Sprintf("genai: %s returned status %d: %s", e.Endpoint, e.StatusCode, body)
}

// Is 支持 errors.Is 匹配 404/409 哨兵
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// Client Generative Language API 的 REST 客户端
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient 创建客户端
func NewClient(cfg *config.GenAIConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ListCorpora 列出全部语料库
func (c *Client) ListCorpora(ctx context.Context) ([]Corpus, error) {
	var resp listCorporaResponse
	if err := c.do(ctx, http.MethodGet, "/corpora", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Corpora, nil
}

// CreateCorpus 创建语料库，资源已存在时返回 ErrConflict
func (c *Client) CreateCorpus(ctx context.Context, displayName, corpusID string) (*Corpus, error) {
	req := createCorpusRequest{DisplayName: displayName}
	if corpusID != "" {
		req.Name = "corpora/" + corpusID
	}
	var resp Corpus
	if err := c.do(ctx, http.MethodPost, "/corpora", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteCorpus 删除语料库，force 为 true 时连带删除文档
func (c *Client) DeleteCorpus(ctx context.Context, corpusName string, force bool) error {
	params := url.Values{}
	if force {
		params.Set("force", "true")
	}
	return c.do(ctx, http.MethodDelete, "/"+corpusName, params, nil, nil)
}

// ListDocuments 列出语料库中的全部文档，自动翻页
func (c *Client) ListDocuments(ctx context.Context, corpusName string) ([]Document, error) {
	var out []Document
	pageToken := ""
	for {
		params := url.Values{}
		params.Set("pageSize", fmt.Sprintf("%d", documentsPageSize))
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}
		var resp listDocumentsResponse
		if err := c.do(ctx, http.MethodGet, "/"+corpusName+"/documents", params, nil, &resp); err != nil {
			return nil, err
		}
		out = append(out, resp.Documents...)
		pageToken = resp.NextPageToken
		if pageToken == "" {
			return out, nil
		}
	}
}

// CreateDocument 在语料库中创建文档
func (c *Client) CreateDocument(ctx context.Context, corpusName, displayName string, metadata []CustomMetadata) (*Document, error) {
	req := createDocumentRequest{
		DisplayName:    displayName,
		CustomMetadata: metadata,
	}
	var resp Document
	if err := c.do(ctx, http.MethodPost, "/"+corpusName+"/documents", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BatchCreateChunks 批量创建 chunk，整批失败时返回保留响应体的 APIError
func (c *Client) BatchCreateChunks(ctx context.Context, documentName string, chunks []Chunk) error {
	req := batchCreateChunksRequest{
		Requests: make([]createChunkRequest, 0, len(chunks)),
	}
	for _, ch := range chunks {
		req.Requests = append(req.Requests, createChunkRequest{
			Parent: documentName,
			Chunk:  ch,
		})
	}
	return c.do(ctx, http.MethodPost, "/"+documentName+"/chunks:batchCreate", nil, req, nil)
}

// QueryDocument 在单个党派文档内执行相关度查询
func (c *Client) QueryDocument(ctx context.Context, documentName, query string, resultsCount int) ([]RelevantChunk, error) {
	req := queryRequest{
		Query:        query,
		ResultsCount: resultsCount,
	}
	var resp queryResponse
	if err := c.do(ctx, http.MethodPost, "/"+documentName+":query", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.RelevantChunks, nil
}

// QueryCorpus 在整个语料库内执行相关度查询，可选元数据过滤
func (c *Client) QueryCorpus(ctx context.Context, corpusName, query string, resultsCount int, filters []MetadataFilter) ([]RelevantChunk, error) {
	req := queryRequest{
		Query:           query,
		ResultsCount:    resultsCount,
		MetadataFilters: filters,
	}
	var resp queryResponse
	if err := c.do(ctx, http.MethodPost, "/"+corpusName+":query", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.RelevantChunks, nil
}

// GenerateContent 调用生成模型并拼接全部候选的全部文本片段
func (c *Client) GenerateContent(ctx context.Context, model, prompt string, opts GenerateOptions) (string, error) {
	req := generateContentRequest{
		Contents: []Content{
			{Role: "user", Parts: []Part{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{
			Temperature:     opts.Temperature,
			MaxOutputTokens: opts.MaxOutputTokens,
		},
	}
	var resp generateContentResponse
	if err := c.do(ctx, http.MethodPost, "/"+model+":generateContent", nil, req, &resp); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// CountTokens 统计一段文本的 token 数，仅用于导入诊断
func (c *Client) CountTokens(ctx context.Context, model, text string) (int, error) {
	req := countTokensRequest{
		Contents: []Content{
			{Role: "user", Parts: []Part{{Text: text}}},
		},
	}
	var resp countTokensResponse
	if err := c.do(ctx, http.MethodPost, "/"+model+":countTokens", nil, req, &resp); err != nil {
		return 0, err
	}
	return resp.TotalTokens, nil
}

// do 执行一次 API 调用：编码请求体、附加 API key、检查状态码、解码响应
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body any, out any) error {
	endpoint := endpointLabel(path)

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request for %s: %w", path, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", path, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(apiKeyHeader, c.apiKey)

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	metrics.GenAICallDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GenAICallTotal.WithLabelValues(endpoint, "transport_error").Inc()
		return fmt.Errorf("genai request failed: %w", err)
	}
	defer httpResp.Body.Close()

	metrics.GenAICallTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", httpResp.StatusCode)).Inc()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		return &APIError{
			StatusCode: httpResp.StatusCode,
			Endpoint:   endpoint,
			Body:       string(raw),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// endpointLabel 将资源路径归并为低基数的指标标签
func endpointLabel(path string) string {
	if i := strings.LastIndex(path, ":"); i >= 0 {
		return path[i+1:]
	}
	if strings.HasSuffix(path, "/documents") {
		return "documents"
	}
	if path == "/corpora" {
		return "corpora"
	}
	return "resource"
}
