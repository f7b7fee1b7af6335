// Package genai 提供 Generative Language API 客户端
package genai

// CustomMetadata 资源上的自定义键值元数据
type CustomMetadata struct {
	Key         string `json:"key"`
	StringValue string `json:"stringValue"`
}

// Corpus 语料库资源
type Corpus struct {
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// Document 语料库内的单个文档，每个党派一个
type Document struct {
	Name           string           `json:"name,omitempty"`
	DisplayName    string           `json:"displayName,omitempty"`
	CustomMetadata []CustomMetadata `json:"customMetadata,omitempty"`
}

// ChunkData chunk 的文本载荷
type ChunkData struct {
	StringValue string `json:"stringValue"`
}

// Chunk 文档内已索引的一段党纲文本
type Chunk struct {
	Name           string           `json:"name,omitempty"`
	Data           ChunkData        `json:"data"`
	CustomMetadata []CustomMetadata `json:"customMetadata,omitempty"`
}

// Metadata 按 key 查找 chunk 元数据，不存在时返回空串
func (c *Chunk) Metadata(key string) string {
	for _, m := range c.CustomMetadata {
		if m.Key == key {
			return m.StringValue
		}
	}
	return ""
}

// RelevantChunk 一次相关度查询命中的 chunk 及其得分
type RelevantChunk struct {
	ChunkRelevanceScore float64 `json:"chunkRelevanceScore"`
	Chunk               Chunk   `json:"chunk"`
}

// MetadataFilterCondition 元数据过滤条件
type MetadataFilterCondition struct {
	StringValue string `json:"stringValue,omitempty"`
	Operation   string `json:"operation"`
}

// MetadataFilter 查询时的元数据过滤器
type MetadataFilter struct {
	Key        string                    `json:"key"`
	Conditions []MetadataFilterCondition `json:"conditions"`
}

// createCorpusRequest POST /corpora 请求体
type createCorpusRequest struct {
	DisplayName string `json:"displayName"`
	Name        string `json:"name,omitempty"`
}

// listCorporaResponse GET /corpora 响应体
type listCorporaResponse struct {
	Corpora       []Corpus `json:"corpora"`
	NextPageToken string   `json:"nextPageToken,omitempty"`
}

// createDocumentRequest POST /{corpus}/documents 请求体
type createDocumentRequest struct {
	DisplayName    string           `json:"displayName"`
	CustomMetadata []CustomMetadata `json:"customMetadata,omitempty"`
}

// listDocumentsResponse GET /{corpus}/documents 响应体
type listDocumentsResponse struct {
	Documents     []Document `json:"documents"`
	NextPageToken string     `json:"nextPageToken,omitempty"`
}

// createChunkRequest batchCreate 内的单条请求
type createChunkRequest struct {
	Parent string `json:"parent"`
	Chunk  Chunk  `json:"chunk"`
}

// batchCreateChunksRequest POST /{document}/chunks:batchCreate 请求体
type batchCreateChunksRequest struct {
	Requests []createChunkRequest `json:"requests"`
}

// queryRequest POST /{resource}:query 请求体
type queryRequest struct {
	Query           string           `json:"query"`
	ResultsCount    int              `json:"resultsCount"`
	MetadataFilters []MetadataFilter `json:"metadataFilters,omitempty"`
}

// queryResponse POST /{resource}:query 响应体
type queryResponse struct {
	RelevantChunks []RelevantChunk `json:"relevantChunks"`
}

// Part 生成内容的文本片段
type Part struct {
	Text string `json:"text"`
}

// Content 一条带角色的消息
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// generationConfig 生成参数
type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

// generateContentRequest POST /{model}:generateContent 请求体
type generateContentRequest struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

// candidate 生成候选
type candidate struct {
	Content Content `json:"content"`
}

// generateContentResponse POST /{model}:generateContent 响应体
type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

// countTokensRequest POST /{model}:countTokens 请求体
type countTokensRequest struct {
	Contents []Content `json:"contents"`
}

// countTokensResponse POST /{model}:countTokens 响应体
type countTokensResponse struct {
	TotalTokens int `json:"totalTokens"`
}

// GenerateOptions 摘要生成选项
type GenerateOptions struct {
	// Temperature 采样温度，0 附近表示确定性输出
	Temperature float64
	// MaxOutputTokens 输出 token 上限，0 表示不限制
	MaxOutputTokens int
}
