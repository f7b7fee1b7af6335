// Package config 提供配置加载和管理功能
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config 应用配置根结构
type Config struct {
	App           AppConfig           `yaml:"app" mapstructure:"app"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	GenAI         GenAIConfig         `yaml:"genai" mapstructure:"genai"`
	Answer        AnswerConfig        `yaml:"answer" mapstructure:"answer"`
	Ingest        IngestConfig        `yaml:"ingest" mapstructure:"ingest"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
	Security      SecurityConfig      `yaml:"security" mapstructure:"security"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Version string `yaml:"version" mapstructure:"version"`
	Env     string `yaml:"env" mapstructure:"env"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTP HTTPServerConfig `yaml:"http" mapstructure:"http"`
}

// HTTPServerConfig HTTP 服务器配置
type HTTPServerConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// GenAIConfig Generative Language API 客户端配置
type GenAIConfig struct {
	// BaseURL API 根地址（v1beta）
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// APIKey 通过 x-goog-api-key 头传递的密钥
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// GenModel 摘要生成模型，形如 models/gemini-1.5-flash
	GenModel string `yaml:"gen_model" mapstructure:"gen_model"`
	// CorpusName 检索用语料库资源名，形如 corpora/lokalomat
	CorpusName string `yaml:"corpus_name" mapstructure:"corpus_name"`
	// Timeout 单次上游调用超时
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// AnswerConfig 问答流水线配置
type AnswerConfig struct {
	// Parties 可选的党派标签全集，请求未指定时默认全部选中
	Parties []string `yaml:"parties" mapstructure:"parties"`
	// KRetrieve 每个党派请求的候选段落数
	KRetrieve int `yaml:"k_retrieve" mapstructure:"k_retrieve"`
	// MaxQuotes 每个党派最多保留的引用数
	MaxQuotes int `yaml:"max_quotes" mapstructure:"max_quotes"`
	// MinScore 引用相关度下限，0 表示不过滤
	MinScore float64 `yaml:"min_score" mapstructure:"min_score"`
	// SummaryWorkers 摘要并发上限
	SummaryWorkers int `yaml:"summary_workers" mapstructure:"summary_workers"`
	// SummaryTimeout 单个党派摘要调用超时
	SummaryTimeout time.Duration `yaml:"summary_timeout" mapstructure:"summary_timeout"`
	// Temperature 摘要采样温度
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	// MaxOutputTokens 摘要输出 token 上限，0 表示不限制
	MaxOutputTokens int `yaml:"max_output_tokens" mapstructure:"max_output_tokens"`
}

// IngestConfig 语料导入配置
type IngestConfig struct {
	// CorpusDisplayName 语料库显示名
	CorpusDisplayName string `yaml:"corpus_display_name" mapstructure:"corpus_display_name"`
	// CorpusID 语料库资源 ID，空则由服务端分配
	CorpusID string `yaml:"corpus_id" mapstructure:"corpus_id"`
	// City 写入 chunk 元数据的城市
	City string `yaml:"city" mapstructure:"city"`
	// Year 写入 chunk 元数据的年份
	Year string `yaml:"year" mapstructure:"year"`
	// BatchSize 单批上传的 chunk 数量
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`
	// RequestsPerSecond 上传限速，0 表示不限速
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	// DiagnoseTokens 诊断时是否调用 countTokens
	DiagnoseTokens bool `yaml:"diagnose_tokens" mapstructure:"diagnose_tokens"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	Output string `yaml:"output" mapstructure:"output"`
}

// TracingConfig 追踪配置
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Exporter   string  `yaml:"exporter" mapstructure:"exporter"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors" mapstructure:"cors"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerSecond int  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int  `yaml:"burst" mapstructure:"burst"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
}

// Validate 校验问答服务必需的配置项，缺失则启动前失败
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.GenAI.APIKey) == "" {
		missing = append(missing, "genai.api_key")
	}
	if strings.TrimSpace(c.GenAI.GenModel) == "" {
		missing = append(missing, "genai.gen_model")
	}
	if strings.TrimSpace(c.GenAI.CorpusName) == "" {
		missing = append(missing, "genai.corpus_name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateIngest 校验导入工具必需的配置项
func (c *Config) ValidateIngest() error {
	var missing []string
	if strings.TrimSpace(c.GenAI.APIKey) == "" {
		missing = append(missing, "genai.api_key")
	}
	if strings.TrimSpace(c.Ingest.CorpusDisplayName) == "" {
		missing = append(missing, "ingest.corpus_display_name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}
